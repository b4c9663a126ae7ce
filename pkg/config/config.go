// Package config loads editvec settings from a YAML file, EDITVEC_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/extract"
	"github.com/Sumatoshi-tech/editvec/pkg/resolve"
	"github.com/Sumatoshi-tech/editvec/pkg/treediff"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("mine workers must be positive")
	ErrInvalidContext     = errors.New("context lines must not be negative")
	ErrInvalidMaxCommits  = errors.New("max commits must not be negative")
	ErrInvalidFileSize    = errors.New("invalid max file size")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
	ErrInvalidCacheSize   = errors.New("invalid parse cache size")
	ErrEmptyOutput        = errors.New("feature output path is empty")
	ErrInvalidIncludeGlob = errors.New("include glob is empty")
)

// Defaults.
const (
	DefaultOutput       = "features.csv"
	DefaultLabels       = "legacy"
	DefaultMode         = "flat"
	DefaultLeafPolicy   = "replace-subtree"
	DefaultMissPolicy   = "abort"
	DefaultShallow      = "abort"
	DefaultContextLines = 0
	DefaultWorkers      = 4
	DefaultMaxFileSize  = "1MB"
	DefaultParseCache   = "32MB"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = LogFormatText

	// FileName is looked up in the working directory when no path is given.
	FileName  = ".editvec.yaml"
	envPrefix = "EDITVEC"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultKeywords select bug-fix commits by message.
var DefaultKeywords = []string{ //nolint:gochecknoglobals // default list
	"fix", "defect", "error", "bug", "issue", "mistake", "incorrect", "flaw",
}

// Config is the full editvec configuration.
type Config struct {
	Feature   FeatureConfig   `mapstructure:"feature"`
	Diff      DiffConfig      `mapstructure:"diff"`
	Resolve   ResolveConfig   `mapstructure:"resolve"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Mine      MineConfig      `mapstructure:"mine"`
}

// FeatureConfig controls where and how records are written.
type FeatureConfig struct {
	Output   string `mapstructure:"output"`
	Labels   string `mapstructure:"labels"`
	Repo     string `mapstructure:"repo"`
	Revision string `mapstructure:"revision"`
}

// DiffConfig controls change classification.
type DiffConfig struct {
	Mode         string   `mapstructure:"mode"`
	LeafPolicy   string   `mapstructure:"leaf_policy"`
	LiteralKinds []string `mapstructure:"literal_kinds"`
	// ShallowPolicy handles novel nodes without a grandparent in flat mode.
	ShallowPolicy string `mapstructure:"shallow_policy"`
	ContextLines  int    `mapstructure:"context_lines"`
}

// ResolveConfig controls position resolution.
type ResolveConfig struct {
	MissPolicy string `mapstructure:"miss_policy"`
}

// MineConfig controls repository mining.
type MineConfig struct {
	MaxFileSize string `mapstructure:"max_file_size"`
	// ParseCache bounds the source bytes whose parse trees are kept
	// between pairs. "0" disables the cache.
	ParseCache string   `mapstructure:"parse_cache"`
	Keywords   []string `mapstructure:"keywords"`
	Include    []string `mapstructure:"include"`
	Workers    int      `mapstructure:"workers"`
	MaxCommits int      `mapstructure:"max_commits"`
	// SkipVendored drops vendored and third-party paths.
	SkipVendored bool `mapstructure:"skip_vendored"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string `mapstructure:"otlp_headers"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// LoadConfig reads configPath, or FileName in the working directory when
// configPath is empty. A missing default file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	readErr := v.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config file: %w", readErr)
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feature.output", DefaultOutput)
	v.SetDefault("feature.labels", DefaultLabels)
	v.SetDefault("feature.repo", "")
	v.SetDefault("feature.revision", "")

	v.SetDefault("diff.mode", DefaultMode)
	v.SetDefault("diff.leaf_policy", DefaultLeafPolicy)
	v.SetDefault("diff.shallow_policy", DefaultShallow)
	v.SetDefault("diff.context_lines", DefaultContextLines)
	v.SetDefault("diff.literal_kinds", []string{})

	v.SetDefault("resolve.miss_policy", DefaultMissPolicy)

	v.SetDefault("mine.workers", DefaultWorkers)
	v.SetDefault("mine.keywords", DefaultKeywords)
	v.SetDefault("mine.include", []string{"**/*"})
	v.SetDefault("mine.max_commits", 0)
	v.SetDefault("mine.max_file_size", DefaultMaxFileSize)
	v.SetDefault("mine.parse_cache", DefaultParseCache)
	v.SetDefault("mine.skip_vendored", true)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.otlp_headers", "")
	v.SetDefault("telemetry.otlp_insecure", false)
}

// Validate checks every field, including the enumerated names.
func (c *Config) Validate() error {
	if c.Feature.Output == "" {
		return ErrEmptyOutput
	}

	if c.Diff.ContextLines < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidContext, c.Diff.ContextLines)
	}

	if c.Mine.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Mine.Workers)
	}

	if c.Mine.MaxCommits < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxCommits, c.Mine.MaxCommits)
	}

	if _, err := c.MaxFileBytes(); err != nil {
		return err
	}

	if _, err := c.ParseCacheBytes(); err != nil {
		return err
	}

	for _, glob := range c.Mine.Include {
		if strings.TrimSpace(glob) == "" {
			return ErrInvalidIncludeGlob
		}
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, err := c.ExtractOptions()

	return err
}

// MaxFileBytes parses mine.max_file_size ("512KB", "1MB", "2 MiB").
func (c *Config) MaxFileBytes() (uint64, error) {
	size, err := humanize.ParseBytes(c.Mine.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFileSize, c.Mine.MaxFileSize)
	}

	return size, nil
}

// ParseCacheBytes parses mine.parse_cache.
func (c *Config) ParseCacheBytes() (int64, error) {
	size, err := humanize.ParseBytes(c.Mine.ParseCache)
	if err != nil || size > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCacheSize, c.Mine.ParseCache)
	}

	return int64(size), nil
}

// ExtractOptions converts the diff, resolve and feature sections.
func (c *Config) ExtractOptions() (extract.Options, error) {
	mode, err := extract.ParseMode(c.Diff.Mode)
	if err != nil {
		return extract.Options{}, err
	}

	leaf, err := treediff.ParseLeafPolicy(c.Diff.LeafPolicy)
	if err != nil {
		return extract.Options{}, err
	}

	miss, err := resolve.ParseMissPolicy(c.Resolve.MissPolicy)
	if err != nil {
		return extract.Options{}, err
	}

	shallow, err := extract.ParseShallowPolicy(c.Diff.ShallowPolicy)
	if err != nil {
		return extract.Options{}, err
	}

	labels, err := classify.ParseLabels(c.Feature.Labels)
	if err != nil {
		return extract.Options{}, err
	}

	return extract.Options{
		Mode:         mode,
		Leaf:         leaf,
		Miss:         miss,
		Shallow:      shallow,
		Labels:       labels,
		ContextLines: c.Diff.ContextLines,
	}, nil
}
