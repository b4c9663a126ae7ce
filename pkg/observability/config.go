package observability

import "log/slog"

// defaultShutdownTimeoutSec bounds telemetry flushing at exit.
const defaultShutdownTimeoutSec = 5

// AppMode names how the process runs.
type AppMode string

// Application modes.
const (
	ModeCLI   AppMode = "cli"
	ModeBatch AppMode = "batch"
)

// Config configures logging and telemetry.
type Config struct {
	OTLPHeaders        map[string]string
	ServiceName        string
	ServiceVersion     string
	Environment        string
	Mode               AppMode
	OTLPEndpoint       string
	SampleRatio        float64
	ShutdownTimeoutSec int
	LogLevel           slog.Level
	LogJSON            bool
	OTLPInsecure       bool
}

// DefaultConfig returns a CLI configuration with telemetry export disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:        "editvec",
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(name))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}
