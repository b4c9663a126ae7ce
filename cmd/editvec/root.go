package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/config"
	"github.com/Sumatoshi-tech/editvec/pkg/observability"
	"github.com/Sumatoshi-tech/editvec/pkg/version"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	cfgFile   string
	verbose   bool
	noColor   bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "editvec",
		Short: "Extract structural change features from source edits",
		Long: `editvec maps line-level diffs onto syntax trees, classifies every changed
node as added, deleted, updated or replaced, and writes one feature row per
node with its parent and grandparent kinds.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(diffCmd(a))
	rootCmd.AddCommand(mineCmd(a))
	rootCmd.AddCommand(statsCmd(a))
	rootCmd.AddCommand(vectorsCmd(a))
	rootCmd.AddCommand(languagesCmd(a))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}

	a.cfg = cfg

	obs := observability.DefaultConfig()
	obs.ServiceVersion = version.Version
	obs.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obs.LogJSON = cfg.Logging.Format == config.LogFormatJSON
	obs.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obs.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obs.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)

	if cmd.Name() == "mine" {
		obs.Mode = observability.ModeBatch
	}

	if a.verbose {
		obs.LogLevel = slog.LevelDebug
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	providers, err := observability.Init(ctx, obs, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	a.providers = providers

	setColor(a.noColor)

	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.providers.Shutdown == nil {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return a.providers.Shutdown(ctx)
}

func (a *app) logger() *slog.Logger {
	if a.providers.Logger == nil {
		return slog.Default()
	}

	return a.providers.Logger
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "editvec %s\n", version.String())
		},
	}
}
