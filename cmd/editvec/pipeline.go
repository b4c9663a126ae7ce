package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/extract"
	"github.com/Sumatoshi-tech/editvec/pkg/feature"
	"github.com/Sumatoshi-tech/editvec/pkg/observability"
	"github.com/Sumatoshi-tech/editvec/pkg/parse"
)

// extractFlags are the per-run overrides shared by diff and mine.
type extractFlags struct {
	out    string
	repo   string
	mode   string
	labels string
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "feature CSV to append to (default from config)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository id written in every record")
	cmd.Flags().StringVar(&f.mode, "mode", "", "classification mode: flat or aligned")
	cmd.Flags().StringVar(&f.labels, "labels", "", "label spelling: legacy or canonical")
}

// apply copies set flags over the loaded configuration.
func (f *extractFlags) apply(a *app) {
	if f.out != "" {
		a.cfg.Feature.Output = f.out
	}

	if f.repo != "" {
		a.cfg.Feature.Repo = f.repo
	}

	if f.mode != "" {
		a.cfg.Diff.Mode = f.mode
	}

	if f.labels != "" {
		a.cfg.Feature.Labels = f.labels
	}
}

func (a *app) options() (extract.Options, error) {
	opts, err := a.cfg.ExtractOptions()
	if err != nil {
		return extract.Options{}, fmt.Errorf("options: %w", err)
	}

	return opts, nil
}

func (a *app) newExtractor(
	store feature.Store, opts extract.Options, more ...extract.Option,
) (*extract.Extractor, *parse.Parser, error) {
	parser := parse.NewParser(nil, a.cfg.Diff.LiteralKinds...)

	extraOpts := []extract.Option{extract.WithLogger(a.logger())}

	if a.providers.Meter != nil {
		metrics, err := observability.NewFeatureMetrics(a.providers.Meter)
		if err != nil {
			return nil, nil, fmt.Errorf("metrics: %w", err)
		}

		extraOpts = append(extraOpts, extract.WithMetrics(metrics))
	}

	if a.providers.Tracer != nil {
		extraOpts = append(extraOpts, extract.WithTracer(a.providers.Tracer))
	}

	return extract.New(parser, store, opts, append(extraOpts, more...)...), parser, nil
}
