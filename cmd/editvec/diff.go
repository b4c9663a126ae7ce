package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/extract"
	"github.com/Sumatoshi-tech/editvec/pkg/feature"
)

func diffCmd(a *app) *cobra.Command {
	var (
		flags    extractFlags
		revision string
		path     string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Extract change features from two versions of a file",
		Long: `Compare two versions of one source file and append a feature row for every
changed syntax node. The language is detected from the after file's extension
unless --path is given.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // before and after
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(a)

			if revision != "" {
				a.cfg.Feature.Revision = revision
			}

			if path == "" {
				path = args[1]
			}

			return runDiff(cmd, a, args[0], args[1], path, dryRun)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&revision, "rev", "", "revision id written in every record")
	cmd.Flags().StringVar(&path, "path", "", "path used for language detection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print rows to stdout instead of appending")

	return cmd
}

func runDiff(cmd *cobra.Command, a *app, beforePath, afterPath, path string, dryRun bool) error {
	before, err := os.ReadFile(beforePath)
	if err != nil {
		return fmt.Errorf("read before: %w", err)
	}

	after, err := os.ReadFile(afterPath)
	if err != nil {
		return fmt.Errorf("read after: %w", err)
	}

	opts, err := a.options()
	if err != nil {
		return err
	}

	var (
		store feature.Store
		mem   *feature.MemoryStore
		dest  string
	)

	if dryRun {
		mem = &feature.MemoryStore{}
		store = mem
	} else {
		dest = a.cfg.Feature.Output
		store = feature.NewCSVStore(dest)
	}

	ex, _, err := a.newExtractor(store, opts)
	if err != nil {
		return err
	}

	report, err := ex.Run(cmd.Context(), extract.Pair{
		Repo:     a.cfg.Feature.Repo,
		Revision: a.cfg.Feature.Revision,
		Path:     path,
		Before:   before,
		After:    after,
	})
	if err != nil {
		return fmt.Errorf("diff %s: %w", path, err)
	}

	if mem != nil {
		writer := csv.NewWriter(cmd.OutOrStdout())
		for _, rec := range mem.Records() {
			if writeErr := writer.Write(rec.Row()); writeErr != nil {
				return fmt.Errorf("write row: %w", writeErr)
			}
		}

		writer.Flush()

		return writer.Error()
	}

	printReport(cmd.OutOrStdout(), report, opts.Labels, dest)

	return nil
}
