package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/extract"
	"github.com/Sumatoshi-tech/editvec/pkg/feature"
	"github.com/Sumatoshi-tech/editvec/pkg/gitmine"
)

// mineTotals accumulates worker results.
type mineTotals struct {
	counts   map[classify.ChangeType]int
	records  int
	hunks    int
	misses   int
	shallow  int
	failures int
	mu       sync.Mutex
}

func (t *mineTotals) add(r extract.Report) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records += r.Records
	t.hunks += r.Hunks
	t.misses += r.Misses
	t.shallow += r.Shallow

	for ct, n := range r.Counts {
		t.counts[ct] += n
	}
}

func (t *mineTotals) fail() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures++
}

func mineCmd(a *app) *cobra.Command {
	var (
		flags      extractFlags
		ref        string
		workers    int
		maxCommits int
		allCommits bool
	)

	cmd := &cobra.Command{
		Use:   "mine <repository>",
		Short: "Extract change features from the bug-fix history of a git repository",
		Long: `Walk the commit history of a local git repository, select commits whose
message names a fix, and extract features for every modified source file
against the commit's first parent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.apply(a)

			if cmd.Flags().Changed("workers") {
				a.cfg.Mine.Workers = workers
			}

			if cmd.Flags().Changed("max-commits") {
				a.cfg.Mine.MaxCommits = maxCommits
			}

			if allCommits {
				a.cfg.Mine.Keywords = nil
			}

			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			return runMine(cmd, a, args[0], ref)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&ref, "ref", "", "branch, tag or commit to start from (default HEAD)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "file pairs processed in parallel")
	cmd.Flags().IntVar(&maxCommits, "max-commits", 0, "stop after this many selected commits")
	cmd.Flags().BoolVar(&allCommits, "all", false, "select every commit regardless of message")

	return cmd
}

func runMine(cmd *cobra.Command, a *app, repoPath, ref string) error {
	opts, err := a.options()
	if err != nil {
		return err
	}

	maxSize, err := a.cfg.MaxFileBytes()
	if err != nil {
		return err
	}

	cacheSize, err := a.cfg.ParseCacheBytes()
	if err != nil {
		return err
	}

	parsed := extract.NewParseCache(cacheSize)
	store := feature.NewCSVStore(a.cfg.Feature.Output)

	ex, parser, err := a.newExtractor(store, opts, extract.WithParseCache(parsed))
	if err != nil {
		return err
	}

	miner, err := gitmine.Open(repoPath, gitmine.Options{
		Ref:          ref,
		Keywords:     a.cfg.Mine.Keywords,
		Include:      a.cfg.Mine.Include,
		MaxCommits:   a.cfg.Mine.MaxCommits,
		MaxFileSize:  maxSize,
		SkipVendored: a.cfg.Mine.SkipVendored,
	}, func(path string, content []byte) bool {
		_, ok := parser.Registry().Detect(path, content)

		return ok
	})
	if err != nil {
		return err
	}

	logger := a.logger()
	totals := &mineTotals{counts: make(map[classify.ChangeType]int)}

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(a.cfg.Mine.Workers)

	stats, walkErr := miner.Walk(gctx, func(pair extract.Pair) error {
		if a.cfg.Feature.Repo != "" {
			pair.Repo = a.cfg.Feature.Repo
		}

		g.Go(func() error {
			report, runErr := ex.Run(gctx, pair)
			if runErr == nil {
				totals.add(report)

				return nil
			}

			if errors.Is(runErr, feature.ErrStoreWrite) {
				return runErr
			}

			totals.fail()
			logger.WarnContext(gctx, "file pair failed",
				"revision", pair.Revision, "path", pair.Path, "error", runErr)

			return nil
		})

		return gctx.Err()
	})

	waitErr := g.Wait()
	if waitErr != nil {
		return fmt.Errorf("mine %s: %w", repoPath, waitErr)
	}

	if walkErr != nil {
		return fmt.Errorf("mine %s: %w", repoPath, walkErr)
	}

	out := cmd.OutOrStdout()
	cacheStats := parsed.Stats()

	logger.DebugContext(cmd.Context(), "parse cache",
		"entries", cacheStats.Entries, "bytes", cacheStats.Size, "hit_rate", cacheStats.HitRate())

	tbl := newTable(out, table.Row{"Repository", miner.Name()})
	tbl.AppendRows([]table.Row{
		{"Commits walked", count(stats.Commits)},
		{"Commits selected", count(stats.Selected)},
		{"File pairs", count(stats.Pairs)},
		{"Duplicate pairs", count(stats.Duplicates)},
		{"Oversize files", count(stats.Oversize)},
		{"Binary files", count(stats.Binary)},
		{"Vendored files", count(stats.Vendored)},
		{"Parse cache hits", share(int(cacheStats.Hits), int(cacheStats.Hits+cacheStats.Misses))},
		{"Failed pairs", count(totals.failures)},
		{"Hunks", count(totals.hunks)},
		{"Unresolved positions", count(totals.misses)},
		{"Shallow nodes", count(totals.shallow)},
		{"Records", count(totals.records)},
	})
	tbl.Render()

	if totals.records > 0 {
		printCounts(out, totals.counts, opts.Labels)
	}

	return nil
}
