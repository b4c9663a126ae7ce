package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/feature"
)

const defaultTop = 10

func statsCmd(_ *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats <features.csv>",
		Short: "Summarize a feature file by change category and parent kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readFeatureFile(args[0])
			if err != nil {
				return err
			}

			renderStats(cmd.OutOrStdout(), feature.Summarize(records), top)

			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", defaultTop, "parent kinds to list (0 lists all)")

	return cmd
}

func readFeatureFile(path string) ([]feature.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()

	records, err := feature.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return records, nil
}

func renderStats(w io.Writer, stats feature.Stats, top int) {
	color.New(color.FgCyan).Fprintf(w, "%s records, %s revisions, %s repositories\n",
		count(stats.Records), count(stats.Revisions), count(stats.Repositories))

	if stats.Records == 0 {
		return
	}

	byChange := newTable(w, table.Row{"Change", "Records", "Share"})
	for _, t := range stats.ByChange {
		byChange.AppendRow(table.Row{t.Label, count(t.Count), share(t.Count, stats.Records)})
	}

	byChange.Render()

	parents := stats.ByParent
	if top > 0 && len(parents) > top {
		parents = parents[:top]
	}

	byParent := newTable(w, table.Row{"Parent kind", "Records", "Share"})
	for _, t := range parents {
		byParent.AppendRow(table.Row{t.Label, count(t.Count), share(t.Count, stats.Records)})
	}

	byParent.AppendFooter(table.Row{fmt.Sprintf("%d of %d kinds", len(parents), len(stats.ByParent)), "", ""})
	byParent.Render()
}
