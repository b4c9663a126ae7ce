package main

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/editvec/pkg/classify"
	"github.com/Sumatoshi-tech/editvec/pkg/extract"
)

func setColor(disabled bool) {
	if disabled {
		color.NoColor = true //nolint:reassign // library global
	}
}

func newTable(w io.Writer, header table.Row) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(header)

	return tbl
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func share(n, total int) string {
	if total == 0 {
		return "-"
	}

	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total)) //nolint:mnd // percent
}

// printCounts renders per-category record counts in category order.
func printCounts(w io.Writer, counts map[classify.ChangeType]int, labels classify.Labels) {
	total := 0
	for _, n := range counts {
		total += n
	}

	tbl := newTable(w, table.Row{"Change", "Records", "Share"})

	for _, ct := range slices.Sorted(maps.Keys(counts)) {
		tbl.AppendRow(table.Row{labels.Name(ct), count(counts[ct]), share(counts[ct], total)})
	}

	tbl.AppendFooter(table.Row{"Total", count(total), ""})
	tbl.Render()
}

func printReport(w io.Writer, report extract.Report, labels classify.Labels, dest string) {
	color.New(color.FgGreen).Fprintf(w, "%s: %s records from %s hunks", report.Path, count(report.Records), count(report.Hunks))

	if dest != "" {
		color.New(color.FgGreen).Fprintf(w, " -> %s", dest)
	}

	fmt.Fprintln(w)

	if report.Misses > 0 {
		color.New(color.FgYellow).Fprintf(w, "  skipped %s unresolved positions\n", count(report.Misses))
	}

	if report.Shallow > 0 {
		color.New(color.FgYellow).Fprintf(w, "  skipped %s nodes without grandparent\n", count(report.Shallow))
	}

	if report.Records > 0 {
		printCounts(w, report.Counts, labels)
	}
}
