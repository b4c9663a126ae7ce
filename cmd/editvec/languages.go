package main

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/parse"
)

func languagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and their literal kinds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			var extra []string
			if a.cfg != nil {
				extra = a.cfg.Diff.LiteralKinds
			}

			tbl := newTable(cmd.OutOrStdout(), table.Row{"Language", "Extensions", "Extra literal kinds"})

			for _, lang := range parse.NewRegistry().Languages() {
				kinds := append(append([]string{}, lang.StringKinds...), extra...)
				tbl.AppendRow(table.Row{lang.Name, strings.Join(lang.Extensions, " "), strings.Join(kinds, " ")})
			}

			tbl.Render()
		},
	}
}
