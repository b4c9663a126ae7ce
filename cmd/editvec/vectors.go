package main

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editvec/pkg/feature"
	"github.com/Sumatoshi-tech/editvec/pkg/persist"
)

func vectorsCmd(_ *app) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "vectors <features.csv>",
		Short: "Build per-revision count vectors from a feature file",
		Long: `Count feature rows per (repository, revision) over every distinct
(change, parent kind, grandparent kind) key. The result is the input of
commit clustering.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := persist.CodecFor(format)
			if err != nil {
				return err
			}

			records, err := readFeatureFile(args[0])
			if err != nil {
				return err
			}

			set := feature.BuildVectors(records)

			if out == "" || out == "-" {
				return codec.Encode(cmd.OutOrStdout(), set)
			}

			return persist.SaveFile(out, codec, set)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", persist.FormatJSON, "output format: json or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")

	return cmd
}
