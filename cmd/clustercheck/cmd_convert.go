package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/codec"
	"github.com/agenthands/clustercheck/internal/core/model"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Convert a label file or paired record to another format",
		Long: `Reads a label file (.txt), paired JSON or paired YAML and writes it as paired
JSON, paired YAML, or a single-side clusters record.`,
		Args: cobra.ExactArgs(1),
		RunE: runConvert,
	}
	cmd.Flags().StringP("format", "f", "json", "Output format (json, yaml, clusters)")
	cmd.Flags().StringP("out", "o", "", "Output file (default stdout)")
	cmd.Flags().String("side", string(model.SideActual), "Side written by the clusters format (actual, predicted)")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	side, _ := cmd.Flags().GetString("side")

	pair, err := codec.LoadFile(args[0], codec.DirLister{})
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if format == "clusters" {
		switch model.Side(side) {
		case model.SideActual:
			return codec.WriteClusters(w, pair.Actual)
		case model.SidePredicted:
			return codec.WriteClusters(w, pair.Predicted)
		default:
			return fmt.Errorf("unknown side %q", side)
		}
	}

	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	return exporter.Export(pair, w)
}
