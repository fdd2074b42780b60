package main

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/codec"
	"github.com/agenthands/clustercheck/internal/core/metrics"
)

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics [input]",
		Short: "Score the predicted clustering against the actual one",
		Args:  cobra.ExactArgs(1),
		RunE:  runMetrics,
	}
	cmd.Flags().Bool("nodes", false, "Include per-node counts and scores")
	return cmd
}

func runMetrics(cmd *cobra.Command, args []string) error {
	withNodes, _ := cmd.Flags().GetBool("nodes")

	pair, err := codec.LoadFile(args[0], codec.DirLister{})
	if err != nil {
		return err
	}
	report, err := metrics.Evaluate(pair.Actual, pair.Predicted)
	if err != nil {
		return err
	}
	if !withNodes {
		report.Nodes = nil
	}
	return writeJSON(cmd.OutOrStdout(), report)
}
