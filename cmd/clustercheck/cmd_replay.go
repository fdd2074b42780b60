package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/app"
	"github.com/agenthands/clustercheck/internal/core"
	"github.com/agenthands/clustercheck/internal/core/model"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: "Rebuild a journaled session and report where it stands",
		Long: `Replays every journaled decision of a session over its input clustering and
prints the session status and scores. With --save the confirmed identities are
folded into the actual graph and a timestamped snapshot is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
	cmd.Flags().StringP("input", "i", "", "Input clustering the session was started from")
	cmd.Flags().Bool("save", false, "Resolve and write a snapshot to the snapshot dir")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type replayReport struct {
	Status    core.Status      `json:"status"`
	Aggregate model.Score      `json:"aggregate"`
	Snapshot  string           `json:"snapshot,omitempty"`
	Decisions []model.Decision `json:"decisions"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	input, _ := cmd.Flags().GetString("input")
	save, _ := cmd.Flags().GetBool("save")
	// Export is not needed to replay.
	cfg.Memgraph.URI = ""

	ctx := cmd.Context()
	a, err := app.Resume(ctx, cfg, input, args[0], logger)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	report := replayReport{Status: a.Session.Status(), Decisions: a.Session.Decisions()}
	if save {
		if err := a.Session.Resolve(); err != nil {
			return err
		}
		if report.Snapshot, err = a.Session.Save(cfg.Session.SnapshotDir, time.Now()); err != nil {
			return err
		}
	}
	scores, err := a.Session.Scores()
	if err != nil {
		return err
	}
	report.Aggregate = scores.Aggregate
	return writeJSON(cmd.OutOrStdout(), report)
}
