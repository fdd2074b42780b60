package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/app"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [input]",
		Short: "Publish both partitions to Memgraph",
		Long: `Writes the actual and predicted partitions of input to the configured Memgraph
instance as (:Image)-[:MEMBER_OF]->(:Cluster). With --session the journaled
decisions of that session are replayed and resolved first.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}
	cmd.Flags().String("session", "", "Replay and resolve this journaled session before exporting")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Memgraph.URI == "" {
		return errors.New("memgraph.uri is not configured")
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	sessionID, _ := cmd.Flags().GetString("session")
	var a *app.App
	if sessionID != "" {
		a, err = app.Resume(ctx, cfg, args[0], sessionID, logger)
	} else {
		// A plain export is not a labeling session worth journaling.
		cfg.Journal.Path = ""
		a, err = app.Open(ctx, cfg, args[0], logger)
	}
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := a.Session.Resolve(); err != nil {
		return err
	}
	if err := a.Session.Publish(ctx, a.Publisher); err != nil {
		return err
	}
	logger.Info("export finished", zap.String("session_id", a.Session.ID))
	fmt.Fprintln(cmd.OutOrStdout(), a.Session.ID)
	return nil
}
