package main

import (
	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/app"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [input]",
		Short: "Run the HTTP decision channel for a labeling session",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	cmd.Flags().String("resume", "", "Resume a journaled session instead of starting a new one")
	cmd.Flags().Int("port", 0, "Listen port (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	resume, _ := cmd.Flags().GetString("resume")
	a, err := app.Start(ctx, cfg, args[0], resume, logger)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	return a.Serve()
}
