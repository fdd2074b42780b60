package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenthands/clustercheck/internal/config"
	"github.com/agenthands/clustercheck/internal/logging"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clustercheck",
		Short: "Review and score image clusterings",
		Long: `clustercheck corrects a predicted clustering with yes/no answers from a
human reviewer and scores predictions against the verified result.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "config/config.toml", "Path to the TOML configuration file")

	rootCmd.AddCommand(
		newConvertCmd(),
		newMetricsCmd(),
		newReplayCmd(),
		newExportCmd(),
		newServeCmd(),
		newSessionsCmd(),
		newLabelCmd(),
	)
	return rootCmd
}

// loadConfig reads --config, then the environment, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Development)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
