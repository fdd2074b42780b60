package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/clustercheck/internal/journal"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List journaled labeling sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessions,
	}
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Journal.Path == "" {
		return errors.New("journal.path is not configured")
	}

	j, err := journal.New(cfg.Journal.Path, nil)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	sessions, err := j.Sessions(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTRUST\tDECISIONS\tSOURCE")
	for _, s := range sessions {
		decisions, err := j.Decisions(ctx, s.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.CreatedAt.Format(time.RFC3339), s.Trust, len(decisions), s.Source)
	}
	return tw.Flush()
}
