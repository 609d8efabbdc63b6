package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getAvailabilityCmd() *cobra.Command {
	var (
		all       bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Recompute open-access statuses of papers",
		Long: `Recompute the open-access status of papers from their harvested
records and publisher policies.

By default only unresolved papers are visited; papers whose status
resolves are updated in the database and reindexed one by one. Papers
that stay unresolved are left for the next run.

With --all every paper is recomputed regardless of current status. This
is a repair mode for when harvesting failed to keep statuses current;
it does not touch the search index, run 'oadb reindex' afterwards.

Examples:
  oadb availability
  oadb availability --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			if cmd.Flags().Changed("batch-size") {
				cfg.Database.BatchSize = batchSize
			}

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)
			if all {
				_, err = m.UpdateAllStatuses(ctx, cfg)
			} else {
				_, err = m.UpdateAvailability(ctx, cfg)
			}
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false,
		"recompute every paper, not just unresolved ones")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0,
		"papers per database page (default: 1000)")

	return cmd
}
