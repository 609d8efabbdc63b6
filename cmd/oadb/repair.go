package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getRepairCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Repair dangling author references",
		Long: `Null embedded author references to researchers that no longer
exist.

Papers store a denormalized author list with optional researcher
references. Deleting researchers (through 'oadb cleanup' or account
removal) can leave those references dangling; this routine walks every
paper and nulls them. Only papers that actually change are written.

Example:
  oadb repair`,
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
			if _, err := m.RepairAuthorLinks(ctx, cfg); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&batchSize, "batch-size", 0,
		"papers per database page (default: 1000)")

	return cmd
}
