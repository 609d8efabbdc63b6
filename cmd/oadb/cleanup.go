package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func getCleanupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove orphaned researchers and names",
		Long: `Remove entities no paper references anymore.

Two passes run in order:
  1. Researchers with no authored papers are deleted; their names are
     unlinked first.
  2. Names with no variants, no researcher and no author rows are
     deleted.

Running researchers before names lets one invocation catch names
orphaned by the researcher pass.

With --dry-run both passes only report what they would delete.

Examples:
  oadb cleanup --dry-run
  oadb cleanup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			mode := lifecycle.Apply
			if dryRun {
				mode = lifecycle.DryRun
			}

			m := newMaintainer(op)
			if _, err := m.CleanupResearchers(ctx, mode); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			if _, err := m.CleanupNames(ctx, mode); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"report what would be deleted without deleting anything")

	return cmd
}
