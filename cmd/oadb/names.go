package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getMergeNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-names <source-id> <target-id>",
		Short: "Merge one name into another",
		Long: `Merge one name record into another.

Every researcher, name variant and author row referencing the source
name is repointed to the target, then the source is deleted. The merge
is atomic; a failure leaves both names untouched.

Used to consolidate spelling variants of the same person that were
harvested as distinct names.

Example:
  oadb merge-names 1542 87`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sourceID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source ID %q: %w", args[0], err)
			}
			targetID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid target ID %q: %w", args[1], err)
			}

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)
			if err := m.MergeNames(ctx, sourceID, targetID); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	return cmd
}
