package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getAliasesCmd() *cobra.Command {
	var keepExisting bool

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Rebuild the publisher alias table",
		Long: `Rebuild the alias-publisher frequency table from harvested
records.

The table counts how often each publisher name string resolved to each
publisher, and drives publisher guessing for records whose name is
ambiguous. By default the table is erased and rebuilt in one
transaction. With --keep-existing current pairs are updated in place
and stale pairs are left alone.

Examples:
  oadb aliases
  oadb aliases --keep-existing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)
			_, err = m.RebuildPublisherAliases(ctx, !keepExisting)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepExisting, "keep-existing", false,
		"upsert alias counts instead of erasing the table first")

	return cmd
}
