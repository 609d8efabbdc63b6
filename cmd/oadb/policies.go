package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/internal/iomaint"
	"github.com/spf13/cobra"
)

func getPoliciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Reclassify publishers from their archiving policies",
		Long: `Reclassify every publisher from its stored self-archiving
policy.

Publishers whose classification changed are updated, and the papers
behind their harvested records are reset to the unresolved state so the
next 'oadb availability' run recomputes them against the new policy.

Run this after the policy classification rules change.

Example:
  oadb policies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)
			h := iomaint.NewStatusWriter(op)
			if _, err := m.RecomputePublisherPolicies(ctx, h); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	return cmd
}
