package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getDedupCmd() *cobra.Command {
	var (
		findOnly  bool
		batchSize int
		jobs      int
	)

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Recompute fingerprints and merge duplicate papers",
		Long: `Recompute every paper's fingerprint and merge the papers whose
fingerprints collide.

A paper's fingerprint hashes its normalized title together with the
author surnames, so records of the same work harvested from different
sources collide. Merging folds authors, harvested records and embedded
author entries into the paper with the lowest ID and removes the rest
from the database and the search index.

With --find-collisions nothing is merged; the collision groups are
printed for manual inspection before a destructive run.

Examples:
  oadb dedup --find-collisions
  oadb dedup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			if cmd.Flags().Changed("batch-size") {
				cfg.Database.BatchSize = batchSize
			}
			if cmd.Flags().Changed("jobs") {
				cfg.JobsNumber = jobs
			}

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)

			if findOnly {
				groups, err := m.FindCollisions(ctx, cfg)
				if err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
				for _, g := range groups {
					fmt.Printf("%s\n", g.Plain)
					for _, member := range g.Members {
						fmt.Printf("  %d\t%s\t[%s]\n",
							member.PaperID,
							member.Title,
							strings.Join(member.Surnames, ", "),
						)
					}
				}
				gn.Info(
					"<em>Found %d collision groups</em>", len(groups),
				)
				return nil
			}

			if _, err := m.RecomputeFingerprints(ctx, cfg); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&findOnly, "find-collisions", false,
		"report collision groups without merging anything")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0,
		"papers per database page (default: 1000)")
	cmd.Flags().IntVar(&jobs, "jobs", 0,
		"concurrent workers for collision scanning (default: number of CPU cores)")

	return cmd
}
