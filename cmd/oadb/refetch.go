package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/internal/iofetch"
	"github.com/spf13/cobra"
)

func getRefetchCmd() *cobra.Command {
	var (
		publishersOnly bool
		containersOnly bool
	)

	cmd := &cobra.Command{
		Use:   "refetch",
		Short: "Fill in missing publisher and venue data from external services",
		Long: `Resolve missing metadata on harvested records from external
services.

Two passes are available:
  - publishers: records with a publisher name but no publisher link get
    the publisher's archiving policy fetched and stored, and the
    affected papers' availability is recomputed against it.
  - containers: records with a DOI but no venue get the container title
    fetched from Crossref.

Unknown names and DOIs are skipped and retried on the next run. By
default both passes run.

Examples:
  oadb refetch
  oadb refetch --publishers
  oadb refetch --containers`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)

			doPublishers := !containersOnly
			doContainers := !publishersOnly

			if doPublishers {
				f := iofetch.NewPolicyFetcher(cfg.Fetch)
				if _, err := m.RefetchPublishers(ctx, cfg, f); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}
			if doContainers {
				f := iofetch.NewCrossref(cfg.Fetch)
				if _, err := m.RefetchContainers(ctx, cfg, f); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&publishersOnly, "publishers", false,
		"resolve publishers only")
	cmd.Flags().BoolVar(&containersOnly, "containers", false,
		"fill in container titles only")
	cmd.MarkFlagsMutuallyExclusive("publishers", "containers")

	return cmd
}
