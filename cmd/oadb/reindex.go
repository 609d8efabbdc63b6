package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/internal/ioindex"
	"github.com/spf13/cobra"
)

func getReindexCmd() *cobra.Command {
	var (
		startKey         int64
		batchSize        int
		batchesPerCommit int
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the database",
		Long: `Rebuild the search index by streaming every paper from the
database through the bulk API.

The index and its mapping are created first if they do not exist.
Visible papers with a title are indexed; the rest are skipped and
counted. The routine walks papers in primary-key order; when it fails
mid-run the log reports a resume key, and a rerun with --start-key
continues from there instead of starting over.

Examples:
  # Full rebuild
  oadb reindex

  # Resume an interrupted rebuild
  oadb reindex --start-key 1048576

  # Smaller batches for memory-constrained search nodes
  oadb reindex --batch-size 128 --batches-per-commit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			if cmd.Flags().Changed("batch-size") {
				cfg.Index.BatchSize = batchSize
			}
			if cmd.Flags().Changed("batches-per-commit") {
				cfg.Index.BatchesPerCommit = batchesPerCommit
			}

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			client := ioindex.NewClient(cfg.Index)
			indexer := ioindex.NewIndexer(op, client)

			if err := indexer.CreateIndex(ctx, cfg); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			if _, err := indexer.Reindex(ctx, cfg, startKey); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&startKey, "start-key", 0,
		"resume indexing after this paper ID (default: start from the beginning)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0,
		"documents per bulk request (default: 256)")
	cmd.Flags().IntVar(&batchesPerCommit, "batches-per-commit", 0,
		"bulk batches between index refreshes (default: 10)")

	return cmd
}
