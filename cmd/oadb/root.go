package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/internal/ioconfig"
	"github.com/oatrack/oadb/internal/iodb"
	"github.com/oatrack/oadb/internal/ioindex"
	"github.com/oatrack/oadb/internal/iomaint"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/oatrack/oadb/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oadb",
		Short: "oadb maintains the open-access tracking database",
		Long: `oadb is a CLI tool for batch maintenance of the open-access
tracking PostgreSQL database and its search index.

The tool provides routines for:
  - create: Create database schema
  - reindex: Rebuild the search index from the database
  - availability: Recompute open-access statuses
  - cleanup: Remove orphaned researchers and names
  - dedup: Recompute fingerprints and merge duplicate papers
  - Various repair and refetch routines

Configuration precedence (highest to lowest):
  1. CLI flags (--batch-size, etc.)
  2. Environment variables (OADB_*)
  3. Config file (oadb.yaml)
  4. Built-in defaults

Environment Variables:
  Nested fields use underscores (database.host becomes OADB_DATABASE_HOST).

  Examples:
    OADB_DATABASE_HOST              PostgreSQL host
    OADB_DATABASE_PORT              PostgreSQL port
    OADB_DATABASE_USER              PostgreSQL user
    OADB_DATABASE_PASSWORD          PostgreSQL password
    OADB_DATABASE_DATABASE          Database name
    OADB_INDEX_ENDPOINT             Search engine endpoint
    OADB_LOG_LEVEL                  Log level (debug/info/warn/error)

  See 'go doc github.com/oatrack/oadb/pkg/config' for the complete list.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Auto-generate config file on first run
			if cfgFile == "" {
				exists, err := ioconfig.ConfigFileExists()
				if err != nil {
					return fmt.Errorf("failed to check config file: %w", err)
				}
				if !exists {
					generatedPath, err := ioconfig.GenerateDefaultConfig()
					if err != nil {
						gn.Warn("Could not generate config file: %s", err)
					} else {
						gn.Info(
							"Generated default config at <em>%s</em>",
							generatedPath,
						)
					}
				}
			}

			result, err := ioconfig.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = result.Config

			slog.SetDefault(logger.New(&cfg.Log))

			switch result.Source {
			case "file":
				slog.Info("Configuration loaded",
					"source", result.SourcePath)
			case "defaults+env":
				slog.Info("Using built-in defaults with environment overrides")
			case "defaults":
				slog.Info("Using built-in defaults (no config file)")
			}

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./oadb.yaml or ~/.config/oadb/oadb.yaml)")

	rootCmd.Flags().BoolP("version", "V", false, "version for oadb")

	rootCmd.AddCommand(getCreateCmd())
	rootCmd.AddCommand(getReindexCmd())
	rootCmd.AddCommand(getAvailabilityCmd())
	rootCmd.AddCommand(getCleanupCmd())
	rootCmd.AddCommand(getDedupCmd())
	rootCmd.AddCommand(getMergeNamesCmd())
	rootCmd.AddCommand(getAliasesCmd())
	rootCmd.AddCommand(getPoliciesCmd())
	rootCmd.AddCommand(getRepairCmd())
	rootCmd.AddCommand(getSanitizeCmd())
	rootCmd.AddCommand(getRefetchCmd())

	return rootCmd
}

// getConfig returns the loaded configuration (for use in subcommands)
func getConfig() *config.Config {
	return cfg
}

// connectOperator creates a database operator and connects it. The
// caller owns the returned operator and closes it when done.
func connectOperator(ctx context.Context) (db.Operator, error) {
	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &getConfig().Database); err != nil {
		gn.PrintErrorMessage(err)
		return nil, err
	}
	return op, nil
}

// newMaintainer wires a maintainer with its index client.
func newMaintainer(op db.Operator) lifecycle.Maintainer {
	client := ioindex.NewClient(getConfig().Index)
	return iomaint.NewMaintainer(op, client)
}
