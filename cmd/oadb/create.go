package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/oatrack/oadb/internal/ioschema"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/spf13/cobra"
)

func getCreateCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create database schema",
		Long: `Create the open-access tracking database schema from scratch.

This command:
  1. Connects to PostgreSQL using configuration settings
  2. Checks for existing tables and prompts for confirmation if found
  3. Creates all base tables

The search index mapping is created separately by 'oadb reindex',
which ensures the index exists before writing.

Use --force to skip confirmation and drop existing tables automatically.

Examples:
  oadb create
  oadb create --force
  oadb create --config custom.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			hasTables, err := op.HasTables(ctx)
			if err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			if hasTables {
				if !force {
					ok, err := confirmDrop()
					if err != nil {
						gn.PrintErrorMessage(err)
						return err
					}
					if !ok {
						gn.Info("<em>Aborted. No changes made to the database.</em>")
						return nil
					}
				}
				if err := op.DropAllTables(ctx); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}

			var sm lifecycle.SchemaManager = ioschema.NewManager(op)
			if err := sm.Create(ctx, cfg); err != nil {
				gn.PrintErrorMessage(err)
				return err
			}

			gn.Info("<em>Database schema created.</em>")
			gn.Info("Run <em>oadb reindex</em> after populating the database.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"drop existing tables before creating schema (destructive)")

	return cmd
}

func confirmDrop() (bool, error) {
	fmt.Println("\nWarning: database contains existing tables.")
	fmt.Println("Creating the schema will drop ALL existing tables and data.")
	fmt.Print("\nDo you want to continue? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}
