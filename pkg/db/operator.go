package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
)

// Operator defines the interface for basic database management
// operations. It provides connection lifecycle management and exposes
// the pgxpool.Pool for maintenance components (Maintainer, Indexer,
// SchemaManager) to execute their specialized SQL operations internally.
//
// Design rationale:
// - Keeps interface minimal to avoid bloat with mixed semantics
// - Pool() enables components to use performance-critical features
//   (CopyFrom for bulk inserts, pgx.Batch for chunked updates)
// - Schema creation and migration are handled by GORM AutoMigrate via
//   SchemaManager
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool for maintenance
	// components to execute specialized SQL operations. Components use
	// this for transactions, bulk updates and custom queries.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any tables in the public
	// schema. Used to determine if schema creation should prompt for
	// confirmation.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all tables in the public schema.
	// Used during schema initialization when overwriting existing data.
	DropAllTables(ctx context.Context) error
}
