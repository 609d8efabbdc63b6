// Package iodb implements database operations using pgxpool.
// This is an impure I/O package that implements contracts
// defined in pkg/.
package iodb

import (
	"context"
	"fmt"

	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/errcode"
)

// pgxOperator implements db.Operator interface using
// pgxpool for connection pooling.
type pgxOperator struct {
	pool *pgxpool.Pool
}

// NewPgxOperator creates a new database operator
// (without connecting).
func NewPgxOperator() db.Operator {
	return &pgxOperator{}
}

// Connect establishes a connection pool to PostgreSQL.
// Uses sensible hardcoded pool settings that work well for
// most use cases.
func (p *pgxOperator) Connect(
	ctx context.Context,
	cfg *config.DatabaseConfig,
) error {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return connectionError(cfg, err)
	}

	// Maintenance jobs are single sweeps; a small pool is enough.
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 0
	poolConfig.MaxConnIdleTime = 0

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return connectionError(cfg, err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return connectionError(cfg, err)
	}

	p.pool = pool
	return nil
}

// Close releases all database connections.
func (p *pgxOperator) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Pool returns the underlying pgxpool.Pool for advanced
// operations.
func (p *pgxOperator) Pool() *pgxpool.Pool {
	return p.pool
}

// TableExists checks if a table exists in the current
// database.
func (p *pgxOperator) TableExists(
	ctx context.Context,
	tableName string,
) (bool, error) {
	if p.pool == nil {
		return false, notConnectedError()
	}

	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`

	var exists bool
	err := p.pool.QueryRow(ctx, query, tableName).Scan(&exists)
	if err != nil {
		return false, &gn.Error{
			Code: errcode.DBTableCheckError,
			Msg:  fmt.Sprintf("Failed to check table '%s'", tableName),
			Err:  err,
		}
	}

	return exists, nil
}

// HasTables checks if the database has any tables in the
// public schema.
func (p *pgxOperator) HasTables(ctx context.Context) (bool, error) {
	if p.pool == nil {
		return false, notConnectedError()
	}

	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
		)
	`

	var exists bool
	err := p.pool.QueryRow(ctx, query).Scan(&exists)
	if err != nil {
		return false, &gn.Error{
			Code: errcode.DBTableCheckError,
			Msg:  "Failed to check for existing tables",
			Err:  err,
		}
	}

	return exists, nil
}

// DropAllTables drops all tables in the public schema.
func (p *pgxOperator) DropAllTables(ctx context.Context) error {
	if p.pool == nil {
		return notConnectedError()
	}

	rows, err := p.pool.Query(ctx, `
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
	`)
	if err != nil {
		return &gn.Error{
			Code: errcode.DBQueryError,
			Msg:  "Failed to list tables",
			Err:  err,
		}
	}

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return &gn.Error{
				Code: errcode.DBScanError,
				Msg:  "Failed to scan table name",
				Err:  err,
			}
		}
		tables = append(tables, name)
	}
	iterErr := rows.Err()
	rows.Close()
	if iterErr != nil {
		return &gn.Error{
			Code: errcode.DBQueryError,
			Msg:  "Failed to iterate tables",
			Err:  iterErr,
		}
	}

	for _, table := range tables {
		query := fmt.Sprintf(
			`DROP TABLE IF EXISTS %q CASCADE`, table,
		)
		if _, err := p.pool.Exec(ctx, query); err != nil {
			return &gn.Error{
				Code: errcode.DBDropTableError,
				Msg:  fmt.Sprintf("Failed to drop table '%s'", table),
				Err:  err,
			}
		}
	}

	return nil
}

func connectionError(cfg *config.DatabaseConfig, err error) error {
	return &gn.Error{
		Code: errcode.DBConnectionError,
		Msg: fmt.Sprintf(
			"Could not connect to %s@%s:%d/%s",
			cfg.User, cfg.Host, cfg.Port, cfg.Database,
		),
		Err: err,
	}
}

func notConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Database not connected",
		Err:  fmt.Errorf("pool is nil"),
	}
}
