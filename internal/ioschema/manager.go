// Package ioschema implements SchemaManager interface for
// database schema management. This is an impure I/O package
// that wraps GORM AutoMigrate functionality.
package ioschema

import (
	"context"

	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/oatrack/oadb/pkg/schema"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// manager implements the lifecycle.SchemaManager interface
// using GORM AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) lifecycle.SchemaManager {
	return &manager{operator: op}
}

// Create creates the initial database schema using GORM AutoMigrate.
func (m *manager) Create(
	ctx context.Context,
	cfg *config.Config,
) error {
	return m.migrate(ctx, errcode.SchemaCreateError)
}

// Migrate updates the database schema to the latest version
// using GORM AutoMigrate.
func (m *manager) Migrate(
	ctx context.Context,
	cfg *config.Config,
) error {
	return m.migrate(ctx, errcode.SchemaMigrateError)
}

func (m *manager) migrate(
	_ context.Context,
	code gn.ErrorCode,
) error {
	pool := m.operator.Pool()
	if pool == nil {
		return &gn.Error{
			Code: errcode.DBNotConnectedError,
			Msg:  "Database not connected",
		}
	}

	sqlDB := stdlib.OpenDBFromPool(pool)

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		return &gn.Error{
			Code: errcode.SchemaGORMConnectionError,
			Msg:  "Failed to open GORM connection",
			Err:  err,
		}
	}

	if err := schema.Migrate(gormDB); err != nil {
		return &gn.Error{
			Code: code,
			Msg:  "Failed to migrate schema",
			Err:  err,
		}
	}

	return nil
}
