package iomaint

import (
	"context"
	"log/slog"

	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/oatrack/oadb/pkg/errcode"
)

// MergeNames repoints every reference from the source name to the
// target name and deletes the source. Runs in one transaction; a
// failure leaves both names intact.
func (m *maintainer) MergeNames(
	ctx context.Context,
	sourceID, targetID int64,
) error {
	if sourceID == targetID {
		return &gn.Error{
			Code: errcode.MaintNameMergeError,
			Msg:  "Cannot merge a name into itself",
		}
	}

	pool := m.operator.Pool()
	if pool == nil {
		return notConnected(errcode.MaintNameMergeError)
	}

	var exists bool
	err := pool.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM names WHERE id = $1)`, targetID).Scan(&exists)
	if err != nil {
		return &gn.Error{
			Code: errcode.MaintNameMergeError,
			Msg:  "Failed to check target name",
			Err:  err,
		}
	}
	if !exists {
		return &gn.Error{
			Code: errcode.MaintNameMergeError,
			Msg:  "Target name does not exist",
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to begin name merge transaction",
			Err:  err,
		}
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
UPDATE researchers SET name_id = $1 WHERE name_id = $2`,
		targetID, sourceID)
	batch.Queue(`
UPDATE name_variants SET name_id = $1 WHERE name_id = $2`,
		targetID, sourceID)
	batch.Queue(`
UPDATE authors SET name_id = $1 WHERE name_id = $2`,
		targetID, sourceID)
	batch.Queue(`DELETE FROM names WHERE id = $1`, sourceID)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &gn.Error{
			Code: errcode.MaintNameMergeError,
			Msg:  "Failed to merge names",
			Err:  err,
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to commit name merge transaction",
			Err:  err,
		}
	}

	slog.Info("Merged names", "source", sourceID, "target", targetID)
	gn.Info("<em>Merged name %d into %d</em>", sourceID, targetID)
	return nil
}
