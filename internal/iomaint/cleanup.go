package iomaint

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
)

// orphanResearchers matches researchers with no authored paper,
// transitively through names and authors.
const orphanResearchers = `
NOT EXISTS (
	SELECT 1
	FROM names n
	JOIN authors a ON a.name_id = n.id
	WHERE n.researcher_id = res.id
)`

// orphanNames matches names with no name-variant back-reference, no
// researcher link and no author rows. Author rows keep a name alive
// even without variants, so no paper loses its byline.
const orphanNames = `
n.researcher_id IS NULL
AND NOT EXISTS (
	SELECT 1 FROM name_variants v WHERE v.name_id = n.id
)
AND NOT EXISTS (
	SELECT 1 FROM authors a WHERE a.name_id = n.id
)`

// CleanupResearchers deletes researchers with no authored papers.
// Deleting a researcher leaves its names in place; a subsequent name
// cleanup pass catches the newly-orphaned ones.
func (m *maintainer) CleanupResearchers(
	ctx context.Context,
	mode lifecycle.Mode,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintCleanupError)
	}

	slog.Info("Removing orphan researchers", "dryRun", mode == lifecycle.DryRun)

	if mode == lifecycle.DryRun {
		var count int64
		err := pool.QueryRow(ctx, `
SELECT COUNT(*) FROM researchers res WHERE `+orphanResearchers,
		).Scan(&count)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintCleanupError,
				Msg:  "Failed to count orphan researchers",
				Err:  err,
			}
		}
		reportCleanup("researchers", count, mode)
		return count, nil
	}

	// Names owned by a deleted researcher become free names; the
	// relational layer nulls the link.
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to begin cleanup transaction",
			Err:  err,
		}
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
UPDATE names n SET researcher_id = NULL
WHERE n.researcher_id IN (
	SELECT res.id FROM researchers res WHERE `+orphanResearchers+`
)`)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintCleanupError,
			Msg:  "Failed to unlink names of orphan researchers",
			Err:  err,
		}
	}

	tag, err := tx.Exec(ctx, `
DELETE FROM researchers res WHERE `+orphanResearchers)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintCleanupError,
			Msg:  "Failed to remove orphan researchers",
			Err:  err,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to commit cleanup transaction",
			Err:  err,
		}
	}

	deleted := tag.RowsAffected()
	reportCleanup("researchers", deleted, mode)
	return deleted, nil
}

// CleanupNames deletes names with no name-variant back-references,
// unless the name is still linked to a researcher or referenced by an
// author row.
func (m *maintainer) CleanupNames(
	ctx context.Context,
	mode lifecycle.Mode,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintCleanupError)
	}

	slog.Info("Removing orphan names", "dryRun", mode == lifecycle.DryRun)

	if mode == lifecycle.DryRun {
		var count int64
		err := pool.QueryRow(ctx, `
SELECT COUNT(*) FROM names n WHERE `+orphanNames,
		).Scan(&count)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintCleanupError,
				Msg:  "Failed to count orphan names",
				Err:  err,
			}
		}
		reportCleanup("names", count, mode)
		return count, nil
	}

	tag, err := pool.Exec(ctx, `
DELETE FROM names n WHERE `+orphanNames)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintCleanupError,
			Msg:  "Failed to remove orphan names",
			Err:  err,
		}
	}

	deleted := tag.RowsAffected()
	reportCleanup("names", deleted, mode)
	return deleted, nil
}

func reportCleanup(entity string, count int64, mode lifecycle.Mode) {
	slog.Info("Orphan cleanup finished",
		"entity", entity,
		"count", count,
		"dryRun", mode == lifecycle.DryRun,
	)
	if mode == lifecycle.DryRun {
		gn.Info(
			"<em>Would delete %s orphaned %s</em>",
			humanize.Comma(count), entity,
		)
		return
	}
	if count == 0 {
		gn.Info("<em>No orphaned %s found</em>", entity)
		return
	}
	gn.Info(
		"<em>Deleted %s orphaned %s</em>",
		humanize.Comma(count), entity,
	)
}
