package iomaint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/internal/ioindex"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/oastatus"
)

// paperKey is the minimal row the availability sweeps page over.
type paperKey struct {
	ID int64
}

// UpdateAvailability walks every paper still in the UNK state,
// recomputes its availability, and reindexes the papers whose status
// resolved. Papers that stay UNK are left untouched and revisited on
// the next run.
func (m *maintainer) UpdateAvailability(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintAvailabilityError)
	}

	slog.Info("Recomputing availability of unresolved papers")

	cur := cursor.New(
		fetchUnknownPaperKeys(pool),
		func(k paperKey) int64 { return k.ID },
		cursor.WithPageSize[paperKey](cfg.Database.BatchSize),
	)

	var resolved int64
	for key, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Availability sweep aborted",
				"resumeKey", cur.LastKey(),
			)
			return resolved, err
		}

		status, err := resolveAvailability(ctx, pool, key.ID)
		if err != nil {
			return resolved, err
		}
		if status == oastatus.StatusUNK {
			continue
		}

		if err := m.setPaperStatus(ctx, pool, key.ID, status); err != nil {
			return resolved, err
		}
		resolved++

		// Single-document reindex keeps the index eventually
		// consistent without a full rebuild.
		if err := m.reindexPaper(ctx, pool, key.ID); err != nil {
			return resolved, err
		}
	}

	slog.Info("Availability recomputation complete", "resolved", resolved)
	gn.Info(
		"<em>Resolved availability of %s papers</em>",
		humanize.Comma(resolved),
	)
	return resolved, nil
}

// UpdateAllStatuses recomputes availability for every paper, not just
// the unresolved ones. A repair routine for when harvesting failed to
// keep statuses current; it does not touch the index, a full reindex
// follows it when needed.
func (m *maintainer) UpdateAllStatuses(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintAvailabilityError)
	}

	slog.Info("Recomputing availability of all papers")

	cur := cursor.New(
		fetchAllPaperKeys(pool),
		func(k paperKey) int64 { return k.ID },
		cursor.WithPageSize[paperKey](cfg.Database.BatchSize),
	)

	var changed int64
	for key, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Status sweep aborted",
				"resumeKey", cur.LastKey(),
			)
			return changed, err
		}

		status, err := resolveAvailability(ctx, pool, key.ID)
		if err != nil {
			return changed, err
		}

		tag, err := pool.Exec(ctx, `
UPDATE papers SET oa_status = $2
WHERE id = $1 AND oa_status <> $2`,
			key.ID, status,
		)
		if err != nil {
			return changed, &gn.Error{
				Code: errcode.MaintAvailabilityError,
				Msg:  "Failed to update paper status",
				Err:  err,
			}
		}
		changed += tag.RowsAffected()
	}

	slog.Info("Status recomputation complete", "changed", changed)
	gn.Info(
		"<em>Updated status of %s papers</em>",
		humanize.Comma(changed),
	)
	return changed, nil
}

// resolveAvailability recomputes a paper's open-access status from its
// harvested records: a full text in a repository source makes it OA,
// otherwise the best classification among its resolved publishers
// applies.
func resolveAvailability(
	ctx context.Context,
	pool *pgxpool.Pool,
	paperID int64,
) (oastatus.Status, error) {
	q := `
SELECT
	EXISTS (
		SELECT 1
		FROM oai_records r
		JOIN oai_sources s ON s.id = r.source_id
		WHERE r.about_id = $1
			AND r.pdf_url IS NOT NULL
			AND s.repository
	),
	COALESCE((
		SELECT pub.oa_status
		FROM oai_records r
		JOIN publishers pub ON pub.id = r.publisher_id
		WHERE r.about_id = $1 AND pub.oa_status <> 'UNK'
		ORDER BY CASE pub.oa_status
			WHEN 'OA' THEN 0
			WHEN 'OK' THEN 1
			ELSE 2
		END
		LIMIT 1
	), 'UNK')
`
	var repoCopy bool
	var pubStatus oastatus.Status
	err := pool.QueryRow(ctx, q, paperID).Scan(&repoCopy, &pubStatus)
	if err != nil {
		return oastatus.StatusUNK, &gn.Error{
			Code: errcode.MaintAvailabilityError,
			Msg:  "Failed to resolve paper availability",
			Err:  err,
		}
	}

	if pubStatus == oastatus.StatusOA || repoCopy {
		return oastatus.StatusOA, nil
	}
	return pubStatus, nil
}

func (m *maintainer) setPaperStatus(
	ctx context.Context,
	pool *pgxpool.Pool,
	paperID int64,
	status oastatus.Status,
) error {
	_, err := pool.Exec(ctx,
		"UPDATE papers SET oa_status = $2 WHERE id = $1",
		paperID, status,
	)
	if err != nil {
		return &gn.Error{
			Code: errcode.MaintAvailabilityError,
			Msg:  "Failed to update paper status",
			Err:  err,
		}
	}
	return nil
}

// reindexPaper writes one paper's document immediately, outside the
// bulk path. A maintainer without an index client skips indexing.
func (m *maintainer) reindexPaper(
	ctx context.Context,
	pool *pgxpool.Pool,
	paperID int64,
) error {
	if m.index == nil {
		return nil
	}
	row, err := ioindex.FetchPaperRow(ctx, pool, paperID)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	res, err := ioindex.PreparePaper(*row)
	if err != nil {
		return err
	}
	doc, ok := res.Doc()
	if !ok {
		return nil
	}
	return m.index.Index(ctx, doc)
}

func fetchUnknownPaperKeys(pool *pgxpool.Pool) cursor.FetchPage[paperKey] {
	return fetchPaperKeys(pool, "WHERE id > $1 AND oa_status = 'UNK'")
}

func fetchAllPaperKeys(pool *pgxpool.Pool) cursor.FetchPage[paperKey] {
	return fetchPaperKeys(pool, "WHERE id > $1")
}

func fetchPaperKeys(
	pool *pgxpool.Pool,
	where string,
) cursor.FetchPage[paperKey] {
	q := fmt.Sprintf(
		"SELECT id FROM papers %s ORDER BY id LIMIT $2", where,
	)
	return func(
		ctx context.Context,
		afterKey int64,
		limit int,
	) ([]paperKey, error) {
		rows, err := pool.Query(ctx, q, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.DBQueryError,
				Msg:  "Failed to fetch paper page",
				Err:  err,
			}
		}
		defer rows.Close()

		var page []paperKey
		for rows.Next() {
			var k paperKey
			if err := rows.Scan(&k.ID); err != nil {
				return nil, &gn.Error{
					Code: errcode.DBScanError,
					Msg:  "Failed to scan paper id",
					Err:  err,
				}
			}
			page = append(page, k)
		}
		if err := rows.Err(); err != nil {
			return nil, &gn.Error{
				Code: errcode.DBQueryError,
				Msg:  "Failed to iterate paper page",
				Err:  err,
			}
		}
		return page, nil
	}
}

func notConnected(code gn.ErrorCode) error {
	return &gn.Error{
		Code: code,
		Msg:  "Database not connected",
		Err:  fmt.Errorf("pool is nil"),
	}
}
