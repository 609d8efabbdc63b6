package iomaint

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/sanitize"
)

// textRow is one keyed text field to be re-sanitized.
type textRow struct {
	ID   int64
	Text string
}

func (r textRow) key() int64 { return r.ID }

// SanitizeTitles strips residual HTML markup from paper titles.
// Harvesters sanitize on ingest; this catches records that predate the
// current sanitizer. Only changed rows are written.
func (m *maintainer) SanitizeTitles(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	return m.sanitizeColumn(ctx, cfg, sanitizeTarget{
		label: "titles",
		fetch: `
SELECT id, title FROM papers
WHERE id > $1 ORDER BY id LIMIT $2`,
		update: `UPDATE papers SET title = $2 WHERE id = $1`,
		count:  `SELECT COUNT(*) FROM papers`,
	})
}

// SanitizeAbstracts strips residual HTML markup from harvested
// abstracts. Only changed rows are written.
func (m *maintainer) SanitizeAbstracts(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	return m.sanitizeColumn(ctx, cfg, sanitizeTarget{
		label: "abstracts",
		fetch: `
SELECT id, COALESCE(description, '') FROM oai_records
WHERE id > $1 ORDER BY id LIMIT $2`,
		update: `UPDATE oai_records SET description = $2 WHERE id = $1`,
		count:  `SELECT COUNT(*) FROM oai_records`,
	})
}

type sanitizeTarget struct {
	label  string
	fetch  string
	update string
	count  string
}

func (m *maintainer) sanitizeColumn(
	ctx context.Context,
	cfg *config.Config,
	target sanitizeTarget,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintSanitizeError)
	}

	var total int64
	err := pool.QueryRow(ctx, target.count).Scan(&total)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintSanitizeError,
			Msg:  "Failed to count rows for sanitizing",
			Err:  err,
		}
	}
	slog.Info("Sanitizing "+target.label, "rows", total)

	cur := cursor.New(
		fetchTextRows(pool, target.fetch),
		textRow.key,
		cursor.WithPageSize[textRow](cfg.Database.BatchSize),
	)

	bar := newProgressBar(total, "Sanitize")
	defer bar.Finish()

	var updated int64
	for page, err := range cur.Pages(ctx) {
		if err != nil {
			slog.Error(
				"Sanitize sweep aborted",
				"resumeKey", cur.LastKey(),
			)
			return updated, err
		}

		batch := &pgx.Batch{}
		for _, row := range page {
			bar.Increment()
			clean := sanitize.HTML(row.Text)
			if clean == row.Text {
				continue
			}
			batch.Queue(target.update, row.ID, clean)
			updated++
		}
		if batch.Len() == 0 {
			continue
		}

		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return updated, &gn.Error{
				Code: errcode.MaintSanitizeError,
				Msg:  "Failed to update sanitized " + target.label,
				Err:  err,
			}
		}
	}
	bar.Finish()

	slog.Info("Sanitizing complete",
		"target", target.label, "updated", updated)
	gn.Info(
		"<em>Sanitized %s %s</em>",
		humanize.Comma(updated), target.label,
	)
	return updated, nil
}

func fetchTextRows(
	pool *pgxpool.Pool,
	query string,
) cursor.FetchPage[textRow] {
	return func(
		ctx context.Context, afterKey int64, limit int,
	) ([]textRow, error) {
		rows, err := pool.Query(ctx, query, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintSanitizeError,
				Msg:  "Failed to fetch rows page",
				Err:  err,
			}
		}
		return pgx.CollectRows(rows,
			func(row pgx.CollectableRow) (textRow, error) {
				var r textRow
				err := row.Scan(&r.ID, &r.Text)
				return r, err
			})
	}
}
