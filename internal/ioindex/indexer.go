package ioindex

import (
	"context"
	"log/slog"

	"github.com/gnames/gn"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
)

// indexer implements the lifecycle.Indexer interface.
type indexer struct {
	operator db.Operator
	client   *Client
}

// NewIndexer creates a new Indexer that reads papers from the store
// behind op and writes documents through client.
func NewIndexer(op db.Operator, client *Client) lifecycle.Indexer {
	return &indexer{
		operator: op,
		client:   client,
	}
}

// CreateIndex creates the paper index with its mapping.
func (ix *indexer) CreateIndex(
	ctx context.Context,
	_ *config.Config,
) error {
	return ix.client.CreateIndex(ctx)
}

// Reindex pushes every paper with primary key greater than startKey
// into the index. One cursor page becomes one bulk request; every
// batches-per-commit requests the index is refreshed, and a final
// refresh closes the run. On failure the last fetched key is logged so
// the operator can resume with it as the new start key.
func (ix *indexer) Reindex(
	ctx context.Context,
	cfg *config.Config,
	startKey int64,
) (int64, error) {
	pool := ix.operator.Pool()
	if pool == nil {
		return 0, &gn.Error{
			Code: errcode.DBNotConnectedError,
			Msg:  "Database not connected",
		}
	}

	maxKey, err := maxPaperKey(ctx, pool)
	if err != nil {
		return 0, err
	}
	if maxKey == 0 {
		slog.Info("No papers to index")
		return 0, nil
	}

	runID := uuid.NewString()[:8]
	slog.Info(
		"Starting bulk reindex",
		"run", runID,
		"startKey", startKey,
		"lastKey", maxKey,
		"batchSize", cfg.Index.BatchSize,
		"batchesPerCommit", cfg.Index.BatchesPerCommit,
	)

	cur := cursor.New(
		fetchPaperPage(pool),
		PaperRow.Key,
		cursor.WithPageSize[PaperRow](cfg.Index.BatchSize),
		cursor.WithStartKey[PaperRow](startKey),
	)

	w := &bulkWriter{
		client:           ix.client,
		prepare:          PreparePaper,
		batchesPerCommit: cfg.Index.BatchesPerCommit,
		maxKey:           maxKey,
		runID:            runID,
		resumeKey:        startKey,
	}

	indexed, skipped, err := w.run(ctx, cur)
	if err != nil {
		slog.Error(
			"Bulk reindex aborted",
			"run", runID,
			"indexed", indexed,
			"resumeKey", w.resumeKey,
		)
		return indexed, err
	}

	// Committed batches stay visible even if this final refresh fails.
	if err := ix.client.Refresh(ctx); err != nil {
		return indexed, err
	}

	slog.Info(
		"Bulk reindex complete",
		"run", runID,
		"indexed", indexed,
		"skipped", skipped,
	)
	return indexed, nil
}

// maxPaperKey returns the highest paper id, or 0 for an empty table.
func maxPaperKey(
	ctx context.Context,
	pool *pgxpool.Pool,
) (int64, error) {
	var maxKey int64
	err := pool.QueryRow(
		ctx, "SELECT COALESCE(MAX(id), 0) FROM papers",
	).Scan(&maxKey)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.DBQueryError,
			Msg:  "Failed to find last paper id",
			Err:  err,
		}
	}
	return maxKey, nil
}

// FetchPaperRow loads one paper for single-document reindexing, as
// done by the availability sweep. Returns nil when the paper does not
// exist.
func FetchPaperRow(
	ctx context.Context,
	pool *pgxpool.Pool,
	id int64,
) (*PaperRow, error) {
	page, err := fetchPaperPage(pool)(ctx, id-1, 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 || page[0].ID != id {
		return nil, nil
	}
	return &page[0], nil
}

// fetchPaperPage returns a cursor page fetcher over the papers table,
// joined with the first harvested record for abstract and full-text
// URL.
func fetchPaperPage(pool *pgxpool.Pool) cursor.FetchPage[PaperRow] {
	q := `
SELECT
	p.id, p.title, p.year, p.fingerprint, p.oa_status,
	p.authors, p.visible,
	COALESCE(r.description, '') AS abstract,
	COALESCE(r.pdf_url, '') AS pdf_url
FROM papers p
LEFT JOIN LATERAL (
	SELECT description, pdf_url
	FROM oai_records
	WHERE about_id = p.id
	ORDER BY id
	LIMIT 1
) r ON TRUE
WHERE p.id > $1
ORDER BY p.id
LIMIT $2
`
	return func(
		ctx context.Context,
		afterKey int64,
		limit int,
	) ([]PaperRow, error) {
		rows, err := pool.Query(ctx, q, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.DBQueryError,
				Msg:  "Failed to fetch paper page",
				Err:  err,
			}
		}
		defer rows.Close()

		var page []PaperRow
		for rows.Next() {
			var row PaperRow
			err = rows.Scan(
				&row.ID, &row.Title, &row.Year, &row.Fingerprint,
				&row.OaStatus, &row.Authors, &row.Visible,
				&row.Abstract, &row.PdfURL,
			)
			if err != nil {
				return nil, &gn.Error{
					Code: errcode.DBScanError,
					Msg:  "Failed to scan paper row",
					Err:  err,
				}
			}
			page = append(page, row)
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
