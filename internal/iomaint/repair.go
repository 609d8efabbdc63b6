package iomaint

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/schema"
)

// authorsRow is one paper's embedded author list.
type authorsRow struct {
	ID      int64
	Authors []byte
}

func (r authorsRow) key() int64 { return r.ID }

// RepairAuthorLinks nulls embedded author references to researchers
// that no longer exist. The researcher ID set is snapshotted once at
// the start; researchers created during the sweep are not needed to
// validate links that predate them.
func (m *maintainer) RepairAuthorLinks(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintRepairError)
	}

	valid, err := researcherIDSet(ctx, pool)
	if err != nil {
		return 0, err
	}
	slog.Info("Repairing author links", "researchers", len(valid))

	cur := cursor.New(
		fetchAuthorsRows(pool),
		authorsRow.key,
		cursor.WithPageSize[authorsRow](cfg.Database.BatchSize),
	)

	var repaired int64
	for page, err := range cur.Pages(ctx) {
		if err != nil {
			slog.Error(
				"Author link repair aborted",
				"resumeKey", cur.LastKey(),
			)
			return repaired, err
		}

		batch := &pgx.Batch{}
		for _, row := range page {
			payload, changed, err := repairedAuthors(row.Authors, valid)
			if err != nil {
				return repaired, err
			}
			if !changed {
				continue
			}
			batch.Queue(`
UPDATE papers SET authors = $2 WHERE id = $1`, row.ID, payload)
			repaired++
		}
		if batch.Len() == 0 {
			continue
		}

		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return repaired, &gn.Error{
				Code: errcode.MaintRepairError,
				Msg:  "Failed to update repaired author lists",
				Err:  err,
			}
		}
	}

	slog.Info("Author link repair complete", "papers", repaired)
	gn.Info(
		"<em>Repaired author links on %s papers</em>",
		humanize.Comma(repaired),
	)
	return repaired, nil
}

// repairedAuthors nulls dangling researcher references in the encoded
// author list. Returns the re-encoded list and whether anything
// changed; an unchanged list is never re-encoded.
func repairedAuthors(
	encoded []byte,
	valid map[int64]struct{},
) ([]byte, bool, error) {
	if len(encoded) == 0 {
		return nil, false, nil
	}
	var list schema.AuthorList
	if err := json.Unmarshal(encoded, &list); err != nil {
		return nil, false, &gn.Error{
			Code: errcode.MaintRepairError,
			Msg:  "Failed to decode author list",
			Err:  err,
		}
	}

	var changed bool
	for i, a := range list {
		if a.ResearcherID == nil {
			continue
		}
		if _, ok := valid[*a.ResearcherID]; ok {
			continue
		}
		list[i].ResearcherID = nil
		changed = true
	}
	if !changed {
		return nil, false, nil
	}

	payload, err := list.JSON()
	if err != nil {
		return nil, false, &gn.Error{
			Code: errcode.MaintRepairError,
			Msg:  "Failed to encode repaired author list",
			Err:  err,
		}
	}
	return payload, true, nil
}

func researcherIDSet(
	ctx context.Context,
	pool *pgxpool.Pool,
) (map[int64]struct{}, error) {
	rows, err := pool.Query(ctx, `SELECT id FROM researchers`)
	if err != nil {
		return nil, &gn.Error{
			Code: errcode.MaintRepairError,
			Msg:  "Failed to load researcher IDs",
			Err:  err,
		}
	}
	defer rows.Close()

	res := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintRepairError,
				Msg:  "Failed to scan researcher ID",
				Err:  err,
			}
		}
		res[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &gn.Error{
			Code: errcode.MaintRepairError,
			Msg:  "Failed to read researcher IDs",
			Err:  err,
		}
	}
	return res, nil
}

func fetchAuthorsRows(pool *pgxpool.Pool) cursor.FetchPage[authorsRow] {
	return func(
		ctx context.Context, afterKey int64, limit int,
	) ([]authorsRow, error) {
		rows, err := pool.Query(ctx, `
SELECT id, authors
FROM papers
WHERE id > $1
ORDER BY id
LIMIT $2`, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintRepairError,
				Msg:  "Failed to fetch papers page",
				Err:  err,
			}
		}
		return pgx.CollectRows(rows,
			func(row pgx.CollectableRow) (authorsRow, error) {
				var r authorsRow
				err := row.Scan(&r.ID, &r.Authors)
				return r, err
			})
	}
}
