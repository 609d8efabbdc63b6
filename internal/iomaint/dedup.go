package iomaint

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/fingerprint"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/oatrack/oadb/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// fingerprintRow carries the fields needed to recompute one paper's
// fingerprint.
type fingerprintRow struct {
	ID          int64
	Title       string
	Fingerprint string
	Authors     []byte
}

func (r fingerprintRow) key() int64 { return r.ID }

func (r fingerprintRow) surnames() ([]string, error) {
	var list schema.AuthorList
	if len(r.Authors) > 0 {
		if err := json.Unmarshal(r.Authors, &list); err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintDedupError,
				Msg:  "Failed to decode author list",
				Err:  err,
			}
		}
	}
	return list.Surnames(), nil
}

// RecomputeFingerprints recomputes every paper's fingerprint and merges
// papers whose fingerprints collide. Merges pull authors, harvested
// records and embedded author entries into the surviving paper. The
// survivor of a collision group is always the paper with the lowest
// primary key, so a rerun after a crash converges on the same state.
func (m *maintainer) RecomputeFingerprints(
	ctx context.Context,
	cfg *config.Config,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintDedupError)
	}

	total, err := countPapers(ctx, pool)
	if err != nil {
		return 0, err
	}
	slog.Info("Recomputing fingerprints", "papers", total)

	cur := cursor.New(
		fetchFingerprintRows(pool),
		fingerprintRow.key,
		cursor.WithPageSize[fingerprintRow](cfg.Database.BatchSize),
	)

	bar := newProgressBar(total, "Fingerprints")
	defer bar.Finish()

	var merges int64
	for row, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Fingerprint sweep aborted",
				"resumeKey", cur.LastKey(),
			)
			return merges, err
		}
		bar.Increment()

		surnames, err := row.surnames()
		if err != nil {
			return merges, err
		}
		fp := fingerprint.Compute(row.Title, surnames)

		if fp != row.Fingerprint {
			_, err = pool.Exec(ctx, `
UPDATE papers SET fingerprint = $2 WHERE id = $1`, row.ID, fp)
			if err != nil {
				return merges, &gn.Error{
					Code: errcode.MaintDedupError,
					Msg:  "Failed to update fingerprint",
					Err:  err,
				}
			}
		}

		n, err := m.mergeCollisions(ctx, pool, fp)
		if err != nil {
			return merges, err
		}
		merges += n
	}
	bar.Finish()

	slog.Info("Fingerprint recomputation complete", "merges", merges)
	gn.Info("<em>Merged %s duplicate papers</em>", humanize.Comma(merges))
	return merges, nil
}

// mergeCollisions merges all papers sharing the fingerprint into the
// one with the lowest ID. Returns the number of absorbed papers.
func (m *maintainer) mergeCollisions(
	ctx context.Context,
	pool *pgxpool.Pool,
	fp string,
) (int64, error) {
	rows, err := pool.Query(ctx, `
SELECT id, authors FROM papers WHERE fingerprint = $1 ORDER BY id`, fp)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintDedupError,
			Msg:  "Failed to query collision group",
			Err:  err,
		}
	}
	group, err := pgx.CollectRows(rows,
		func(row pgx.CollectableRow) (fingerprintRow, error) {
			var r fingerprintRow
			err := row.Scan(&r.ID, &r.Authors)
			return r, err
		})
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintDedupError,
			Msg:  "Failed to read collision group",
			Err:  err,
		}
	}
	if len(group) < 2 {
		return 0, nil
	}

	survivor := group[0]
	var authors schema.AuthorList
	if len(survivor.Authors) > 0 {
		if err := json.Unmarshal(survivor.Authors, &authors); err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintDedupError,
				Msg:  "Failed to decode author list",
				Err:  err,
			}
		}
	}

	var merged int64
	for _, loser := range group[1:] {
		var loserAuthors schema.AuthorList
		if len(loser.Authors) > 0 {
			if err := json.Unmarshal(loser.Authors, &loserAuthors); err != nil {
				return merged, &gn.Error{
					Code: errcode.MaintDedupError,
					Msg:  "Failed to decode author list",
					Err:  err,
				}
			}
		}
		authors = mergeAuthorLists(authors, loserAuthors)

		err := m.absorbPaper(ctx, pool, survivor.ID, loser.ID, authors)
		if err != nil {
			return merged, err
		}
		merged++
	}
	return merged, nil
}

// absorbPaper folds one paper into another and deletes it. The index
// entry of the absorbed paper is removed best-effort; a missing index
// connection never fails the merge.
func (m *maintainer) absorbPaper(
	ctx context.Context,
	pool *pgxpool.Pool,
	survivorID, loserID int64,
	authors schema.AuthorList,
) error {
	payload, err := authors.JSON()
	if err != nil {
		return &gn.Error{
			Code: errcode.MaintDedupError,
			Msg:  "Failed to encode merged author list",
			Err:  err,
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to begin merge transaction",
			Err:  err,
		}
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
UPDATE authors SET paper_id = $1 WHERE paper_id = $2`,
		survivorID, loserID)
	batch.Queue(`
UPDATE oai_records SET about_id = $1 WHERE about_id = $2`,
		survivorID, loserID)
	batch.Queue(`
UPDATE papers SET authors = $2 WHERE id = $1`,
		survivorID, payload)
	batch.Queue(`DELETE FROM papers WHERE id = $1`, loserID)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return &gn.Error{
			Code: errcode.MaintDedupError,
			Msg:  "Failed to merge duplicate paper",
			Err:  err,
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return &gn.Error{
			Code: errcode.DBTransactionError,
			Msg:  "Failed to commit merge transaction",
			Err:  err,
		}
	}

	slog.Debug("Merged duplicate paper",
		"survivor", survivorID, "absorbed", loserID)

	if m.index != nil {
		id := strconv.FormatInt(loserID, 10)
		if err := m.index.Delete(ctx, id); err != nil {
			slog.Warn("Failed to remove merged paper from index",
				"paperID", loserID, "error", err)
		}
	}
	return nil
}

// mergeAuthorLists appends entries from extra whose names are not
// already present, preserving the base order.
func mergeAuthorLists(
	base, extra schema.AuthorList,
) schema.AuthorList {
	seen := make(map[string]struct{}, len(base))
	for _, a := range base {
		seen[a.Name] = struct{}{}
	}
	for _, a := range extra {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		base = append(base, a)
	}
	return base
}

// FindCollisions recomputes all fingerprints without mutating state and
// reports the groups of papers that share one, for manual inspection
// before a destructive merge run. Fingerprints are computed
// concurrently; grouping happens in one reducer.
func (m *maintainer) FindCollisions(
	ctx context.Context,
	cfg *config.Config,
) ([]lifecycle.CollisionGroup, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return nil, notConnected(errcode.MaintDedupError)
	}

	total, err := countPapers(ctx, pool)
	if err != nil {
		return nil, err
	}
	slog.Info("Scanning for fingerprint collisions",
		"papers", total, "jobs", cfg.JobsNumber)

	bar := newProgressBar(total, "Collisions")
	defer bar.Finish()

	chRows := make(chan fingerprintRow)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chRows)
		cur := cursor.New(
			fetchFingerprintRows(pool),
			fingerprintRow.key,
			cursor.WithPageSize[fingerprintRow](cfg.Database.BatchSize),
		)
		for row, err := range cur.All(ctx) {
			if err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chRows <- row:
			}
		}
		return nil
	})

	var mu sync.Mutex
	groups := make(map[string][]lifecycle.CollisionMember)
	for range cfg.JobsNumber {
		g.Go(func() error {
			for row := range chRows {
				surnames, err := row.surnames()
				if err != nil {
					return err
				}
				plain := fingerprint.Plain(row.Title, surnames)
				mu.Lock()
				groups[plain] = append(groups[plain],
					lifecycle.CollisionMember{
						PaperID:  row.ID,
						Title:    row.Title,
						Surnames: surnames,
					})
				mu.Unlock()
				bar.Increment()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()

	var res []lifecycle.CollisionGroup
	for plain, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].PaperID < members[j].PaperID
		})
		res = append(res, lifecycle.CollisionGroup{
			Plain:   plain,
			Members: members,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Plain < res[j].Plain
	})

	slog.Info("Collision scan complete", "groups", len(res))
	return res, nil
}

func countPapers(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	var total int64
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM papers`).Scan(&total)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintDedupError,
			Msg:  "Failed to count papers",
			Err:  err,
		}
	}
	return total, nil
}

func fetchFingerprintRows(pool *pgxpool.Pool) cursor.FetchPage[fingerprintRow] {
	return func(
		ctx context.Context, afterKey int64, limit int,
	) ([]fingerprintRow, error) {
		rows, err := pool.Query(ctx, `
SELECT id, title, fingerprint, authors
FROM papers
WHERE id > $1
ORDER BY id
LIMIT $2`, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintDedupError,
				Msg:  "Failed to fetch papers page",
				Err:  err,
			}
		}
		return pgx.CollectRows(rows,
			func(row pgx.CollectableRow) (fingerprintRow, error) {
				var r fingerprintRow
				err := row.Scan(&r.ID, &r.Title, &r.Fingerprint, &r.Authors)
				return r, err
			})
	}
}
