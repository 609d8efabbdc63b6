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
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/oatrack/oadb/pkg/oastatus"
)

// unresolvedRecord is a harvested record awaiting publisher or venue
// resolution.
type unresolvedRecord struct {
	ID      int64
	AboutID int64
	Field   string
}

func (r unresolvedRecord) key() int64 { return r.ID }

// RefetchPublishers resolves publishers for harvested records that
// carry a publisher name but no publisher reference. Unknown names are
// skipped and retried on the next run. Papers behind resolved records
// get their availability recomputed against the new policy.
func (m *maintainer) RefetchPublishers(
	ctx context.Context,
	cfg *config.Config,
	f lifecycle.PolicyFetcher,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintRefetchError)
	}

	slog.Info("Refetching publisher policies for unresolved records")

	cur := cursor.New(
		fetchUnresolvedRecords(pool, `
SELECT id, about_id, publisher_name
FROM oai_records
WHERE id > $1 AND publisher_id IS NULL AND publisher_name <> ''
ORDER BY id LIMIT $2`),
		unresolvedRecord.key,
		cursor.WithPageSize[unresolvedRecord](cfg.Database.BatchSize),
	)

	// Names repeat heavily across records; one lookup per distinct
	// name per run.
	known := make(map[string]*int64)

	var resolved int64
	for rec, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Publisher refetch aborted",
				"resumeKey", cur.LastKey(),
			)
			return resolved, err
		}

		pubID, cached := known[rec.Field]
		if !cached {
			policy, err := f.FetchPublisher(ctx, rec.Field)
			if err != nil {
				return resolved, err
			}
			if policy != nil {
				id, err := upsertPublisher(ctx, pool, policy)
				if err != nil {
					return resolved, err
				}
				pubID = &id
			}
			known[rec.Field] = pubID
		}
		if pubID == nil {
			continue
		}

		_, err = pool.Exec(ctx, `
UPDATE oai_records SET publisher_id = $2 WHERE id = $1`, rec.ID, *pubID)
		if err != nil {
			return resolved, &gn.Error{
				Code: errcode.MaintRefetchError,
				Msg:  "Failed to link record to publisher",
				Err:  err,
			}
		}
		resolved++

		status, err := resolveAvailability(ctx, pool, rec.AboutID)
		if err != nil {
			return resolved, err
		}
		if status != oastatus.StatusUNK {
			if err := m.setPaperStatus(ctx, pool, rec.AboutID, status); err != nil {
				return resolved, err
			}
		}
	}

	slog.Info("Publisher refetch complete", "records", resolved)
	gn.Info(
		"<em>Resolved publishers for %s records</em>",
		humanize.Comma(resolved),
	)
	return resolved, nil
}

// upsertPublisher stores a fetched policy, keyed by its identifier in
// the policy database, and returns the local publisher ID.
func upsertPublisher(
	ctx context.Context,
	pool *pgxpool.Pool,
	policy *lifecycle.PublisherPolicy,
) (int64, error) {
	status := oastatus.Classify(oastatus.Policy{
		Preprint:   policy.Preprint,
		Postprint:  policy.Postprint,
		PdfVersion: policy.PdfVersion,
		OpenAccess: policy.OpenAccess,
	})

	var id int64
	err := pool.QueryRow(ctx, `
INSERT INTO publishers
	(romeo_id, name, preprint, postprint, pdf_version, open_access, oa_status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (romeo_id) DO UPDATE SET
	name = EXCLUDED.name,
	preprint = EXCLUDED.preprint,
	postprint = EXCLUDED.postprint,
	pdf_version = EXCLUDED.pdf_version,
	open_access = EXCLUDED.open_access,
	oa_status = EXCLUDED.oa_status
RETURNING id`,
		policy.RomeoID, policy.Name, policy.Preprint, policy.Postprint,
		policy.PdfVersion, policy.OpenAccess, status,
	).Scan(&id)
	if err != nil {
		return 0, &gn.Error{
			Code: errcode.MaintRefetchError,
			Msg:  "Failed to upsert publisher",
			Err:  err,
		}
	}
	return id, nil
}

// RefetchContainers fills in missing venue information for harvested
// records that carry a DOI. Unknown DOIs are skipped.
func (m *maintainer) RefetchContainers(
	ctx context.Context,
	cfg *config.Config,
	f lifecycle.MetadataFetcher,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintRefetchError)
	}

	slog.Info("Refetching container titles for unresolved records")

	cur := cursor.New(
		fetchUnresolvedRecords(pool, `
SELECT id, about_id, doi
FROM oai_records
WHERE id > $1 AND (container IS NULL OR container = '') AND doi <> ''
ORDER BY id LIMIT $2`),
		unresolvedRecord.key,
		cursor.WithPageSize[unresolvedRecord](cfg.Database.BatchSize),
	)

	var updated int64
	for rec, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Container refetch aborted",
				"resumeKey", cur.LastKey(),
			)
			return updated, err
		}

		meta, err := f.FetchByDOI(ctx, rec.Field)
		if err != nil {
			return updated, err
		}
		if meta == nil || meta.ContainerTitle == "" {
			continue
		}

		_, err = pool.Exec(ctx, `
UPDATE oai_records SET container = $2 WHERE id = $1`,
			rec.ID, meta.ContainerTitle)
		if err != nil {
			return updated, &gn.Error{
				Code: errcode.MaintRefetchError,
				Msg:  "Failed to update record container",
				Err:  err,
			}
		}
		updated++
	}

	slog.Info("Container refetch complete", "records", updated)
	gn.Info(
		"<em>Filled in containers for %s records</em>",
		humanize.Comma(updated),
	)
	return updated, nil
}

func fetchUnresolvedRecords(
	pool *pgxpool.Pool,
	query string,
) cursor.FetchPage[unresolvedRecord] {
	return func(
		ctx context.Context, afterKey int64, limit int,
	) ([]unresolvedRecord, error) {
		rows, err := pool.Query(ctx, query, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintRefetchError,
				Msg:  "Failed to fetch records page",
				Err:  err,
			}
		}
		return pgx.CollectRows(rows,
			func(row pgx.CollectableRow) (unresolvedRecord, error) {
				var r unresolvedRecord
				err := row.Scan(&r.ID, &r.AboutID, &r.Field)
				return r, err
			})
	}
}
