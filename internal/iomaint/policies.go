package iomaint

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/errcode"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/oatrack/oadb/pkg/oastatus"
)

// publisherRow carries the policy fields of one publisher.
type publisherRow struct {
	ID         int64
	Preprint   string
	Postprint  string
	PdfVersion string
	OpenAccess bool
}

func (r publisherRow) key() int64 { return r.ID }

func (r publisherRow) policy() oastatus.Policy {
	return oastatus.Policy{
		Preprint:   r.Preprint,
		Postprint:  r.Postprint,
		PdfVersion: r.PdfVersion,
		OpenAccess: r.OpenAccess,
	}
}

// RecomputePublisherPolicies reclassifies every publisher from its
// stored self-archiving policy and hands the result to the handler,
// exactly once per publisher. The sweep itself writes nothing; all
// persistence belongs to the handler.
func (m *maintainer) RecomputePublisherPolicies(
	ctx context.Context,
	h lifecycle.StatusChangeHandler,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintPolicyRecomputeError)
	}

	slog.Info("Reclassifying publisher policies")

	cur := cursor.New(fetchPublisherRows(pool), publisherRow.key)

	var classified int64
	for row, err := range cur.All(ctx) {
		if err != nil {
			slog.Error(
				"Policy sweep aborted",
				"resumeKey", cur.LastKey(),
			)
			return classified, err
		}

		status := oastatus.Classify(row.policy())
		if err := h.OnStatusChange(ctx, row.ID, status); err != nil {
			return classified, &gn.Error{
				Code: errcode.MaintPolicyRecomputeError,
				Msg:  "Status change handler failed",
				Err:  err,
			}
		}
		classified++
	}

	slog.Info("Policy reclassification complete", "publishers", classified)
	gn.Info(
		"<em>Reclassified %s publishers</em>",
		humanize.Comma(classified),
	)
	return classified, nil
}

func fetchPublisherRows(pool *pgxpool.Pool) cursor.FetchPage[publisherRow] {
	return func(
		ctx context.Context, afterKey int64, limit int,
	) ([]publisherRow, error) {
		rows, err := pool.Query(ctx, `
SELECT id, preprint, postprint, pdf_version, open_access
FROM publishers
WHERE id > $1
ORDER BY id
LIMIT $2`, afterKey, limit)
		if err != nil {
			return nil, &gn.Error{
				Code: errcode.MaintPolicyRecomputeError,
				Msg:  "Failed to fetch publishers page",
				Err:  err,
			}
		}
		return pgx.CollectRows(rows,
			func(row pgx.CollectableRow) (publisherRow, error) {
				var r publisherRow
				err := row.Scan(&r.ID, &r.Preprint, &r.Postprint,
					&r.PdfVersion, &r.OpenAccess)
				return r, err
			})
	}
}

// statusWriter is the default status-change handler. It persists the
// publisher's classification and, when it actually changed, resets the
// affected papers to the unresolved state so the next availability
// sweep recomputes them against the new policy.
type statusWriter struct {
	operator db.Operator
}

// NewStatusWriter returns a handler that persists publisher
// classifications to the database.
func NewStatusWriter(op db.Operator) lifecycle.StatusChangeHandler {
	return &statusWriter{operator: op}
}

func (w *statusWriter) OnStatusChange(
	ctx context.Context,
	publisherID int64,
	status oastatus.Status,
) error {
	pool := w.operator.Pool()
	if pool == nil {
		return notConnected(errcode.MaintPolicyRecomputeError)
	}

	tag, err := pool.Exec(ctx, `
UPDATE publishers SET oa_status = $2
WHERE id = $1 AND oa_status <> $2`, publisherID, status)
	if err != nil {
		return &gn.Error{
			Code: errcode.MaintPolicyRecomputeError,
			Msg:  "Failed to persist publisher status",
			Err:  err,
		}
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	_, err = pool.Exec(ctx, `
UPDATE papers SET oa_status = $2
WHERE id IN (
	SELECT about_id FROM oai_records WHERE publisher_id = $1
)`, publisherID, oastatus.StatusUNK)
	if err != nil {
		return &gn.Error{
			Code: errcode.MaintPolicyRecomputeError,
			Msg:  "Failed to reset affected papers",
			Err:  err,
		}
	}

	slog.Debug("Publisher status changed",
		"publisherID", publisherID, "status", status)
	return nil
}
