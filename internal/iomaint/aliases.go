package iomaint

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/oatrack/oadb/pkg/errcode"
)

// aliasAggregate counts harvested records per (publisher name,
// publisher) pair. Every record with a resolved publisher contributes,
// so the alias counts sum to the number of resolved records; records
// harvested without a name group under the empty alias.
const aliasAggregate = `
SELECT COALESCE(publisher_name, ''), publisher_id, COUNT(*)
FROM oai_records
WHERE publisher_id IS NOT NULL
GROUP BY COALESCE(publisher_name, ''), publisher_id`

// RebuildPublisherAliases recomputes the alias-publisher frequency
// table from harvested records. With eraseExisting the table is
// truncated and rebuilt inside one transaction, so readers never see a
// partial table; otherwise existing pairs are upserted in place and
// stale pairs are left alone.
func (m *maintainer) RebuildPublisherAliases(
	ctx context.Context,
	eraseExisting bool,
) (int64, error) {
	pool := m.operator.Pool()
	if pool == nil {
		return 0, notConnected(errcode.MaintAliasRebuildError)
	}

	slog.Info("Rebuilding publisher aliases", "erase", eraseExisting)

	var rebuilt int64
	if eraseExisting {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.DBTransactionError,
				Msg:  "Failed to begin alias rebuild transaction",
				Err:  err,
			}
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx, `DELETE FROM alias_publishers`)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintAliasRebuildError,
				Msg:  "Failed to erase publisher aliases",
				Err:  err,
			}
		}

		tag, err := tx.Exec(ctx, `
INSERT INTO alias_publishers (name, publisher_id, count)
`+aliasAggregate)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintAliasRebuildError,
				Msg:  "Failed to rebuild publisher aliases",
				Err:  err,
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return 0, &gn.Error{
				Code: errcode.DBTransactionError,
				Msg:  "Failed to commit alias rebuild transaction",
				Err:  err,
			}
		}
		rebuilt = tag.RowsAffected()
	} else {
		tag, err := pool.Exec(ctx, `
INSERT INTO alias_publishers (name, publisher_id, count)
`+aliasAggregate+`
ON CONFLICT (name, publisher_id)
DO UPDATE SET count = EXCLUDED.count`)
		if err != nil {
			return 0, &gn.Error{
				Code: errcode.MaintAliasRebuildError,
				Msg:  "Failed to upsert publisher aliases",
				Err:  err,
			}
		}
		rebuilt = tag.RowsAffected()
	}

	slog.Info("Publisher alias rebuild complete", "aliases", rebuilt)
	gn.Info(
		"<em>Rebuilt %s publisher aliases</em>",
		humanize.Comma(rebuilt),
	)
	return rebuilt, nil
}
