package iomaint_test

import (
	"context"
	"testing"

	"github.com/oatrack/oadb/internal/iodb"
	"github.com/oatrack/oadb/internal/iomaint"
	"github.com/oatrack/oadb/internal/ioschema"
	"github.com/oatrack/oadb/internal/iotesting"
	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/fingerprint"
	"github.com/oatrack/oadb/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: these are integration tests that require PostgreSQL with the
// oadb_test database. Skip with: go test -short

// setupDB connects, recreates the schema, and returns the operator.
func setupDB(t *testing.T) (db.Operator, *config.Config) {
	t.Helper()

	ctx := context.Background()
	cfg := iotesting.GetTestConfig()

	op := iodb.NewPgxOperator()
	require.NoError(t, op.Connect(ctx, &cfg.Database))
	t.Cleanup(func() { op.Close() })

	require.NoError(t, op.DropAllTables(ctx))
	sm := ioschema.NewManager(op)
	require.NoError(t, sm.Create(ctx, cfg))

	return op, cfg
}

func TestCleanup_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, _ := setupDB(t)
	pool := op.Pool()

	// One researcher with an authored paper, one orphan.
	_, err := pool.Exec(ctx, `
INSERT INTO researchers (id, email, status) VALUES
	(1, 'active@example.org', 'ok'),
	(2, 'orphan@example.org', 'ok')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO names (id, researcher_id, first, last) VALUES
	(1, 1, 'Ada', 'Lovelace'),
	(2, NULL, 'Free', 'Name')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO papers (id, title, fingerprint, oa_status, authors, visible)
VALUES (1, 'A paper', 'fp1', 'UNK', '[]', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO authors (paper_id, name_id, position) VALUES (1, 1, 0)`)
	require.NoError(t, err)

	m := iomaint.NewMaintainer(op, nil)

	// Dry run reports without deleting.
	count, err := m.CleanupResearchers(ctx, lifecycle.DryRun)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	var left int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM researchers`).Scan(&left))
	assert.Equal(t, int64(2), left)

	// Apply deletes the orphan only.
	count, err = m.CleanupResearchers(ctx, lifecycle.Apply)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM researchers`).Scan(&left))
	assert.Equal(t, int64(1), left)

	// The free name has no variants, no researcher, no author rows.
	count, err = m.CleanupNames(ctx, lifecycle.Apply)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The referenced name survives.
	var names int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM names`).Scan(&names))
	assert.Equal(t, int64(1), names)
}

func TestMergeNames_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, _ := setupDB(t)
	pool := op.Pool()

	_, err := pool.Exec(ctx, `
INSERT INTO names (id, first, last) VALUES
	(1, 'J', 'Smith'),
	(2, 'John', 'Smith')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO papers (id, title, fingerprint, oa_status, authors, visible)
VALUES (1, 'A paper', 'fp1', 'UNK', '[]', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO authors (paper_id, name_id, position) VALUES (1, 1, 0)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO name_variants (name_id, variant) VALUES (1, 'Smith, J.')`)
	require.NoError(t, err)

	m := iomaint.NewMaintainer(op, nil)
	require.NoError(t, m.MergeNames(ctx, 1, 2))

	// Source gone, references repointed.
	var count int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM names WHERE id = 1`).Scan(&count))
	assert.Zero(t, count)
	var nameID int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT name_id FROM authors WHERE paper_id = 1`).Scan(&nameID))
	assert.Equal(t, int64(2), nameID)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT name_id FROM name_variants WHERE variant = 'Smith, J.'`,
	).Scan(&nameID))
	assert.Equal(t, int64(2), nameID)

	// Merging into a missing target fails cleanly.
	assert.Error(t, m.MergeNames(ctx, 2, 999))
	assert.Error(t, m.MergeNames(ctx, 2, 2))
}

func TestRebuildPublisherAliases_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, _ := setupDB(t)
	pool := op.Pool()

	_, err := pool.Exec(ctx, `
INSERT INTO publishers (id, romeo_id, name, oa_status)
VALUES (1, 'r1', 'ACME Press', 'OK')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_sources (id, url, name, repository)
VALUES (1, 'http://example.org/oai', 'Source', false)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO papers (id, title, fingerprint, oa_status, authors, visible)
VALUES (1, 'A paper', 'fp1', 'UNK', '[]', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_records
	(source_id, about_id, identifier, publisher_name, publisher_id)
VALUES
	(1, 1, 'rec1', 'ACME', 1),
	(1, 1, 'rec2', 'ACME', 1),
	(1, 1, 'rec3', 'Acme Press Inc', 1),
	(1, 1, 'rec4', '', 1),
	(1, 1, 'rec5', 'ACME', NULL)`)
	require.NoError(t, err)

	m := iomaint.NewMaintainer(op, nil)
	count, err := m.RebuildPublisherAliases(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	var aliasCount int64
	require.NoError(t, pool.QueryRow(ctx, `
SELECT count FROM alias_publishers
WHERE name = 'ACME' AND publisher_id = 1`).Scan(&aliasCount))
	assert.Equal(t, int64(2), aliasCount)

	// Records harvested without a name still count, under the empty
	// alias, so the alias totals match the resolved records.
	require.NoError(t, pool.QueryRow(ctx, `
SELECT count FROM alias_publishers
WHERE name = '' AND publisher_id = 1`).Scan(&aliasCount))
	assert.Equal(t, int64(1), aliasCount)
	var aliasTotal, resolved int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT SUM(count) FROM alias_publishers`).Scan(&aliasTotal))
	require.NoError(t, pool.QueryRow(ctx, `
SELECT COUNT(*) FROM oai_records
WHERE publisher_id IS NOT NULL`).Scan(&resolved))
	assert.Equal(t, resolved, aliasTotal)

	// Upsert mode refreshes counts in place.
	_, err = pool.Exec(ctx, `
INSERT INTO oai_records
	(source_id, about_id, identifier, publisher_name, publisher_id)
VALUES (1, 1, 'rec6', 'ACME', 1)`)
	require.NoError(t, err)

	_, err = m.RebuildPublisherAliases(ctx, false)
	require.NoError(t, err)
	require.NoError(t, pool.QueryRow(ctx, `
SELECT count FROM alias_publishers
WHERE name = 'ACME' AND publisher_id = 1`).Scan(&aliasCount))
	assert.Equal(t, int64(3), aliasCount)
}

func TestUpdateAvailability_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, cfg := setupDB(t)
	pool := op.Pool()

	_, err := pool.Exec(ctx, `
INSERT INTO papers (id, title, fingerprint, oa_status, authors, visible)
VALUES
	(1, 'In a repository', 'fp1', 'UNK', '[]', true),
	(2, 'Still unknown', 'fp2', 'UNK', '[]', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_sources (id, url, name, repository)
VALUES (1, 'http://example.org/oai', 'Repo', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_records (source_id, about_id, identifier, pdf_url)
VALUES (1, 1, 'rec1', 'http://example.org/1.pdf')`)
	require.NoError(t, err)

	// A maintainer without an index client resolves statuses and skips
	// the per-paper reindex.
	m := iomaint.NewMaintainer(op, nil)
	resolved, err := m.UpdateAvailability(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resolved)

	var status string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT oa_status FROM papers WHERE id = 1`).Scan(&status))
	assert.Equal(t, "OA", status)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT oa_status FROM papers WHERE id = 2`).Scan(&status))
	assert.Equal(t, "UNK", status)
}

func TestRecomputeFingerprints_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	op, cfg := setupDB(t)
	pool := op.Pool()

	// Two papers with the same title and surname, stale fingerprints.
	_, err := pool.Exec(ctx, `
INSERT INTO papers (id, title, fingerprint, oa_status, authors, visible)
VALUES
	(1, 'A Shared Paper', 'stale1', 'UNK',
		'[{"name":"Jane Doe","researcher_id":null}]', true),
	(2, 'A shared paper', 'stale2', 'UNK',
		'[{"name":"J Doe","researcher_id":null}]', true)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO names (id, first, last) VALUES (1, 'J', 'Doe')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO authors (paper_id, name_id, position) VALUES (2, 1, 0)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_sources (id, url, name, repository)
VALUES (1, 'http://example.org/oai', 'Source', false)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
INSERT INTO oai_records (source_id, about_id, identifier)
VALUES (1, 2, 'rec1')`)
	require.NoError(t, err)

	m := iomaint.NewMaintainer(op, nil)
	merges, err := m.RecomputeFingerprints(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), merges)

	// The lowest id survives with the recomputed fingerprint and the
	// union of both author lists.
	var fp, authors string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT fingerprint, authors FROM papers WHERE id = 1`,
	).Scan(&fp, &authors))
	assert.Equal(t,
		fingerprint.Compute("A Shared Paper", []string{"Doe"}), fp)
	assert.Contains(t, authors, "Jane Doe")
	assert.Contains(t, authors, "J Doe")
	var count int64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM papers WHERE id = 2`).Scan(&count))
	assert.Zero(t, count)

	// Nothing references the absorbed paper.
	require.NoError(t, pool.QueryRow(ctx, `
SELECT COUNT(*) FROM authors a
WHERE NOT EXISTS (SELECT 1 FROM papers p WHERE p.id = a.paper_id)`,
	).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, pool.QueryRow(ctx, `
SELECT COUNT(*) FROM oai_records r
WHERE NOT EXISTS (SELECT 1 FROM papers p WHERE p.id = r.about_id)`,
	).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT about_id FROM oai_records WHERE identifier = 'rec1'`,
	).Scan(&count))
	assert.Equal(t, int64(1), count)

	// A second pass finds nothing left to merge.
	merges, err = m.RecomputeFingerprints(ctx, cfg)
	require.NoError(t, err)
	assert.Zero(t, merges)
}
