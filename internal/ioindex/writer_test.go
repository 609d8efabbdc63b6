package ioindex

import (
	"context"
	"errors"
	"testing"

	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/oatrack/oadb/pkg/oastatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBulkClient records bulk and refresh calls.
type fakeBulkClient struct {
	batches   [][]*PaperDoc
	refreshes int
	failAfter int // fail the Nth bulk call; 0 disables
}

func (f *fakeBulkClient) Bulk(
	_ context.Context, docs []*PaperDoc,
) (int, error) {
	if f.failAfter > 0 && len(f.batches)+1 == f.failAfter {
		return 0, errors.New("bulk rejected")
	}
	f.batches = append(f.batches, docs)
	return len(docs), nil
}

func (f *fakeBulkClient) Refresh(_ context.Context) error {
	f.refreshes++
	return nil
}

func makeRows(n int) []PaperRow {
	rows := make([]PaperRow, n)
	for i := range rows {
		rows[i] = PaperRow{
			ID:       int64(i + 1),
			Title:    "Paper",
			OaStatus: oastatus.StatusUNK,
			Visible:  true,
		}
	}
	return rows
}

func rowFetch(rows []PaperRow) cursor.FetchPage[PaperRow] {
	return func(_ context.Context, afterKey int64, limit int) ([]PaperRow, error) {
		var page []PaperRow
		for _, r := range rows {
			if r.ID <= afterKey {
				continue
			}
			page = append(page, r)
			if len(page) == limit {
				break
			}
		}
		return page, nil
	}
}

func TestBulkWriterIndexesEverything(t *testing.T) {
	rows := makeRows(25)
	client := &fakeBulkClient{}
	w := &bulkWriter{
		client:           client,
		prepare:          PreparePaper,
		batchesPerCommit: 2,
		maxKey:           25,
	}

	cur := cursor.New(
		rowFetch(rows), PaperRow.Key,
		cursor.WithPageSize[PaperRow](10),
	)
	indexed, skipped, err := w.run(context.Background(), cur)

	require.NoError(t, err)
	assert.Equal(t, int64(25), indexed)
	assert.Equal(t, int64(0), skipped)
	require.Len(t, client.batches, 3)
	assert.Len(t, client.batches[0], 10)
	assert.Len(t, client.batches[2], 5)
	// 3 batches with a commit every 2: one mid-run refresh. The final
	// refresh belongs to the caller.
	assert.Equal(t, 1, client.refreshes)
}

func TestBulkWriterCountsSkips(t *testing.T) {
	rows := makeRows(10)
	rows[2].Visible = false
	rows[7].Title = ""

	client := &fakeBulkClient{}
	w := &bulkWriter{
		client:           client,
		prepare:          PreparePaper,
		batchesPerCommit: 10,
	}

	cur := cursor.New(
		rowFetch(rows), PaperRow.Key,
		cursor.WithPageSize[PaperRow](4),
	)
	indexed, skipped, err := w.run(context.Background(), cur)

	require.NoError(t, err)
	assert.Equal(t, int64(8), indexed)
	assert.Equal(t, int64(2), skipped)
}

func TestBulkWriterFailureKeepsCheckpoint(t *testing.T) {
	rows := makeRows(30)
	client := &fakeBulkClient{failAfter: 2}
	w := &bulkWriter{
		client:           client,
		prepare:          PreparePaper,
		batchesPerCommit: 5,
	}

	cur := cursor.New(
		rowFetch(rows), PaperRow.Key,
		cursor.WithPageSize[PaperRow](10),
	)
	indexed, _, err := w.run(context.Background(), cur)

	require.Error(t, err)
	assert.Equal(t, int64(10), indexed)
	// The cursor fetched the failed page, but the resume key only
	// covers written batches; restarting from it replays the failed
	// page and nothing before it.
	assert.Equal(t, int64(20), cur.LastKey())
	assert.Equal(t, int64(10), w.resumeKey)

	resumed := cursor.New(
		rowFetch(rows), PaperRow.Key,
		cursor.WithPageSize[PaperRow](10),
		cursor.WithStartKey[PaperRow](w.resumeKey),
	)
	client2 := &fakeBulkClient{}
	w2 := &bulkWriter{
		client:           client2,
		prepare:          PreparePaper,
		batchesPerCommit: 5,
	}
	indexed2, _, err := w2.run(context.Background(), resumed)
	require.NoError(t, err)
	assert.Equal(t, int64(20), indexed2)
}
