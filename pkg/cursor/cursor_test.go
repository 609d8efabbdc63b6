package cursor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/oatrack/oadb/pkg/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int64
}

func itemKey(i item) int64 { return i.ID }

// sliceFetch pages over a fixed slice of items sorted by ID, the way a
// keyset query would.
func sliceFetch(items []item) cursor.FetchPage[item] {
	return func(_ context.Context, afterKey int64, limit int) ([]item, error) {
		var page []item
		for _, it := range items {
			if it.ID <= afterKey {
				continue
			}
			page = append(page, it)
			if len(page) == limit {
				break
			}
		}
		return page, nil
	}
}

func makeItems(n int) []item {
	items := make([]item, n)
	for i := range items {
		items[i] = item{ID: int64(i + 1)}
	}
	return items
}

func TestAllVisitsEverything(t *testing.T) {
	tests := []struct {
		msg      string
		count    int
		pageSize int
	}{
		{"empty", 0, 10},
		{"single page", 5, 10},
		{"exact page boundary", 20, 10},
		{"partial last page", 23, 10},
		{"page size one", 7, 1},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			items := makeItems(v.count)
			cur := cursor.New(
				sliceFetch(items),
				itemKey,
				cursor.WithPageSize[item](v.pageSize),
			)

			var got []int64
			for it, err := range cur.All(context.Background()) {
				require.NoError(t, err)
				got = append(got, it.ID)
			}

			require.Len(t, got, v.count)
			for i, id := range got {
				assert.Equal(t, int64(i+1), id)
			}
		})
	}
}

func TestStartKeySkipsVisited(t *testing.T) {
	items := makeItems(10)
	cur := cursor.New(
		sliceFetch(items),
		itemKey,
		cursor.WithPageSize[item](3),
		cursor.WithStartKey[item](6),
	)

	var got []int64
	for it, err := range cur.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, it.ID)
	}
	assert.Equal(t, []int64{7, 8, 9, 10}, got)
}

func TestLastKeyTracksProgress(t *testing.T) {
	items := makeItems(10)
	cur := cursor.New(
		sliceFetch(items),
		itemKey,
		cursor.WithPageSize[item](4),
	)

	// Consume one page and stop.
	for range cur.All(context.Background()) {
		break
	}
	// The cursor advances per page, not per element.
	assert.Equal(t, int64(4), cur.LastKey())

	// A fresh cursor resumed from the checkpoint sees the rest.
	resumed := cursor.New(
		sliceFetch(items),
		itemKey,
		cursor.WithPageSize[item](4),
		cursor.WithStartKey[item](cur.LastKey()),
	)
	var got []int64
	for it, err := range resumed.All(context.Background()) {
		require.NoError(t, err)
		got = append(got, it.ID)
	}
	assert.Equal(t, []int64{5, 6, 7, 8, 9, 10}, got)
}

func TestErrorEndsSequence(t *testing.T) {
	boom := errors.New("storage failure")
	calls := 0
	fetch := func(_ context.Context, afterKey int64, limit int) ([]item, error) {
		calls++
		if calls > 1 {
			return nil, boom
		}
		return []item{{ID: 1}, {ID: 2}}, nil
	}

	cur := cursor.New(fetch, itemKey, cursor.WithPageSize[item](2))

	var seen []int64
	var gotErr error
	for it, err := range cur.All(context.Background()) {
		if err != nil {
			gotErr = err
			continue
		}
		seen = append(seen, it.ID)
	}

	assert.Equal(t, []int64{1, 2}, seen)
	require.ErrorIs(t, gotErr, boom)
	assert.Equal(t, int64(2), cur.LastKey(), "checkpoint survives the failure")
}

func TestPagesAdvanceBeforeYield(t *testing.T) {
	// A consumer that deletes the yielded elements must not stall the
	// sweep: the cursor has already advanced past the page.
	items := makeItems(6)
	cur := cursor.New(
		sliceFetch(items),
		itemKey,
		cursor.WithPageSize[item](2),
	)

	var pages int
	for page, err := range cur.Pages(context.Background()) {
		require.NoError(t, err)
		pages++
		assert.Equal(t, page[len(page)-1].ID, cur.LastKey())
	}
	assert.Equal(t, 3, pages)
}
