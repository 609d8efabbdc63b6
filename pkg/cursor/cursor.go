// Package cursor provides keyset iteration over arbitrarily large
// collections.
//
// A Cursor produces a lazy, finite, restartable sequence of every
// element of a collection ordered by a unique, immutable key, without
// ever holding more than one page in memory. It is the common substrate
// of every maintenance routine that sweeps a large table.
//
// The package is pure: storage access happens through the FetchPage
// function supplied by the caller, so the iteration logic carries no
// database dependency.
package cursor

import (
	"context"
	"iter"
)

// DefaultPageSize is used when a caller does not set a page size.
const DefaultPageSize = 256

// FetchPage returns up to limit elements with key strictly greater than
// afterKey, in increasing key order. An empty result terminates the
// sweep. Implementations translate this to a ranged, ordered, limited
// query against the underlying store.
type FetchPage[T any] func(ctx context.Context, afterKey int64, limit int) ([]T, error)

// Cursor enumerates a large collection one page at a time.
//
// The iteration visits each element exactly once in strictly increasing
// key order, tolerating concurrent insertions and deletions elsewhere
// in the collection: the guarantee depends only on the key being
// monotonic and immutable per element once observed.
type Cursor[T any] struct {
	fetch    FetchPage[T]
	key      func(T) int64
	pageSize int
	lastKey  int64
}

// Option modifies a Cursor at construction time.
type Option[T any] func(*Cursor[T])

// WithStartKey resumes a previously interrupted sweep: only elements
// with key strictly greater than k are visited.
func WithStartKey[T any](k int64) Option[T] {
	return func(c *Cursor[T]) {
		c.lastKey = k
	}
}

// WithPageSize sets how many elements are fetched per page.
func WithPageSize[T any](n int) Option[T] {
	return func(c *Cursor[T]) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates a Cursor over the collection exposed by fetch. The key
// function extracts the ordering key from an element.
func New[T any](
	fetch FetchPage[T],
	key func(T) int64,
	opts ...Option[T],
) *Cursor[T] {
	c := &Cursor[T]{
		fetch:    fetch,
		key:      key,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LastKey returns the key of the last element fetched so far. After a
// failed sweep it is the checkpoint from which a retry can resume; the
// iterator never silently truncates.
func (c *Cursor[T]) LastKey() int64 {
	return c.lastKey
}

// All returns a lazy sequence of every remaining element. A storage
// failure is yielded once as a non-nil error and ends the sequence;
// LastKey() then holds the partial progress.
func (c *Cursor[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for page, err := range c.Pages(ctx) {
			if err != nil {
				yield(zero, err)
				return
			}
			for _, elem := range page {
				if !yield(elem, nil) {
					return
				}
			}
		}
	}
}

// Pages returns a lazy sequence of pages, each at most pageSize long.
// The cursor advances past each page as soon as it is fetched, so a
// consumer that mutates or deletes the yielded elements cannot stall
// the sweep.
func (c *Cursor[T]) Pages(ctx context.Context) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for {
			page, err := c.fetch(ctx, c.lastKey, c.pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(page) == 0 {
				return
			}
			c.lastKey = c.key(page[len(page)-1])
			if !yield(page, nil) {
				return
			}
		}
	}
}
