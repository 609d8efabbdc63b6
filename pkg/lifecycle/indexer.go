package lifecycle

import (
	"context"

	"github.com/oatrack/oadb/pkg/config"
)

// Indexer defines the bulk population of the external full-text index.
//
// The index is an independently-consistent resource: acknowledged
// writes are not guaranteed visible to queries until the next refresh.
// A failed bulk write aborts the run; already-committed batches remain
// valid, and the caller restarts from the last reported key.
type Indexer interface {
	// CreateIndex creates the paper index with its mapping. Idempotent
	// when the index already exists.
	CreateIndex(ctx context.Context, cfg *config.Config) error

	// Reindex pushes every paper with primary key greater than startKey
	// into the index in batches, refreshing periodically and reporting
	// throughput. Returns the number of indexed documents.
	Reindex(ctx context.Context, cfg *config.Config, startKey int64) (int64, error)
}
