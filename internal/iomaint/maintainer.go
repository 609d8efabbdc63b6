// Package iomaint implements the batch-maintenance routines over the
// shared relational store: availability recomputation, orphan cleanup,
// fingerprint deduplication, name merging, publisher alias and policy
// recompute, referential repair and bulk re-sanitization.
//
// This is an impure I/O package. Routines are one-off, single-threaded
// maintenance jobs; callers serialize invocations against the same
// data. Each routine owns its transactional boundaries.
package iomaint

import (
	"github.com/oatrack/oadb/internal/ioindex"
	"github.com/oatrack/oadb/pkg/db"
	"github.com/oatrack/oadb/pkg/lifecycle"
)

// maintainer implements the lifecycle.Maintainer interface.
type maintainer struct {
	operator db.Operator
	index    *ioindex.Client
}

// NewMaintainer creates a new Maintainer. The index client is used by
// the routines that keep the search index eventually consistent
// (availability recomputation, dedup loser removal).
func NewMaintainer(
	op db.Operator,
	index *ioindex.Client,
) lifecycle.Maintainer {
	return &maintainer{
		operator: op,
		index:    index,
	}
}
