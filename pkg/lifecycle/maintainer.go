package lifecycle

import (
	"context"

	"github.com/oatrack/oadb/pkg/config"
	"github.com/oatrack/oadb/pkg/oastatus"
)

// Mode selects whether a cleanup routine mutates the database or only
// reports what it would do.
type Mode int

const (
	// Apply performs deletions and updates.
	Apply Mode = iota
	// DryRun reports counts without mutating anything.
	DryRun
)

// StatusChangeHandler receives publisher reclassification events from
// the policy-recompute sweep. The handler owns all downstream effects
// (persisting the status, cascading to affected papers); the sweep only
// detects the new classification and dispatches it exactly once per
// publisher per run.
type StatusChangeHandler interface {
	OnStatusChange(ctx context.Context, publisherID int64, status oastatus.Status) error
}

// Maintainer defines the batch-maintenance operations over the shared
// relational store. None of these routines are designed for concurrent
// invocation against the same data; callers serialize them as one-off
// maintenance jobs. Long sweeps are resumable through the checkpoint
// keys surfaced in logs and accepted by the reindex routine.
type Maintainer interface {
	// UpdateAvailability recomputes the open-access status of every
	// paper still in the UNK state and reindexes papers whose status
	// changed. Returns the number of papers resolved.
	UpdateAvailability(ctx context.Context, cfg *config.Config) (int64, error)

	// UpdateAllStatuses recomputes availability for every paper,
	// regardless of current state. A repair routine for when harvesting
	// failed to keep statuses current.
	UpdateAllStatuses(ctx context.Context, cfg *config.Config) (int64, error)

	// CleanupResearchers deletes researchers with no authored papers.
	// Returns the number of deleted (or would-be deleted) researchers.
	CleanupResearchers(ctx context.Context, mode Mode) (int64, error)

	// CleanupNames deletes names with no name-variant back-references
	// and no researcher link. Returns the number of deleted (or
	// would-be deleted) names.
	CleanupNames(ctx context.Context, mode Mode) (int64, error)

	// RecomputeFingerprints recomputes every paper's fingerprint and
	// merges papers that collide. Returns the number of merges. After a
	// full pass a second pass finds zero new merges.
	RecomputeFingerprints(ctx context.Context, cfg *config.Config) (int64, error)

	// FindCollisions recomputes all fingerprints without mutating
	// state and returns the groups that RecomputeFingerprints would
	// merge, for manual inspection.
	FindCollisions(ctx context.Context, cfg *config.Config) ([]CollisionGroup, error)

	// MergeNames repoints every researcher and name-variant reference
	// from the source name to the target name, then deletes the source.
	// Atomic: runs in a single transaction.
	MergeNames(ctx context.Context, sourceID, targetID int64) error

	// RebuildPublisherAliases rebuilds the alias-publisher frequency
	// table from harvested records. With eraseExisting the table is
	// dropped and rebuilt in one transaction; otherwise rows are
	// upserted per (name, publisher) pair.
	RebuildPublisherAliases(ctx context.Context, eraseExisting bool) (int64, error)

	// RecomputePublisherPolicies reclassifies every publisher and
	// notifies the handler once per publisher whose classification is
	// computed.
	RecomputePublisherPolicies(ctx context.Context, h StatusChangeHandler) (int64, error)

	// RepairAuthorLinks nulls embedded author references to researchers
	// that no longer exist. Returns the number of modified papers.
	RepairAuthorLinks(ctx context.Context, cfg *config.Config) (int64, error)

	// SanitizeTitles re-sanitizes HTML in paper titles, updating only
	// changed rows. Returns the number of updated papers.
	SanitizeTitles(ctx context.Context, cfg *config.Config) (int64, error)

	// SanitizeAbstracts re-sanitizes HTML in harvested abstracts.
	// Returns the number of updated records.
	SanitizeAbstracts(ctx context.Context, cfg *config.Config) (int64, error)

	// RefetchPublishers resolves publishers for harvested records that
	// carry a publisher name but no publisher reference, and refreshes
	// the availability of the affected papers. Returns the number of
	// records resolved.
	RefetchPublishers(ctx context.Context, cfg *config.Config, f PolicyFetcher) (int64, error)

	// RefetchContainers fills in missing venue information for
	// harvested records that carry a DOI, via the metadata fetcher.
	// Returns the number of records updated.
	RefetchContainers(ctx context.Context, cfg *config.Config, f MetadataFetcher) (int64, error)
}

// CollisionGroup reports one set of papers sharing a freshly computed
// fingerprint.
type CollisionGroup struct {
	// Plain is the human-readable fingerprint shared by the group.
	Plain string

	// Members describe each colliding paper.
	Members []CollisionMember
}

// CollisionMember is one paper inside a collision group.
type CollisionMember struct {
	PaperID  int64
	Title    string
	Surnames []string
}
