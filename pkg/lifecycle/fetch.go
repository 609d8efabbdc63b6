package lifecycle

import (
	"context"
)

// PublisherPolicy is the archiving policy of a publisher as returned
// by the publisher-policy database.
type PublisherPolicy struct {
	RomeoID    string
	Name       string
	Preprint   string
	Postprint  string
	PdfVersion string
	OpenAccess bool
}

// PolicyFetcher looks up a publisher's archiving policy by name.
// Returns (nil, nil) when the publisher is unknown. The call is a
// blocking network request with no retry built in.
type PolicyFetcher interface {
	FetchPublisher(ctx context.Context, name string) (*PublisherPolicy, error)
}

// WorkMetadata is the slice of bibliographic metadata the refetch
// routines use.
type WorkMetadata struct {
	ContainerTitle string
}

// MetadataFetcher looks up work metadata by DOI. Returns (nil, nil)
// when the DOI is unknown.
type MetadataFetcher interface {
	FetchByDOI(ctx context.Context, doi string) (*WorkMetadata, error)
}
