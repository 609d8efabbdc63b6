// Package schema provides database schema models for oadb.
// The relational schema is owned by the harvesting platform; these
// models mirror the tables the maintenance routines read and mutate.
package schema

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/oatrack/oadb/pkg/oastatus"
)

// Researcher is a person tracked by the platform. A researcher owns
// zero or more Name records; a researcher with no linked papers
// (transitively, through names, authors and papers) is orphaned and
// eligible for cleanup.
type Researcher struct {
	ID int64 `gorm:"primaryKey"`

	// NameID is the researcher's preferred display name.
	NameID sql.NullInt64 `gorm:"index"`

	Email sql.NullString `gorm:"size:254"`

	// LastStatusUpdate records the last harvester status change.
	LastStatusUpdate time.Time      `gorm:"autoUpdateTime"`
	Status           sql.NullString `gorm:"size:512"`
}

// Name is one written form of a researcher's name. A free name has no
// researcher. A name with no NameVariant back-references is eligible
// for cleanup.
type Name struct {
	ID int64 `gorm:"primaryKey"`

	ResearcherID sql.NullInt64 `gorm:"index"`

	First string `gorm:"size:256;not null"`
	Last  string `gorm:"size:256;not null;index"`
}

// NameVariant links a harvested spelling of a name to a Name record.
type NameVariant struct {
	ID int64 `gorm:"primaryKey"`

	NameID int64 `gorm:"not null;index"`

	Variant string `gorm:"size:512;not null"`
}

// AuthorEntry is one element of a paper's embedded author list.
// ResearcherID weakly references a Researcher; the relational layer
// does not enforce it, which is why the referential-repair sweep
// exists.
type AuthorEntry struct {
	Name         string `json:"name"`
	ResearcherID *int64 `json:"researcher_id"`
}

// AuthorList is the JSONB payload of Paper.Authors.
type AuthorList []AuthorEntry

// Surnames returns the last word of each author name, for fingerprint
// computation and collision reports.
func (l AuthorList) Surnames() []string {
	res := make([]string, 0, len(l))
	for _, a := range l {
		res = append(res, surname(a.Name))
	}
	return res
}

func surname(name string) string {
	last := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			last = name[i+1:]
			break
		}
	}
	return last
}

// Value implements driver.Valuer-like encoding used by the pgx layer;
// the list is stored as JSONB.
func (l AuthorList) JSON() ([]byte, error) {
	return json.Marshal(l)
}

// Paper is one deduplicated scholarly work. The fingerprint is a
// deterministic function of the normalized title and author surnames;
// two papers with equal fingerprints are duplicates and get merged.
type Paper struct {
	ID int64 `gorm:"primaryKey"`

	Title       string `gorm:"size:1024;not null"`
	Fingerprint string `gorm:"size:64;not null;index"`
	Year        int

	OaStatus oastatus.Status `gorm:"column:oa_status;size:3;not null;default:UNK;index"`

	// Authors is the denormalized author list, kept embedded because
	// every read of a paper needs it.
	Authors AuthorList `gorm:"type:jsonb;serializer:json"`

	// Visible is false for papers excluded from the search index.
	Visible bool `gorm:"not null;default:true"`

	LastModified time.Time `gorm:"autoUpdateTime"`
}

// Author links a paper to a name, the relational counterpart of the
// embedded author list. Cleanup counts papers through this table.
type Author struct {
	ID int64 `gorm:"primaryKey"`

	PaperID int64 `gorm:"not null;index"`
	NameID  int64 `gorm:"not null;index"`

	Position int `gorm:"not null"`
}

// Publisher is a publishing company with its archiving policy as
// harvested from the publisher-policy database.
type Publisher struct {
	ID int64 `gorm:"primaryKey"`

	RomeoID string         `gorm:"size:64;uniqueIndex"`
	Name    string         `gorm:"size:256;not null"`
	Alias   sql.NullString `gorm:"size:256"`
	URL     sql.NullString `gorm:"size:1024"`

	// Archiving policy fields; see oastatus.Policy.
	Preprint   string `gorm:"size:32;not null;default:unknown"`
	Postprint  string `gorm:"size:32;not null;default:unknown"`
	PdfVersion string `gorm:"column:pdf_version;size:32;not null;default:unknown"`
	OpenAccess bool   `gorm:"not null;default:false"`

	OaStatus oastatus.Status `gorm:"column:oa_status;size:3;not null;default:UNK"`
}

// Policy extracts the archiving-policy fields for classification.
func (p *Publisher) Policy() oastatus.Policy {
	return oastatus.Policy{
		Preprint:   p.Preprint,
		Postprint:  p.Postprint,
		PdfVersion: p.PdfVersion,
		OpenAccess: p.OpenAccess,
	}
}

// Journal is a venue harvested from the publisher-policy database.
type Journal struct {
	ID int64 `gorm:"primaryKey"`

	Title       string         `gorm:"size:256;not null"`
	ISSN        sql.NullString `gorm:"size:10;uniqueIndex"`
	PublisherID int64          `gorm:"not null;index"`

	LastUpdated time.Time `gorm:"autoUpdateTime"`
}

// OaiSource is one OAI-PMH endpoint papers are harvested from.
type OaiSource struct {
	ID int64 `gorm:"primaryKey"`

	URL        string `gorm:"size:300;not null"`
	Name       string `gorm:"size:100;not null"`
	Repository bool   `gorm:"not null;default:true"`

	LastUpdate time.Time
	Status     sql.NullString `gorm:"size:512"`
}

// OaiRecord is one harvested metadata record describing a paper at one
// source. PublisherName is free text as harvested; Publisher is the
// resolved reference, filled in lazily by the refetch routine.
type OaiRecord struct {
	ID int64 `gorm:"primaryKey"`

	SourceID int64 `gorm:"not null;index"`
	AboutID  int64 `gorm:"not null;index"`

	Identifier string         `gorm:"size:512;uniqueIndex;not null"`
	URL        sql.NullString `gorm:"size:1024"`
	PdfURL     sql.NullString `gorm:"column:pdf_url;size:1024"`
	DOI        sql.NullString `gorm:"column:doi;size:1024"`

	PublisherName sql.NullString `gorm:"size:512"`
	PublisherID   sql.NullInt64  `gorm:"index"`
	Container     sql.NullString `gorm:"size:512"`

	// Description is the harvested abstract; free text that may carry
	// unsafe markup until the sanitize sweep visits it.
	Description sql.NullString `gorm:"type:text"`
}

// AliasPublisher is the denormalized (name, publisher) frequency table,
// fully derived from OaiRecord groupings. Safe to drop and rebuild.
type AliasPublisher struct {
	ID int64 `gorm:"primaryKey"`

	Name        string `gorm:"size:512;not null;uniqueIndex:idx_alias_name_publisher"`
	PublisherID int64  `gorm:"not null;uniqueIndex:idx_alias_name_publisher"`
	Count       int64  `gorm:"not null;default:0"`
}
