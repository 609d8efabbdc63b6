package ioindex

import (
	"strconv"
	"strings"

	"github.com/oatrack/oadb/pkg/oastatus"
	"github.com/oatrack/oadb/pkg/schema"
)

// PaperDoc is the document structure stored in the search index.
type PaperDoc struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Abstract    string          `json:"abstract,omitempty"`
	Authors     []string        `json:"authors,omitempty"`
	Year        int             `json:"year,omitempty"`
	OaStatus    oastatus.Status `json:"oa_status"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	PdfURL      string          `json:"pdf_url,omitempty"`
}

// PaperRow is the slice of a paper the document preparation needs,
// as read by the reindex sweep.
type PaperRow struct {
	ID          int64
	Title       string
	Year        int
	Fingerprint string
	OaStatus    oastatus.Status
	Authors     schema.AuthorList
	Visible     bool
	Abstract    string
	PdfURL      string
}

// Key returns the ordering key of the row for cursor iteration.
func (r PaperRow) Key() int64 { return r.ID }

// PrepareResult is the outcome of document preparation: either a
// prepared document or an intentional skip. Skipping is expected, not
// an error, and is counted separately from failures.
type PrepareResult struct {
	doc *PaperDoc
}

// Prepared wraps a document ready for indexing.
func Prepared(doc *PaperDoc) PrepareResult {
	return PrepareResult{doc: doc}
}

// Skipped marks a record as intentionally excluded from the index.
func Skipped() PrepareResult {
	return PrepareResult{}
}

// Doc returns the prepared document and whether one exists.
func (r PrepareResult) Doc() (*PaperDoc, bool) {
	return r.doc, r.doc != nil
}

// PreparePaper converts a paper row into an index document. Papers
// hidden from search and papers without a usable title are skipped.
func PreparePaper(row PaperRow) (PrepareResult, error) {
	if !row.Visible {
		return Skipped(), nil
	}
	if strings.TrimSpace(row.Title) == "" {
		return Skipped(), nil
	}

	authors := make([]string, 0, len(row.Authors))
	for _, a := range row.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	doc := &PaperDoc{
		ID:          strconv.FormatInt(row.ID, 10),
		Title:       row.Title,
		Abstract:    row.Abstract,
		Authors:     authors,
		Year:        row.Year,
		OaStatus:    row.OaStatus,
		Fingerprint: row.Fingerprint,
		PdfURL:      row.PdfURL,
	}
	return Prepared(doc), nil
}
