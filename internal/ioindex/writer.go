package ioindex

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oatrack/oadb/pkg/cursor"
)

// reportEvery is the number of successfully indexed documents between
// throughput reports.
const reportEvery = 5000

// bulkClient is the slice of Client the writer needs; narrowed for
// tests.
type bulkClient interface {
	Bulk(ctx context.Context, docs []*PaperDoc) (int, error)
	Refresh(ctx context.Context) error
}

// bulkWriter pushes a collection's worth of documents into the index
// in controlled batches. One page from the cursor becomes one bulk
// request; every batchesPerCommit requests the index is refreshed so
// written documents become visible without paying the refresh cost per
// batch.
//
// A failed batch is fatal to the run: the writer does not retry, and
// the caller restarts from the last reported key.
type bulkWriter struct {
	client           bulkClient
	prepare          func(PaperRow) (PrepareResult, error)
	batchesPerCommit int
	maxKey           int64
	runID            string

	// resumeKey is the key of the last successfully written batch.
	// The cursor itself advances past a page before the bulk request,
	// so on failure its position overshoots by one page; this does not.
	resumeKey int64
}

// run drains the cursor. Returns the number of indexed and skipped
// documents.
func (w *bulkWriter) run(
	ctx context.Context,
	cur *cursor.Cursor[PaperRow],
) (int64, int64, error) {
	var indexed, skipped int64
	var batchNumber int

	sinceReport := 0
	timeStart := time.Now()

	for page, err := range cur.Pages(ctx) {
		if err != nil {
			return indexed, skipped, err
		}
		batchNumber++

		docs := make([]*PaperDoc, 0, len(page))
		for _, row := range page {
			res, err := w.prepare(row)
			if err != nil {
				return indexed, skipped, err
			}
			doc, ok := res.Doc()
			if !ok {
				skipped++
				continue
			}
			docs = append(docs, doc)
		}

		n, err := w.client.Bulk(ctx, docs)
		if err != nil {
			return indexed, skipped, err
		}
		w.resumeKey = cur.LastKey()
		indexed += int64(n)
		sinceReport += n

		if w.batchesPerCommit > 0 &&
			batchNumber%w.batchesPerCommit == 0 {
			if err := w.client.Refresh(ctx); err != nil {
				return indexed, skipped, err
			}
		}

		if sinceReport >= reportEvery {
			elapsed := time.Since(timeStart).Seconds()
			rate := int64(float64(sinceReport) / elapsed)
			fmt.Fprintf(os.Stderr, "\r%s", strings.Repeat(" ", 60))
			fmt.Fprintf(os.Stderr,
				"\rIndexed %s docs, %s docs/sec, key %s / %s",
				humanize.Comma(indexed),
				humanize.Comma(rate),
				humanize.Comma(cur.LastKey()),
				humanize.Comma(w.maxKey),
			)
			slog.Debug(
				"Indexing progress",
				"run", w.runID,
				"indexed", indexed,
				"docsPerSec", rate,
				"currentKey", cur.LastKey(),
				"lastKey", w.maxKey,
			)
			timeStart = time.Now()
			sinceReport = 0
		}
	}

	// Clear progress line
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", 60))
	return indexed, skipped, nil
}
