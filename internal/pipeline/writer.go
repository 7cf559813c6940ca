package pipeline

import (
	"database/sql"
	"math"
	"sync/atomic"
	"time"

	"github.com/bleemesser/gphotocat/internal/catalog"
	"github.com/bleemesser/gphotocat/internal/logging"
)

const (
	defaultBatchSize  = 100
	backoffBase       = 100 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
)

// runWriter is the single goroutine that owns the catalog's write
// connection (SPEC_FULL.md §4.12). It batches results up to batchSize,
// commits each batch in one transaction, and retries a failed commit
// with exponential backoff before giving up on that batch and logging
// it as lost, so one bad batch cannot wedge the whole scan. failed is
// set when a batch is dropped after exhausting retries, so the caller
// can close the scan run as "failed" instead of "completed" once the
// writer has joined (SPEC_FULL.md §7 "persistent failure terminates
// the scan").
func runWriter(db *catalog.Catalog, scanRunID string, batchSize int, maxBackoff time.Duration, resultsCh <-chan Result, failed *atomic.Bool, log *logging.Logger) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}

	batch := make([]Result, 0, batchSize)
	now := time.Now

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := commitBatch(db, scanRunID, batch, now()); err != nil {
			log.Error("writer: batch of %d failed after retries, dropping: %v (first item %s)", len(batch), err, firstItemLabel(batch[0]))
			failed.Store(true)
		}
		batch = batch[:0]
	}

	for r := range resultsCh {
		batch = append(batch, r)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()
}

func firstItemLabel(r Result) string {
	switch r.kind {
	case resultMedia:
		return r.record.RelativePath
	case resultUnchanged:
		return r.unchangedItemID
	default:
		return r.relativePath
	}
}

// commitBatch opens one transaction for the whole batch and retries on
// failure with exponential backoff (0.1s * 2^attempt, capped at
// maxBackoff), matching SPEC_FULL.md §4.12 exactly.
func commitBatch(cat *catalog.Catalog, scanRunID string, batch []Result, now time.Time) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		tx, err := cat.DB().Begin()
		if err != nil {
			lastErr = err
		} else if err := writeBatchTx(tx, scanRunID, batch, now); err != nil {
			tx.Rollback()
			lastErr = err
		} else if err := tx.Commit(); err != nil {
			lastErr = err
		} else {
			return nil
		}

		if attempt >= 5 {
			return lastErr
		}
		wait := time.Duration(float64(backoffBase) * math.Pow(2, float64(attempt)))
		if wait > maxBackoff {
			wait = maxBackoff
		}
		time.Sleep(wait)
	}
}

func writeBatchTx(tx *sql.Tx, scanRunID string, batch []Result, now time.Time) error {
	var delta catalog.Counters

	for _, r := range batch {
		switch r.kind {
		case resultMedia:
			if err := catalog.InsertMediaItem(tx, r.record, scanRunID, now); err != nil {
				return err
			}
			if err := catalog.InsertPeople(tx, r.record.MediaItemID, r.record.People); err != nil {
				return err
			}
			delta.MediaFilesProcessed++
			if r.record.Status == "new" {
				delta.MediaNewFiles++
			} else {
				delta.MediaChangedFiles++
			}
		case resultUnchanged:
			if err := catalog.MarkUnchanged(tx, r.unchangedItemID, scanRunID, now); err != nil {
				return err
			}
			delta.MediaFilesProcessed++
			delta.MediaUnchangedFiles++
		case resultError:
			if err := catalog.InsertError(tx, scanRunID, r.relativePath, r.errType, r.errCategory, r.errMessage, now); err != nil {
				return err
			}
			delta.MediaErrorFiles++
		}
	}

	return catalog.ApplyCounters(tx, scanRunID, delta)
}
