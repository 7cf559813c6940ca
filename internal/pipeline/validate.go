package pipeline

import (
	"fmt"
	"time"

	"github.com/bleemesser/gphotocat/internal/catalog"
	"github.com/bleemesser/gphotocat/internal/logging"
)

// validate is the post-scan validation pass (SPEC_FULL.md §4.13): mark
// stale rows missing, flag transactional anomalies as inconsistent,
// reconcile counters against actual row counts, and close out the
// scan_runs row. Runs after the writer has joined, so every commit it
// reads back is final. writerFailed, set when the writer dropped a
// batch after exhausting its retries, closes the run with
// status="failed" instead of "completed" (SPEC_FULL.md §7).
func validate(cat *catalog.Catalog, scanRunID string, start time.Time, writerFailed bool, log *logging.Logger) (Summary, error) {
	missing, err := catalog.MarkMissing(cat.DB(), scanRunID)
	if err != nil {
		return Summary{}, fmt.Errorf("marking missing media items: %w", err)
	}

	inconsistent, err := markInconsistentOlderThanStart(cat, scanRunID, start)
	if err != nil {
		return Summary{}, fmt.Errorf("marking inconsistent media items: %w", err)
	}

	if _, err := catalog.MarkAlbumsMissing(cat.DB(), scanRunID); err != nil {
		log.Warn("re-checking missing albums after scan: %v", err)
	}

	if err := catalog.SetMissingAndInconsistentCounts(cat.DB(), scanRunID, missing, inconsistent); err != nil {
		return Summary{}, fmt.Errorf("recording missing/inconsistent counts: %w", err)
	}

	reconcileCounters(cat, scanRunID, log)

	end := time.Now()
	duration := end.Sub(start).Seconds()
	var filesPerSecond float64
	processed, err := catalog.MediaItemCountsByStatus(cat.DB(), scanRunID)
	if err == nil && duration > 0 {
		var total int64
		for _, n := range processed {
			total += n
		}
		filesPerSecond = float64(total) / duration
	}

	status := "completed"
	if writerFailed {
		status = "failed"
	}
	if err := catalog.CompleteScanRun(cat.DB(), scanRunID, status, end, duration, filesPerSecond); err != nil {
		return Summary{}, fmt.Errorf("completing scan run: %w", err)
	}

	errored := int(processed["error"])
	return Summary{
		MediaProcessed: int(processed["new"] + processed["changed"] + processed["unchanged"]),
		Errors:         errored,
	}, nil
}

// markInconsistentOlderThanStart flags every row from this scan run
// whose last_seen_timestamp predates the run's own recorded start -
// the signature of a commit that landed out of order relative to when
// the scan began (SPEC_FULL.md §4.13 step 2).
func markInconsistentOlderThanStart(cat *catalog.Catalog, scanRunID string, start time.Time) (int64, error) {
	rows, err := cat.DB().Query(`
		SELECT media_item_id FROM media_items
		WHERE scan_run_id = ? AND last_seen_timestamp < ?`,
		scanRunID, start.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := catalog.MarkInconsistent(cat.DB(), id); err != nil {
			return 0, err
		}
	}
	return int64(len(ids)), nil
}

// reconcileCounters compares the incrementally maintained scan_runs
// counters against the media_items rows actually committed, logging
// any mismatch as a warning rather than failing the scan - a mismatch
// indicates a batch the writer dropped after exhausting its retries.
func reconcileCounters(cat *catalog.Catalog, scanRunID string, log *logging.Logger) {
	counts, err := catalog.MediaItemCountsByStatus(cat.DB(), scanRunID)
	if err != nil {
		log.Warn("reconciling counters: %v", err)
		return
	}

	var row struct {
		processed, new_, changed, unchanged int64
	}
	r := cat.DB().QueryRow(`
		SELECT media_files_processed, media_new_files, media_changed_files, media_unchanged_files
		FROM scan_runs WHERE scan_run_id = ?`, scanRunID)
	if err := r.Scan(&row.processed, &row.new_, &row.changed, &row.unchanged); err != nil {
		log.Warn("reading scan_runs counters: %v", err)
		return
	}

	actualTotal := counts["new"] + counts["changed"] + counts["unchanged"]
	if row.processed != actualTotal {
		log.Warn("scan_runs counter mismatch: recorded %d processed, found %d media_items rows", row.processed, actualTotal)
	}
}
