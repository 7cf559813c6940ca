package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// ScanRun mirrors the scan_runs row, grounded on
// original_source/.../dal/scan_runs.py's counter set.
type ScanRun struct {
	ScanRunID               string
	StartTimestamp          time.Time
	EndTimestamp            *time.Time
	Status                  string
	DurationSeconds         *float64
	FilesPerSecond          *float64
	TotalFilesDiscovered    int
	MediaFilesDiscovered    int
	MetadataFilesDiscovered int
	MediaFilesProcessed     int
	MetadataFilesProcessed  int
	MediaNewFiles           int
	MediaUnchangedFiles     int
	MediaChangedFiles       int
	MissingFiles            int
	MediaErrorFiles         int
	InconsistentFiles       int
	AlbumsTotal             int
	FilesInAlbums           int
}

// CreateScanRun inserts a new running scan_runs row.
func CreateScanRun(db *sql.DB, scanRunID string, start time.Time) error {
	_, err := db.Exec(`
		INSERT INTO scan_runs (scan_run_id, start_timestamp, status)
		VALUES (?, ?, 'running')`,
		scanRunID, start.UTC().Format(time.RFC3339))
	return err
}

// Counters is the batch-local tally the writer accumulates before
// flushing to scan_runs in a single UPDATE per batch, avoiding a
// separate statement per counter per record.
type Counters struct {
	MediaFilesDiscovered    int
	MetadataFilesDiscovered int
	MediaFilesProcessed     int
	MediaNewFiles           int
	MediaUnchangedFiles     int
	MediaChangedFiles       int
	MediaErrorFiles         int
	AlbumsTotal             int
	FilesInAlbums           int
}

// ApplyCounters adds delta onto the named scan_runs row's counters.
// Called once per writer batch, so scan-run counters are only ever
// touched by the single writer goroutine (SPEC_FULL.md §9, "Scan-run
// counters").
func ApplyCounters(execer execer, scanRunID string, delta Counters) error {
	_, err := execer.Exec(`
		UPDATE scan_runs SET
			media_files_discovered = media_files_discovered + ?,
			metadata_files_discovered = metadata_files_discovered + ?,
			media_files_processed = media_files_processed + ?,
			media_new_files = media_new_files + ?,
			media_unchanged_files = media_unchanged_files + ?,
			media_changed_files = media_changed_files + ?,
			media_error_files = media_error_files + ?,
			albums_total = albums_total + ?,
			files_in_albums = files_in_albums + ?
		WHERE scan_run_id = ?`,
		delta.MediaFilesDiscovered, delta.MetadataFilesDiscovered, delta.MediaFilesProcessed,
		delta.MediaNewFiles, delta.MediaUnchangedFiles, delta.MediaChangedFiles,
		delta.MediaErrorFiles, delta.AlbumsTotal, delta.FilesInAlbums, scanRunID)
	return err
}

// SetMissingAndInconsistentCounts overwrites the two post-scan-only
// counters; unlike ApplyCounters these are absolute counts computed
// once by the post-scan validator, not incremental per-batch deltas.
func SetMissingAndInconsistentCounts(db *sql.DB, scanRunID string, missing, inconsistent int64) error {
	_, err := db.Exec(`
		UPDATE scan_runs SET missing_files = ?, inconsistent_files = ?
		WHERE scan_run_id = ?`, missing, inconsistent, scanRunID)
	return err
}

// CompleteScanRun closes out a scan_runs row with its final status,
// end timestamp, duration, and throughput.
func CompleteScanRun(db *sql.DB, scanRunID, status string, end time.Time, duration float64, filesPerSecond float64) error {
	_, err := db.Exec(`
		UPDATE scan_runs SET
			status = ?, end_timestamp = ?, duration_seconds = ?, files_per_second = ?
		WHERE scan_run_id = ?`,
		status, end.UTC().Format(time.RFC3339), duration, filesPerSecond, scanRunID)
	return err
}

// GetScanRun reads back a scan_runs row, used by post-scan validation
// to fetch this run's recorded start_timestamp (SPEC_FULL.md §4.13
// step 2 needs the scan run's own recorded start, not a value passed
// around separately, to detect transactional anomalies).
func GetScanRun(db *sql.DB, scanRunID string) (*ScanRun, error) {
	row := db.QueryRow(`SELECT scan_run_id, start_timestamp FROM scan_runs WHERE scan_run_id = ?`, scanRunID)
	var sr ScanRun
	var start string
	if err := row.Scan(&sr.ScanRunID, &start); err != nil {
		return nil, fmt.Errorf("get scan run %s: %w", scanRunID, err)
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return nil, fmt.Errorf("parse start_timestamp: %w", err)
	}
	sr.StartTimestamp = t
	return &sr, nil
}

// MediaItemCountsByStatus reconciles scan_runs counters against actual
// row counts, per SPEC_FULL.md §4.13 step 4.
func MediaItemCountsByStatus(db *sql.DB, scanRunID string) (map[string]int64, error) {
	rows, err := db.Query(`SELECT status, count(*) FROM media_items WHERE scan_run_id = ? GROUP BY status`, scanRunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting ApplyCounters
// run either standalone or inside the writer's batch transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
