package catalog

import (
	"time"

	"github.com/bleemesser/gphotocat/internal/errs"
)

// InsertError files one per-file failure into processing_errors, the
// durable record of what the scan could not process (SPEC_FULL.md §6).
func InsertError(execer execer, scanRunID, relativePath string, errType errs.Type, category errs.Category, message string, now time.Time) error {
	_, err := execer.Exec(`
		INSERT INTO processing_errors (scan_run_id, relative_path, error_type, error_category, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		scanRunID, relativePath, string(errType), string(category), message, now.UTC().Format(time.RFC3339))
	return err
}
