package catalog

import (
	"database/sql"
	"time"

	"github.com/bleemesser/gphotocat/internal/album"
)

// UpsertAlbum writes one albums row, idempotent across rescans via
// INSERT ... ON CONFLICT(album_folder_path) DO UPDATE (SPEC_FULL.md §9
// "Idempotent upserts"). A second scan over the same Takeout export
// re-derives the same album_id (ids.AlbumID is deterministic on folder
// basename), so the ON CONFLICT target is the folder path, not the id.
func UpsertAlbum(execer execer, a album.Info, scanRunID string, now time.Time) error {
	var creation any
	if a.CreationTimestamp != nil {
		creation = a.CreationTimestamp.UTC().Format(time.RFC3339)
	}

	_, err := execer.Exec(`
		INSERT INTO albums (
			album_id, album_folder_path, title, description, creation_timestamp,
			access_level, status, scan_run_id, first_seen_timestamp, last_seen_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(album_folder_path) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			creation_timestamp = excluded.creation_timestamp,
			access_level = excluded.access_level,
			status = excluded.status,
			scan_run_id = excluded.scan_run_id,
			last_seen_timestamp = excluded.last_seen_timestamp`,
		a.ID.String(), a.FolderPath, a.Title, a.Description, creation,
		a.AccessLevel, a.Status, scanRunID,
		now.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	return err
}

// MarkAlbumsMissing flips every album row not touched by scanRunID to
// status "missing", mirroring MarkMissing for media_items.
func MarkAlbumsMissing(db *sql.DB, scanRunID string) (int64, error) {
	res, err := db.Exec(`UPDATE albums SET status = 'missing' WHERE scan_run_id != ? AND status != 'missing'`, scanRunID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
