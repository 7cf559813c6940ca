package catalog

import (
	"database/sql"
	"errors"
	"time"

	"github.com/bleemesser/gphotocat/internal/metadata"
)

// CheckUnchanged implements the rescan predicate from SPEC_FULL.md
// §4.11: a row is unchanged if it exists at the same relative_path with
// the same content_fingerprint, and its sidecar_fingerprint either
// matches exactly or both are absent. Returns (mediaItemID, true) when
// the row can be fast-pathed to a MarkUnchanged update rather than a
// full re-derivation.
func CheckUnchanged(execer queryer, relativePath, contentFingerprint, sidecarFingerprint string) (string, bool, error) {
	var id string
	var existingContentFP string
	var existingSidecarFP sql.NullString

	row := execer.QueryRow(`
		SELECT media_item_id, content_fingerprint, sidecar_fingerprint
		FROM media_items WHERE relative_path = ? AND status != 'missing'`, relativePath)
	err := row.Scan(&id, &existingContentFP, &existingSidecarFP)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if existingContentFP != contentFingerprint {
		return id, false, nil
	}

	sidecarMatches := existingSidecarFP.String == sidecarFingerprint && existingSidecarFP.Valid == (sidecarFingerprint != "")
	if sidecarFingerprint == "" && !existingSidecarFP.Valid {
		sidecarMatches = true
	}
	if !sidecarMatches {
		return id, false, nil
	}
	return id, true, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

// MarkUnchanged touches only scan_run_id, last_seen_timestamp, and
// status on a row already known to be byte-identical to the prior scan,
// avoiding a full rewrite of every metadata column (SPEC_FULL.md §4.11
// "unchanged path").
func MarkUnchanged(execer execer, mediaItemID, scanRunID string, now time.Time) error {
	_, err := execer.Exec(`
		UPDATE media_items SET scan_run_id = ?, last_seen_timestamp = ?, status = 'unchanged'
		WHERE media_item_id = ?`, scanRunID, now.UTC().Format(time.RFC3339), mediaItemID)
	return err
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC().Format(time.RFC3339)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// InsertMediaItem writes a new or changed media_items row keyed by the
// deterministic media_item_id, which ids.MediaItemID derives from the
// relative path, the sidecar's photoTaken/creation timestamps and the
// file size (not from file contents). It uses INSERT OR REPLACE, so a
// row with the same id is overwritten in place and keeps its
// first_seen_timestamp; a change to any of those id inputs (e.g. a new
// file size) yields a new id and therefore a new row (SPEC_FULL.md §9
// "Idempotent upserts").
func InsertMediaItem(execer execer, r metadata.MediaItemRecord, scanRunID string, now time.Time) error {
	nowStr := now.UTC().Format(time.RFC3339)
	_, err := execer.Exec(`
		INSERT OR REPLACE INTO media_items (
			media_item_id, relative_path, album_id, title, mime_type, file_size,
			crc32, content_fingerprint, sidecar_fingerprint, width, height,
			duration_seconds, frame_rate, capture_timestamp, scan_run_id, status,
			first_seen_timestamp, last_seen_timestamp,
			exif_datetime_original, exif_datetime_digitized, exif_make, exif_model,
			exif_lens_make, exif_lens_model, exif_focal_length, exif_f_number,
			exif_exposure_time, exif_iso, exif_orientation, exif_flash,
			exif_white_balance, exif_gps_latitude, exif_gps_longitude, exif_gps_altitude,
			google_description, google_geo_latitude, google_geo_longitude, google_geo_altitude
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT first_seen_timestamp FROM media_items WHERE media_item_id = ?), ?), ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`,
		r.MediaItemID, r.RelativePath, nullString(r.AlbumID), nullString(r.Title), nullString(r.MIMEType), r.FileSize,
		nullString(r.CRC32), nullString(r.ContentFingerprint), nullString(r.SidecarFingerprint), nullInt(r.Width), nullInt(r.Height),
		nullFloat(r.DurationSeconds), nullFloat(r.FrameRate), nullTime(r.CaptureTimestamp), scanRunID, r.Status,
		r.MediaItemID, nowStr, nowStr,
		nullTime(r.Exif.DateTimeOriginal), nullTime(r.Exif.DateTimeDigitized), nullString(r.Exif.Make), nullString(r.Exif.Model),
		nullString(r.Exif.LensMake), nullString(r.Exif.LensModel), nullFloat(r.Exif.FocalLength), nullFloat(r.Exif.FNumber),
		nullString(r.Exif.ExposureTime), nullInt(r.Exif.ISO), nullInt(r.Exif.Orientation), nullString(r.Exif.Flash),
		nullString(r.Exif.WhiteBalance), nullFloat(r.Exif.GPSLatitude), nullFloat(r.Exif.GPSLongitude), nullFloat(r.Exif.GPSAltitude),
		nullString(r.GoogleDescription), nullFloat(r.GoogleGeoLatitude), nullFloat(r.GoogleGeoLongitude), nullFloat(r.GoogleGeoAltitude),
	)
	return err
}

// InsertPeople replaces the media_item_people rows tagged against
// mediaItemID with the names currently in the sidecar, since Google
// Photos lets a person's tag be added or removed between exports.
func InsertPeople(execer execer, mediaItemID string, people []string) error {
	if _, err := execer.Exec(`DELETE FROM media_item_people WHERE media_item_id = ?`, mediaItemID); err != nil {
		return err
	}
	for _, name := range people {
		if _, err := execer.Exec(`INSERT INTO media_item_people (media_item_id, person_name) VALUES (?, ?)`, mediaItemID, name); err != nil {
			return err
		}
	}
	return nil
}

// MarkMissing flips every media_items row not touched by scanRunID to
// status "missing" (SPEC_FULL.md §4.13, file present in a prior scan
// but absent from this one).
func MarkMissing(db *sql.DB, scanRunID string) (int64, error) {
	res, err := db.Exec(`UPDATE media_items SET status = 'missing' WHERE scan_run_id != ? AND status != 'missing'`, scanRunID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkInconsistent sets status "inconsistent" on the single row with
// mediaItemID. It checks no condition itself: the post-scan validator
// calls it for rows of this scan run whose last_seen_timestamp predates
// the run's start (SPEC_FULL.md §4.13).
func MarkInconsistent(execer execer, mediaItemID string) error {
	_, err := execer.Exec(`UPDATE media_items SET status = 'inconsistent' WHERE media_item_id = ?`, mediaItemID)
	return err
}
