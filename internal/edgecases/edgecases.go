// Package edgecases implements the two post-write linking passes that
// need the full set of cataloged paths to resolve: edited-variant
// linking and Live Photo pairing, grounded on
// original_source/.../edge_cases/edited_variants.py and
// original_source/.../edge_cases/live_photos.py.
package edgecases

import (
	"database/sql"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// mediaRow is the minimal projection both passes need: just enough to
// match one file against another by relative path.
type mediaRow struct {
	id   string
	path string // relative path, forward-slash normalized
}

func loadMediaRows(db *sql.DB, scanRunID string) ([]mediaRow, error) {
	rows, err := db.Query(`SELECT media_item_id, relative_path FROM media_items WHERE scan_run_id = ?`, scanRunID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []mediaRow
	for rows.Next() {
		var r mediaRow
		if err := rows.Scan(&r.id, &r.path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LinkEditedVariants sets original_media_item_id on every "<stem>-edited.<ext>"
// row whose base "<stem>.<ext>" was also cataloged this scan
// (SPEC_FULL.md §4.10, "Edited-variant linking"). Runs after the whole
// scan has been written, since an edited file and its original can be
// discovered in either order.
func LinkEditedVariants(db *sql.DB, scanRunID string) (int64, error) {
	rows, err := loadMediaRows(db, scanRunID)
	if err != nil {
		return 0, err
	}

	byPath := make(map[string]mediaRow, len(rows))
	for _, r := range rows {
		byPath[r.path] = r
	}

	var linked int64
	for _, r := range rows {
		dir, base := filepath.Split(r.path)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		if !strings.HasSuffix(stem, "-edited") {
			continue
		}
		originalStem := strings.TrimSuffix(stem, "-edited")
		originalPath := dir + originalStem + ext
		original, ok := byPath[originalPath]
		if !ok || original.id == r.id {
			continue
		}
		if _, err := db.Exec(`UPDATE media_items SET original_media_item_id = ? WHERE media_item_id = ?`, original.id, r.id); err != nil {
			return linked, err
		}
		linked++
	}
	return linked, nil
}

// livePhotoImageExts are the still-image extensions Google Photos pairs
// with a .mov of the same folder and stem to form a Live Photo.
var livePhotoImageExts = map[string]bool{
	".heic": true,
	".jpg":  true,
	".jpeg": true,
}

// LinkLivePhotos sets live_photo_pair_id on both halves of every
// "<stem>.<heic|jpg|jpeg>" / "<stem>.mov" pair sharing a folder and
// stem to one freshly generated random id shared by the two rows
// (SPEC_FULL.md §4.10, "Live Photo pairing").
func LinkLivePhotos(db *sql.DB, scanRunID string) (int64, error) {
	rows, err := loadMediaRows(db, scanRunID)
	if err != nil {
		return 0, err
	}

	type key struct{ dir, stem string }
	images := make(map[key]mediaRow)
	movs := make(map[key]mediaRow)

	for _, r := range rows {
		dir, base := filepath.Split(r.path)
		ext := strings.ToLower(filepath.Ext(base))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		k := key{dir, stem}
		switch {
		case livePhotoImageExts[ext]:
			images[k] = r
		case ext == ".mov":
			movs[k] = r
		}
	}

	var linked int64
	for k, img := range images {
		mov, ok := movs[k]
		if !ok {
			continue
		}
		pairID := uuid.New().String()
		if _, err := db.Exec(`UPDATE media_items SET live_photo_pair_id = ? WHERE media_item_id = ?`, pairID, img.id); err != nil {
			return linked, err
		}
		if _, err := db.Exec(`UPDATE media_items SET live_photo_pair_id = ? WHERE media_item_id = ?`, pairID, mov.id); err != nil {
			return linked, err
		}
		linked += 2
	}
	return linked, nil
}
