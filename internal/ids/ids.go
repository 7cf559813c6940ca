// Package ids derives the deterministic UUIDv5 identities used for
// albums and media items, grounded on
// original_source/.../dal/albums.py (ALBUM_NAMESPACE, generate_album_id)
// and .../metadata_coordinator.py (MEDIA_ITEM_NAMESPACE,
// _generate_media_item_id). Both entities share one namespace UUID; the
// RFC 4122 DNS namespace, as the original does.
package ids

import (
	"strconv"

	"github.com/google/uuid"
)

// Namespace is the fixed RFC 4122 DNS namespace UUID both album and
// media item ids are derived under.
var Namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// AlbumID derives an album's id from its folder basename alone - never
// from any parent path component, so the id survives the Takeout
// archive being re-extracted somewhere else (SPEC_FULL.md §4.3,
// resolving the basename-vs-path open question).
func AlbumID(folderName string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(folderName))
}

// MediaItemID derives a media item's id from the canonical pipe-
// delimited tuple: relativePath | photoTakenTime | fileSize |
// creationTime. photoTakenTime and creationTime are Unix seconds; pass
// nil for either when the sidecar did not supply it, which renders as
// an empty string exactly like the original's missing-timestamp case.
func MediaItemID(relativePath string, photoTakenTime, creationTime *int64, fileSize int64) uuid.UUID {
	canonical := relativePath + "|" + formatOptionalTimestamp(photoTakenTime) +
		"|" + strconv.FormatInt(fileSize, 10) + "|" + formatOptionalTimestamp(creationTime)
	return uuid.NewSHA1(Namespace, []byte(canonical))
}

func formatOptionalTimestamp(ts *int64) string {
	if ts == nil {
		return ""
	}
	return strconv.FormatInt(*ts, 10)
}
