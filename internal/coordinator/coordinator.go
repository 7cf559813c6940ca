// Package coordinator is the I/O-bound half of processing one media
// file: parsing its sidecar, aggregating metadata, deriving its
// deterministic id, and deciding whether it is new, changed, or
// unchanged since the last scan, grounded on
// original_source/.../media_scanner/metadata_coordinator.py.
package coordinator

import (
	"fmt"
	"path/filepath"

	"github.com/bleemesser/gphotocat/internal/aggregator"
	"github.com/bleemesser/gphotocat/internal/catalog"
	"github.com/bleemesser/gphotocat/internal/discovery"
	"github.com/bleemesser/gphotocat/internal/fileproc"
	"github.com/bleemesser/gphotocat/internal/fingerprint"
	"github.com/bleemesser/gphotocat/internal/ids"
	"github.com/bleemesser/gphotocat/internal/logging"
	"github.com/bleemesser/gphotocat/internal/metadata"
	"github.com/bleemesser/gphotocat/internal/sidecar"
)

// Outcome is what coordinate decided for one file: either a fully built
// record ready for the writer, or a fast-path "this row is byte-for-
// byte the one already cataloged" signal the writer turns into a
// MarkUnchanged update instead of a full rewrite. SidecarErr, when set,
// is a non-fatal sidecar failure the caller may still want to file
// under processing_errors for visibility - it never suppresses Record.
type Outcome struct {
	Record          metadata.MediaItemRecord
	Unchanged       bool
	UnchangedItemID string
	SidecarErr      error
}

// Coordinate merges f's discovery metadata with fp's extracted
// metadata and an optional sidecar, derives the file's media_item_id,
// and checks db for the rescan predicate from SPEC_FULL.md §4.11. A
// sidecar that fails to read or parse attaches null sidecar metadata
// and is reported via Outcome.SidecarErr rather than aborting the file,
// matching original_source/.../metadata_coordinator.py's behavior of
// catching the decode exception and continuing with json_metadata={}.
func Coordinate(db *catalog.Catalog, f discovery.FileInfo, fp fileproc.Result, albumID string, log *logging.Logger) (Outcome, error) {
	var sc *sidecar.Data
	var sidecarFingerprintHex string
	var sidecarErr error

	if f.SidecarPath != "" {
		parsed, err := sidecar.Parse(f.SidecarPath, log)
		if err != nil {
			log.Warn("sidecar %s: %v, cataloging %s without sidecar metadata", f.SidecarPath, err, f.RelativePath)
			sidecarErr = err
		} else {
			sc = parsed

			fp2, err := fingerprint.SidecarFingerprint(f.SidecarPath)
			if err != nil {
				log.Warn("fingerprinting sidecar %s: %v, cataloging %s without a sidecar fingerprint", f.SidecarPath, err, f.RelativePath)
				sidecarErr = err
			} else {
				sidecarFingerprintHex = fp2
			}
		}
	}

	agg := aggregator.Aggregate(fp.Exif, fp.Video, sc, filepath.Base(f.AbsolutePath))

	var photoTakenUnix, creationUnix *int64
	if sc != nil && sc.PhotoTakenTime != nil {
		v := sc.PhotoTakenTime.Unix()
		photoTakenUnix = &v
	}
	if sc != nil && sc.CreationTime != nil {
		v := sc.CreationTime.Unix()
		creationUnix = &v
	}
	mediaItemID := ids.MediaItemID(f.RelativePath, photoTakenUnix, creationUnix, f.FileSize).String()

	existingID, unchanged, err := catalog.CheckUnchanged(db.DB(), f.RelativePath, fp.ContentFingerprint, sidecarFingerprintHex)
	if err != nil {
		return Outcome{}, fmt.Errorf("checking rescan predicate for %s: %w", f.RelativePath, err)
	}
	if unchanged {
		return Outcome{Unchanged: true, UnchangedItemID: existingID, SidecarErr: sidecarErr}, nil
	}

	status := "new"
	if existingID != "" {
		status = "changed"
	}

	record := metadata.MediaItemRecord{
		MediaItemID:        mediaItemID,
		RelativePath:       f.RelativePath,
		AlbumID:            albumID,
		Title:              agg.Title,
		MIMEType:           fp.MIMEType,
		FileSize:           f.FileSize,
		CRC32:              fp.CRC32,
		ContentFingerprint: fp.ContentFingerprint,
		SidecarFingerprint: sidecarFingerprintHex,
		Width:              agg.Width,
		Height:             agg.Height,
		DurationSeconds:    agg.DurationSeconds,
		FrameRate:          agg.FrameRate,
		CaptureTimestamp:   agg.CaptureTimestamp,
		Status:             status,
		Exif:               agg.Exif,
		GoogleDescription:  agg.Description,
		GoogleGeoLatitude:  agg.GoogleGeoLatitude,
		GoogleGeoLongitude: agg.GoogleGeoLongitude,
		GoogleGeoAltitude:  agg.GoogleGeoAltitude,
		People:             agg.People,
	}

	return Outcome{Record: record, SidecarErr: sidecarErr}, nil
}
