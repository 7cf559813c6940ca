// Package metadata holds the value types that flow between fileproc,
// exifextract, videometa, aggregator and coordinator. Keeping them in
// one leaf package avoids an import cycle between the extractors (which
// produce them) and the aggregator (which consumes all of them at once).
package metadata

import "time"

// Exif is everything internal/exifextract can recover from a file,
// whichever extraction path (in-process decoder or exiftool subprocess)
// produced it. Every field is a pointer/zero-value so "absent" and
// "zero" are distinguishable.
type Exif struct {
	DateTimeOriginal  *time.Time
	DateTimeDigitized *time.Time
	Make              string
	Model             string
	LensMake          string
	LensModel         string
	FocalLength       *float64
	FNumber           *float64
	ExposureTime      string
	ISO               *int
	Orientation       *int
	Flash             string
	WhiteBalance      string
	GPSLatitude       *float64
	GPSLongitude      *float64
	GPSAltitude       *float64
	Width             *int
	Height            *int
}

// Video is what internal/videometa recovers via an ffprobe subprocess.
type Video struct {
	Width           *int
	Height          *int
	DurationSeconds *float64
	FrameRate       *float64
}

// Aggregated is the output of internal/aggregator: the precedence-
// resolved view of EXIF, video and sidecar metadata for one file, ready
// to be folded into a MediaItemRecord by internal/coordinator.
type Aggregated struct {
	Title             string
	Description       string
	CaptureTimestamp  *time.Time
	GoogleGeoLatitude  *float64
	GoogleGeoLongitude *float64
	GoogleGeoAltitude  *float64
	Width             *int
	Height            *int
	DurationSeconds   *float64
	FrameRate         *float64
	Exif              Exif
	People            []string
}

// MediaItemRecord is the fully-built row coordinate() hands to the
// writer, mirroring the media_items table (SPEC_FULL.md §6).
type MediaItemRecord struct {
	MediaItemID        string
	RelativePath       string
	AlbumID            string
	Title              string
	MIMEType           string
	FileSize           int64
	CRC32              string
	ContentFingerprint string
	SidecarFingerprint string
	Width              *int
	Height             *int
	DurationSeconds    *float64
	FrameRate          *float64
	CaptureTimestamp   *time.Time
	Status             string
	Exif               Exif
	GoogleDescription  string
	GoogleGeoLatitude  *float64
	GoogleGeoLongitude *float64
	GoogleGeoAltitude  *float64
	People             []string
}
