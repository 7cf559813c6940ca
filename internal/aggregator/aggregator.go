// Package aggregator merges EXIF, video-probe and sidecar metadata by
// the fixed precedence rules in SPEC_FULL.md §4.9, grounded on
// original_source/.../media_scanner/metadata/aggregator.py.
package aggregator

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bleemesser/gphotocat/internal/metadata"
	"github.com/bleemesser/gphotocat/internal/sidecar"
)

// Aggregate merges exif, video and an optional sidecar into one
// Aggregated record. filename is the media file's basename, used both
// as the title fallback and as the last-resort timestamp source.
func Aggregate(exif metadata.Exif, video metadata.Video, sc *sidecar.Data, filename string) metadata.Aggregated {
	var out metadata.Aggregated
	out.Exif = exif

	out.Title = filenameStem(filename)
	if sc != nil && sc.Title != "" {
		out.Title = sc.Title
	}
	if sc != nil {
		out.Description = sc.Description
		out.People = sc.People
	}

	out.CaptureTimestamp = aggregateTimestamp(exif, sc, filename)

	lat, lon, alt := aggregateGeo(sc)
	out.GoogleGeoLatitude, out.GoogleGeoLongitude, out.GoogleGeoAltitude = lat, lon, alt

	out.Width, out.Height = video.Width, video.Height
	if out.Width == nil {
		out.Width = exif.Width
	}
	if out.Height == nil {
		out.Height = exif.Height
	}
	out.DurationSeconds = video.DurationSeconds
	out.FrameRate = video.FrameRate

	return out
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func aggregateGeo(sc *sidecar.Data) (lat, lon, alt *float64) {
	if sc == nil || sc.GeoData == nil {
		return nil, nil, nil
	}
	g := sc.GeoData
	latV, lonV, altV := g.Latitude, g.Longitude, g.Altitude
	return &latV, &lonV, &altV
}

// aggregateTimestamp implements the capture_timestamp precedence chain:
// EXIF.DateTimeOriginal (if reliable) -> EXIF.DateTimeDigitized (if
// reliable) -> sidecar.photoTakenTime -> sidecar.creationTime -> parse
// from filename -> null.
func aggregateTimestamp(exif metadata.Exif, sc *sidecar.Data, filename string) *time.Time {
	if exif.DateTimeOriginal != nil && isReliableExifTimestamp(*exif.DateTimeOriginal) {
		return exif.DateTimeOriginal
	}
	if exif.DateTimeDigitized != nil && isReliableExifTimestamp(*exif.DateTimeDigitized) {
		return exif.DateTimeDigitized
	}
	if sc != nil && sc.PhotoTakenTime != nil {
		return sc.PhotoTakenTime
	}
	if sc != nil && sc.CreationTime != nil {
		return sc.CreationTime
	}
	if t := ParseTimestampFromFilename(filename); t != nil {
		return t
	}
	return nil
}

// unreliableEpochs are the trivial camera-default instants an EXIF
// timestamp is rejected for being within one minute of.
var unreliableEpochs = []time.Time{
	time.Unix(0, 0).UTC(),                      // Unix epoch
	time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC), // GPS epoch
	time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
}

// isReliableExifTimestamp rejects timestamps that look like camera
// defaults rather than genuine capture times: within a minute of a
// trivial epoch, before 1990, more than a year in the future, or
// exactly midnight on January 1st.
func isReliableExifTimestamp(t time.Time) bool {
	for _, epoch := range unreliableEpochs {
		if absDuration(t.Sub(epoch)) <= time.Minute {
			return false
		}
	}
	if t.Year() < 1990 {
		return false
	}
	if t.After(time.Now().UTC().AddDate(1, 0, 0)) {
		return false
	}
	if t.Month() == time.January && t.Day() == 1 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return false
	}
	return true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// filenamePatterns are the four regexes filenames are tried against, in
// order, to recover a capture timestamp when nothing else yielded one.
var filenamePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`(?:IMG|VID)_(\d{8})_(\d{6})`), "20060102150405"},
	{regexp.MustCompile(`(\d{8})_(\d{6})`), "20060102150405"},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2}) (\d{2})\.(\d{2})\.(\d{2})`), ""},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`), "2006-01-02"},
}

// ParseTimestampFromFilename tries the four fixed filename timestamp
// patterns in order and returns the first match as a UTC instant, or
// nil if none match.
func ParseTimestampFromFilename(filename string) *time.Time {
	base := filepath.Base(filename)

	if m := filenamePatterns[0].re.FindStringSubmatch(base); m != nil {
		if t, err := time.Parse(filenamePatterns[0].layout, m[1]+m[2]); err == nil {
			u := t.UTC()
			return &u
		}
	}
	if m := filenamePatterns[1].re.FindStringSubmatch(base); m != nil {
		if t, err := time.Parse(filenamePatterns[1].layout, m[1]+m[2]); err == nil {
			u := t.UTC()
			return &u
		}
	}
	if m := filenamePatterns[2].re.FindStringSubmatch(base); m != nil {
		composed := m[1] + " " + m[2] + ":" + m[3] + ":" + m[4]
		if t, err := time.Parse("2006-01-02 15:04:05", composed); err == nil {
			u := t.UTC()
			return &u
		}
	}
	if m := filenamePatterns[3].re.FindStringSubmatch(base); m != nil {
		if t, err := time.Parse(filenamePatterns[3].layout, m[1]); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}
