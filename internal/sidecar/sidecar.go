// Package sidecar parses Google Photos Takeout JSON sidecar files,
// grounded on original_source/.../media_scanner/metadata/json_parser.py.
package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bleemesser/gphotocat/internal/logging"
)

// GeoData is the geoData/geoDataExif shape: latitude, longitude,
// altitude, plus the span fields Google includes alongside them.
type GeoData struct {
	Latitude      float64
	Longitude     float64
	Altitude      float64
	LatitudeSpan  float64
	LongitudeSpan float64
}

// Data is everything this package extracts from one sidecar JSON file.
// Fields the sidecar omitted, or that failed to parse, are left at the
// zero value / nil - the parser never raises for a malformed individual
// field, only for structurally invalid JSON.
type Data struct {
	Title              string
	Description        string
	PhotoTakenTime     *time.Time
	CreationTime       *time.Time
	GeoData            *GeoData
	People             []string
	URL                string
	GooglePhotosOrigin string
	ImageViews         string
	AppSource          string
}

// rawSidecar mirrors the on-disk JSON shape loosely enough that
// photoTakenTime/creationTime can be decoded from any of their three
// observed shapes (object, raw integer, ISO string) via json.RawMessage.
type rawSidecar struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	PhotoTakenTime     json.RawMessage `json:"photoTakenTime"`
	CreationTime       json.RawMessage `json:"creationTime"`
	GeoData            *rawGeoData     `json:"geoData"`
	GeoDataExif        *rawGeoData     `json:"geoDataExif"`
	People             []rawPerson     `json:"people"`
	URL                string          `json:"url"`
	GooglePhotosOrigin json.RawMessage `json:"googlePhotosOrigin"`
	ImageViews         string          `json:"imageViews"`
	AppSource          json.RawMessage `json:"appSource"`
}

type rawGeoData struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Altitude      float64 `json:"altitude"`
	LatitudeSpan  float64 `json:"latitudeSpan"`
	LongitudeSpan float64 `json:"longitudeSpan"`
}

type rawPerson struct {
	Name string `json:"name"`
}

type timestampObj struct {
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// formattedTimeLayouts are the patterns Google's "formatted" timestamp
// strings are tried against, in order, mirroring the original's fixed
// pattern list.
var formattedTimeLayouts = []string{
	"Jan 2, 2006, 3:04:05 PM MST",
	"Jan 2, 2006, 3:04:05 PM UTC",
	"2 Jan 2006, 15:04:05 MST",
	"Jan 2, 2006 3:04:05 PM",
}

// Parse reads and decodes the sidecar JSON file at p. A structural JSON
// error is returned; malformed individual fields are logged (if log is
// non-nil) and left null on the returned Data.
func Parse(p string, log *logging.Logger) (*Data, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", p, err)
	}

	var rs rawSidecar
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", p, err)
	}

	d := &Data{
		Title:       rs.Title,
		Description: rs.Description,
		URL:         rs.URL,
		ImageViews:  rs.ImageViews,
	}

	if rs.PhotoTakenTime != nil {
		if ts, err := parseTimestampField(rs.PhotoTakenTime); err == nil {
			d.PhotoTakenTime = ts
		} else if log != nil {
			log.Warn("sidecar %s: photoTakenTime: %v", p, err)
		}
	}
	if rs.CreationTime != nil {
		if ts, err := parseTimestampField(rs.CreationTime); err == nil {
			d.CreationTime = ts
		} else if log != nil {
			log.Warn("sidecar %s: creationTime: %v", p, err)
		}
	}

	geo := rs.GeoData
	if geo == nil || (geo.Latitude == 0 && geo.Longitude == 0) {
		geo = rs.GeoDataExif
	}
	if geo != nil && (geo.Latitude != 0 || geo.Longitude != 0) {
		d.GeoData = &GeoData{
			Latitude:      geo.Latitude,
			Longitude:     geo.Longitude,
			Altitude:      geo.Altitude,
			LatitudeSpan:  geo.LatitudeSpan,
			LongitudeSpan: geo.LongitudeSpan,
		}
	}

	for _, person := range rs.People {
		if person.Name != "" {
			d.People = append(d.People, person.Name)
		}
	}

	d.GooglePhotosOrigin = rawToString(rs.GooglePhotosOrigin)
	d.AppSource = rawToString(rs.AppSource)

	return d, nil
}

// parseTimestampField decodes a photoTakenTime/creationTime value in
// any of its three observed shapes: {timestamp, formatted}, a raw
// integer (epoch seconds, possibly quoted), or an ISO-8601 string with
// offset.
func parseTimestampField(raw json.RawMessage) (*time.Time, error) {
	trimmed := strings.TrimSpace(string(raw))

	var obj timestampObj
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Timestamp != "" {
		return parseEpochSeconds(obj.Timestamp)
	}

	if trimmed != "" && trimmed[0] != '"' {
		if t, err := parseEpochSeconds(trimmed); err == nil {
			return t, nil
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := parseEpochSeconds(s); err == nil {
			return t, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
		for _, layout := range formattedTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				utc := t.UTC()
				return &utc, nil
			}
		}
	}

	return nil, fmt.Errorf("unrecognized timestamp shape: %s", trimmed)
}

// rawToString renders an arbitrary-shaped JSON field (Google's
// googlePhotosOrigin and appSource are sometimes strings, sometimes
// nested objects) back to a display string without raising on either
// shape: a quoted string unwraps cleanly, anything else is kept as its
// raw JSON text.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func parseEpochSeconds(s string) (*time.Time, error) {
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	t := time.Unix(n, 0).UTC()
	return &t, nil
}
