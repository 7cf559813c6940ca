// Package exifextract extracts EXIF metadata and pixel dimensions from
// images: an in-process decoder path (dimensions via the standard
// library, full EXIF tags via goexif) for known image MIME types, and
// an exiftool subprocess reserved for unknown/RAW types, grounded on
// original_source/.../metadata/exif_extractor.py (Pillow's img.getexif()
// for known images) and kthornbloom-photog/internal/indexer/indexer.go's
// extractExif (goexif.Decode plus tag.Get/.Int() lookups) for the
// goexif wiring, plus the teacher's util/import.go (exiftool.NewExiftool,
// exiftool.Buffer, et.ExtractMetadata) for the subprocess path.
package exifextract

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"time"

	exiftool "github.com/barasher/go-exiftool"
	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/bleemesser/gphotocat/internal/errs"
	"github.com/bleemesser/gphotocat/internal/metadata"
)

const subprocessTimeout = 30 * time.Second

// Decoder recovers pixel dimensions for a known image MIME type using
// the standard library's registered image decoders. It returns
// (nil, nil, nil) rather than an error on an unrecognized or truncated
// image, matching the spec's "non-fatal extraction errors record null
// fields" rule (§4.7).
func Decoder(path string) (width, height *int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	cfg, _, decodeErr := image.DecodeConfig(f)
	if decodeErr != nil {
		return nil, nil, nil
	}
	w, h := cfg.Width, cfg.Height
	return &w, &h, nil
}

// ExtractInProcess parses real EXIF tags out of a known image type using
// goexif, independent of whether the exiftool subprocess is enabled -
// the in-process path Pillow's img.getexif() plays in
// original_source/.../metadata/exif_extractor.py, ported the way
// kthornbloom-photog/internal/indexer/indexer.go's extractExif drives
// goexif's Decode/Get/Int. A file with no EXIF segment, or one goexif
// can't parse, returns a zero Exif and a nil error rather than failing
// the file, matching the "non-fatal extraction errors record null
// fields" rule (§4.7).
func ExtractInProcess(path string) (metadata.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return metadata.Exif{}, err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil {
		return metadata.Exif{}, nil
	}

	var e metadata.Exif
	e.DateTimeOriginal = tagTime(x, goexif.DateTimeOriginal)
	e.DateTimeDigitized = tagTime(x, goexif.DateTimeDigitized)
	e.Make = tagString(x, goexif.Make)
	e.Model = tagString(x, goexif.Model)
	e.LensMake = tagString(x, goexif.LensMake)
	e.LensModel = tagString(x, goexif.LensModel)
	e.FocalLength = tagRatFloat(x, goexif.FocalLength)
	e.FNumber = tagRatFloat(x, goexif.FNumber)
	e.ExposureTime = tagRatString(x, goexif.ExposureTime)
	e.ISO = tagInt(x, goexif.ISOSpeedRatings)
	e.Orientation = validOrientation(tagIntFloat(x, goexif.Orientation))
	if fl := tagInt(x, goexif.Flash); fl != nil {
		e.Flash = strconv.Itoa(*fl)
	}
	if wb := tagInt(x, goexif.WhiteBalance); wb != nil {
		e.WhiteBalance = strconv.Itoa(*wb)
	}
	if lat, lng, err := x.LatLong(); err == nil {
		e.GPSLatitude = &lat
		e.GPSLongitude = &lng
	}
	e.GPSAltitude = gpsAltitude(x)
	e.Width = tagInt(x, goexif.PixelXDimension)
	e.Height = tagInt(x, goexif.PixelYDimension)

	return e, nil
}

// tagString, tagInt, tagRatFloat, tagRatString and tagTime all return a
// zero value rather than an error when a tag is absent or malformed -
// EXIF tag coverage varies wildly by camera and goexif surfaces every
// miss as an error, so treating "missing" as "null field" here keeps
// the caller from having to re-derive that policy per tag.
func tagString(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}

func tagInt(x *goexif.Exif, name goexif.FieldName) *int {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	i, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &i
}

func tagIntFloat(x *goexif.Exif, name goexif.FieldName) *float64 {
	i := tagInt(x, name)
	if i == nil {
		return nil
	}
	f := float64(*i)
	return &f
}

func tagRatFloat(x *goexif.Exif, name goexif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	r, err := tag.Rat(0)
	if err != nil {
		return nil
	}
	f, _ := r.Float64()
	return &f
}

func tagRatString(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	r, err := tag.Rat(0)
	if err != nil {
		return ""
	}
	return r.RatString()
}

func tagTime(x *goexif.Exif, name goexif.FieldName) *time.Time {
	s := tagString(x, name)
	if s == "" {
		return nil
	}
	return parseExifTime(s)
}

// gpsAltitude applies the GPSAltitudeRef sign (1 = below sea level) to
// the unsigned GPSAltitude rational.
func gpsAltitude(x *goexif.Exif) *float64 {
	alt := tagRatFloat(x, goexif.GPSAltitude)
	if alt == nil {
		return nil
	}
	if ref := tagInt(x, goexif.GPSAltitudeRef); ref != nil && *ref == 1 {
		v := -*alt
		return &v
	}
	return alt
}

// Tool wraps a single long-lived exiftool subprocess. One Tool is
// created per CPU worker, exactly as the teacher's worker() does in
// util/import.go, since go-exiftool's process is not safe to share
// across concurrent ExtractMetadata calls.
type Tool struct {
	et *exiftool.Exiftool
}

// NewTool starts the exiftool subprocess. Callers must call Close.
// NewTool itself does not decide whether its error is fatal: the
// pipeline's CPU workers log it and continue without a Tool, while the
// fatal startup check for a missing exiftool binary is the exec.LookPath
// call in cmd/gphotocat.
func NewTool() (*Tool, error) {
	buf := make([]byte, 4096*1024)
	et, err := exiftool.NewExiftool(exiftool.Buffer(buf, 2048*1024))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrToolMissing, err)
	}
	return &Tool{et: et}, nil
}

func (t *Tool) Close() error {
	if t == nil || t.et == nil {
		return nil
	}
	return t.et.Close()
}

// rawFields are the exiftool tag names requested, matching the flag
// list in SPEC_FULL.md §6.
var rawFields = []string{
	"DateTimeOriginal", "CreateDate", "GPSLatitude", "GPSLongitude", "GPSAltitude",
	"Make", "Model", "LensMake", "LensModel", "FocalLength", "FNumber",
	"ExposureTime", "ISO", "Orientation", "Flash", "WhiteBalance",
	"ImageWidth", "ImageHeight",
}

// ExtractRAW invokes the exiftool subprocess on path with a 30 s
// timeout and maps its JSON fields onto metadata.Exif. A subprocess
// timeout is reported as errs.ErrToolMissing for this file, per
// SPEC_FULL.md §7.
func (t *Tool) ExtractRAW(ctx context.Context, path string) (metadata.Exif, error) {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	done := make(chan []exiftool.FileMetadata, 1)
	go func() {
		done <- t.et.ExtractMetadata(path)
	}()

	select {
	case <-ctx.Done():
		return metadata.Exif{}, fmt.Errorf("%w: exiftool timed out on %s", errs.ErrToolMissing, path)
	case results := <-done:
		if len(results) == 0 || results[0].Err != nil {
			if len(results) > 0 {
				return metadata.Exif{}, fmt.Errorf("%w: %v", errs.ErrParse, results[0].Err)
			}
			return metadata.Exif{}, fmt.Errorf("%w: no metadata returned", errs.ErrParse)
		}
		return fieldsToExif(results[0].Fields), nil
	}
}

func fieldsToExif(fields map[string]interface{}) metadata.Exif {
	var e metadata.Exif

	e.DateTimeOriginal = parseExifTime(fields["DateTimeOriginal"])
	e.DateTimeDigitized = parseExifTime(fields["CreateDate"])
	e.Make, _ = fields["Make"].(string)
	e.Model, _ = fields["Model"].(string)
	e.LensMake, _ = fields["LensMake"].(string)
	e.LensModel, _ = fields["LensModel"].(string)
	e.FocalLength = asFloat(fields["FocalLength"])
	e.FNumber = asFloat(fields["FNumber"])
	if et, ok := fields["ExposureTime"]; ok {
		e.ExposureTime = fmt.Sprintf("%v", et)
	}
	if iso := asFloat(fields["ISO"]); iso != nil {
		v := int(*iso)
		e.ISO = &v
	}
	e.Orientation = validOrientation(asFloat(fields["Orientation"]))
	if fl, ok := fields["Flash"]; ok {
		e.Flash = fmt.Sprintf("%v", fl)
	}
	if wb, ok := fields["WhiteBalance"]; ok {
		e.WhiteBalance = fmt.Sprintf("%v", wb)
	}
	e.GPSLatitude = asFloat(fields["GPSLatitude"])
	e.GPSLongitude = asFloat(fields["GPSLongitude"])
	e.GPSAltitude = asFloat(fields["GPSAltitude"])
	if w := asFloat(fields["ImageWidth"]); w != nil {
		iw := int(*w)
		e.Width = &iw
	}
	if h := asFloat(fields["ImageHeight"]); h != nil {
		ih := int(*h)
		e.Height = &ih
	}

	return e
}

// validOrientation keeps an EXIF orientation only if it lies in the
// valid 1-8 range; any other value is stored as null with the caller expected to log a
// warning (spec.md §8 boundary behavior).
func validOrientation(v *float64) *int {
	if v == nil {
		return nil
	}
	o := int(*v)
	if o < 1 || o > 8 {
		return nil
	}
	return &o
}

func asFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	default:
		return nil
	}
}

// exifTimeLayouts are the layouts exiftool's -json output uses for
// datetime tags.
var exifTimeLayouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05Z07:00",
}

func parseExifTime(v interface{}) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range exifTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
