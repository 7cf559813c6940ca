package exifextract

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDecoderReadsDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(0, 0, color.RGBA{1, 2, 3, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "f.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	w, h, err := Decoder(path)
	if err != nil {
		t.Fatal(err)
	}
	if w == nil || *w != 8 {
		t.Errorf("width = %v, want 8", w)
	}
	if h == nil || *h != 6 {
		t.Errorf("height = %v, want 6", h)
	}
}

func TestDecoderNonImageReturnsNilNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}

	w, h, err := Decoder(path)
	if err != nil {
		t.Fatalf("expected a non-fatal nil result, got error: %v", err)
	}
	if w != nil || h != nil {
		t.Errorf("width/height = %v/%v, want nil/nil for an undecodable file", w, h)
	}
}

func TestDecoderMissingFile(t *testing.T) {
	_, _, err := Decoder(filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}

func TestFieldsToExif(t *testing.T) {
	fields := map[string]interface{}{
		"DateTimeOriginal": "2023:06:15 10:30:00",
		"Make":             "Canon",
		"Model":            "EOS R5",
		"FocalLength":      float64(50),
		"FNumber":          float64(2),
		"ISO":              float64(400),
		"Orientation":      float64(1),
		"ImageWidth":       float64(4000),
		"ImageHeight":      float64(3000),
	}
	e := fieldsToExif(fields)

	if e.Make != "Canon" || e.Model != "EOS R5" {
		t.Errorf("Make/Model = %q/%q, want Canon/EOS R5", e.Make, e.Model)
	}
	if e.ISO == nil || *e.ISO != 400 {
		t.Errorf("ISO = %v, want 400", e.ISO)
	}
	if e.Width == nil || *e.Width != 4000 {
		t.Errorf("Width = %v, want 4000", e.Width)
	}
	if e.DateTimeOriginal == nil {
		t.Fatal("expected DateTimeOriginal to parse")
	}
	want := time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)
	if !e.DateTimeOriginal.Equal(want) {
		t.Errorf("DateTimeOriginal = %v, want %v", e.DateTimeOriginal, want)
	}
}

func TestValidOrientationRejectsOutOfRange(t *testing.T) {
	low := -1.0
	high := 9.0
	ok := 3.0
	if got := validOrientation(&low); got != nil {
		t.Errorf("validOrientation(-1) = %v, want nil", got)
	}
	if got := validOrientation(&high); got != nil {
		t.Errorf("validOrientation(9) = %v, want nil", got)
	}
	if got := validOrientation(&ok); got == nil || *got != 3 {
		t.Errorf("validOrientation(3) = %v, want 3", got)
	}
	if got := validOrientation(nil); got != nil {
		t.Errorf("validOrientation(nil) = %v, want nil", got)
	}
}

func TestAsFloat(t *testing.T) {
	if got := asFloat(float64(1.5)); got == nil || *got != 1.5 {
		t.Errorf("asFloat(float64) = %v, want 1.5", got)
	}
	if got := asFloat(int(2)); got == nil || *got != 2 {
		t.Errorf("asFloat(int) = %v, want 2", got)
	}
	if got := asFloat("not a number"); got != nil {
		t.Errorf("asFloat(string) = %v, want nil", got)
	}
}

func TestParseExifTimeBothLayouts(t *testing.T) {
	if got := parseExifTime("2023:06:15 10:30:00"); got == nil {
		t.Error("expected plain layout to parse")
	}
	if got := parseExifTime("2023:06:15 10:30:00+02:00"); got == nil {
		t.Error("expected offset layout to parse")
	}
	if got := parseExifTime("garbage"); got != nil {
		t.Errorf("parseExifTime(garbage) = %v, want nil", got)
	}
	if got := parseExifTime(nil); got != nil {
		t.Errorf("parseExifTime(nil) = %v, want nil", got)
	}
}

func TestExtractInProcessNoExifSegmentIsNonFatal(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "f.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	e, err := ExtractInProcess(path)
	if err != nil {
		t.Fatalf("expected a non-fatal nil error for a file with no EXIF segment, got %v", err)
	}
	if e.Make != "" || e.DateTimeOriginal != nil {
		t.Errorf("expected a zero Exif for a PNG with no EXIF segment, got %+v", e)
	}
}

func TestExtractInProcessMissingFile(t *testing.T) {
	_, err := ExtractInProcess(filepath.Join(t.TempDir(), "missing.jpg"))
	if err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}

func TestToolCloseOnNilIsSafe(t *testing.T) {
	var tool *Tool
	if err := tool.Close(); err != nil {
		t.Errorf("Close on a nil Tool should be a no-op, got %v", err)
	}
}
