package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizePathIdempotent(t *testing.T) {
	cases := []string{
		`Takeout\Google Photos\Year 2020\img.jpg`,
		"  /already/forward/slash.jpg  ",
		"café/photo.jpg",
	}
	for _, c := range cases {
		once := NormalizePath(c)
		twice := NormalizePath(once)
		if once != twice {
			t.Errorf("NormalizePath not idempotent for %q: %q != %q", c, once, twice)
		}
	}
}

func TestNormalizePathForwardSlashes(t *testing.T) {
	got := NormalizePath(`a\b\c.jpg`)
	want := "a/b/c.jpg"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestShouldScanFile(t *testing.T) {
	cases := map[string]bool{
		"/root/.hidden.jpg":   false,
		"/root/Thumbs.db":     false,
		"/root/desktop.ini":   false,
		"/root/photo.tmp":     false,
		"/root/photo.bak":     false,
		"/root/IMG_0001.JPG":  true,
		"/root/video.mov":     true,
	}
	for p, want := range cases {
		if got := ShouldScanFile(p); got != want {
			t.Errorf("ShouldScanFile(%q) = %v, want %v", p, got, want)
		}
	}
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDetectMIME(t *testing.T) {
	jpeg := writeTemp(t, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0})
	if mime, err := DetectMIME(jpeg); err != nil || mime != "image/jpeg" {
		t.Errorf("jpeg: got (%q, %v)", mime, err)
	}

	unknown := writeTemp(t, []byte("not a real media file"))
	if mime, err := DetectMIME(unknown); err != nil || mime != mimeUnknown {
		t.Errorf("unknown: got (%q, %v)", mime, err)
	}

	empty := writeTemp(t, nil)
	if mime, err := DetectMIME(empty); err != nil || mime != mimeUnknown {
		t.Errorf("empty: got (%q, %v)", mime, err)
	}
}

func TestClassifiers(t *testing.T) {
	if !IsImage("image/jpeg") || IsVideo("image/jpeg") || IsUnknown("image/jpeg") {
		t.Error("image/jpeg misclassified")
	}
	if !IsVideo("video/mp4") || IsImage("video/mp4") {
		t.Error("video/mp4 misclassified")
	}
	if !IsUnknown(mimeUnknown) {
		t.Error("octet-stream should be unknown")
	}
}
