// Package pathutil normalizes filesystem paths and classifies files by
// content, mirroring original_source/.../media_scanner/path_utils.py and
// .../mime_detector.py.
package pathutil

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// systemFiles are case-insensitive basenames that are never media,
// regardless of should_scan_file's other rules.
var systemFiles = map[string]bool{
	"thumbs.db":    true,
	"desktop.ini":  true,
	".ds_store":    true,
	"icon\r":       true,
}

var tempExtensions = map[string]bool{
	".tmp":  true,
	".temp": true,
	".cache": true,
	".bak":  true,
	".swp":  true,
}

// NormalizePath returns s NFC-normalized, with backslashes converted to
// forward slashes, and leading/trailing whitespace trimmed. Idempotent:
// NormalizePath(NormalizePath(s)) == NormalizePath(s).
func NormalizePath(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\\", "/")
	return norm.NFC.String(s)
}

// IsHidden reports whether the basename of p starts with a dot. Hidden-
// attribute detection via the Windows API is not implemented - see
// SPEC_FULL.md §9, "Unicode paths".
func IsHidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}

// ShouldScanFile reports whether p is a candidate for the MIME-detection
// stage: not hidden, not a known system artifact, not a temp extension.
func ShouldScanFile(p string) bool {
	base := filepath.Base(p)
	if IsHidden(p) {
		return false
	}
	if systemFiles[strings.ToLower(base)] {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if tempExtensions[ext] {
		return false
	}
	return true
}

const sniffLen = 64

// magicRule is one entry in the magic-byte table: if a file's leading
// bytes match prefix at the given offset, it has mimeType.
type magicRule struct {
	offset   int
	prefix   []byte
	mimeType string
}

var magicTable = []magicRule{
	{0, []byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{0, []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
	{0, []byte("GIF87a"), "image/gif"},
	{0, []byte("GIF89a"), "image/gif"},
	{0, []byte{0x49, 0x49, 0x2A, 0x00}, "image/tiff"},
	{0, []byte{0x4D, 0x4D, 0x00, 0x2A}, "image/tiff"},
	{8, []byte("WEBP"), "image/webp"},
	{4, []byte("ftypheic"), "image/heic"},
	{4, []byte("ftypheix"), "image/heic"},
	{4, []byte("ftypmif1"), "image/heic"},
	{4, []byte("ftypavif"), "image/avif"},
	{0, []byte{0x42, 0x4D}, "image/bmp"},
	{4, []byte("ftypisom"), "video/mp4"},
	{4, []byte("ftypMSNV"), "video/mp4"},
	{4, []byte("ftypmp42"), "video/mp4"},
	{4, []byte("ftypqt"), "video/quicktime"},
	{0, []byte{0x1A, 0x45, 0xDF, 0xA3}, "video/x-matroska"},
	{0, []byte("RIFF"), "video/avi"},
	{0, []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70}, "video/mp4"},
}

const mimeUnknown = "application/octet-stream"

// DetectMIME sniffs the first bytes of the file at p against a fixed
// magic-byte table. Unknown content yields application/octet-stream,
// the signal fileproc uses to decide whether to fall back to the
// exiftool subprocess path (it does not look at the file extension).
func DetectMIME(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, sniffLen)
	buf, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return "", err
	}

	for _, rule := range magicTable {
		end := rule.offset + len(rule.prefix)
		if end > len(buf) {
			continue
		}
		if string(buf[rule.offset:end]) == string(rule.prefix) {
			return rule.mimeType, nil
		}
	}
	return mimeUnknown, nil
}

func IsImage(mime string) bool   { return strings.HasPrefix(mime, "image/") }
func IsVideo(mime string) bool   { return strings.HasPrefix(mime, "video/") }
func IsUnknown(mime string) bool { return mime == mimeUnknown }
