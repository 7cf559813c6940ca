// Package fingerprint computes the content identity fields stored on
// every media item: a full-file CRC32 and a head+tail SHA-256, grounded
// on original_source/.../media_scanner/fingerprint.py and
// .../file_processor.py:calculate_crc32.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/crc32"
	"io"
	"os"
)

const (
	chunkSize  = 64 * 1024
	headTailSize = 8 * 1024
	smallFileThreshold = 16 * 1024
)

// CRC32 streams p in 64 KiB chunks and returns the unsigned 32-bit value
// as an 8-character lowercase hex string.
func CRC32(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ContentFingerprint returns the SHA-256 hex digest of p: the whole file
// if size <= 16 KiB, otherwise the first 8 KiB concatenated with the
// last 8 KiB. size is passed in rather than re-stat'd since callers
// already have it from discovery.
func ContentFingerprint(p string, size int64) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return headTailDigest(f, size)
}

// SidecarFingerprint applies the same head+tail rule to a sidecar JSON
// file, re-stat'ing since sidecar size is not known up front.
func SidecarFingerprint(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	return headTailDigest(f, info.Size())
}

func headTailDigest(f *os.File, size int64) (string, error) {
	h := sha256.New()

	if size <= smallFileThreshold {
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	head := make([]byte, headTailSize)
	if _, err := io.ReadFull(f, head); err != nil {
		return "", err
	}
	h.Write(head)

	if _, err := f.Seek(-headTailSize, io.SeekEnd); err != nil {
		return "", err
	}
	tail := make([]byte, headTailSize)
	if _, err := io.ReadFull(f, tail); err != nil {
		return "", err
	}
	h.Write(tail)

	return hex.EncodeToString(h.Sum(nil)), nil
}
