// Package fileproc is the CPU-bound half of processing one media file:
// MIME sniffing, fingerprinting, and metadata extraction, grounded on
// original_source/.../media_scanner/file_processor.py:process_file and
// the teacher's worker() goroutine in main.go (one long-lived exiftool
// Tool per worker, reused across files).
package fileproc

import (
	"context"
	"fmt"

	"github.com/bleemesser/gphotocat/internal/discovery"
	"github.com/bleemesser/gphotocat/internal/errs"
	"github.com/bleemesser/gphotocat/internal/exifextract"
	"github.com/bleemesser/gphotocat/internal/fingerprint"
	"github.com/bleemesser/gphotocat/internal/metadata"
	"github.com/bleemesser/gphotocat/internal/pathutil"
	"github.com/bleemesser/gphotocat/internal/videometa"
)

// Options are the parts of engine configuration process_file needs,
// narrowed from the full config.Config so this package does not import
// the CLI-facing config type.
type Options struct {
	UseExiftool bool
	UseFFProbe  bool
	FFProbePath string
}

// Result is everything process_file recovers from one file. Err, when
// non-nil, is a classified *errs.FileError from a stage that aborts the
// whole file (MIME detection, fingerprinting); a nil Err with a
// non-empty Warning means metadata extraction failed but the file is
// still cataloged with null EXIF/video fields, per SPEC_FULL.md §4.7's
// "non-fatal extraction errors" rule.
type Result struct {
	MIMEType           string
	CRC32              string
	ContentFingerprint string
	Exif               metadata.Exif
	Video              metadata.Video
	Err                error
	Warning            string
}

// Process runs the CPU-bound stages on one discovered file: MIME
// detection, CRC32, content fingerprint, then either the in-process
// image decoder, an exiftool subprocess, or an ffprobe subprocess
// depending on what DetectMIME found. tool may be nil when exiftool is
// disabled or unavailable; a nil tool on an unknown-MIME file degrades
// to "no EXIF metadata" rather than failing the whole file.
func Process(ctx context.Context, f discovery.FileInfo, tool *exifextract.Tool, opts Options) Result {
	var r Result

	mime, err := pathutil.DetectMIME(f.AbsolutePath)
	if err != nil {
		r.Err = errs.Wrap(errs.Classify(err), fmt.Errorf("detecting mime type: %w", err))
		return r
	}
	r.MIMEType = mime

	if crc, err := fingerprint.CRC32(f.AbsolutePath); err != nil {
		r.Err = errs.Wrap(errs.Classify(err), fmt.Errorf("computing crc32: %w", err))
		return r
	} else {
		r.CRC32 = crc
	}

	if fp, err := fingerprint.ContentFingerprint(f.AbsolutePath, f.FileSize); err != nil {
		r.Err = errs.Wrap(errs.Classify(err), fmt.Errorf("computing content fingerprint: %w", err))
		return r
	} else {
		r.ContentFingerprint = fp
	}

	switch {
	case pathutil.IsImage(mime):
		r.extractImage(f.AbsolutePath)
	case pathutil.IsVideo(mime):
		r.extractVideo(ctx, f.AbsolutePath, opts)
	default:
		// Unknown MIME (RAW formats, sidecar-less exotic types): try
		// exiftool if available, otherwise leave Exif zero-valued -
		// SPEC_FULL.md §4.7 treats this as a non-fatal partial result,
		// not a file-level error.
		if tool != nil && opts.UseExiftool {
			r.extractWithTool(ctx, f.AbsolutePath, tool)
		}
	}

	return r
}

// extractImage always runs the in-process decoder and EXIF parser for a
// known image MIME type, independent of UseExiftool - the exiftool
// subprocess is reserved for the unknown-MIME branch in Process, per
// SPEC_FULL.md §4.7 step 4.
func (r *Result) extractImage(path string) {
	exif, err := exifextract.ExtractInProcess(path)
	if err != nil {
		r.Warning = fmt.Sprintf("exif extraction: %v", err)
	} else {
		r.Exif = exif
	}
	// The stdlib decoder's dimensions take precedence over goexif's
	// PixelXDimension/PixelYDimension tags, which many cameras omit or
	// leave stale after a crop.
	if w, h, err := exifextract.Decoder(path); err == nil && w != nil && h != nil {
		r.Exif.Width, r.Exif.Height = w, h
	}
}

func (r *Result) extractWithTool(ctx context.Context, path string, tool *exifextract.Tool) {
	exif, err := tool.ExtractRAW(ctx, path)
	if err != nil {
		// Non-fatal: the file still gets cataloged with null EXIF fields
		// and whatever CRC32/fingerprint were already computed.
		r.Warning = fmt.Sprintf("exif extraction: %v", err)
		return
	}
	// Width/Height from the in-process decoder (more reliable for
	// standard images) take precedence over exiftool's if already set.
	if r.Exif.Width == nil {
		r.Exif.Width = exif.Width
	}
	if r.Exif.Height == nil {
		r.Exif.Height = exif.Height
	}
	exif.Width, exif.Height = r.Exif.Width, r.Exif.Height
	r.Exif = exif
}

func (r *Result) extractVideo(ctx context.Context, path string, opts Options) {
	if !opts.UseFFProbe {
		return
	}
	v, err := videometa.Extract(ctx, opts.FFProbePath, path)
	if err != nil {
		r.Warning = fmt.Sprintf("video probe: %v", err)
		return
	}
	r.Video = v
}
