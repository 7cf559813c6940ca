package pipeline

import (
	"github.com/bleemesser/gphotocat/internal/discovery"
	"github.com/bleemesser/gphotocat/internal/errs"
	"github.com/bleemesser/gphotocat/internal/metadata"
)

// workItem is one unit handed from the orchestrator to a CPU worker:
// a discovered file plus the album it was found under.
type workItem struct {
	file    discovery.FileInfo
	albumID string
}

// cpuItem is what a CPU worker hands to an I/O coordinator worker:
// the same file plus whatever fileproc.Process recovered.
type cpuItem struct {
	file               discovery.FileInfo
	albumID            string
	mime               string
	crc32              string
	contentFingerprint string
	exif               metadata.Exif
	video              metadata.Video
}

// resultKind tags which variant a Result holds, since Go has no tagged
// union - the idiomatic replacement is an enum field plus one populated
// payload field per kind (SPEC_FULL.md §9).
type resultKind int

const (
	resultMedia resultKind = iota
	resultUnchanged
	resultError
)

// Result is the tagged union the results channel carries: a fully
// built media record, a fast-path unchanged-file token, or a classified
// per-file error bound for processing_errors.
type Result struct {
	kind resultKind

	record          metadata.MediaItemRecord
	unchangedItemID string

	relativePath string
	errType      errs.Type
	errCategory  errs.Category
	errMessage   string
}
