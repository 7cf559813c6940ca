// Package discovery walks a Google Photos Takeout tree and pairs each
// media file with its sidecar JSON, tolerating Google's Windows
// MAX_PATH filename truncation quirks, grounded on
// original_source/.../media_scanner/discovery.py.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bleemesser/gphotocat/internal/pathutil"
)

const takeoutSuffix = "Takeout/Google Photos"

// ResolveEffectiveRoot returns <root>/Takeout/Google Photos if that
// directory exists, otherwise root itself. All relative paths and
// album folder names are computed from whatever this returns, which is
// what makes media and album ids portable across different extraction
// locations (SPEC_FULL.md §4.5).
func ResolveEffectiveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root %s is not a directory", root)
	}

	candidate := filepath.Join(root, "Takeout", "Google Photos")
	if ci, err := os.Stat(candidate); err == nil && ci.IsDir() {
		return candidate, nil
	}
	return root, nil
}

// FileInfo is one discovered media file, the unit of work handed to the
// work queue.
type FileInfo struct {
	AbsolutePath    string
	RelativePath    string
	AlbumFolderPath string
	SidecarPath     string // "" if unpaired
	FileSize        int64
}

// Summary is the DiscoveryResult the spec names: counts plus the raw
// sets needed to report unpaired sidecars.
type Summary struct {
	MediaFilesDiscovered    int
	MetadataFilesDiscovered int
	PairedSidecars          int
	UnpairedSidecars        []string
}

// canonicalTruncationWord is "supplemental-metadata" without its
// leading dot or trailing ".json" - the word Windows MAX_PATH
// truncation eats into from the right, one character at a time.
const canonicalTruncationWord = "supplemental-metadata"

// minShortSuffixFilenameLen is the length prefilter for short truncated
// suffixes (len < 4): a 3-character-or-shorter leftover like ".s" is
// only accepted as a truncation match when the surrounding filename is
// itself long, which is the only circumstance under which Windows
// MAX_PATH truncation would have eaten that much - guards against
// coincidental filenames that merely end in "s".
const minShortSuffixFilenameLen = 40

type sidecarEntry struct {
	mediaBasenameGuess string
	sidecarPath        string
}

// Index is the read-only sidecar lookup table built by pass 1 and
// consulted throughout pass 2.
type Index struct {
	byKey map[string]string // parentDir + "\x00" + mediaBasenameGuess -> sidecarPath
	byDir map[string][]sidecarEntry
	seen  map[string]bool // sidecarPath -> was matched in pass 2
}

func newIndex() *Index {
	return &Index{
		byKey: make(map[string]string),
		byDir: make(map[string][]sidecarEntry),
		seen:  make(map[string]bool),
	}
}

func key(parentDir, basename string) string { return parentDir + "\x00" + basename }

// BuildSidecarIndex is discovery's pass 1: walk the tree once, and for
// every *.json file that is not album metadata.json, guess the media
// filename it pairs with.
func BuildSidecarIndex(effectiveRoot string) (*Index, error) {
	idx := newIndex()

	err := filepath.Walk(effectiveRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") || strings.EqualFold(name, "metadata.json") {
			return nil
		}

		parentDir := filepath.Dir(path)
		guess := guessMediaBasename(name)
		idx.byKey[key(parentDir, guess)] = path
		idx.byDir[parentDir] = append(idx.byDir[parentDir], sidecarEntry{mediaBasenameGuess: guess, sidecarPath: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building sidecar index: %w", err)
	}
	return idx, nil
}

// guessMediaBasename implements the three-tier guesser from
// SPEC_FULL.md §4.5 pass 1: the canonical suffix, progressively shorter
// Windows-truncated variants of it, and finally the raw ".json" strip.
func guessMediaBasename(sidecarFilename string) string {
	withoutJSON := strings.TrimSuffix(sidecarFilename, filepath.Ext(sidecarFilename))
	if !strings.HasSuffix(strings.ToLower(sidecarFilename), ".json") {
		return withoutJSON
	}

	for i := len(canonicalTruncationWord); i >= 1; i-- {
		suffix := "." + canonicalTruncationWord[:i]
		if len(suffix) < 4 && len(withoutJSON) < minShortSuffixFilenameLen {
			continue
		}
		if strings.HasSuffix(withoutJSON, suffix) {
			return strings.TrimSuffix(withoutJSON, suffix)
		}
	}

	// Tier 3: raw ".json" suffix, used when the full suffix would have
	// exceeded MAX_PATH entirely.
	return withoutJSON
}

var tildeSuffix = regexp.MustCompile(`~\d+$`)

// lookupSidecar implements discovery's pass 2 media->sidecar lookup:
// exact match, then -edited strip, then ~N strip, then a bounded
// prefix-match fallback against sidecars in the same directory.
func (idx *Index) lookupSidecar(parentDir, filename string) string {
	if p, ok := idx.byKey[key(parentDir, filename)]; ok {
		idx.seen[p] = true
		return p
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	if strings.HasSuffix(stem, "-edited") {
		candidate := strings.TrimSuffix(stem, "-edited") + ext
		if p, ok := idx.byKey[key(parentDir, candidate)]; ok {
			idx.seen[p] = true
			return p
		}
	}

	if tildeSuffix.MatchString(stem) {
		candidate := tildeSuffix.ReplaceAllString(stem, "") + ext
		if p, ok := idx.byKey[key(parentDir, candidate)]; ok {
			idx.seen[p] = true
			return p
		}
	}

	return idx.prefixMatchFallback(parentDir, filename)
}

const (
	prefixMatchMaxLenDelta = 50
	prefixMatchMinLen      = 10
)

// prefixMatchFallback scans the sidecars discovered in the same
// directory for one whose guessed media basename is a prefix of (or has
// filename as a prefix of) the target filename, within a bounded length
// tolerance to avoid chance collisions on short names.
func (idx *Index) prefixMatchFallback(parentDir, filename string) string {
	if len(filename) < prefixMatchMinLen {
		return ""
	}
	for _, entry := range idx.byDir[parentDir] {
		if idx.seen[entry.sidecarPath] {
			continue
		}
		if len(entry.mediaBasenameGuess) < prefixMatchMinLen {
			continue
		}
		delta := len(filename) - len(entry.mediaBasenameGuess)
		if delta < 0 {
			delta = -delta
		}
		if delta > prefixMatchMaxLenDelta {
			continue
		}
		if strings.HasPrefix(filename, entry.mediaBasenameGuess) || strings.HasPrefix(entry.mediaBasenameGuess, filename) {
			idx.seen[entry.sidecarPath] = true
			return entry.sidecarPath
		}
	}
	return ""
}

// Walk is discovery's pass 2: walk the tree again, filter with
// pathutil.ShouldScanFile, and pair each remaining file against idx.
func Walk(effectiveRoot string, idx *Index) ([]FileInfo, *Summary, error) {
	var files []FileInfo
	summary := &Summary{}

	err := filepath.Walk(effectiveRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if strings.HasSuffix(strings.ToLower(name), ".json") {
			if !strings.EqualFold(name, "metadata.json") {
				summary.MetadataFilesDiscovered++
			}
			return nil
		}
		if !pathutil.ShouldScanFile(path) {
			return nil
		}

		rel, err := filepath.Rel(effectiveRoot, path)
		if err != nil {
			return err
		}
		rel = pathutil.NormalizePath(rel)

		albumFolder := rel
		if idx2 := strings.IndexByte(rel, '/'); idx2 >= 0 {
			albumFolder = rel[:idx2]
		}

		parentDir := filepath.Dir(path)
		sidecarPath := idx.lookupSidecar(parentDir, name)

		files = append(files, FileInfo{
			AbsolutePath:    path,
			RelativePath:    rel,
			AlbumFolderPath: albumFolder,
			SidecarPath:     sidecarPath,
			FileSize:        info.Size(),
		})
		summary.MediaFilesDiscovered++
		if sidecarPath != "" {
			summary.PairedSidecars++
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking media tree: %w", err)
	}

	for _, entries := range idx.byDir {
		for _, e := range entries {
			if !idx.seen[e.sidecarPath] {
				summary.UnpairedSidecars = append(summary.UnpairedSidecars, e.sidecarPath)
			}
		}
	}
	sort.Strings(summary.UnpairedSidecars)

	return files, summary, nil
}
