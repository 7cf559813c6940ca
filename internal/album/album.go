// Package album enumerates first-level folders under the effective
// scan root and classifies each as a user album (has metadata.json) or
// a year album ("Photos from YYYY"), grounded on
// original_source/.../media_scanner/album_discovery.py.
package album

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bleemesser/gphotocat/internal/ids"
	"github.com/bleemesser/gphotocat/internal/logging"
)

// Info is one discovered album, yielded to the orchestrator so workers
// can attribute files to the right album before any file work begins.
type Info struct {
	ID                 uuid.UUID
	FolderPath         string // basename under the effective scan root
	Title              string
	Description        string
	CreationTimestamp  *time.Time
	AccessLevel        string
	Status             string // "present" or "error"
}

type albumMetadataJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Access      string `json:"access"`
	Date        struct {
		Timestamp string `json:"timestamp"`
	} `json:"date"`
}

var yearFolderPattern = regexp.MustCompile(`^Photos from (\d{4})$`)

// Discover enumerates first-level directories under effectiveRoot.
// Google Photos does not support nested albums, so this is a single,
// non-recursive pass. An effective root with zero subdirectories is a
// fatal error (spec.md §4.6 "Empty-tree handling").
func Discover(effectiveRoot string, log *logging.Logger) ([]Info, error) {
	entries, err := os.ReadDir(effectiveRoot)
	if err != nil {
		return nil, fmt.Errorf("reading scan root: %w", err)
	}

	var albums []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		albums = append(albums, classify(effectiveRoot, entry.Name(), log))
	}

	if len(albums) == 0 {
		return nil, fmt.Errorf("scan root %s contains no album folders", effectiveRoot)
	}
	return albums, nil
}

func classify(effectiveRoot, folderName string, log *logging.Logger) Info {
	info := Info{
		ID:         ids.AlbumID(folderName),
		FolderPath: folderName,
		Status:     "present",
	}

	metaPath := filepath.Join(effectiveRoot, folderName, "metadata.json")
	if raw, err := os.ReadFile(metaPath); err == nil {
		var meta albumMetadataJSON
		if err := json.Unmarshal(raw, &meta); err != nil {
			if log != nil {
				log.Warn("album %s: malformed metadata.json: %v", folderName, err)
			}
			info.Status = "error"
			return info
		}
		info.Title = meta.Title
		info.Description = meta.Description
		info.AccessLevel = meta.Access
		if meta.Date.Timestamp != "" {
			if n, err := strconv.ParseInt(meta.Date.Timestamp, 10, 64); err == nil {
				t := time.Unix(n, 0).UTC()
				info.CreationTimestamp = &t
			}
		}
		return info
	}

	if m := yearFolderPattern.FindStringSubmatch(folderName); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= 1900 && year <= 2200 {
			info.Title = folderName
			return info
		}
	}

	info.Title = folderName
	return info
}
