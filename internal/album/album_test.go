package album

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bleemesser/gphotocat/internal/ids"
)

func mkTree(t *testing.T, dirs []string, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestDiscoverYearAlbum(t *testing.T) {
	root := mkTree(t, []string{"Photos from 2020"}, nil)
	albums, err := Discover(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(albums) != 1 || albums[0].ID != ids.AlbumID("Photos from 2020") {
		t.Fatal("expected a single year album with the basename-derived id")
	}
}

func TestDiscoverRejectsOutOfRangeYear(t *testing.T) {
	root := mkTree(t, []string{"Photos from 1899"}, nil)
	albums, err := Discover(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if albums[0].Title != "Photos from 1899" {
		t.Error("out-of-range year folder should fall back to a plain title, not a synthesized year album")
	}
}

func TestDiscoverUserAlbumWithMetadata(t *testing.T) {
	root := mkTree(t, nil, map[string]string{
		"Trip/metadata.json": `{"title":"My Trip","description":"d","access":"protected","date":{"timestamp":"1577836800"}}`,
	})
	albums, err := Discover(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	a := albums[0]
	if a.Title != "My Trip" || a.AccessLevel != "protected" || a.CreationTimestamp == nil {
		t.Errorf("got %+v", a)
	}
}

func TestDiscoverEmptyRootIsFatal(t *testing.T) {
	root := t.TempDir()
	if _, err := Discover(root, nil); err == nil {
		t.Fatal("expected an error for an empty scan root")
	}
}

func TestDiscoverMalformedMetadataDemotesToError(t *testing.T) {
	root := mkTree(t, nil, map[string]string{
		"Trip/metadata.json": `{not valid json`,
	})
	albums, err := Discover(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if albums[0].Status != "error" {
		t.Error("malformed album metadata should demote status to error, not fail the scan")
	}
}
