package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func mkTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
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

func TestResolveEffectiveRootDetectsTakeoutLayout(t *testing.T) {
	root := mkTree(t, map[string]string{
		"Takeout/Google Photos/Year 2020/IMG_0001.JPG": "x",
	})
	eff, err := ResolveEffectiveRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "Takeout", "Google Photos")
	if eff != want {
		t.Errorf("got %q, want %q", eff, want)
	}
}

func TestResolveEffectiveRootFallsBackToRoot(t *testing.T) {
	root := mkTree(t, map[string]string{"Year 2020/IMG_0001.JPG": "x"})
	eff, err := ResolveEffectiveRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	if eff != root {
		t.Errorf("got %q, want %q", eff, root)
	}
}

func TestDiscoveryExactSidecarMatch(t *testing.T) {
	root := mkTree(t, map[string]string{
		"Trip/photo.jpg":                              "x",
		"Trip/photo.jpg.supplemental-metadata.json":   `{}`,
	})
	idx, err := BuildSidecarIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	files, summary, err := Walk(root, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].SidecarPath == "" {
		t.Error("expected photo.jpg to be paired with its sidecar")
	}
	if summary.PairedSidecars != 1 {
		t.Errorf("got %d paired, want 1", summary.PairedSidecars)
	}
}

func TestDiscoveryTruncatedSidecarSuffix(t *testing.T) {
	// Mirrors SPEC_FULL.md §8 scenario 2: a sidecar truncated down to
	// ".suppl.json" must still pair with its media file.
	root := mkTree(t, map[string]string{
		"Trip/LongFileName.jpg":                  "x",
		"Trip/LongFileName.jpg.suppl.json":        `{"photoTakenTime":{"timestamp":"1577836800"}}`,
	})
	idx, err := BuildSidecarIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	files, _, err := Walk(root, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].SidecarPath == "" {
		t.Fatal("expected LongFileName.jpg to pair with its truncated sidecar")
	}
}

func TestDiscoveryEditedVariantStripsSuffix(t *testing.T) {
	root := mkTree(t, map[string]string{
		"Trip/IMG_0002.JPG":                              "x",
		"Trip/IMG_0002-edited.JPG":                        "x",
		"Trip/IMG_0002.JPG.supplemental-metadata.json":    `{}`,
	})
	idx, err := BuildSidecarIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	files, _, err := Walk(root, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	var editedPaired bool
	for _, f := range files {
		if filepathBase(f.RelativePath) == "IMG_0002-edited.JPG" && f.SidecarPath != "" {
			editedPaired = true
		}
	}
	if !editedPaired {
		t.Error("expected the -edited variant to resolve to the original's sidecar")
	}
}

func TestDiscoveryAlbumMetadataNotTreatedAsSidecar(t *testing.T) {
	root := mkTree(t, map[string]string{
		"Trip/metadata.json": `{"title":"Trip"}`,
		"Trip/photo.jpg":      "x",
	})
	idx, err := BuildSidecarIndex(root)
	if err != nil {
		t.Fatal(err)
	}
	files, summary, err := Walk(root, idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].SidecarPath != "" {
		t.Error("album metadata.json must never be treated as a media sidecar")
	}
	if summary.MetadataFilesDiscovered != 0 {
		t.Errorf("metadata.json should not count as a metadata sidecar file")
	}
}

func filepathBase(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
