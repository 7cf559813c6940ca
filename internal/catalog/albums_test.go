package catalog

import (
	"testing"
	"time"

	"github.com/bleemesser/gphotocat/internal/album"
	"github.com/bleemesser/gphotocat/internal/ids"
)

func TestUpsertAlbumInsertsThenUpdates(t *testing.T) {
	cat := openTest(t)
	a := album.Info{
		ID:         ids.AlbumID("Summer 2024"),
		FolderPath: "Summer 2024",
		Title:      "Summer 2024",
		Status:     "present",
	}
	now := time.Now()
	if err := UpsertAlbum(cat.DB(), a, "run-1", now); err != nil {
		t.Fatal(err)
	}

	a.Title = "Summer Vacation 2024"
	if err := UpsertAlbum(cat.DB(), a, "run-2", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := cat.DB().QueryRow(`SELECT count(*) FROM albums WHERE album_folder_path = ?`, "Summer 2024").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected one row after re-upsert, got %d", count)
	}

	var title string
	if err := cat.DB().QueryRow(`SELECT title FROM albums WHERE album_folder_path = ?`, "Summer 2024").Scan(&title); err != nil {
		t.Fatal(err)
	}
	if title != "Summer Vacation 2024" {
		t.Errorf("title = %q, want updated title", title)
	}
}

func TestMarkAlbumsMissing(t *testing.T) {
	cat := openTest(t)
	now := time.Now()
	a := album.Info{ID: ids.AlbumID("Old Album"), FolderPath: "Old Album", Title: "Old Album", Status: "present"}
	if err := UpsertAlbum(cat.DB(), a, "run-1", now); err != nil {
		t.Fatal(err)
	}

	n, err := MarkAlbumsMissing(cat.DB(), "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("marked %d albums missing, want 1", n)
	}

	var status string
	if err := cat.DB().QueryRow(`SELECT status FROM albums WHERE album_folder_path = ?`, "Old Album").Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "missing" {
		t.Errorf("status = %q, want missing", status)
	}
}
