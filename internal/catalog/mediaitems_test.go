package catalog

import (
	"testing"
	"time"

	"github.com/bleemesser/gphotocat/internal/metadata"
)

func TestCheckUnchangedNoPriorRow(t *testing.T) {
	cat := openTest(t)
	id, unchanged, err := CheckUnchanged(cat.DB(), "Photos/a.jpg", "fp-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if unchanged {
		t.Fatal("expected no prior row to report unchanged = false")
	}
	if id != "" {
		t.Errorf("id = %q, want empty for a never-seen path", id)
	}
}

func TestCheckUnchangedMatchingFingerprint(t *testing.T) {
	cat := openTest(t)
	rec := metadata.MediaItemRecord{
		MediaItemID: "id-1", RelativePath: "Photos/a.jpg", MIMEType: "image/jpeg",
		ContentFingerprint: "fp-1", Status: "new",
	}
	if err := InsertMediaItem(cat.DB(), rec, "run-1", time.Now()); err != nil {
		t.Fatal(err)
	}

	id, unchanged, err := CheckUnchanged(cat.DB(), "Photos/a.jpg", "fp-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if !unchanged {
		t.Fatal("expected identical fingerprint to report unchanged")
	}
	if id != "id-1" {
		t.Errorf("id = %q, want id-1", id)
	}
}

func TestCheckUnchangedDifferentFingerprint(t *testing.T) {
	cat := openTest(t)
	rec := metadata.MediaItemRecord{
		MediaItemID: "id-1", RelativePath: "Photos/a.jpg", MIMEType: "image/jpeg",
		ContentFingerprint: "fp-1", Status: "new",
	}
	if err := InsertMediaItem(cat.DB(), rec, "run-1", time.Now()); err != nil {
		t.Fatal(err)
	}

	id, unchanged, err := CheckUnchanged(cat.DB(), "Photos/a.jpg", "fp-2", "")
	if err != nil {
		t.Fatal(err)
	}
	if unchanged {
		t.Fatal("expected a changed fingerprint to report unchanged = false")
	}
	if id != "id-1" {
		t.Errorf("id = %q, want id-1 (existing row still identified)", id)
	}
}

func TestInsertMediaItemPreservesFirstSeenOnReplace(t *testing.T) {
	cat := openTest(t)
	firstSeen := time.Now().Add(-24 * time.Hour)
	rec := metadata.MediaItemRecord{
		MediaItemID: "id-1", RelativePath: "Photos/a.jpg", MIMEType: "image/jpeg",
		ContentFingerprint: "fp-1", Status: "new",
	}
	if err := InsertMediaItem(cat.DB(), rec, "run-1", firstSeen); err != nil {
		t.Fatal(err)
	}

	rec.ContentFingerprint = "fp-2"
	rec.Status = "changed"
	if err := InsertMediaItem(cat.DB(), rec, "run-2", time.Now()); err != nil {
		t.Fatal(err)
	}

	var firstSeenStr string
	if err := cat.DB().QueryRow(`SELECT first_seen_timestamp FROM media_items WHERE media_item_id = ?`, "id-1").Scan(&firstSeenStr); err != nil {
		t.Fatal(err)
	}
	got, err := time.Parse(time.RFC3339, firstSeenStr)
	if err != nil {
		t.Fatal(err)
	}
	if diff := got.Sub(firstSeen.UTC()); diff > time.Second || diff < -time.Second {
		t.Errorf("first_seen_timestamp = %v, want ~%v (preserved across replace)", got, firstSeen)
	}
}

func TestInsertPeopleReplacesExistingTags(t *testing.T) {
	cat := openTest(t)
	rec := metadata.MediaItemRecord{MediaItemID: "id-1", RelativePath: "Photos/a.jpg", MIMEType: "image/jpeg", Status: "new"}
	if err := InsertMediaItem(cat.DB(), rec, "run-1", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := InsertPeople(cat.DB(), "id-1", []string{"Alice", "Bob"}); err != nil {
		t.Fatal(err)
	}
	if err := InsertPeople(cat.DB(), "id-1", []string{"Alice"}); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := cat.DB().QueryRow(`SELECT count(*) FROM media_item_people WHERE media_item_id = ?`, "id-1").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 person tag after replace, got %d", count)
	}
}

func TestMarkMissing(t *testing.T) {
	cat := openTest(t)
	rec := metadata.MediaItemRecord{MediaItemID: "id-1", RelativePath: "Photos/a.jpg", MIMEType: "image/jpeg", Status: "new"}
	if err := InsertMediaItem(cat.DB(), rec, "run-1", time.Now()); err != nil {
		t.Fatal(err)
	}

	n, err := MarkMissing(cat.DB(), "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("marked %d rows missing, want 1", n)
	}

	var status string
	if err := cat.DB().QueryRow(`SELECT status FROM media_items WHERE media_item_id = ?`, "id-1").Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "missing" {
		t.Errorf("status = %q, want missing", status)
	}
}
