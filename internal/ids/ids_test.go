package ids

import (
	"testing"

	"github.com/google/uuid"
)

func TestAlbumIDIsDeterministicAndBasenameOnly(t *testing.T) {
	a := AlbumID("Year 2020")
	b := AlbumID("Year 2020")
	if a != b {
		t.Fatal("AlbumID is not deterministic")
	}

	// Moving the Takeout root must not change the id: only the
	// basename feeds the hash, nothing about where it sits.
	c := uuid.NewSHA1(Namespace, []byte("Year 2020"))
	if a != c {
		t.Fatal("AlbumID must be invariant to path/location, only basename matters")
	}

	if AlbumID("Year 2021") == a {
		t.Fatal("different folder names must not collide")
	}
}

func TestMediaItemIDDeterministic(t *testing.T) {
	taken := int64(1577836800)
	created := int64(1577836801)

	a := MediaItemID("Trip/IMG_0001.jpg", &taken, &created, 12345)
	b := MediaItemID("Trip/IMG_0001.jpg", &taken, &created, 12345)
	if a != b {
		t.Fatal("MediaItemID must be deterministic for identical inputs")
	}

	c := MediaItemID("Trip/IMG_0001.jpg", nil, nil, 12345)
	if a == c {
		t.Fatal("missing timestamps must change the canonical string")
	}

	d := MediaItemID("Trip/IMG_0002.jpg", &taken, &created, 12345)
	if a == d {
		t.Fatal("different relative paths must not collide")
	}
}

func TestMediaItemIDMissingTimestampsAreEmptyStrings(t *testing.T) {
	withNil := MediaItemID("x.jpg", nil, nil, 10)
	zero := int64(0)
	withZero := MediaItemID("x.jpg", &zero, &zero, 10)
	if withNil == withZero {
		t.Fatal("a nil timestamp and an explicit zero timestamp must canonicalize differently")
	}
}
