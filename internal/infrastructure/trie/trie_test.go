package trie

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

func TestBuildPersistOpenRoundTrip(t *testing.T) {
	keys := []string{"おおさか", "とうきょう", "とうきょうと"}
	sort.Strings(keys)

	da, err := Build(keys)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path := filepath.Join(t.TempDir(), "geo_name_fullname.drt")
	if err := Persist(da, path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	matches := idx.CommonPrefixSearch("とうきょうとにほんばし")
	if len(matches) != 2 {
		t.Fatalf("CommonPrefixSearch returned %d matches, want 2: %+v", len(matches), matches)
	}
	if matches[len(matches)-1].Len != len([]byte("とうきょうと")) {
		t.Errorf("longest match length = %d, want byte length of とうきょうと", matches[len(matches)-1].Len)
	}
}

func TestOpenMissingFileReturnsErrIndexMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.drt"))
	if err != entity.ErrIndexMissing {
		t.Fatalf("Open on a missing file = %v, want entity.ErrIndexMissing", err)
	}
}

func TestOpenEmptyFileReturnsErrIndexMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.drt")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating empty file: %v", err)
	}
	f.Close()

	_, err = Open(path)
	if err != entity.ErrIndexMissing {
		t.Fatalf("Open on an empty file = %v, want entity.ErrIndexMissing", err)
	}
}

func TestCommonPrefixSearchNoMatch(t *testing.T) {
	da, err := Build([]string{"とうきょう"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "geo.drt")
	if err := Persist(da, path); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	idx, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if matches := idx.CommonPrefixSearch("おおさか"); len(matches) != 0 {
		t.Errorf("expected no matches for an unrelated surface, got %+v", matches)
	}
}
