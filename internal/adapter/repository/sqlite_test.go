package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "geodic.sq3"), filepath.Join(dir, "wordlist.sq3"))
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, filepath.Join(dir, "geo_name_fullname.drt"))
}

// seedDictionary inserts one dictionary row and returns its internal id,
// so geowords written by a test satisfy the geoword.dictionary_id
// foreign key.
func seedDictionary(t *testing.T, s *Store) int {
	t.Helper()
	ctx := context.Background()
	if err := s.SetDictionaries(ctx, []entity.Dictionary{{Identifier: "geonlp:seed", Name: "Seed"}}); err != nil {
		t.Fatalf("SetDictionaries: %v", err)
	}
	id, ok, err := s.GetDictionaryInternalID(ctx, "geonlp:seed")
	if err != nil || !ok {
		t.Fatalf("GetDictionaryInternalID: id=%d ok=%v err=%v", id, ok, err)
	}
	return id
}

func TestStoreGeowordRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dictID := seedDictionary(t, s)

	g := entity.Geoword{GeonlpID: "geonlp:tokyo", DictionaryID: dictID, EntryID: "1", Body: "東京", NEClass: "都道府県"}
	if err := s.SetGeowords(ctx, []entity.Geoword{g}); err != nil {
		t.Fatalf("SetGeowords: %v", err)
	}

	got, err := s.FindGeowordByID(ctx, "geonlp:tokyo")
	if err != nil {
		t.Fatalf("FindGeowordByID: %v", err)
	}
	if got.Body != "東京" {
		t.Errorf("FindGeowordByID body = %q, want 東京", got.Body)
	}

	// a second lookup should come from the LRU cache, not a fresh query.
	cached, err := s.FindGeowordByID(ctx, "geonlp:tokyo")
	if err != nil {
		t.Fatalf("FindGeowordByID (cached): %v", err)
	}
	if cached.Body != got.Body {
		t.Errorf("cached lookup returned a different value: %+v vs %+v", cached, got)
	}
}

func TestStoreGeowordMissReturnsInvalid(t *testing.T) {
	s := newTestStore(t)
	got, err := s.FindGeowordByID(context.Background(), "geonlp:nowhere")
	if err != nil {
		t.Fatalf("FindGeowordByID: %v", err)
	}
	if got.IsValid() {
		t.Errorf("expected an invalid (zero) Geoword for a missing id, got %+v", got)
	}
}

func TestStoreDictionaryUpsertPreservesInternalID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := entity.Dictionary{Identifier: "geonlp:sample", Name: "Sample"}
	if err := s.SetDictionaries(ctx, []entity.Dictionary{d}); err != nil {
		t.Fatalf("SetDictionaries: %v", err)
	}
	first, err := s.GetDictionary(ctx, "geonlp:sample")
	if err != nil {
		t.Fatalf("GetDictionary: %v", err)
	}
	if first.InternalID == 0 {
		t.Fatalf("expected a non-zero internal id after insert")
	}

	updated := entity.Dictionary{Identifier: "geonlp:sample", Name: "Sample v2"}
	if err := s.SetDictionaries(ctx, []entity.Dictionary{updated}); err != nil {
		t.Fatalf("SetDictionaries (update): %v", err)
	}
	second, err := s.GetDictionary(ctx, "geonlp:sample")
	if err != nil {
		t.Fatalf("GetDictionary (after update): %v", err)
	}
	if second.InternalID != first.InternalID {
		t.Errorf("re-importing an existing identifier changed its internal id: %d -> %d", first.InternalID, second.InternalID)
	}
	if second.Name != "Sample v2" {
		t.Errorf("Name = %q after update, want Sample v2", second.Name)
	}
}

func TestStoreUpdateWordlistsBuildsQueryableIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dictID := seedDictionary(t, s)

	geowords := []entity.Geoword{
		{GeonlpID: "geonlp:osaka", DictionaryID: dictID, EntryID: "1", Body: "大阪", NEClass: "都道府県"},
	}
	if err := s.SetGeowords(ctx, geowords); err != nil {
		t.Fatalf("SetGeowords: %v", err)
	}

	entries, err := s.UpdateWordlists(ctx)
	if err != nil {
		t.Fatalf("UpdateWordlists: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("expected at least one wordlist entry")
	}

	entry, err := s.FindWordlistByKey(ctx, entries[0].Key)
	if err != nil {
		t.Fatalf("FindWordlistByKey: %v", err)
	}
	if !entry.IsValid() {
		t.Fatalf("expected a valid wordlist row for key %q after UpdateWordlists", entries[0].Key)
	}

	matched, err := s.GetGeowordsFromWordlist(ctx, entry, 0)
	if err != nil {
		t.Fatalf("GetGeowordsFromWordlist: %v", err)
	}
	if len(matched) != 1 || matched[0].GeonlpID != "geonlp:osaka" {
		t.Errorf("GetGeowordsFromWordlist = %+v, want a single geonlp:osaka entry", matched)
	}
}

func TestStoreClearGeowordsPurgesCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dictID := seedDictionary(t, s)

	g := entity.Geoword{GeonlpID: "geonlp:nagoya", DictionaryID: dictID, EntryID: "1", Body: "名古屋"}
	if err := s.SetGeowords(ctx, []entity.Geoword{g}); err != nil {
		t.Fatalf("SetGeowords: %v", err)
	}
	if _, err := s.FindGeowordByID(ctx, "geonlp:nagoya"); err != nil {
		t.Fatalf("FindGeowordByID: %v", err)
	}

	if err := s.ClearGeowords(ctx); err != nil {
		t.Fatalf("ClearGeowords: %v", err)
	}

	got, err := s.FindGeowordByID(ctx, "geonlp:nagoya")
	if err != nil {
		t.Fatalf("FindGeowordByID after clear: %v", err)
	}
	if got.IsValid() {
		t.Errorf("expected ClearGeowords to purge the cache, got a stale hit %+v", got)
	}
}
