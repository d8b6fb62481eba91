package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleMetadataJSON = `{
	"identifier": ["geonlp:sample"],
	"name": "Sample Dictionary",
	"distribution": [{"contentUrl": "https://example.invalid/sample.csv"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAddDictionaryImportsValidRows(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	metaPath := writeFile(t, dir, "meta.json", sampleMetadataJSON)
	csvPath := writeFile(t, dir, "geowords.csv", "body,body_kana,ne_class,entry_id\n東京,トウキョウ,都道府県,1\n大阪,オオサカ,都道府県,2\n")

	ctx := context.Background()
	dictID, err := s.AddDictionary(ctx, metaPath, csvPath)
	if err != nil {
		t.Fatalf("AddDictionary: %v", err)
	}
	if dictID == 0 {
		t.Fatalf("expected a non-zero dictionary id")
	}

	d, err := s.GetDictionary(ctx, "geonlp:sample")
	if err != nil {
		t.Fatalf("GetDictionary: %v", err)
	}
	if !d.IsValid() || d.Name != "Sample Dictionary" {
		t.Errorf("GetDictionary = %+v, want the imported metadata", d)
	}

	list, err := s.GetDictionaryList(ctx)
	if err != nil {
		t.Fatalf("GetDictionaryList: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("GetDictionaryList returned %d dictionaries, want 1", len(list))
	}
}

func TestAddDictionaryRollsBackOnZeroValidRows(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	metaPath := writeFile(t, dir, "meta.json", sampleMetadataJSON)
	// every row is missing ne_class, so none of them parse into a valid geoword.
	csvPath := writeFile(t, dir, "geowords.csv", "body,body_kana,entry_id\n東京,トウキョウ,1\n")

	ctx := context.Background()
	if _, err := s.AddDictionary(ctx, metaPath, csvPath); err == nil {
		t.Fatalf("expected AddDictionary to fail when the CSV yields zero valid rows")
	}

	d, err := s.GetDictionary(ctx, "geonlp:sample")
	if err != nil {
		t.Fatalf("GetDictionary: %v", err)
	}
	if d.IsValid() {
		t.Errorf("expected the dictionary row to be rolled back, found %+v", d)
	}
}

func TestRemoveDictionaryCascadesGeowords(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	metaPath := writeFile(t, dir, "meta.json", sampleMetadataJSON)
	csvPath := writeFile(t, dir, "geowords.csv", "body,body_kana,ne_class,entry_id\n東京,トウキョウ,都道府県,1\n")

	ctx := context.Background()
	if _, err := s.AddDictionary(ctx, metaPath, csvPath); err != nil {
		t.Fatalf("AddDictionary: %v", err)
	}

	if err := s.RemoveDictionary(ctx, "geonlp:sample"); err != nil {
		t.Fatalf("RemoveDictionary: %v", err)
	}

	d, err := s.GetDictionary(ctx, "geonlp:sample")
	if err != nil {
		t.Fatalf("GetDictionary: %v", err)
	}
	if d.IsValid() {
		t.Errorf("expected the dictionary to be gone after RemoveDictionary")
	}

	list, err := s.GetDictionaryList(ctx)
	if err != nil {
		t.Fatalf("GetDictionaryList: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("GetDictionaryList = %v, want empty after RemoveDictionary", list)
	}
}
