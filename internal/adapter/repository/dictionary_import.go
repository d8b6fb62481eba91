package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// AddDictionary imports one dictionary from a metadata JSON file and a
// CSV file. If the CSV yields zero valid rows the whole import,
// dictionary row included, is rolled back rather than left as a
// partial insert.
func (s *Store) AddDictionary(ctx context.Context, jsonPath, csvPath string) (int, error) {
	meta, err := loadDictionaryMetadata(jsonPath)
	if err != nil {
		return 0, err
	}
	identifier, ok := meta.PrimaryIdentifier()
	if !ok {
		return 0, entity.NewFormatError("dictionary metadata has no geonlp: identifier")
	}
	contentURL, ok := meta.ContentURL()
	if !ok {
		return 0, entity.NewFormatError("dictionary metadata has no distribution[0].contentUrl")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Geo.BeginTx(ctx, nil)
	if err != nil {
		return 0, entity.NewStorageError("", err)
	}
	defer tx.Rollback()

	d := entity.Dictionary{
		Identifier:   identifier,
		Name:         meta.Name,
		Keywords:     meta.Keywords,
		Description:  meta.Description,
		URL:          meta.URL,
		ContentURL:   contentURL,
		DateModified: meta.DateModified,
	}

	dictID, err := s.upsertDictionary(ctx, tx, &d)
	if err != nil {
		return 0, err
	}

	geowords, err := loadGeowordsFromCSV(csvPath, dictID)
	if err != nil {
		return 0, err
	}
	if len(geowords) == 0 {
		return 0, entity.NewFormatError(fmt.Sprintf("dictionary %q: CSV %q yields zero valid rows", identifier, csvPath))
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO geoword (geonlp_id, dictionary_id, entry_id, ne_class, json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(geonlp_id) DO UPDATE SET dictionary_id=excluded.dictionary_id,
			entry_id=excluded.entry_id, ne_class=excluded.ne_class, json=excluded.json`)
	if err != nil {
		return 0, entity.NewStorageError("", err)
	}
	defer stmt.Close()

	for _, g := range geowords {
		raw, err := json.Marshal(g)
		if err != nil {
			return 0, entity.NewFormatError("encode geoword: " + err.Error())
		}
		if _, err := stmt.ExecContext(ctx, g.GeonlpID, g.DictionaryID, g.EntryID, g.NEClass, string(raw)); err != nil {
			return 0, entity.NewStorageError("", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, entity.NewStorageError("", err)
	}
	s.cache.purge()
	return dictID, nil
}

// RemoveDictionary deletes the dictionary's geowords and then the
// dictionary row itself, both inside one transaction so readers never
// see the dictionary gone with its geowords still present.
func (s *Store) RemoveDictionary(ctx context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Geo.BeginTx(ctx, nil)
	if err != nil {
		return entity.NewStorageError("", err)
	}
	defer tx.Rollback()

	id, ok, err := s.dictionaryIDByIdentifier(ctx, tx, identifier)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM geoword WHERE dictionary_id = ?", id); err != nil {
		return entity.NewStorageError("", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dictionary WHERE id = ?", id); err != nil {
		return entity.NewStorageError("", err)
	}

	if err := tx.Commit(); err != nil {
		return entity.NewStorageError("", err)
	}
	s.cache.purge()
	return nil
}

func loadDictionaryMetadata(path string) (entity.DictionaryMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return entity.DictionaryMetadata{}, entity.NewFormatError("read dictionary metadata: " + err.Error())
	}
	var meta entity.DictionaryMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return entity.DictionaryMetadata{}, entity.NewFormatError("parse dictionary metadata: " + err.Error())
	}
	return meta, nil
}

func loadGeowordsFromCSV(path string, dictionaryID int) ([]entity.Geoword, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, entity.NewFormatError("open geoword CSV: " + err.Error())
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, entity.NewFormatError("read geoword CSV header: " + err.Error())
	}
	colIndex := make(map[string]int, len(header))
	for i, h := range header {
		colIndex[strings.TrimSpace(h)] = i
	}

	var geowords []entity.Geoword
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, entity.NewFormatError("read geoword CSV row: " + err.Error())
		}
		g, err := rowToGeoword(record, colIndex, dictionaryID)
		if err != nil {
			continue
		}
		geowords = append(geowords, g)
	}
	return geowords, nil
}

func col(record []string, colIndex map[string]int, name string) string {
	i, ok := colIndex[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func rowToGeoword(record []string, colIndex map[string]int, dictionaryID int) (entity.Geoword, error) {
	g := entity.Geoword{
		DictionaryID: dictionaryID,
		Body:         col(record, colIndex, "body"),
		BodyKana:     col(record, colIndex, "body_kana"),
		NEClass:      col(record, colIndex, "ne_class"),
		Address:      col(record, colIndex, "address"),
		Latitude:     col(record, colIndex, "latitude"),
		Longitude:    col(record, colIndex, "longitude"),
		ValidFrom:    col(record, colIndex, "valid_from"),
		ValidTo:      col(record, colIndex, "valid_to"),
	}
	g.Prefix = splitMultiValue(col(record, colIndex, "prefix"))
	g.Suffix = splitMultiValue(col(record, colIndex, "suffix"))
	g.PrefixKana = splitMultiValue(col(record, colIndex, "prefix_kana"))
	g.SuffixKana = splitMultiValue(col(record, colIndex, "suffix_kana"))
	g.Hypernym = splitMultiValue(col(record, colIndex, "hypernym"))
	g.Code = splitCodeMap(col(record, colIndex, "code"))

	entryID := col(record, colIndex, "entry_id")
	geonlpID := col(record, colIndex, "geonlp_id")
	if geonlpID == "" {
		if geolodID := col(record, colIndex, "geolod_id"); geolodID != "" {
			geonlpID = geolodID
		} else {
			geonlpID = fmt.Sprintf("_%d_%s", dictionaryID, entryID)
		}
	}
	g.GeonlpID = geonlpID
	g.EntryID = entryID

	if priority := col(record, colIndex, "priority_score"); priority != "" {
		if n, err := strconv.Atoi(priority); err == nil {
			g.PriorityScore = n
		}
	}

	if g.Body == "" || g.NEClass == "" {
		return entity.Geoword{}, entity.NewFormatError("geoword row missing body or ne_class")
	}
	return g, nil
}

func splitMultiValue(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func splitCodeMap(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, "/") {
		if pair == "" {
			continue
		}
		if idx := strings.IndexByte(pair, ':'); idx >= 0 {
			out[pair[:idx]] = pair[idx+1:]
		}
	}
	return out
}
