// Package repository implements repository.GazetteerStore against a
// pair of sqlite files, using the plain database/sql-over-mattn/go-sqlite3
// style rather than a schema/codegen ORM layer: the gazetteer's rows
// are JSON blobs with a couple of indexed columns, not a relational
// schema a generated query builder would earn its keep on.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/samber/lo"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/database"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/trie"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/wordlist"
	"github.com/nii-geonlp/geonlp-go/pkg/filterexpr"
)

const geowordCacheCapacity = 1000

// Store is the sqlite-backed repository.GazetteerStore implementation.
// Its methods serialise around mu rather than rely on sqlite's own
// locking granularity.
type Store struct {
	db       *database.DB
	triePath string

	mu    sync.Mutex
	cache *geowordCache
}

// New wraps an already-open database.DB. triePath is the path to the
// double-array trie file (geo_name_fullname.drt) UpdateWordlists
// rebuilds.
func New(db *database.DB, triePath string) *Store {
	return &Store{db: db, triePath: triePath, cache: newGeowordCache(geowordCacheCapacity)}
}

func (s *Store) Close() error { return s.db.Close() }

// --- Geoword lookups ---

func (s *Store) FindGeowordByID(ctx context.Context, geonlpID string) (entity.Geoword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, found, hit := s.cache.get(geonlpID); hit {
		if found {
			return value, nil
		}
		return entity.Geoword{}, nil
	}

	g, found, err := s.queryGeoword(ctx, "SELECT json FROM geoword WHERE geonlp_id = ?", geonlpID)
	if err != nil {
		return entity.Geoword{}, err
	}
	s.cache.set(geonlpID, g, found)
	if !found {
		return entity.Geoword{}, nil
	}
	return g, nil
}

func (s *Store) FindGeowordByDictionaryAndEntry(ctx context.Context, dictionaryID int, entryID string) (entity.Geoword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, found, err := s.queryGeoword(ctx, "SELECT json FROM geoword WHERE dictionary_id = ? AND entry_id = ?", dictionaryID, entryID)
	if err != nil || !found {
		return entity.Geoword{}, err
	}
	return g, nil
}

func (s *Store) queryGeoword(ctx context.Context, query string, args ...any) (entity.Geoword, bool, error) {
	row := s.db.Geo.QueryRowContext(ctx, query, args...)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return entity.Geoword{}, false, nil
		}
		return entity.Geoword{}, false, entity.NewStorageError("", err)
	}
	var g entity.Geoword
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return entity.Geoword{}, false, entity.NewFormatError("geoword json: " + err.Error())
	}
	return g, true, nil
}

// --- Wordlist lookups ---

func (s *Store) FindWordlistByID(ctx context.Context, seqID int) (entity.WordlistEntry, error) {
	return s.queryWordlist(ctx, "SELECT id, key, surface, idlist, yomi FROM wordlist WHERE id = ?", seqID)
}

func (s *Store) FindWordlistByKey(ctx context.Context, normalizedSurface string) (entity.WordlistEntry, error) {
	return s.queryWordlist(ctx, "SELECT id, key, surface, idlist, yomi FROM wordlist WHERE key = ?", normalizedSurface)
}

func (s *Store) FindWordlistByYomi(ctx context.Context, reading string) (entity.WordlistEntry, error) {
	return s.queryWordlist(ctx, "SELECT id, key, surface, idlist, yomi FROM wordlist WHERE yomi = ?", reading)
}

func (s *Store) queryWordlist(ctx context.Context, query string, args ...any) (entity.WordlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.Word.QueryRowContext(ctx, query, args...)
	var e entity.WordlistEntry
	if err := row.Scan(&e.ID, &e.Key, &e.Surface, &e.Idlist, &e.Yomi); err != nil {
		if err == sql.ErrNoRows {
			return entity.WordlistEntry{}, nil
		}
		return entity.WordlistEntry{}, entity.NewStorageError("", err)
	}
	return e, nil
}

func (s *Store) GetGeowordsFromWordlist(ctx context.Context, entry entity.WordlistEntry, limit int) ([]entity.Geoword, error) {
	ids := entry.IdlistIDs()
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	var lookupErr error
	geowords := lo.FilterMap(ids, func(id string, _ int) (entity.Geoword, bool) {
		if lookupErr != nil {
			return entity.Geoword{}, false
		}
		g, err := s.FindGeowordByID(ctx, id)
		if err != nil {
			lookupErr = err
			return entity.Geoword{}, false
		}
		return g, g.IsValid()
	})
	if lookupErr != nil {
		return nil, lookupErr
	}
	return geowords, nil
}

// --- Dictionary lookups ---

func (s *Store) GetDictionaryList(ctx context.Context) (map[int]entity.Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Geo.QueryContext(ctx, "SELECT id, json FROM dictionary")
	if err != nil {
		return nil, entity.NewStorageError("", err)
	}
	defer rows.Close()

	out := make(map[int]entity.Dictionary)
	for rows.Next() {
		var id int
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, entity.NewStorageError("", err)
		}
		var d entity.Dictionary
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, entity.NewFormatError("dictionary json: " + err.Error())
		}
		d.InternalID = id
		out[id] = d
	}
	return out, rows.Err()
}

func (s *Store) GetDictionary(ctx context.Context, identifier string) (entity.Dictionary, error) {
	return s.queryDictionary(ctx, "SELECT id, json FROM dictionary WHERE identifier = ?", identifier)
}

func (s *Store) GetDictionaryByID(ctx context.Context, id int) (entity.Dictionary, error) {
	return s.queryDictionary(ctx, "SELECT id, json FROM dictionary WHERE id = ?", id)
}

func (s *Store) queryDictionary(ctx context.Context, query string, arg any) (entity.Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.Geo.QueryRowContext(ctx, query, arg)
	var id int
	var raw string
	if err := row.Scan(&id, &raw); err != nil {
		if err == sql.ErrNoRows {
			return entity.Dictionary{}, nil
		}
		return entity.Dictionary{}, entity.NewStorageError("", err)
	}
	var d entity.Dictionary
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return entity.Dictionary{}, entity.NewFormatError("dictionary json: " + err.Error())
	}
	d.InternalID = id
	return d, nil
}

func (s *Store) GetDictionaryInternalID(ctx context.Context, identifier string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dictionaryIDByIdentifier(ctx, s.db.Geo, identifier)
}

func (s *Store) dictionaryIDByIdentifier(ctx context.Context, q queryer, identifier string) (int, bool, error) {
	row := q.QueryRowContext(ctx, "SELECT id FROM dictionary WHERE identifier = ?", identifier)
	var id int
	if err := row.Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, entity.NewStorageError("", err)
	}
	return id, true, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// --- Bulk writes ---

func (s *Store) SetGeowords(ctx context.Context, geowords []entity.Geoword) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Geo.BeginTx(ctx, nil)
	if err != nil {
		return entity.NewStorageError("", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO geoword (geonlp_id, dictionary_id, entry_id, ne_class, json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(geonlp_id) DO UPDATE SET dictionary_id=excluded.dictionary_id,
			entry_id=excluded.entry_id, ne_class=excluded.ne_class, json=excluded.json`)
	if err != nil {
		return entity.NewStorageError("", err)
	}
	defer stmt.Close()

	for _, g := range geowords {
		if !g.IsValid() {
			return entity.NewFormatError("geoword missing geonlp_id")
		}
		raw, err := json.Marshal(g)
		if err != nil {
			return entity.NewFormatError("encode geoword: " + err.Error())
		}
		if _, err := stmt.ExecContext(ctx, g.GeonlpID, g.DictionaryID, g.EntryID, g.NEClass, string(raw)); err != nil {
			return entity.NewStorageError("", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return entity.NewStorageError("", err)
	}
	s.cache.purge()
	return nil
}

func (s *Store) SetDictionaries(ctx context.Context, dictionaries []entity.Dictionary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Geo.BeginTx(ctx, nil)
	if err != nil {
		return entity.NewStorageError("", err)
	}
	defer tx.Rollback()

	for i := range dictionaries {
		if _, err := s.upsertDictionary(ctx, tx, &dictionaries[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return entity.NewStorageError("", err)
	}
	return nil
}

// upsertDictionary inserts d or, if its identifier already
// exists, updates the existing row in place, preserving its internal id:
// a re-import updates rather than duplicates.
func (s *Store) upsertDictionary(ctx context.Context, tx *sql.Tx, d *entity.Dictionary) (int, error) {
	if !d.IsValid() {
		return 0, entity.NewFormatError("dictionary missing identifier")
	}
	raw, err := json.Marshal(*d)
	if err != nil {
		return 0, entity.NewFormatError("encode dictionary: " + err.Error())
	}

	id, exists, err := s.dictionaryIDByIdentifier(ctx, tx, d.Identifier)
	if err != nil {
		return 0, err
	}
	if exists {
		if _, err := tx.ExecContext(ctx, "UPDATE dictionary SET json = ? WHERE id = ?", string(raw), id); err != nil {
			return 0, entity.NewStorageError("", err)
		}
		d.InternalID = id
		return id, nil
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO dictionary (identifier, json) VALUES (?, ?)", d.Identifier, string(raw))
	if err != nil {
		return 0, entity.NewStorageError("", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, entity.NewStorageError("", err)
	}
	d.InternalID = int(newID)
	return int(newID), nil
}

// --- Clearing ---

func (s *Store) ClearGeowords(ctx context.Context) error {
	return s.execGeo(ctx, "DELETE FROM geoword")
}

func (s *Store) ClearDictionaries(ctx context.Context) error {
	return s.execGeo(ctx, "DELETE FROM dictionary")
}

func (s *Store) ClearWordlists(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Word.ExecContext(ctx, "DELETE FROM wordlist"); err != nil {
		return entity.NewStorageError("", err)
	}
	return nil
}

func (s *Store) execGeo(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Geo.ExecContext(ctx, query, args...); err != nil {
		return entity.NewStorageError("", err)
	}
	s.cache.purge()
	return nil
}

// --- Index rebuild ---

func (s *Store) UpdateWordlists(ctx context.Context) ([]entity.WordlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	geowords, err := s.allGeowords(ctx)
	if err != nil {
		return nil, err
	}

	entries := wordlist.Build(geowords)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	da, err := trie.Build(keys)
	if err != nil {
		return nil, err
	}

	// Stage the new trie beside the live one first, so a failed table
	// rebuild leaves the previous trie+wordlist pair in place.
	staged := s.triePath + ".new"
	if err := trie.Persist(da, staged); err != nil {
		return nil, err
	}

	if err := s.rebuildWordlistTable(ctx, entries); err != nil {
		os.Remove(staged)
		return nil, err
	}

	if err := os.Rename(staged, s.triePath); err != nil {
		return nil, entity.NewTrieBuildError("rename staged trie file into place", err)
	}

	if err := s.db.ReopenWord(); err != nil {
		return nil, entity.NewStorageError("", err)
	}

	return entries, nil
}

func (s *Store) allGeowords(ctx context.Context) ([]entity.Geoword, error) {
	rows, err := s.db.Geo.QueryContext(ctx, "SELECT json FROM geoword")
	if err != nil {
		return nil, entity.NewStorageError("", err)
	}
	defer rows.Close()

	var out []entity.Geoword
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, entity.NewStorageError("", err)
		}
		var g entity.Geoword
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, entity.NewFormatError("geoword json: " + err.Error())
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// rebuildWordlistTable populates a staging table and swaps it in under
// one transaction, so a failure partway through leaves the live
// wordlist table untouched.
func (s *Store) rebuildWordlistTable(ctx context.Context, entries []entity.WordlistEntry) error {
	if _, err := s.db.Word.ExecContext(ctx, "DROP TABLE IF EXISTS wordlist_tmp"); err != nil {
		return entity.NewStorageError("", err)
	}
	if _, err := s.db.Word.ExecContext(ctx, `CREATE TABLE wordlist_tmp (
		id INTEGER PRIMARY KEY, key TEXT NOT NULL, surface TEXT NOT NULL,
		idlist TEXT NOT NULL, yomi TEXT NOT NULL DEFAULT '')`); err != nil {
		return entity.NewStorageError("", err)
	}

	tx, err := s.db.Word.BeginTx(ctx, nil)
	if err != nil {
		return entity.NewStorageError("", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO wordlist_tmp (id, key, surface, idlist, yomi) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return entity.NewStorageError("", err)
	}
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.Key, e.Surface, e.Idlist, e.Yomi); err != nil {
			stmt.Close()
			return entity.NewStorageError("", err)
		}
	}
	stmt.Close()

	if _, err := tx.ExecContext(ctx, "DROP TABLE wordlist"); err != nil {
		return entity.NewStorageError("", err)
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE wordlist_tmp RENAME TO wordlist"); err != nil {
		return entity.NewStorageError("", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE INDEX idx_wordlist_key ON wordlist(key)"); err != nil {
		return entity.NewStorageError("", err)
	}
	if _, err := tx.ExecContext(ctx, "CREATE INDEX idx_wordlist_yomi ON wordlist(yomi)"); err != nil {
		return entity.NewStorageError("", err)
	}

	return tx.Commit()
}

// --- Administrative query surface (supplemental, pkg/filterexpr-backed) ---

func (s *Store) ListDictionaries(ctx context.Context, filter, orderBy string) ([]entity.Dictionary, error) {
	clause, args, err := filterexpr.BindDictionaryFilter(filter, orderBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrRequestFormat, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Geo.QueryContext(ctx, "SELECT id, json FROM dictionary "+clause, args...)
	if err != nil {
		return nil, entity.NewStorageError("", err)
	}
	defer rows.Close()

	var out []entity.Dictionary
	for rows.Next() {
		var id int
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, entity.NewStorageError("", err)
		}
		var d entity.Dictionary
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, entity.NewFormatError("dictionary json: " + err.Error())
		}
		d.InternalID = id
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) ListGeowords(ctx context.Context, filter, orderBy string, limit, offset int) ([]entity.Geoword, error) {
	clause, args, err := filterexpr.BindGeowordFilter(filter, orderBy, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrRequestFormat, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Geo.QueryContext(ctx, "SELECT json FROM geoword "+clause, args...)
	if err != nil {
		return nil, entity.NewStorageError("", err)
	}
	defer rows.Close()

	var out []entity.Geoword
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, entity.NewStorageError("", err)
		}
		var g entity.Geoword
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, entity.NewFormatError("geoword json: " + err.Error())
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
