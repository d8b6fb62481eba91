// Package database opens and migrates the two sqlite files that back the
// gazetteer: geodic.sq3 (geoword + dictionary) and wordlist.sq3 (the
// derived surface-form index). Schema and open/pragma handling are plain
// database/sql over mattn/go-sqlite3, not ent: the engine's row shape is
// a handful of JSON-blob tables, not a relational schema ent's codegen
// would earn its keep on.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const geodicSchema = `
CREATE TABLE IF NOT EXISTS dictionary (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier TEXT NOT NULL UNIQUE,
	json       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS geoword (
	geonlp_id     TEXT PRIMARY KEY,
	dictionary_id INTEGER NOT NULL REFERENCES dictionary(id) ON DELETE CASCADE,
	entry_id      TEXT NOT NULL,
	ne_class      TEXT NOT NULL DEFAULT '',
	json          TEXT NOT NULL,
	UNIQUE(dictionary_id, entry_id)
);

CREATE INDEX IF NOT EXISTS idx_geoword_dictionary ON geoword(dictionary_id);
CREATE INDEX IF NOT EXISTS idx_geoword_ne_class ON geoword(ne_class);
`

const wordlistSchema = `
CREATE TABLE IF NOT EXISTS wordlist (
	id      INTEGER PRIMARY KEY,
	key     TEXT NOT NULL,
	surface TEXT NOT NULL,
	idlist  TEXT NOT NULL,
	yomi    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_wordlist_key ON wordlist(key);
CREATE INDEX IF NOT EXISTS idx_wordlist_yomi ON wordlist(yomi);
`

// DB bundles the two sqlite handles the gazetteer store needs. They are
// separate files (and separate *sql.DB pools) so UpdateWordlists can
// rebuild the wordlist table through a staging table inside
// wordlist.sq3 without touching geodic.sq3.
type DB struct {
	Geo  *sql.DB
	Word *sql.DB

	geoPath  string
	wordPath string
}

// Open opens (creating if absent) the sqlite files at geoPath and
// wordPath and applies their schemas.
func Open(geoPath, wordPath string) (*DB, error) {
	geo, err := openOne(geoPath, geodicSchema)
	if err != nil {
		return nil, fmt.Errorf("open geoword store: %w", err)
	}
	word, err := openOne(wordPath, wordlistSchema)
	if err != nil {
		geo.Close()
		return nil, fmt.Errorf("open wordlist store: %w", err)
	}
	return &DB{Geo: geo, Word: word, geoPath: geoPath, wordPath: wordPath}, nil
}

func openOne(path, schema string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// WordPath returns the path wordlist.sq3 was opened from.
func (d *DB) WordPath() string { return d.wordPath }

// Close closes both handles.
func (d *DB) Close() error {
	var firstErr error
	if err := d.Geo.Close(); err != nil {
		firstErr = err
	}
	if err := d.Word.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ReopenWord closes and reopens the wordlist handle so it reads whatever
// file is now at wordPath: sqlite connections cache file descriptors and
// page state that a rename underneath them would leave stale.
// UpdateWordlists calls it after swapping in the rebuilt wordlist table.
func (d *DB) ReopenWord() error {
	if err := d.Word.Close(); err != nil {
		return err
	}
	word, err := openOne(d.wordPath, wordlistSchema)
	if err != nil {
		return err
	}
	d.Word = word
	return nil
}
