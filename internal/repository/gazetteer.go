// Package repository declares the ports the usecase layer depends on for
// durable storage; internal/adapter/repository provides the sqlite
// implementation.
package repository

import (
	"context"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// GazetteerStore is the durable storage and point/range lookup surface
// over Geowords, Dictionaries and the derived WordlistEntry index.
// Cache hits must be observationally identical to misses; empty lookups
// return sentinel empty values, never an error.
type GazetteerStore interface {
	FindGeowordByID(ctx context.Context, geonlpID string) (entity.Geoword, error)
	FindGeowordByDictionaryAndEntry(ctx context.Context, dictionaryID int, entryID string) (entity.Geoword, error)

	FindWordlistByID(ctx context.Context, seqID int) (entity.WordlistEntry, error)
	FindWordlistByKey(ctx context.Context, normalizedSurface string) (entity.WordlistEntry, error)
	FindWordlistByYomi(ctx context.Context, reading string) (entity.WordlistEntry, error)

	GetDictionaryList(ctx context.Context) (map[int]entity.Dictionary, error)
	GetDictionary(ctx context.Context, identifier string) (entity.Dictionary, error)
	GetDictionaryByID(ctx context.Context, id int) (entity.Dictionary, error)
	GetDictionaryInternalID(ctx context.Context, identifier string) (int, bool, error)

	SetGeowords(ctx context.Context, geowords []entity.Geoword) error
	SetDictionaries(ctx context.Context, dictionaries []entity.Dictionary) error

	ClearGeowords(ctx context.Context) error
	ClearDictionaries(ctx context.Context) error
	ClearWordlists(ctx context.Context) error

	// UpdateWordlists rebuilds the wordlist table (and, via trie.Build
	// and trie.Persist, the double-array trie) from the current geoword
	// table, atomically swapping both in on success.
	UpdateWordlists(ctx context.Context) ([]entity.WordlistEntry, error)

	// AddDictionary imports one dictionary from a metadata JSON file and
	// a CSV file, returning the assigned internal dictionary id.
	AddDictionary(ctx context.Context, jsonPath, csvPath string) (int, error)
	// RemoveDictionary deletes the dictionary row and cascades delete
	// its geowords, atomically.
	RemoveDictionary(ctx context.Context, identifier string) error

	// GetGeowordsFromWordlist resolves an idlist into Geoword rows, up to
	// limit entries (0 means all).
	GetGeowordsFromWordlist(ctx context.Context, entry entity.WordlistEntry, limit int) ([]entity.Geoword, error)

	// ListDictionaries returns dictionaries matching a filter/order
	// expression (see pkg/filterexpr), a supplemental query surface.
	ListDictionaries(ctx context.Context, filter, orderBy string) ([]entity.Dictionary, error)
	// ListGeowords returns geowords matching a filter/order expression
	// over the indexed dictionary_id/ne_class columns and the JSON
	// payload's valid_from/valid_to fields.
	ListGeowords(ctx context.Context, filter, orderBy string, limit, offset int) ([]entity.Geoword, error)

	Close() error
}
