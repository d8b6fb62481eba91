// Package engine wires storage, index, analyzer, classifier, resolver
// and session filter state into a single programmatic surface:
// parse/parseNode, geoword/wordlist lookups, dictionary CRUD and the
// ten filter-state calls.
package engine

import (
	"context"
	"strings"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/analyzer"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/database"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/trie"
	"github.com/nii-geonlp/geonlp-go/internal/repository"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/classifier"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/filterstate"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/resolver"
	"github.com/nii-geonlp/geonlp-go/pkg/standardize"
)

// Engine is the top-level facade. One instance owns one data directory's
// storage connections, one mapped trie and one analyzer tagger.
type Engine struct {
	profile  *config.Profile
	store    repository.GazetteerStore
	idx      *trie.Index
	an       *analyzer.Analyzer
	resolver *resolver.Resolver
	filters  *filterstate.State
}

// Open constructs an Engine from a profile file path over an already
// opened store. It loads the analyzer model, maps the trie (if built)
// and seeds the filter state, releasing everything acquired so far on
// any failure.
func Open(ctx context.Context, profilePath string, store repository.GazetteerStore) (*Engine, error) {
	profile, err := config.Load(profilePath)
	if err != nil {
		return nil, entity.NewServiceCreateFailed(entity.SubsystemProfile, err)
	}

	an, err := analyzer.New(profile.SystemDicDir, profile.DataFile(config.UserDicFile))
	if err != nil {
		return nil, entity.NewServiceCreateFailed(entity.SubsystemAnalyzer, err)
	}

	idx, err := trie.Open(profile.DataFile(config.TrieFile))
	if err != nil && err != entity.ErrIndexMissing {
		an.Destroy()
		return nil, entity.NewServiceCreateFailed(entity.SubsystemTrie, err)
	}

	filters, err := filterstate.New(ctx, profile, store)
	if err != nil {
		an.Destroy()
		idx.Close()
		return nil, entity.NewServiceCreateFailed(entity.SubsystemOther, err)
	}

	e := &Engine{profile: profile, store: store, idx: idx, an: an, filters: filters}
	if idx != nil {
		e.resolver = resolver.New(store, idx)
	}
	return e, nil
}

// Close releases the analyzer and the mapped trie. The store is owned by
// whoever passed it to Open and is closed by that caller.
func (e *Engine) Close() error {
	e.an.Destroy()
	return e.idx.Close()
}

// Parse returns a human-readable token dump of sentence, formatted per
// the profile's `formatter` setting.
func (e *Engine) Parse(ctx context.Context, sentence string) (string, error) {
	toks, err := e.ParseNode(ctx, sentence)
	if err != nil {
		return "", err
	}
	if e.profile.Formatter == config.FormatterChasen {
		return ChasenGeowordFormatter(toks), nil
	}
	return DefaultGeowordFormatter(toks), nil
}

// ParseNode tokenizes sentence, classifies it, resolves place-name spans
// and returns the enriched token stream.
func (e *Engine) ParseNode(ctx context.Context, sentence string) ([]entity.Token, error) {
	if e.an == nil {
		return nil, entity.ErrAnalyzerUninitialized
	}
	if e.idx == nil || e.resolver == nil {
		return nil, entity.ErrIndexMissing
	}

	escaped, restore := escapeNewlines(sentence)

	raw, err := e.an.Tokenize(escaped)
	if err != nil {
		return nil, err
	}

	annotated := classifier.Annotate(raw, e.profile)
	toks, err := e.resolver.Resolve(ctx, annotated, e.filters)
	if err != nil {
		return nil, err
	}

	return restore(toks), nil
}

// Annotate runs tokenization and classification without resolving place
// names, exposed to inspect the classifier's role flags directly.
func (e *Engine) Annotate(sentence string) ([]entity.AnnotatedToken, error) {
	if e.an == nil {
		return nil, entity.ErrAnalyzerUninitialized
	}
	raw, err := e.an.Tokenize(sentence)
	if err != nil {
		return nil, err
	}
	return classifier.Annotate(raw, e.profile), nil
}

// escapeNewlines escapes each literal "\n" in sentence to the two
// characters "\" and "n" before analysis, then returns a restore
// function that merges the analyzer's resulting "\" token with its
// following "n"-prefixed token back into a single
// entity.NewNewlineToken(). A token surface longer than the leading
// "n" (the analyzer glued the escape onto the next word) keeps its
// remainder as a separate token after the merged newline.
func escapeNewlines(sentence string) (string, func([]entity.Token) []entity.Token) {
	if !strings.Contains(sentence, "\n") {
		return sentence, func(toks []entity.Token) []entity.Token { return toks }
	}

	escaped := strings.ReplaceAll(sentence, "\n", `\n`)

	restore := func(toks []entity.Token) []entity.Token {
		out := make([]entity.Token, 0, len(toks))
		for i := 0; i < len(toks); i++ {
			t := toks[i]
			if t.Kind == entity.TokenNormal && t.Surface == `\` && i+1 < len(toks) {
				next := toks[i+1]
				if next.Kind == entity.TokenNormal && strings.HasPrefix(next.Surface, "n") {
					out = append(out, entity.NewNewlineToken())
					if rest := strings.TrimPrefix(next.Surface, "n"); rest != "" {
						remainder := next
						remainder.Surface = rest
						out = append(out, remainder)
					}
					i++
					continue
				}
			}
			out = append(out, t)
		}
		return out
	}
	return escaped, restore
}

// GetGeowordEntry resolves one geonlp_id into its Geoword, an empty
// (invalid) value on a miss.
func (e *Engine) GetGeowordEntry(ctx context.Context, geonlpID string) (entity.Geoword, error) {
	return e.store.FindGeowordByID(ctx, geonlpID)
}

// GetGeowordEntries looks surface up in the surface index and, only on
// a miss there, in the reading index, and returns every candidate
// geoword of the entry found keyed by geonlp_id.
func (e *Engine) GetGeowordEntries(ctx context.Context, surface string) (map[string]entity.Geoword, error) {
	out := make(map[string]entity.Geoword)

	key := standardize.Normalize(surface)
	entry, err := e.store.FindWordlistByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !entry.IsValid() {
		entry, err = e.store.FindWordlistByYomi(ctx, key)
		if err != nil {
			return nil, err
		}
	}
	if !entry.IsValid() {
		return out, nil
	}

	for _, id := range entry.IdlistIDs() {
		g, err := e.store.FindGeowordByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if g.IsValid() {
			out[g.GeonlpID] = g
		}
	}
	return out, nil
}

// GetWordlistBySurface returns the wordlist row keyed by the normalized
// surface form key, an invalid (zero) entry on a miss.
func (e *Engine) GetWordlistBySurface(ctx context.Context, key string) (entity.WordlistEntry, error) {
	return e.store.FindWordlistByKey(ctx, standardize.Normalize(key))
}

// --- Dictionary CRUD ---

func (e *Engine) GetDictionaryList(ctx context.Context) (map[int]entity.Dictionary, error) {
	return e.store.GetDictionaryList(ctx)
}

func (e *Engine) GetDictionary(ctx context.Context, identifier string) (entity.Dictionary, error) {
	return e.store.GetDictionary(ctx, identifier)
}

func (e *Engine) GetDictionaryByID(ctx context.Context, id int) (entity.Dictionary, error) {
	return e.store.GetDictionaryByID(ctx, id)
}

func (e *Engine) GetDictionaryIdentifierByID(ctx context.Context, id int) (string, error) {
	d, err := e.store.GetDictionaryByID(ctx, id)
	if err != nil {
		return "", err
	}
	return d.Identifier, nil
}

func (e *Engine) AddDictionary(ctx context.Context, jsonPath, csvPath string) (int, error) {
	return e.store.AddDictionary(ctx, jsonPath, csvPath)
}

func (e *Engine) RemoveDictionary(ctx context.Context, identifier string) error {
	return e.store.RemoveDictionary(ctx, identifier)
}

// ClearDatabase empties both the geoword/dictionary store and the
// derived wordlist index; callers must call UpdateIndex afterwards to
// obtain a consistent (empty) trie pair.
func (e *Engine) ClearDatabase(ctx context.Context) error {
	if err := e.store.ClearGeowords(ctx); err != nil {
		return err
	}
	if err := e.store.ClearDictionaries(ctx); err != nil {
		return err
	}
	return e.store.ClearWordlists(ctx)
}

// UpdateIndex rebuilds the wordlist table and trie from the current
// geoword table and remaps the trie this Engine queries against.
func (e *Engine) UpdateIndex(ctx context.Context) error {
	if _, err := e.store.UpdateWordlists(ctx); err != nil {
		return err
	}

	newIdx, err := trie.Open(e.profile.DataFile(config.TrieFile))
	if err != nil {
		return entity.NewServiceCreateFailed(entity.SubsystemTrie, err)
	}
	oldIdx := e.idx
	e.idx = newIdx
	e.resolver = resolver.New(e.store, newIdx)
	return oldIdx.Close()
}

// ListDictionaries and ListGeowords expose the supplemental
// filterexpr-backed administrative query surface: the engine also
// serves as a gazetteer query engine over its own installed data.
func (e *Engine) ListDictionaries(ctx context.Context, filter, orderBy string) ([]entity.Dictionary, error) {
	return e.store.ListDictionaries(ctx, filter, orderBy)
}

func (e *Engine) ListGeowords(ctx context.Context, filter, orderBy string, limit, offset int) ([]entity.Geoword, error) {
	return e.store.ListGeowords(ctx, filter, orderBy, limit, offset)
}

// --- Filter CRUD (the ten …ActiveDictionaries/…ActiveClasses calls) ---

func (e *Engine) GetActiveDictionaries() []int { return e.filters.GetActiveDictionaries() }

func (e *Engine) SetActiveDictionaries(ids []int) { e.filters.SetActiveDictionaries(ids) }

func (e *Engine) AddActiveDictionary(id int) { e.filters.AddActiveDictionary(id) }

func (e *Engine) RemoveActiveDictionary(id int) { e.filters.RemoveActiveDictionary(id) }

func (e *Engine) ResetActiveDictionaries(ctx context.Context) error {
	return e.filters.ResetActiveDictionaries(ctx)
}

func (e *Engine) GetActiveClasses() []string { return e.filters.GetActiveClasses() }

func (e *Engine) SetActiveClasses(patterns []string) error { return e.filters.SetActiveClasses(patterns) }

func (e *Engine) AddActiveClass(pattern string) error { return e.filters.AddActiveClass(pattern) }

func (e *Engine) RemoveActiveClass(pattern string) { e.filters.RemoveActiveClass(pattern) }

func (e *Engine) ResetActiveClasses() error { return e.filters.ResetActiveClasses() }

// OpenStorage opens the two sqlite files a profile names, a helper for
// callers (cmd/) that need a store before an Engine can be constructed,
// e.g. `init`/`import`/`reindex` subcommands that run without a trie yet.
func OpenStorage(profile *config.Profile) (*database.DB, error) {
	db, err := database.Open(profile.DataFile(config.GeowordDBFile), profile.DataFile(config.WordlistDBFile))
	if err != nil {
		return nil, entity.NewServiceCreateFailed(entity.SubsystemStorage, err)
	}
	return db, nil
}
