package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/trie"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/classifier"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/filterstate"
	"github.com/nii-geonlp/geonlp-go/pkg/standardize"
)

// fakeStore is an in-memory Store keyed by wordlist sequence id and
// geonlp_id, standing in for the sqlite-backed repository.GazetteerStore.
type fakeStore struct {
	wordlists map[int]entity.WordlistEntry
	geowords  map[string]entity.Geoword
}

func (f *fakeStore) FindGeowordByID(_ context.Context, id string) (entity.Geoword, error) {
	return f.geowords[id], nil
}

func (f *fakeStore) FindWordlistByID(_ context.Context, id int) (entity.WordlistEntry, error) {
	return f.wordlists[id], nil
}

// newTestIndex builds a real double-array trie over keys (sequence id
// assigned positionally, matching wordlist.Build's convention) and
// opens it mmapped from a temp file, the same lifecycle engine.Open uses.
func newTestIndex(t *testing.T, keys []string) *trie.Index {
	t.Helper()
	da, err := trie.Build(keys)
	if err != nil {
		t.Fatalf("trie.Build: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.dar")
	if err := trie.Persist(da, path); err != nil {
		t.Fatalf("trie.Persist: %v", err)
	}
	idx, err := trie.Open(path)
	if err != nil {
		t.Fatalf("trie.Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func headToken(surface string) entity.Token {
	return entity.Token{Kind: entity.TokenNormal, Surface: surface, Feature: entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名", Subclass3: "一般"}}
}

func TestResolveSingleTokenPlaceName(t *testing.T) {
	key := standardize.Normalize("東京")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "東京", Idlist: "geonlp:tokyo:東京"}},
		geowords:  map[string]entity.Geoword{"geonlp:tokyo": {GeonlpID: "geonlp:tokyo", Body: "東京", NEClass: "都道府県", DictionaryID: 1}},
	}

	toks := []entity.Token{headToken("東京")}
	p := &config.Profile{}
	annotated := classifier.Annotate(toks, p)

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("Resolve() returned %d tokens, want 1", len(out))
	}
	if !out[0].Feature.IsPlaceName() {
		t.Errorf("emitted token feature = %+v, want a place-name feature", out[0].Feature)
	}
	if out[0].Surface != "東京" {
		t.Errorf("emitted surface = %q, want 東京", out[0].Surface)
	}
}

func TestResolvePrunedByInactiveDictionary(t *testing.T) {
	key := standardize.Normalize("東京")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "東京", Idlist: "geonlp:tokyo:東京"}},
		geowords:  map[string]entity.Geoword{"geonlp:tokyo": {GeonlpID: "geonlp:tokyo", Body: "東京", NEClass: "都道府県", DictionaryID: 1}},
	}

	toks := []entity.Token{headToken("東京")}
	p := &config.Profile{}
	annotated := classifier.Annotate(toks, p)

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}
	filters.SetActiveDictionaries([]int{2}) // dictionary 1 is excluded

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 1 || out[0].Feature.IsPlaceName() {
		t.Errorf("expected the candidate to be rejected and the raw token passed through, got %+v", out)
	}
}

func bodyToken(surface, pos, sub1, sub2 string) entity.Token {
	return entity.Token{Kind: entity.TokenNormal, Surface: surface, Feature: entity.Feature{POS: pos, Subclass1: sub1, Subclass2: sub2}}
}

// TestResolveMultiWordSpanNoOverSplit exercises a two-token span ("甲府"
// + "市") that should resolve as a single place-name token rather than
// stopping after the head token alone.
func TestResolveMultiWordSpanNoOverSplit(t *testing.T) {
	key := standardize.Normalize("甲府市")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "甲府市", Idlist: "geonlp:kofu:甲府市"}},
		geowords:  map[string]entity.Geoword{"geonlp:kofu": {GeonlpID: "geonlp:kofu", Body: "甲府市", NEClass: "市区町村", DictionaryID: 1}},
	}

	toks := []entity.Token{
		headToken("甲府"),
		bodyToken("市", "名詞", "接尾", "地域"),
	}
	p := &config.Profile{}
	annotated := classifier.Annotate(toks, p)

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 1 {
		t.Fatalf("Resolve() returned %d tokens, want 1 (no over-split), got %+v", len(out), out)
	}
	if out[0].Surface != "甲府市" {
		t.Errorf("emitted surface = %q, want 甲府市", out[0].Surface)
	}
	if !out[0].Feature.IsPlaceName() {
		t.Errorf("emitted token feature = %+v, want a place-name feature", out[0].Feature)
	}
}

// TestResolveSuffixShrinkEmitsSeparateSuffixToken covers 甲府市役所: the
// trie only holds 甲府市 (the administrative name), and 市役所 is a
// single morpheme that ends in the profile's suffix entry 役所, leaving
// "市" to complete 甲府市.
// Shrinking must split the trailing suffix off into its own token
// instead of discarding the whole candidate for having no exact-length
// trie hit.
func TestResolveSuffixShrinkEmitsSeparateSuffixToken(t *testing.T) {
	key := standardize.Normalize("甲府市")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "甲府市", Idlist: "geonlp:kofu:甲府市"}},
		geowords:  map[string]entity.Geoword{"geonlp:kofu": {GeonlpID: "geonlp:kofu", Body: "甲府市", NEClass: "市区町村", DictionaryID: 1}},
	}

	toks := []entity.Token{
		headToken("甲府"),
		bodyToken("市役所", "名詞", "接尾", "一般"),
	}
	p := &config.Profile{Suffixes: []entity.SuffixEntry{{Surface: "役所", Reading: "ヤクショ", Pronunciation: "ヤクショ"}}}
	annotated := classifier.Annotate(toks, p)

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("Resolve() returned %d tokens, want 2 (place name + synthesized suffix), got %+v", len(out), out)
	}
	if !out[0].Feature.IsPlaceName() || out[0].Surface != "甲府市" {
		t.Errorf("first token = %+v, want a 甲府市 place name", out[0])
	}
	if out[1].Surface != "役所" {
		t.Errorf("second token surface = %q, want 役所", out[1].Surface)
	}
}

// TestResolveAlternativeHomographKeepsTagBeforeStopSuccessor covers
// 愛宕神社に参拝: 愛宕 is a single-token 人名/姓 homograph candidate
// whose successor (神社) is a stop-class token. The 人名 tag must
// still be emitted, unlike the generic alternative suppression rule.
func TestResolveAlternativeHomographKeepsTagBeforeStopSuccessor(t *testing.T) {
	key := standardize.Normalize("愛宕")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "愛宕", Idlist: "geonlp:atago:愛宕"}},
		geowords:  map[string]entity.Geoword{"geonlp:atago": {GeonlpID: "geonlp:atago", Body: "愛宕", NEClass: "地形", DictionaryID: 1}},
	}

	atago := entity.Token{Kind: entity.TokenNormal, Surface: "愛宕", Feature: entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "人名", Subclass3: "姓"}}
	jinja := entity.Token{Kind: entity.TokenNormal, Surface: "神社", Feature: entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "組織"}}

	toks := []entity.Token{atago, jinja}
	p := &config.Profile{}
	annotated := classifier.Annotate(toks, p)

	if !annotated[0].Annotations.Alternative {
		t.Fatalf("expected 愛宕 (名詞,固有名詞,人名) to classify as Alternative")
	}
	if !annotated[1].Annotations.Stop {
		t.Fatalf("expected 神社 (名詞,固有名詞,組織) to classify as Stop")
	}

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("Resolve() returned %d tokens, want 2 (愛宕 place name + 神社 passthrough), got %+v", len(out), out)
	}
	if !out[0].Feature.IsPlaceName() {
		t.Fatalf("愛宕 should still resolve as a place name despite the stop successor, got %+v", out[0])
	}
	if out[0].Feature.ConjForm != "名詞-固有名詞-人名-姓" {
		t.Errorf("ConjForm = %q, want 名詞-固有名詞-人名-姓", out[0].Feature.ConjForm)
	}
}

// TestResolveClearsPrecedingModifierTag covers the
// preceding-modifier-tag scenario: a token tagged as a place-name
// modifier immediately before a resolved place name has that tag
// cleared.
func TestResolveClearsPrecedingModifierTag(t *testing.T) {
	key := standardize.Normalize("東京")
	idx := newTestIndex(t, []string{key})

	store := &fakeStore{
		wordlists: map[int]entity.WordlistEntry{0: {ID: 1, Key: key, Surface: "東京", Idlist: "geonlp:tokyo:東京"}},
		geowords:  map[string]entity.Geoword{"geonlp:tokyo": {GeonlpID: "geonlp:tokyo", Body: "東京", NEClass: "都道府県", DictionaryID: 1}},
	}

	modifier := entity.Token{Kind: entity.TokenNormal, Surface: "都内", Feature: entity.Feature{POS: "名詞", Subclass1: "一般", ConjForm: "名詞-固有名詞-地名修飾語"}}
	toks := []entity.Token{modifier, headToken("東京")}
	p := &config.Profile{}
	annotated := classifier.Annotate(toks, p)

	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("Resolve() returned %d tokens, want 2, got %+v", len(out), out)
	}
	if out[0].Feature.ConjForm != "*" {
		t.Errorf("preceding modifier ConjForm = %q, want cleared to *", out[0].Feature.ConjForm)
	}
	if !out[1].Feature.IsPlaceName() {
		t.Errorf("second token = %+v, want a 東京 place name", out[1])
	}
}

func TestResolveNoMatchPassesThrough(t *testing.T) {
	idx := newTestIndex(t, []string{standardize.Normalize("大阪")})

	store := &fakeStore{wordlists: map[int]entity.WordlistEntry{}, geowords: map[string]entity.Geoword{}}
	p := &config.Profile{}
	filters, err := filterstate.New(context.Background(), p, nil)
	if err != nil {
		t.Fatalf("filterstate.New: %v", err)
	}

	toks := []entity.Token{headToken("名古屋")}
	annotated := classifier.Annotate(toks, p)

	r := New(store, idx)
	out, err := r.Resolve(context.Background(), annotated, filters)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Feature.IsPlaceName() {
		t.Errorf("with no trie match, the original token should pass through unchanged, got %+v", out)
	}
}
