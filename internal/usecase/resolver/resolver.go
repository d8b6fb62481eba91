// Package resolver implements the place-name resolution state machine:
// it walks a classified morpheme stream, extracts maximal place-name
// candidates, queries the word-form index for the longest admissible
// match, prunes by the active session filters, and emits the rewritten
// token sequence. Control flow is expressed with explicit conditionals
// rather than exceptions.
package resolver

import (
	"context"
	"strings"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/trie"
	"github.com/nii-geonlp/geonlp-go/internal/repository"
	"github.com/nii-geonlp/geonlp-go/internal/usecase/filterstate"
	"github.com/nii-geonlp/geonlp-go/pkg/standardize"
)

const maxCandidateBytes = 192

// Store is the subset of repository.GazetteerStore the resolver reads.
type Store interface {
	FindGeowordByID(ctx context.Context, geonlpID string) (entity.Geoword, error)
	FindWordlistByID(ctx context.Context, seqID int) (entity.WordlistEntry, error)
}

var _ Store = (repository.GazetteerStore)(nil)

// Resolver walks a classified token stream and emits place-name tokens.
type Resolver struct {
	store Store
	idx   *trie.Index
}

// New builds a Resolver over an open trie index and gazetteer store.
func New(store Store, idx *trie.Index) *Resolver {
	return &Resolver{store: store, idx: idx}
}

// Resolve walks toks (already classifier-annotated) and returns the
// rewritten sequence.
func (r *Resolver) Resolve(ctx context.Context, toks []entity.AnnotatedToken, filters *filterstate.State) ([]entity.Token, error) {
	var out []entity.Token
	var lastEmitted *entity.AnnotatedToken

	cursor := 0
	for cursor < len(toks) {
		at := toks[cursor]

		if at.Token.Kind != entity.TokenNormal {
			out = append(out, at.Token)
			lastEmitted = &toks[cursor]
			cursor++
			continue
		}

		if !at.Annotations.Head && !at.Annotations.Prefix {
			out = append(out, at.Token)
			lastEmitted = &toks[cursor]
			cursor++
			continue
		}

		if lastEmitted != nil && lastEmitted.Annotations.Antileader {
			out = append(out, at.Token)
			lastEmitted = &toks[cursor]
			cursor++
			continue
		}

		span, _ := extractSpan(toks, cursor)

		placeTok, consumed, reinsert, trailingSuffix, err := r.resolveSpan(ctx, toks, cursor, span, filters)
		if err != nil {
			return nil, err
		}
		if consumed == 0 {
			// No admissible candidate at all: emit the first token as-is
			// and advance by one, per the antileader-guard/abandon rule.
			out = append(out, at.Token)
			lastEmitted = &toks[cursor]
			cursor++
			continue
		}

		if len(out) > 0 {
			clearPrecedingModifierTag(&out[len(out)-1])
		}

		out = append(out, placeTok)
		if trailingSuffix != nil {
			out = append(out, *trailingSuffix)
		}
		cursor += consumed
		lastEmitted = nil

		if reinsert != nil {
			toks[cursor] = *reinsert
		}
	}

	return out, nil
}

// extractSpan finds the longest run starting at cursor that forms a
// candidate place-name span: the first head/prefix token followed by
// consecutive body tokens, capped at maxCandidateBytes.
func extractSpan(toks []entity.AnnotatedToken, cursor int) ([]entity.AnnotatedToken, int) {
	span := []entity.AnnotatedToken{toks[cursor]}
	total := len(toks[cursor].Token.Surface)

	for i := cursor + 1; i < len(toks); i++ {
		t := toks[i]
		if t.Token.Kind != entity.TokenNormal || !t.Annotations.Body {
			break
		}
		if total+len(t.Token.Surface) > maxCandidateBytes {
			break
		}
		span = append(span, t)
		total += len(t.Token.Surface)
	}
	return span, total
}

// resolveSpan runs the longest-match/shrink loop and returns the
// synthesized place-name token, how many input tokens it consumed, a
// token to re-insert at the cursor (if the multi-word trailing-suffix
// collapse applies), and a trailing suffix token to emit immediately
// after the place name (if shrinking split one off a partially-matched
// final token).
func (r *Resolver) resolveSpan(ctx context.Context, toks []entity.AnnotatedToken, cursor int, span []entity.AnnotatedToken, filters *filterstate.State) (entity.Token, int, *entity.AnnotatedToken, *entity.Token, error) {
	surface := joinSurfaces(span)
	key := standardize.Normalize(surface)

	matches := r.idx.CommonPrefixSearch(key)
	if len(matches) == 0 {
		return entity.Token{}, 0, nil, nil, nil
	}

	// consider matches longest-first, skip any whose surviving idlist is
	// empty after filter pruning.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		spanCount, shrunkSurface, shrunkYomi, suffixTok, ok := shrinkSpanToLength(span, m.Len)
		if !ok {
			continue
		}

		entry, err := r.store.FindWordlistByID(ctx, m.Value)
		if err != nil {
			return entity.Token{}, 0, nil, nil, err
		}
		if !entry.IsValid() {
			continue
		}

		if spanCount == 1 && !span[0].Annotations.Single {
			continue
		}

		pruned, err := r.pruneActiveFilter(ctx, entry, shrunkSurface, filters)
		if err != nil {
			return entity.Token{}, 0, nil, nil, err
		}
		if pruned == "" {
			continue
		}

		alternative := ""
		if spanCount == 1 && span[0].Annotations.Alternative {
			tag := alternativeTag(span[0].Token.Feature)
			if !strings.Contains(tag, "人名") && cursor+1 < len(toks) && toks[cursor+1].Annotations.Stop {
				continue
			}
			alternative = tag
		}

		resultSpan := span[:spanCount]

		var reinsert *entity.AnnotatedToken
		consumed := spanCount
		if suffixTok == nil && spanCount > 1 {
			last := resultSpan[spanCount-1]
			if last.Token.Feature.POS == "名詞" && last.Token.Feature.Subclass1 == "接尾" && last.Token.Feature.Subclass2 == "地名語" {
				resultSpan = resultSpan[:spanCount-1]
				shrunkSurface, shrunkYomi, _ = joinRange(resultSpan)
				consumed--
				fixed := last
				fixed.Annotations.Head = true
				fixed.Annotations.Antileader = false
				reinsert = &fixed
			}
		}

		placeTok := entity.Token{
			Kind:    entity.TokenNormal,
			Surface: shrunkSurface,
			Feature: entity.Feature{
				POS: entity.PlaceNamePOS, Subclass1: entity.PlaceNameSubclass1, Subclass2: entity.PlaceNameSubclass2,
				Subclass3: pruned, ConjForm: alternative, ConjType: "*",
				Lemma: shrunkSurface, Yomi: shrunkYomi, Pronunciation: shrunkYomi,
			},
		}
		return placeTok, consumed, reinsert, suffixTok, nil
	}

	return entity.Token{}, 0, nil, nil, nil
}

// alternativeTag derives the homograph feature tag embedded in a
// one-token place name's ConjForm from the token's own feature tuple:
// POS/Subclass1/Subclass2/Subclass3 joined with "-", stopping at the
// first "*"/empty component (名詞,固有名詞,人名,姓 -> 名詞-固有名詞-人名-姓).
func alternativeTag(f entity.Feature) string {
	parts := []string{f.POS}
	for _, c := range []string{f.Subclass1, f.Subclass2, f.Subclass3} {
		if c == "" || c == "*" {
			break
		}
		parts = append(parts, c)
	}
	return strings.Join(parts, "-")
}

// shrinkSpanToLength shrinks span from the right until the standardized
// surface of the retained prefix has exactly byte length l. When length
// l instead falls inside the final token's own surface at a
// classifier-recognized suffix boundary, the suffix portion is split
// off the retained prefix and returned as a separate synthesized
// trailing suffix token, so "甲府" + "市役所" (a suffix-tagged single
// morpheme) can still match a trie hit of length len("甲府市").
func shrinkSpanToLength(span []entity.AnnotatedToken, l int) (int, string, string, *entity.Token, bool) {
	for n := len(span); n >= 1; n-- {
		surface, yomi, _ := joinRange(span[:n])
		key := standardize.Normalize(surface)
		if len(key) == l {
			return n, surface, yomi, nil, true
		}
		if len(key) < l {
			return 0, "", "", nil, false
		}

		last := span[n-1]
		if !last.Annotations.Suffix || last.Annotations.SuffixEntry.Surface == "" {
			continue
		}
		body := strings.TrimSuffix(last.Token.Surface, last.Annotations.SuffixEntry.Surface)
		if body == last.Token.Surface {
			continue
		}
		prefixSurface, prefixYomi, _ := joinRange(span[:n-1])
		candidateSurface := prefixSurface + body
		if len(standardize.Normalize(candidateSurface)) != l {
			continue
		}

		bodyYomi := strings.TrimSuffix(last.Token.Feature.Yomi, last.Annotations.SuffixEntry.Reading)
		suffixTok := &entity.Token{
			Kind:    entity.TokenNormal,
			Surface: last.Annotations.SuffixEntry.Surface,
			Feature: entity.Feature{
				POS: entity.PlaceNamePOS, Subclass1: "接尾", Subclass2: entity.PlaceNameSubclass2, Subclass3: "*",
				ConjForm: "*", ConjType: "*",
				Lemma: last.Annotations.SuffixEntry.Surface,
				Yomi:  last.Annotations.SuffixEntry.Reading, Pronunciation: last.Annotations.SuffixEntry.Pronunciation,
			},
		}
		return n, candidateSurface, prefixYomi + bodyYomi, suffixTok, true
	}
	return 0, "", "", nil, false
}

func joinRange(span []entity.AnnotatedToken) (string, string, bool) {
	var surface, yomi strings.Builder
	for _, t := range span {
		surface.WriteString(t.Token.Surface)
		yomi.WriteString(t.Token.Feature.Yomi)
	}
	return surface.String(), yomi.String(), true
}

func joinSurfaces(span []entity.AnnotatedToken) string {
	s, _, _ := joinRange(span)
	return s
}

// pruneActiveFilter keeps only the idlist entries whose geoword passes
// the active dictionary/class filters and whose surface matches the
// shrunk span exactly.
func (r *Resolver) pruneActiveFilter(ctx context.Context, entry entity.WordlistEntry, surface string, filters *filterstate.State) (string, error) {
	var kept string
	for _, id := range entry.IdlistIDs() {
		g, err := r.store.FindGeowordByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !g.IsValid() {
			continue
		}
		if !filters.IsDictionaryActive(g.DictionaryID) {
			continue
		}
		if !filters.IsClassActive(g.NEClass) {
			continue
		}
		if !surfaceMatches(g, surface) {
			continue
		}
		kept = entity.AppendIdlistEntry(kept, g.GeonlpID, g.TypicalName())
	}
	return kept, nil
}

// surfaceMatches reports whether g could produce exactly surface via
// one of its prefix x suffix combinations.
func surfaceMatches(g entity.Geoword, surface string) bool {
	prefixes := g.Prefix
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	suffixes := g.Suffix
	if len(suffixes) == 0 {
		suffixes = []string{""}
	}
	for _, p := range prefixes {
		for _, s := range suffixes {
			if p+g.Body+s == surface {
				return true
			}
		}
	}
	return false
}

// clearPrecedingModifierTag clears a 名詞-固有名詞-地名修飾語 tag the
// analyzer may have attached to the token immediately preceding an
// emitted place name.
func clearPrecedingModifierTag(t *entity.Token) {
	if t.Feature.ConjForm == "名詞-固有名詞-地名修飾語" {
		t.Feature.ConjForm = "*"
	}
}
