// Package classifier annotates a morpheme stream with the role flags
// the resolver's candidate-extraction state machine reads, as a pure
// Token -> Annotations function over a flat struct pair.
package classifier

import (
	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
)

func featureKey(f entity.Feature) string { return f.POS + "/" + f.Subclass1 }

func featureKey2(f entity.Feature) string { return f.POS + "/" + f.Subclass1 + "/" + f.Subclass2 }

var headSet = map[string]bool{
	"名詞/固有名詞":  true,
	"名詞/サ変接続":  true,
	"名詞/一般":    true,
	"名詞/副詞可能":  true,
	"接続詞/*":    true,
}

var bodyExtraSet = map[string]bool{
	"名詞/接尾/地域":  true,
	"名詞/数":      true,
	"名詞/接尾/助数詞": true,
	"名詞/接尾/一般":  true,
	"接頭詞/名詞接続":  true,
	"接頭詞/数接続":   true,
	"助詞/連体化":    true,
}

var alternativeSet = map[string]bool{
	"名詞/固有名詞/人名": true,
	"名詞/固有名詞/組織": true,
	"名詞/固有名詞/一般": true,
	"名詞/形容動詞語幹":  true,
	"名詞/副詞可能":    true,
	"名詞/サ変接続":    true,
	"名詞/一般":      true,
	"接続詞/*":      true,
	"動詞/自立":      true,
	"形容詞/自立":     true,
	"接頭詞/名詞接続":   true,
}

var stopperSet = map[string]bool{
	"名詞/固有名詞/組織": true,
	"名詞/固有名詞/一般": true,
	"名詞/サ変接続":    true,
	"名詞/形容動詞語幹":  true,
	"名詞/接尾/地域":   true,
	"名詞/接尾/一般":   true,
	"名詞/一般":      true,
}

var antileaderSet = map[string]bool{
	"名詞/サ変接続":   true,
	"名詞/形容動詞語幹": true,
	"名詞/接尾/一般":  true,
}

// isHead reports whether a feature's POS/subclass1 pair is in the HEAD
// set.
func isHead(f entity.Feature) bool { return headSet[featureKey(f)] }

func isBody(f entity.Feature) bool {
	if isHead(f) {
		return true
	}
	return bodyExtraSet[featureKey2(f)] || bodyExtraSet[featureKey(f)]
}

func isAlternative(f entity.Feature) bool {
	return alternativeSet[featureKey2(f)] || alternativeSet[featureKey(f)]
}

func isStopper(f entity.Feature) bool {
	return stopperSet[featureKey2(f)] || stopperSet[featureKey(f)]
}

func isAntileader(f entity.Feature) bool {
	return antileaderSet[featureKey2(f)] || antileaderSet[featureKey(f)]
}

// fixMecabSaHenBug forces a known-bad サ変接続 tagging of symbol-like
// surfaces back to a plain symbol feature.
func fixMecabSaHenBug(t entity.Token) entity.Token {
	if t.Feature.POS != "名詞" || t.Feature.Subclass1 != "サ変接続" {
		return t
	}
	isSymbolSurface := t.Surface == "－" || t.Surface == "～" || t.Surface == "♪" || len(t.Surface) == 1
	if !isSymbolSurface {
		return t
	}
	t.Feature = entity.Feature{POS: "記号", Subclass1: "一般", Subclass2: "*", Subclass3: "*", ConjForm: "*", ConjType: "*", Lemma: "*"}
	return t
}

// matchSuffix returns the longest profile suffix entry whose Surface is
// a proper suffix of surface, and ok=true if one exists.
func matchSuffix(surface string, suffixes []entity.SuffixEntry) (entity.SuffixEntry, bool) {
	var best entity.SuffixEntry
	found := false
	for _, s := range suffixes {
		if s.Surface == "" || s.Surface == surface {
			continue
		}
		if len(s.Surface) >= len(surface) {
			continue
		}
		if surface[len(surface)-len(s.Surface):] == s.Surface {
			if !found || len(s.Surface) > len(best.Surface) {
				best = s
				found = true
			}
		}
	}
	return best, found
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Annotate classifies every token in toks against profile p, and
// performs the right-to-left pass that fills NextIsHead.
func Annotate(toks []entity.Token, p *config.Profile) []entity.AnnotatedToken {
	out := make([]entity.AnnotatedToken, len(toks))

	for i, raw := range toks {
		t := fixMecabSaHenBug(raw)
		out[i].Token = t

		if t.Kind != entity.TokenNormal {
			continue
		}

		var ann entity.Annotations
		ann.Head = isHead(t.Feature)
		ann.Body = isBody(t.Feature)
		ann.Alternative = isAlternative(t.Feature)
		ann.Antileader = isAntileader(t.Feature)

		if entry, ok := matchSuffix(t.Surface, p.Suffixes); ok {
			ann.Suffix = true
			ann.SuffixEntry = entity.SuffixEntry{Surface: entry.Surface, Reading: entry.Reading, Pronunciation: entry.Pronunciation}
		}

		ann.Single = ann.Head && !contains(p.NonGeowords, t.Surface)

		ann.Stop = isStopper(t.Feature) && !contains(p.SpatialWords, t.Surface)

		out[i].Annotations = ann
	}

	for i := len(out) - 2; i >= 0; i-- {
		out[i].Annotations.NextIsHead = out[i+1].Annotations.Head
	}

	return out
}
