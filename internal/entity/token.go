package entity

import "strings"

// Feature is MeCab's flat part-of-speech feature tuple.
type Feature struct {
	POS           string
	Subclass1     string
	Subclass2     string
	Subclass3     string
	ConjForm      string
	ConjType      string
	Lemma         string
	Yomi          string
	Pronunciation string
}

// PlaceNamePOS is the fixed feature prefix every place-name token carries.
const (
	PlaceNamePOS       = "名詞"
	PlaceNameSubclass1 = "固有名詞"
	PlaceNameSubclass2 = "地名語"
)

// String renders the feature tuple comma-joined, the form MeCab's
// "chasen"/default output and the on-disk token representation both use.
func (f Feature) String() string {
	return strings.Join([]string{
		f.POS, f.Subclass1, f.Subclass2, f.Subclass3,
		f.ConjForm, f.ConjType, f.Lemma, f.Yomi, f.Pronunciation,
	}, ",")
}

// ParseFeature splits a comma-joined feature string back into a Feature.
// Missing trailing fields are filled with "*", MeCab's own placeholder.
func ParseFeature(s string) Feature {
	parts := strings.Split(s, ",")
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return "*"
	}
	return Feature{
		POS: get(0), Subclass1: get(1), Subclass2: get(2), Subclass3: get(3),
		ConjForm: get(4), ConjType: get(5), Lemma: get(6), Yomi: get(7), Pronunciation: get(8),
	}
}

// IsPlaceName reports whether this feature tuple is a resolver-emitted
// place-name token.
func (f Feature) IsPlaceName() bool {
	return f.POS == PlaceNamePOS && f.Subclass1 == PlaceNameSubclass1 && f.Subclass2 == PlaceNameSubclass2
}

// TokenKind distinguishes ordinary morphemes from the sentence sentinels
// the analyzer adapter emits.
type TokenKind int

const (
	TokenNormal TokenKind = iota
	TokenBOS
	TokenEOS
)

// Token is the analyzer's unit of segmentation: a surface string with a
// feature tuple. The resolver both consumes and produces Tokens; a
// synthesized place-name token replaces the morphemes of its span.
type Token struct {
	Kind    TokenKind
	Surface string
	Feature Feature
}

// NewNewlineToken is the control token the resolver substitutes back in
// for the escaped "\n" after merging the analyzer's split "\" + "n...".
func NewNewlineToken() Token {
	return Token{Kind: TokenNormal, Surface: "\n", Feature: Feature{POS: "記号", Subclass1: "改行", Subclass2: "*", Subclass3: "*", ConjForm: "*", ConjType: "*", Lemma: "\n", Yomi: "", Pronunciation: ""}}
}

// SuffixEntry is one row of the profile's suffix table.
type SuffixEntry struct {
	Surface       string
	Reading       string
	Pronunciation string
}

// Annotations carries the classifier's role flags for one Token, kept
// disjoint from Token itself so the classifier can be described as a
// pure Token -> Annotations function over a flat struct pair.
type Annotations struct {
	Head        bool // may start a geoword span
	Body        bool // may extend a geoword span
	Prefix      bool // reserved: always false, no POS class currently sets it
	Suffix      bool
	SuffixEntry SuffixEntry
	Single      bool // may stand alone as a one-token place-name candidate
	Alternative bool // one-token candidate should retain a homograph reading tag
	Stop        bool // a place name cannot take a suffix across this token
	Antileader  bool // the preceding candidate, if any, must not be a place name
	NextIsHead  bool // successor token is head (populated by the right-to-left pass)
}

// AnnotatedToken pairs a Token with its classifier Annotations.
type AnnotatedToken struct {
	Token       Token
	Annotations Annotations
}
