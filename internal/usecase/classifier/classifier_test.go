package classifier

import (
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
)

func tok(surface string, f entity.Feature) entity.Token {
	return entity.Token{Kind: entity.TokenNormal, Surface: surface, Feature: f}
}

func TestAnnotateHeadAndBody(t *testing.T) {
	toks := []entity.Token{
		tok("東京", entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名", Subclass3: "一般"}),
		tok("都", entity.Feature{POS: "名詞", Subclass1: "接尾", Subclass2: "地域", Subclass3: "*"}),
	}
	out := Annotate(toks, &config.Profile{})

	if !out[0].Annotations.Head {
		t.Errorf("expected 東京 to be classified as head")
	}
	if !out[1].Annotations.Body {
		t.Errorf("expected 都 to be classified as body via the 地域 suffix set")
	}
	if out[1].Annotations.Head {
		t.Errorf("都 alone should not be a head")
	}
}

func TestAnnotateSingleRespectsNonGeowords(t *testing.T) {
	toks := []entity.Token{
		tok("五反田", entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名", Subclass3: "一般"}),
	}
	p := &config.Profile{NonGeowords: []string{"五反田"}}
	out := Annotate(toks, p)

	if out[0].Annotations.Single {
		t.Errorf("五反田 is listed in non_geoword and must not be a single-token candidate")
	}
}

func TestAnnotateStopRespectsSpatialWords(t *testing.T) {
	toks := []entity.Token{
		tok("都", entity.Feature{POS: "名詞", Subclass1: "接尾", Subclass2: "地域", Subclass3: "*"}),
	}
	withoutOverride := Annotate(toks, &config.Profile{})
	if !withoutOverride[0].Annotations.Stop {
		t.Fatalf("接尾/地域 is in the stopper set by default")
	}

	withOverride := Annotate(toks, &config.Profile{SpatialWords: []string{"都"}})
	if withOverride[0].Annotations.Stop {
		t.Errorf("spatial_words override should clear the Stop flag for 都")
	}
}

func TestAnnotateNextIsHeadRightToLeftPass(t *testing.T) {
	toks := []entity.Token{
		tok("新", entity.Feature{POS: "接頭詞", Subclass1: "名詞接続", Subclass2: "*", Subclass3: "*"}),
		tok("宿", entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名", Subclass3: "一般"}),
	}
	out := Annotate(toks, &config.Profile{})

	if !out[0].Annotations.NextIsHead {
		t.Errorf("first token's NextIsHead should reflect that 宿 is a head")
	}
	if out[1].Annotations.NextIsHead {
		t.Errorf("last token has no successor, NextIsHead must stay false")
	}
}

func TestFixMecabSaHenBug(t *testing.T) {
	toks := []entity.Token{
		tok("－", entity.Feature{POS: "名詞", Subclass1: "サ変接続", Subclass2: "*", Subclass3: "*"}),
	}
	out := Annotate(toks, &config.Profile{})

	if out[0].Token.Feature.POS != "記号" {
		t.Errorf("－ mistagged as サ変接続 should be corrected to 記号, got %q", out[0].Token.Feature.POS)
	}
}

func TestAnnotateSuffixMatch(t *testing.T) {
	toks := []entity.Token{
		tok("大阪市", entity.Feature{POS: "名詞", Subclass1: "一般", Subclass2: "*", Subclass3: "*"}),
	}
	p := &config.Profile{
		Suffixes: []entity.SuffixEntry{{Surface: "市", Reading: "シ", Pronunciation: "シ"}},
	}
	out := Annotate(toks, p)

	if !out[0].Annotations.Suffix {
		t.Fatalf("expected 大阪市 to match the 市 suffix entry")
	}
	if out[0].Annotations.SuffixEntry.Surface != "市" {
		t.Errorf("matched suffix entry surface = %q, want 市", out[0].Annotations.SuffixEntry.Surface)
	}
}

func TestAnnotateStopForPlainCommonNoun(t *testing.T) {
	toks := []entity.Token{
		tok("会社", entity.Feature{POS: "名詞", Subclass1: "一般", Subclass2: "*", Subclass3: "*"}),
	}
	out := Annotate(toks, &config.Profile{})

	if !out[0].Annotations.Stop {
		t.Errorf("名詞,一般 is one of the stopper categories and must set Stop")
	}
}

func TestAnnotatePreservesSentinels(t *testing.T) {
	toks := []entity.Token{
		{Kind: entity.TokenBOS},
		tok("東京", entity.Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名", Subclass3: "一般"}),
		{Kind: entity.TokenEOS},
	}
	out := Annotate(toks, &config.Profile{})

	if out[0].Annotations.Head || out[2].Annotations.Head {
		t.Errorf("BOS/EOS sentinels must never be classified as head")
	}
}
