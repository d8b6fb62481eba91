package entity

import "testing"

func TestFeatureStringAndParseFeatureRoundTrip(t *testing.T) {
	f := Feature{POS: "名詞", Subclass1: "固有名詞", Subclass2: "地名語", Subclass3: "一般", ConjForm: "*", ConjType: "*", Lemma: "東京", Yomi: "トウキョウ", Pronunciation: "トーキョー"}
	s := f.String()
	got := ParseFeature(s)
	if got != f {
		t.Errorf("ParseFeature(f.String()) = %+v, want %+v", got, f)
	}
}

func TestParseFeaturePadsMissingFields(t *testing.T) {
	f := ParseFeature("名詞,一般")
	if f.POS != "名詞" || f.Subclass1 != "一般" {
		t.Fatalf("ParseFeature short tuple = %+v", f)
	}
	if f.Subclass2 != "*" || f.Pronunciation != "*" {
		t.Errorf("ParseFeature should pad missing trailing fields with *, got %+v", f)
	}
}

func TestFeatureIsPlaceName(t *testing.T) {
	f := Feature{POS: PlaceNamePOS, Subclass1: PlaceNameSubclass1, Subclass2: PlaceNameSubclass2}
	if !f.IsPlaceName() {
		t.Errorf("expected a feature with the place-name POS prefix to report IsPlaceName() == true")
	}
	if (Feature{POS: "動詞"}).IsPlaceName() {
		t.Errorf("a verb feature should never report IsPlaceName() == true")
	}
}

func TestNewNewlineToken(t *testing.T) {
	tok := NewNewlineToken()
	if tok.Surface != "\n" {
		t.Errorf("NewNewlineToken().Surface = %q, want a literal newline", tok.Surface)
	}
	if tok.Kind != TokenNormal {
		t.Errorf("NewNewlineToken().Kind = %v, want TokenNormal", tok.Kind)
	}
}
