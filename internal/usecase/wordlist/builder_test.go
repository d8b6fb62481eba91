package wordlist

import (
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/pkg/standardize"
)

func TestBuildSingleGeowordNoAffixes(t *testing.T) {
	g := entity.Geoword{GeonlpID: "geonlp:osaka", Body: "大阪", BodyKana: "オオサカ"}
	entries := Build([]entity.Geoword{g})

	if len(entries) != 2 {
		t.Fatalf("Build() returned %d entries, want 2 (surface key + yomi key)", len(entries))
	}

	wantSurfaceKey := standardize.Normalize("大阪")
	wantYomiKey := standardize.Normalize("オオサカ")
	seen := map[string]entity.WordlistEntry{}
	for _, e := range entries {
		seen[e.Key] = e
	}
	if _, ok := seen[wantSurfaceKey]; !ok {
		t.Errorf("missing wordlist entry for surface key %q", wantSurfaceKey)
	}
	if _, ok := seen[wantYomiKey]; !ok {
		t.Errorf("missing wordlist entry for yomi key %q", wantYomiKey)
	}
	for _, e := range entries {
		if e.Idlist != "geonlp:osaka:大阪" {
			t.Errorf("entry %q idlist = %q, want geonlp:osaka:大阪", e.Key, e.Idlist)
		}
	}
}

func TestBuildExpandsPrefixSuffixCombinations(t *testing.T) {
	g := entity.Geoword{
		GeonlpID: "geonlp:shinjuku",
		Body:     "新宿",
		Prefix:   []string{"", "東"},
		Suffix:   []string{"駅", "区"},
	}
	entries := Build([]entity.Geoword{g})

	surfaces := map[string]bool{}
	for _, e := range entries {
		surfaces[e.Surface] = true
	}
	for _, want := range []string{"新宿駅", "新宿区", "東新宿駅", "東新宿区"} {
		if !surfaces[want] {
			t.Errorf("missing expected surface combination %q in %v", want, surfaces)
		}
	}
}

func TestBuildMergesIdenticalKeysAcrossGeowords(t *testing.T) {
	a := entity.Geoword{GeonlpID: "geonlp:a", Body: "中央"}
	b := entity.Geoword{GeonlpID: "geonlp:b", Body: "中央"}
	entries := Build([]entity.Geoword{a, b})

	if len(entries) != 1 {
		t.Fatalf("Build() returned %d entries for two identical surfaces, want 1 merged entry", len(entries))
	}
	if entries[0].Idlist != "geonlp:a:中央/geonlp:b:中央" {
		t.Errorf("merged idlist = %q, want geonlp:a:中央/geonlp:b:中央", entries[0].Idlist)
	}
}

func TestBuildSortedAscendingByKey(t *testing.T) {
	g1 := entity.Geoword{GeonlpID: "geonlp:1", Body: "仙台"}
	g2 := entity.Geoword{GeonlpID: "geonlp:2", Body: "横浜"}
	entries := Build([]entity.Geoword{g1, g2})

	for i := 1; i < len(entries); i++ {
		if entries[i-1].Key > entries[i].Key {
			t.Fatalf("entries not sorted ascending by key: %q > %q", entries[i-1].Key, entries[i].Key)
		}
	}
	for i, e := range entries {
		if e.ID != i {
			t.Errorf("entry %d has ID %d, want sequence id to match its sorted position", i, e.ID)
		}
	}
}
