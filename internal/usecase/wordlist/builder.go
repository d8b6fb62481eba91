// Package wordlist implements the one-pass projection of the geoword
// table into the derived surface-form index: for every prefix/suffix
// combination of every Geoword, bucket the normalized surface and
// reading into WordlistEntry rows, then assign sequence ids in sorted
// key order so they line up with the paired double-array trie's value
// domain.
package wordlist

import (
	"sort"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/pkg/standardize"
)

type bucket struct {
	key     string
	surface string
	yomi    string
	idlist  string
}

// Build projects geowords into sorted WordlistEntry rows ready for
// sequence-id assignment and trie construction. The returned slice is
// sorted ascending by Key, the order the trie builder requires.
func Build(geowords []entity.Geoword) []entity.WordlistEntry {
	buckets := make(map[string]*bucket)
	order := make([]string, 0, len(geowords))

	addEntry := func(key, surface, yomi, geonlpID, name string) {
		if key == "" {
			return
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key, surface: surface, yomi: yomi}
			buckets[key] = b
			order = append(order, key)
		}
		b.idlist = entity.AppendIdlistEntry(b.idlist, geonlpID, name)
	}

	for _, g := range geowords {
		prefixes := g.Prefix
		if len(prefixes) == 0 {
			prefixes = []string{""}
		}
		suffixes := g.Suffix
		if len(suffixes) == 0 {
			suffixes = []string{""}
		}
		prefixKana := padTo(g.PrefixKana, len(prefixes))
		suffixKana := padTo(g.SuffixKana, len(suffixes))

		name := g.TypicalName()

		for i, p := range prefixes {
			for j, s := range suffixes {
				surface := p + g.Body + s
				yomi := prefixKana[i] + g.BodyKana + suffixKana[j]

				key := standardize.Normalize(surface)
				addEntry(key, surface, yomi, g.GeonlpID, name)

				if yomi != "" {
					yomiKey := standardize.Normalize(yomi)
					addEntry(yomiKey, surface, yomi, g.GeonlpID, name)
				}
			}
		}
	}

	sort.Strings(order)

	// ids are 0-based and line up positionally with the sorted key
	// order dartsclone.Build assigns trie values from.
	entries := make([]entity.WordlistEntry, 0, len(order))
	for i, key := range order {
		b := buckets[key]
		entries = append(entries, entity.WordlistEntry{
			ID:      i,
			Key:     b.key,
			Surface: b.surface,
			Idlist:  b.idlist,
			Yomi:    b.yomi,
		})
	}
	return entries
}

// padTo returns kana parallel to a prefix/suffix slice of length n;
// missing trailing positions contribute empty strings.
func padTo(kana []string, n int) []string {
	out := make([]string, n)
	copy(out, kana)
	return out
}
