package entity

import "strings"

// WordlistEntry is one row of the derived inverted index: all Geowords
// that could produce a given normalized surface form.
//
// WordlistEntry rows are fully derivable from Geowords; updateIndex
// discards and rebuilds the whole table plus its paired trie, never
// mutating a single row in place.
type WordlistEntry struct {
	ID      int    // sequence id, also the trie value
	Key     string // normalized surface form (standardize(surface) or standardize(yomi))
	Surface string // one canonical written form
	Idlist  string // "g1:name1/g2:name2/..."
	Yomi    string
}

// IsValid reports whether e is a populated row rather than the sentinel
// empty value find_wordlist_by_* returns on a miss.
func (e WordlistEntry) IsValid() bool {
	return e.ID != 0 || e.Key != ""
}

// IdlistIDs parses the "g1:name1/g2:name2/..." idlist into geonlp_ids,
// preserving order (ambiguity-preserving: first entry wins ties). A
// geonlp_id may itself contain ':' ("geonlp:a"), so each entry is split
// at its last ':'.
func (e WordlistEntry) IdlistIDs() []string {
	if e.Idlist == "" {
		return nil
	}
	parts := strings.Split(e.Idlist, "/")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if idx := strings.LastIndexByte(p, ':'); idx >= 0 {
			ids = append(ids, p[:idx])
		} else {
			ids = append(ids, p)
		}
	}
	return ids
}

// AppendIdlistEntry appends "geonlpID:name" to the idlist, used while
// bucketing Geowords by normalized key during updateIndex.
func AppendIdlistEntry(idlist, geonlpID, name string) string {
	entry := geonlpID + ":" + name
	if idlist == "" {
		return entry
	}
	return idlist + "/" + entry
}
