// Package filterstate holds the mutable per-engine active-dictionary and
// active-class filter. It is seeded from the profile's defaults at
// construction and mutated only by explicit get/set/add/remove/reset
// calls; nothing else in the engine touches it.
package filterstate

import (
	"context"
	"regexp"
	"sort"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
	"github.com/nii-geonlp/geonlp-go/internal/infrastructure/config"
)

// DictionaryLister is the narrow slice of the gazetteer store this
// package needs: the full installed-dictionary set, consulted only when
// a profile's default dictionary filter names exclusions but no
// positive list, so "active" can mean "everything except these".
type DictionaryLister interface {
	GetDictionaryList(ctx context.Context) (map[int]entity.Dictionary, error)
}

// State is the active-filter set for one engine instance. It is not
// safe for concurrent use, matching the engine's single-threaded model.
type State struct {
	defaultDicts   config.FilterSpec
	defaultClasses config.FilterSpec
	store          DictionaryLister

	dictIDs map[int]bool // nil means "all installed"; an empty non-nil set means none
	classes []classPattern
}

type classPattern struct {
	raw      string
	negative bool
	re       *regexp.Regexp
}

// New seeds filter state from the profile's default dictionary/class
// filters. store resolves the installed-dictionary set when the
// default dictionary filter is exclusion-only; it may be nil if the
// profile's dictionary filter never uses "-"-prefixed entries.
func New(ctx context.Context, p *config.Profile, store DictionaryLister) (*State, error) {
	s := &State{defaultDicts: p.DefaultDicts, defaultClasses: p.DefaultClasses, store: store}
	if err := s.ResetActiveDictionaries(ctx); err != nil {
		return nil, err
	}
	if err := s.ResetActiveClasses(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetActiveDictionaries returns the currently active dictionary ids, or
// nil if all installed dictionaries are active.
func (s *State) GetActiveDictionaries() []int {
	if s.dictIDs == nil {
		return nil
	}
	ids := make([]int, 0, len(s.dictIDs))
	for id := range s.dictIDs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetActiveDictionaries replaces the active set; an empty list resets to
// "all installed".
func (s *State) SetActiveDictionaries(ids []int) {
	if len(ids) == 0 {
		s.dictIDs = nil
		return
	}
	s.dictIDs = make(map[int]bool, len(ids))
	for _, id := range ids {
		s.dictIDs[id] = true
	}
}

// AddActiveDictionary adds one id to the active set.
func (s *State) AddActiveDictionary(id int) {
	if s.dictIDs == nil {
		s.dictIDs = make(map[int]bool)
	}
	s.dictIDs[id] = true
}

// RemoveActiveDictionary removes one id from the active set.
func (s *State) RemoveActiveDictionary(id int) {
	delete(s.dictIDs, id)
}

// ResetActiveDictionaries restores the profile-level default: the
// positive id list if one is configured, otherwise every installed
// dictionary minus the negative ("-"-prefixed) id list, resolved
// through store. A filter with neither list configured resets to "all
// installed" the same way SetActiveDictionaries(nil) does.
func (s *State) ResetActiveDictionaries(ctx context.Context) error {
	positive, err := s.defaultDicts.PositiveDictionaryIDs()
	if err != nil {
		return err
	}
	if len(positive) > 0 {
		s.SetActiveDictionaries(positive)
		return nil
	}

	negative, err := s.defaultDicts.NegativeDictionaryIDs()
	if err != nil {
		return err
	}
	if len(negative) == 0 || s.store == nil {
		s.SetActiveDictionaries(nil)
		return nil
	}

	excluded := make(map[int]bool, len(negative))
	for _, id := range negative {
		excluded[id] = true
	}
	installed, err := s.store.GetDictionaryList(ctx)
	if err != nil {
		return err
	}
	s.dictIDs = make(map[int]bool, len(installed))
	for id := range installed {
		if !excluded[id] {
			s.dictIDs[id] = true
		}
	}
	return nil
}

// IsDictionaryActive reports whether id passes the active-dictionary
// filter: present in the explicit set, or no explicit set is held ("all").
func (s *State) IsDictionaryActive(id int) bool {
	if s.dictIDs == nil {
		return true
	}
	return s.dictIDs[id]
}

// GetActiveClasses returns the raw active-class entries, negative ones
// re-prefixed with "-".
func (s *State) GetActiveClasses() []string {
	out := make([]string, 0, len(s.classes))
	for _, c := range s.classes {
		if c.negative {
			out = append(out, "-"+c.raw)
		} else {
			out = append(out, c.raw)
		}
	}
	return out
}

// SetActiveClasses replaces the active class list; an empty list resets
// to "all classes".
func (s *State) SetActiveClasses(patterns []string) error {
	compiled := make([]classPattern, 0, len(patterns))
	for _, p := range patterns {
		cp, err := compileClassPattern(p)
		if err != nil {
			return err
		}
		compiled = append(compiled, cp)
	}
	s.classes = compiled
	return nil
}

// AddActiveClass appends one pattern (possibly "-"-prefixed) to the
// active class list.
func (s *State) AddActiveClass(pattern string) error {
	cp, err := compileClassPattern(pattern)
	if err != nil {
		return err
	}
	s.classes = append(s.classes, cp)
	return nil
}

// RemoveActiveClass removes every active-class entry whose raw pattern
// (dash stripped) equals pattern.
func (s *State) RemoveActiveClass(pattern string) {
	raw := pattern
	if len(raw) > 0 && raw[0] == '-' {
		raw = raw[1:]
	}
	filtered := s.classes[:0]
	for _, c := range s.classes {
		if c.raw != raw {
			filtered = append(filtered, c)
		}
	}
	s.classes = filtered
}

// ResetActiveClasses restores the profile-level default.
func (s *State) ResetActiveClasses() error {
	merged := make([]string, 0, len(s.defaultClasses.Positive)+len(s.defaultClasses.Negative))
	merged = append(merged, s.defaultClasses.Positive...)
	for _, n := range s.defaultClasses.Negative {
		merged = append(merged, "-"+n)
	}
	return s.SetActiveClasses(merged)
}

// IsClassActive applies the active-filter regex semantics: a class
// passes if no negative pattern matches AND (at least one positive
// pattern matches OR there are no positive patterns at all).
func (s *State) IsClassActive(neClass string) bool {
	hasPositive := false
	positiveMatch := false
	for _, c := range s.classes {
		if c.negative {
			if c.re.MatchString(neClass) {
				return false
			}
			continue
		}
		hasPositive = true
		if c.re.MatchString(neClass) {
			positiveMatch = true
		}
	}
	return positiveMatch || !hasPositive
}

func compileClassPattern(pattern string) (classPattern, error) {
	negative := false
	raw := pattern
	if len(raw) > 0 && raw[0] == '-' {
		negative = true
		raw = raw[1:]
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		return classPattern{}, err
	}
	return classPattern{raw: raw, negative: negative, re: re}, nil
}
