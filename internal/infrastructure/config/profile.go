// Package config loads the engine's Profile: the immutable configuration
// bundle holding the data directory, suffix list, filler word lists, and
// default dictionary/class filters.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

const (
	FormatterDefault = "DefaultGeowordFormatter"
	FormatterChasen  = "ChasenGeowordFormatter"
)

// Profile is the immutable configuration bundle read once at engine
// construction; nothing in the engine mutates it afterwards.
type Profile struct {
	DataDir        string
	SystemDicDir   string
	LogDir         string
	LogLevel       string
	LogFormat      string
	Formatter      string
	Suffixes       []entity.SuffixEntry
	SpatialWords   []string
	NonGeowords    []string
	DefaultDicts   FilterSpec
	DefaultClasses FilterSpec
	AddressRegexp  *regexp.Regexp
}

// FilterSpec is the parsed "positive list / negative (-prefixed) list"
// shape shared by the `dictionary` and `ne_class` profile keys, and by
// the session filter state each seeds.
type FilterSpec struct {
	Positive []string
	Negative []string
}

// Load reads a flat key/value profile file (INI/properties style) from
// path and validates the required keys.
func Load(path string) (*Profile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	v.SetDefault("formatter", FormatterDefault)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read profile %q: %w", path, err)
	}

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		return nil, fmt.Errorf("profile %q: data_dir is required", path)
	}

	formatter := v.GetString("formatter")
	if formatter != FormatterDefault && formatter != FormatterChasen {
		formatter = FormatterDefault
	}

	p := &Profile{
		DataDir:        filepath.Clean(dataDir),
		SystemDicDir:   v.GetString("system_dic_dir"),
		LogDir:         v.GetString("log_dir"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		Formatter:      formatter,
		SpatialWords:   splitPipeList(v.GetString("spatial")),
		NonGeowords:    splitPipeList(v.GetString("non_geoword")),
		DefaultDicts:   parseFilterSpec(v.GetString("dictionary")),
		DefaultClasses: parseFilterSpec(v.GetString("ne_class")),
	}

	suffixes, err := parseSuffixes(v.GetString("suffix"))
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", path, err)
	}
	p.Suffixes = suffixes

	if raw := v.GetString("address_regex"); raw != "" {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("profile %q: address_regex: %w", path, err)
		}
		p.AddressRegexp = re
	}

	return p, nil
}

// DataFile resolves the path of one of the four persistent files inside
// data_dir.
func (p *Profile) DataFile(name string) string {
	return filepath.Join(p.DataDir, name)
}

const (
	GeowordDBFile  = "geodic.sq3"
	WordlistDBFile = "wordlist.sq3"
	TrieFile       = "geo_name_fullname.drt"
	UserDicFile    = "mecabusr.dic"
)

func splitPipeList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFilterSpec splits a "|"-delimited list into positive entries and
// "-"-prefixed (dash stripped) negative entries.
func parseFilterSpec(raw string) FilterSpec {
	var spec FilterSpec
	for _, item := range splitPipeList(raw) {
		if strings.HasPrefix(item, "-") {
			spec.Negative = append(spec.Negative, strings.TrimPrefix(item, "-"))
		} else {
			spec.Positive = append(spec.Positive, item)
		}
	}
	return spec
}

// PositiveDictionaryIDs parses the positive half of a dictionary
// FilterSpec into integer ids; the `dictionary` profile key is a
// "|"-delimited list of decimal ids.
func (f FilterSpec) PositiveDictionaryIDs() ([]int, error) {
	return parseIntList(f.Positive)
}

// NegativeDictionaryIDs parses the negative half similarly.
func (f FilterSpec) NegativeDictionaryIDs() ([]int, error) {
	return parseIntList(f.Negative)
}

func parseIntList(items []string) ([]int, error) {
	out := make([]int, 0, len(items))
	for _, item := range items {
		id, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a decimal id", entity.ErrRequestFormat, item)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseSuffixes(raw string) ([]entity.SuffixEntry, error) {
	if raw == "" {
		return nil, nil
	}
	groups := strings.Split(raw, "|")
	out := make([]entity.SuffixEntry, 0, len(groups))
	for _, g := range groups {
		if g == "" {
			continue
		}
		fields := strings.Split(g, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("suffix entry %q must be surface,reading,pronunciation", g)
		}
		out = append(out, entity.SuffixEntry{Surface: fields[0], Reading: fields[1], Pronunciation: fields[2]})
	}
	return out, nil
}
