package normalize

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"rental-normalizer/models"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type taxonomyFile struct {
	Amenities map[string]map[string][]string `yaml:"amenities"`
	Utilities map[string][]string            `yaml:"utilities"`
	Payers    map[string][]string            `yaml:"payers"`
}

type amenityKey struct {
	Category models.Category
	Name     string
}

// Taxonomy is the closed set of amenity flags and utility keys, plus the
// token lookup tables that feed them.
type Taxonomy struct {
	flags        map[models.Category][]string
	amenityIndex map[string]amenityKey
	utilityIndex map[string]models.Utility
	payerIndex   map[string]models.Payer
	utilityRe    *regexp.Regexp
	payerRe      *regexp.Regexp
}

var defaultTaxonomy = mustLoadTaxonomy(taxonomyYAML)

// DefaultTaxonomy returns the taxonomy compiled into the binary.
func DefaultTaxonomy() *Taxonomy { return defaultTaxonomy }

func mustLoadTaxonomy(data []byte) *Taxonomy {
	t, err := LoadTaxonomy(data)
	if err != nil {
		panic(fmt.Sprintf("normalize: embedded taxonomy: %v", err))
	}
	return t
}

// LoadTaxonomy parses a taxonomy document. Category and utility key sets
// must match the canonical schema exactly, and no token may be claimed by
// two entries.
func LoadTaxonomy(data []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("taxonomy: parse: %w", err)
	}

	t := &Taxonomy{
		flags:        make(map[models.Category][]string),
		amenityIndex: make(map[string]amenityKey),
		utilityIndex: make(map[string]models.Utility),
		payerIndex:   make(map[string]models.Payer),
	}

	if len(f.Amenities) != len(models.AllCategories) {
		return nil, fmt.Errorf("taxonomy: want %d amenity categories, got %d", len(models.AllCategories), len(f.Amenities))
	}
	for _, cat := range models.AllCategories {
		entries, ok := f.Amenities[string(cat)]
		if !ok {
			return nil, fmt.Errorf("taxonomy: missing amenity category %q", cat)
		}
		names := make([]string, 0, len(entries))
		for name, synonyms := range entries {
			key := amenityKey{Category: cat, Name: name}
			for _, tok := range append([]string{name}, synonyms...) {
				norm := normalizeToken(tok)
				if prev, dup := t.amenityIndex[norm]; dup {
					return nil, fmt.Errorf("taxonomy: token %q claimed by %s.%s and %s.%s", tok, prev.Category, prev.Name, cat, name)
				}
				t.amenityIndex[norm] = key
			}
			names = append(names, name)
		}
		sort.Strings(names)
		t.flags[cat] = names
	}

	if len(f.Utilities) != len(models.AllUtilities) {
		return nil, fmt.Errorf("taxonomy: want %d utilities, got %d", len(models.AllUtilities), len(f.Utilities))
	}
	var utilityPhrases []string
	for _, u := range models.AllUtilities {
		synonyms, ok := f.Utilities[string(u)]
		if !ok {
			return nil, fmt.Errorf("taxonomy: missing utility %q", u)
		}
		for _, phrase := range append([]string{string(u)}, synonyms...) {
			p := fold(phrase)
			if prev, dup := t.utilityIndex[p]; dup {
				return nil, fmt.Errorf("taxonomy: utility phrase %q claimed by %s and %s", phrase, prev, u)
			}
			t.utilityIndex[p] = u
			utilityPhrases = append(utilityPhrases, p)
		}
	}

	var payerPhrases []string
	for name, phrases := range f.Payers {
		payer := models.Payer(name)
		if payer != models.PayerOwner && payer != models.PayerTenant {
			return nil, fmt.Errorf("taxonomy: unsupported payer %q", name)
		}
		for _, phrase := range phrases {
			p := fold(phrase)
			if prev, dup := t.payerIndex[p]; dup {
				return nil, fmt.Errorf("taxonomy: payer phrase %q claimed by %s and %s", phrase, prev, payer)
			}
			t.payerIndex[p] = payer
			payerPhrases = append(payerPhrases, p)
		}
	}

	t.utilityRe = phraseRegexp(utilityPhrases)
	t.payerRe = phraseRegexp(payerPhrases)
	return t, nil
}

// Flags returns the sorted flag names of an amenity category.
func (t *Taxonomy) Flags(cat models.Category) []string {
	return t.flags[cat]
}

func (t *Taxonomy) lookupAmenity(token string) (amenityKey, bool) {
	k, ok := t.amenityIndex[normalizeToken(token)]
	return k, ok
}

// emptyAmenities returns the full amenity shape with every flag false.
func (t *Taxonomy) emptyAmenities() models.Amenities {
	a := make(models.Amenities, len(models.AllCategories))
	for _, cat := range models.AllCategories {
		m := make(map[string]bool, len(t.flags[cat]))
		for _, name := range t.flags[cat] {
			m[name] = false
		}
		a[cat] = m
	}
	return a
}

// phraseRegexp builds a word-bounded alternation that prefers longer
// phrases, so "not included" wins over "included".
func phraseRegexp(phrases []string) *regexp.Regexp {
	sorted := append([]string{}, phrases...)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	quoted := make([]string, len(sorted))
	for i, p := range sorted {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var tokenSeparators = regexp.MustCompile(`[\s\-]+`)

// normalizeToken folds a raw amenity token into lookup form:
// "Walk-in Closet " -> "walk_in_closet".
func normalizeToken(s string) string {
	s = fold(s)
	s = strings.TrimLeft(s, "-*• ")
	s = strings.TrimRight(s, ". ")
	s = strings.TrimSpace(s)
	return tokenSeparators.ReplaceAllString(s, "_")
}

// fold applies compatibility normalization and case folding. A new Caser is
// built per call because Casers carry state.
func fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}
