package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// Field names a numeric planning rule in the RuleRecord
type Field string

const (
	FieldHauteur      Field = "hauteur_maximale"
	FieldEtages       Field = "nombre_etages_max"
	FieldEmprise      Field = "emprise_au_sol_max"
	FieldReculVoirie  Field = "recul_voirie"
	FieldReculLimites Field = "recul_limites"
	FieldStatLogement Field = "stationnement_logement"
	FieldStatSurface  Field = "stationnement_surface"
	FieldEspacesVerts Field = "espaces_verts_min"
)

// maxCandidates bounds the output of a single Apply run
const maxCandidates = 5

// Candidate is one validated match produced by a pattern spec
type Candidate struct {
	Field    Field
	Value    float64
	Raw      string // matched span in the source text
	Pattern  string // name of the Spec that matched
	Priority int
}

// Spec declares one extraction rule: an ordered regex list, a value
// transformer, a validator, and a fixed priority weight. Specs are pure
// data; all regexes expect normalized text (accents stripped, decimal
// commas converted to dots, whitespace collapsed).
type Spec struct {
	Name     string
	Field    Field
	Patterns []*regexp.Regexp
	Priority int

	// Transform converts the captured groups into a value. groups[0] is
	// the full match, groups[1:] the captures.
	Transform func(groups []string) (float64, error)

	// Validate rejects physically implausible values. Rejected candidates
	// are discarded, never clamped.
	Validate func(v float64) bool
}

// Apply runs one spec against the text and returns up to five validated
// candidates in discovery order. It never returns an error: a text with no
// valid match yields an empty slice.
func Apply(text string, spec Spec) []Candidate {
	var out []Candidate
	for _, re := range spec.Patterns {
		for _, groups := range re.FindAllStringSubmatch(text, -1) {
			if len(groups) < 2 {
				continue
			}
			v, err := spec.Transform(groups)
			if err != nil {
				continue
			}
			if !spec.Validate(v) {
				continue
			}
			out = append(out, Candidate{
				Field:    spec.Field,
				Value:    v,
				Raw:      groups[0],
				Pattern:  spec.Name,
				Priority: spec.Priority,
			})
			if len(out) >= maxCandidates {
				return out
			}
		}
	}
	return out
}

// ApplyAll runs every given spec and merges the candidates, sorted by
// priority descending. Ties keep discovery order (stable sort).
func ApplyAll(text string, specs []Spec) []Candidate {
	var all []Candidate
	for _, spec := range specs {
		all = append(all, Apply(text, spec)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Priority > all[j].Priority
	})
	if len(all) > maxCandidates {
		all = all[:maxCandidates]
	}
	return all
}

// Library returns the full pattern catalog in declaration order
func Library() []Spec {
	return library
}

// ForField returns the specs targeting a single field
func ForField(f Field) []Spec {
	var out []Spec
	for _, s := range library {
		if s.Field == f {
			out = append(out, s)
		}
	}
	return out
}

// Fields lists every numeric field covered by the library, in catalog order
func Fields() []Field {
	var out []Field
	seen := make(map[Field]bool)
	for _, s := range library {
		if !seen[s.Field] {
			seen[s.Field] = true
			out = append(out, s.Field)
		}
	}
	return out
}

// parseValue parses the first captured group as a float
func parseValue(groups []string) (float64, error) {
	return strconv.ParseFloat(groups[1], 64)
}

// percentToFraction normalizes percentage-like values: "40" and "0.4" both
// resolve to 0.40. Values above 100 are out of range before normalization.
func percentToFraction(groups []string) (float64, error) {
	v, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return 0, err
	}
	if v > 100 {
		return 0, fmt.Errorf("percentage out of range: %g", v)
	}
	if v > 1 {
		v /= 100
	}
	return v, nil
}

// placesPerArea derives a parking ratio from "N places pour M m²"
func placesPerArea(groups []string) (float64, error) {
	n, err := strconv.ParseFloat(groups[1], 64)
	if err != nil {
		return 0, err
	}
	m, err := strconv.ParseFloat(groups[2], 64)
	if err != nil {
		return 0, err
	}
	if m == 0 {
		return 0, fmt.Errorf("zero surface in parking ratio")
	}
	return n / m, nil
}

func inRange(lo, hi float64) func(float64) bool {
	return func(v float64) bool { return v >= lo && v <= hi }
}

func inRangeExclLow(lo, hi float64) func(float64) bool {
	return func(v float64) bool { return v > lo && v <= hi }
}

var library = []Spec{
	{
		Name:  "hauteur-maximale",
		Field: FieldHauteur,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)hauteur[^.;]{0,120}?(\d+(?:\.\d+)?)\s*m(?:etres?)?\b`),
		},
		Priority:  10,
		Transform: parseValue,
		Validate:  inRangeExclLow(0, 50),
	},
	{
		Name:  "hauteur-faitage",
		Field: FieldHauteur,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*m(?:etres?)?\s+au\s+faitage`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*m(?:etres?)?\s+a\s+l'?egout\s+du\s+toit`),
		},
		Priority:  8,
		Transform: parseValue,
		Validate:  inRangeExclLow(0, 50),
	},
	{
		Name:  "etages-r-plus-n",
		Field: FieldEtages,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\br\s*\+\s*(\d+)\b`),
		},
		Priority:  10,
		Transform: parseValue,
		Validate:  inRange(0, 10),
	},
	{
		Name:  "etages-maximum",
		Field: FieldEtages,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+)\s+etages?\s+(?:maximum|max(?:imum)?|au\s+plus)`),
			regexp.MustCompile(`(?i)maximum\s+de\s+(\d+)\s+etages?`),
			regexp.MustCompile(`(?i)(\d+)\s+niveaux?\s+(?:maximum|au\s+plus)`),
		},
		Priority:  8,
		Transform: parseValue,
		Validate:  inRange(0, 10),
	},
	{
		Name:  "emprise-au-sol",
		Field: FieldEmprise,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)emprise\s+au\s+sol[^.;]{0,120}?(\d+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)emprise\s+au\s+sol[^.;]{0,120}?(0?\.\d+)`),
		},
		Priority:  10,
		Transform: percentToFraction,
		Validate:  inRangeExclLow(0, 1),
	},
	{
		Name:  "coefficient-emprise",
		Field: FieldEmprise,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bces\b\s*(?:=|:|de)?\s*(\d+(?:\.\d+)?)`),
			regexp.MustCompile(`(?i)coefficient\s+d'?emprise\s+au\s+sol[^.;]{0,80}?(\d+(?:\.\d+)?)`),
		},
		Priority:  8,
		Transform: percentToFraction,
		Validate:  inRangeExclLow(0, 1),
	},
	{
		Name:  "recul-voirie",
		Field: FieldReculVoirie,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)recul[^.;]{0,120}?(\d+(?:\.\d+)?)\s*m(?:etres?)?\b`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*m(?:etres?)?\s+(?:de\s+la|par\s+rapport\s+a\s+la)\s+voirie`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*m(?:etres?)?\s+de\s+l'?alignement`),
		},
		Priority:  10,
		Transform: parseValue,
		Validate:  inRange(0, 50),
	},
	{
		Name:  "retrait-limites",
		Field: FieldReculLimites,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)retrait[^.;]{0,120}?(\d+(?:\.\d+)?)\s*m(?:etres?)?\b`),
			regexp.MustCompile(`(?i)limites?\s+separatives?[^.;]{0,120}?(\d+(?:\.\d+)?)\s*m(?:etres?)?\b`),
		},
		Priority:  10,
		Transform: parseValue,
		Validate:  inRange(0, 50),
	},
	{
		Name:  "stationnement-logement",
		Field: FieldStatLogement,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*places?\s+de\s+stationnement\s+par\s+logement`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*places?[^.;]{0,80}?par\s+logement`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*places?[^.;]{0,80}?logements?`),
		},
		Priority:  10,
		Transform: parseValue,
		Validate:  inRange(0, 10),
	},
	{
		Name:  "stationnement-surface",
		Field: FieldStatSurface,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*places?\s+pour\s+(\d+(?:\.\d+)?)\s*m(?:2|²)?\s+de\s+(?:surface\s+de\s+)?(?:bureaux?|commerces?|plancher)`),
		},
		Priority:  10,
		Transform: placesPerArea,
		Validate:  inRange(0, 10),
	},
	{
		Name:  "espaces-verts",
		Field: FieldEspacesVerts,
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)espaces?\s+verts?[^.;]{0,120}?(\d+(?:\.\d+)?)\s*%`),
			regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%[^.;]{0,80}?espaces?\s+verts?`),
			regexp.MustCompile(`(?i)espaces?\s+verts?[^.;]{0,120}?(0?\.\d+)`),
		},
		Priority:  10,
		Transform: percentToFraction,
		Validate:  inRangeExclLow(0, 1),
	},
}

// articleRe matches article identifiers, e.g. "Article UB 10" or "article 11"
var articleRe = regexp.MustCompile(`(?i)\barticle\s+((?:[a-z]{1,4}\s*)?\d{1,2})\b`)

// ExtractArticles collects the distinct article codes mentioned in the text
func ExtractArticles(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, groups := range articleRe.FindAllStringSubmatch(text, -1) {
		code := spaceRe.ReplaceAllString(groups[1], " ")
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

var spaceRe = regexp.MustCompile(`\s+`)
