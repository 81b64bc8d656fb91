// Package score computes the confidence of an extraction run. The score
// is derived only from the record's completeness and the zone text, never
// from unrelated heuristics, so two identical inputs always score the same.
package score

import (
	"fmt"
	"regexp"

	"github.com/tgaillard/pluscan/internal/model"
)

// Signal documents one scoring contribution, so every reported confidence
// can be explained from its parts.
type Signal struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

// Per-field weight for the five core numeric rule groups
const fieldWeight = 0.1

// structuralWords is generic PLU vocabulary whose presence suggests the
// located span really is regulation text and not an index page.
var structuralWords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\barticles?\b`),
	regexp.MustCompile(`(?i)\bconstructions?\b`),
	regexp.MustCompile(`(?i)\bterrains?\b`),
	regexp.MustCompile(`(?i)\bzones?\b`),
	regexp.MustCompile(`(?i)\breglements?\b`),
}

const structuralWordBonus = 0.04 // x5 words = 0.2 max

// Confidence scores a deterministic extraction: 0.1 for each populated
// core rule group (height, floors, footprint, setback, parking), 0.2 when
// any use-list is non-empty, 0.1 when at least one article code was found,
// plus up to 0.2 of structural bonus from generic PLU vocabulary in the
// zone text. Capped at 1. A record with nothing extracted scores 0.
func Confidence(rec *model.RuleRecord, zoneText string) (float64, []Signal) {
	if rec.IsEmpty() && len(rec.Articles) == 0 {
		return 0, []Signal{{
			Name:        "empty-record",
			Description: "no rule, use or article extracted",
			Points:      0,
		}}
	}

	var signals []Signal
	total := 0.0

	add := func(name, desc string, pts float64) {
		signals = append(signals, Signal{Name: name, Description: desc, Points: pts})
		total += pts
	}

	fieldGroups := []struct {
		name    string
		present bool
	}{
		{"hauteur", rec.HauteurMax != nil},
		{"etages", rec.EtagesMax != nil},
		{"emprise", rec.EmpriseSolMax != nil},
		{"recul", rec.ReculVoirie != nil || rec.ReculLimites != nil},
		{"stationnement", rec.StationnementLogement != nil || rec.StationnementSurface != nil},
	}
	for _, g := range fieldGroups {
		if g.present {
			add("field:"+g.name, fmt.Sprintf("rule group %q populated", g.name), fieldWeight)
		}
	}

	if len(rec.UsagesAutorises) > 0 || len(rec.UsagesInterdits) > 0 || len(rec.UsagesConditionnes) > 0 {
		add("uses", fmt.Sprintf("%d use labels recognized",
			len(rec.UsagesAutorises)+len(rec.UsagesInterdits)+len(rec.UsagesConditionnes)), 0.2)
	}

	if len(rec.Articles) > 0 {
		add("articles", fmt.Sprintf("%d source article codes found", len(rec.Articles)), 0.1)
	}

	structural := 0.0
	for _, re := range structuralWords {
		if re.MatchString(zoneText) {
			structural += structuralWordBonus
		}
	}
	if structural > 0 {
		add("structure", "generic PLU vocabulary present in zone text", structural)
	}

	if total > 1 {
		total = 1
	}
	return total, signals
}

// Clamp bounds a self-reported confidence into [0,1]
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
