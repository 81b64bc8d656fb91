// Package extract turns a zone's regulation text into a structured
// RuleRecord by running the pattern library over it.
package extract

import (
	"fmt"
	"time"

	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/patterns"
	"github.com/tgaillard/pluscan/internal/score"
)

// Extractor is the deterministic, regex-driven extraction path
type Extractor struct {
	library []patterns.Spec
}

// NewExtractor creates an extractor over the full pattern library
func NewExtractor() *Extractor {
	return &Extractor{library: patterns.Library()}
}

// Extract runs every pattern category against zoneText and assembles a
// RuleRecord. Missing data is not an error: absent fields stay nil and the
// confidence comes out low. The only error condition is an empty input,
// which callers must already have ruled out.
func (e *Extractor) Extract(zoneText, zoneCode string) (*model.RuleRecord, []score.Signal, error) {
	if zoneText == "" {
		return nil, nil, fmt.Errorf("empty zone text for zone %q", zoneCode)
	}

	rec := &model.RuleRecord{
		Zone:      zoneCode,
		Methode:   model.MethodDeterministic,
		ExtraitLe: time.Now().UTC(),
	}

	for _, field := range patterns.Fields() {
		candidates := patterns.ApplyAll(zoneText, e.specsFor(field))
		if len(candidates) == 0 {
			continue
		}
		// Top-priority candidate wins; ApplyAll already sorted them and
		// equal priorities keep discovery order.
		e.assign(rec, field, candidates[0].Value)
	}

	uses := patterns.ExtractUses(zoneText)
	rec.UsagesAutorises = dedupe(uses.Autorises)
	rec.UsagesInterdits = dedupe(uses.Interdits)
	rec.UsagesConditionnes = dedupe(uses.Conditionnes)

	rec.Articles = patterns.ExtractArticles(zoneText)

	conf, signals := score.Confidence(rec, zoneText)
	rec.Confiance = conf

	return rec, signals, nil
}

func (e *Extractor) specsFor(field patterns.Field) []patterns.Spec {
	var out []patterns.Spec
	for _, s := range e.library {
		if s.Field == field {
			out = append(out, s)
		}
	}
	return out
}

// assign writes the winning candidate value into its record field
func (e *Extractor) assign(rec *model.RuleRecord, field patterns.Field, v float64) {
	switch field {
	case patterns.FieldHauteur:
		rec.HauteurMax = &v
	case patterns.FieldEtages:
		n := int(v)
		rec.EtagesMax = &n
	case patterns.FieldEmprise:
		rec.EmpriseSolMax = &v
	case patterns.FieldReculVoirie:
		rec.ReculVoirie = &v
	case patterns.FieldReculLimites:
		rec.ReculLimites = &v
	case patterns.FieldStatLogement:
		rec.StationnementLogement = &v
	case patterns.FieldStatSurface:
		rec.StationnementSurface = &v
	case patterns.FieldEspacesVerts:
		rec.EspacesVertsMin = &v
	}
}

// dedupe removes duplicate labels within one list, keeping first occurrence
func dedupe(labels []string) []string {
	if len(labels) < 2 {
		return labels
	}
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
