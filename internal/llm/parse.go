package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/score"
)

// generativeReply mirrors the JSON schema demanded by the prompt
type generativeReply struct {
	Zone                  string   `json:"zone"`
	HauteurMaximale       *float64 `json:"hauteur_maximale"`
	NombreEtagesMax       *float64 `json:"nombre_etages_max"`
	EmpriseAuSolMax       *float64 `json:"emprise_au_sol_max"`
	ReculVoirie           *float64 `json:"recul_voirie"`
	ReculLimites          *float64 `json:"recul_limites"`
	StationnementLogement *float64 `json:"stationnement_logement"`
	StationnementSurface  *float64 `json:"stationnement_surface"`
	EspacesVertsMin       *float64 `json:"espaces_verts_min"`
	UsagesAutorises       []string `json:"usages_autorises"`
	UsagesInterdits       []string `json:"usages_interdits"`
	UsagesConditionnes    []string `json:"usages_conditionnes"`
	Confiance             *float64 `json:"confiance"`
}

// ParseReply decodes the first JSON object found in the raw model output.
// Anything other than one complete, valid object is a hard failure; the
// caller wraps it into a GenerativeParseError. Out-of-range values are
// discarded field by field, exactly like the deterministic validators do.
func ParseReply(raw, zoneCode string) (*model.RuleRecord, error) {
	blob, err := firstJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var reply generativeReply
	if err := json.Unmarshal([]byte(blob), &reply); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	rec := &model.RuleRecord{
		Zone:               zoneCode,
		Methode:            model.MethodGenerative,
		ExtraitLe:          time.Now().UTC(),
		UsagesAutorises:    cleanLabels(reply.UsagesAutorises),
		UsagesInterdits:    cleanLabels(reply.UsagesInterdits),
		UsagesConditionnes: cleanLabels(reply.UsagesConditionnes),
	}

	rec.HauteurMax = keepInRange(reply.HauteurMaximale, 0, 50, true)
	rec.EmpriseSolMax = normalizeFraction(reply.EmpriseAuSolMax)
	rec.ReculVoirie = keepInRange(reply.ReculVoirie, 0, 50, false)
	rec.ReculLimites = keepInRange(reply.ReculLimites, 0, 50, false)
	rec.StationnementLogement = keepInRange(reply.StationnementLogement, 0, 10, false)
	rec.StationnementSurface = keepInRange(reply.StationnementSurface, 0, 10, false)
	rec.EspacesVertsMin = normalizeFraction(reply.EspacesVertsMin)

	if reply.NombreEtagesMax != nil {
		if v := *reply.NombreEtagesMax; v >= 0 && v <= 10 {
			n := int(v)
			rec.EtagesMax = &n
		}
	}

	if reply.Confiance != nil {
		rec.Confiance = score.Clamp(*reply.Confiance)
	} else {
		rec.Confiance = defaultConfidence
	}

	return rec, nil
}

// firstJSONObject returns the first balanced {...} block in the text.
// Models often wrap their JSON in prose or markdown fences despite the
// prompt; anything beyond that is rejected, not repaired.
func firstJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", fmt.Errorf("no JSON object in model output")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON object in model output")
}

func keepInRange(p *float64, lo, hi float64, exclLow bool) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v < lo || v > hi || (exclLow && v == lo) {
		return nil
	}
	return &v
}

// normalizeFraction applies the percent rule to model output too: the
// prompt asks for fractions, but small models still answer "40" at times.
func normalizeFraction(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v <= 0 || v > 1 {
		return nil
	}
	return &v
}

func cleanLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimSpace(strings.ToLower(l))
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
