package model

import (
	"fmt"
	"strings"
	"time"
)

// Method identifies which extraction path produced a record
type Method string

const (
	MethodDeterministic Method = "deterministic" // Regex pattern library
	MethodGenerative    Method = "generative"    // LLM fallback
	MethodCache         Method = "cache"         // Served from cache
)

// RuleRecord holds the planning rules extracted for a single zone.
// Numeric fields are pointers: nil means "not found in the text",
// which is distinct from an explicit zero.
// A record is built once per extraction run and never mutated afterwards.
type RuleRecord struct {
	Zone string `json:"zone"` // Zone code (e.g., "UB", "N", "1AU")

	// Core numeric rules
	HauteurMax            *float64 `json:"hauteur_maximale,omitempty"`       // Max building height, meters (0-50]
	EtagesMax             *int     `json:"nombre_etages_max,omitempty"`      // Max floor count above ground [0-10]
	EmpriseSolMax         *float64 `json:"emprise_au_sol_max,omitempty"`     // Max footprint ratio, fraction (0-1]
	ReculVoirie           *float64 `json:"recul_voirie,omitempty"`           // Front setback from street, meters [0-50]
	ReculLimites          *float64 `json:"recul_limites,omitempty"`          // Side setback from parcel limits, meters [0-50]
	StationnementLogement *float64 `json:"stationnement_logement,omitempty"` // Parking spaces per dwelling [0-10]
	StationnementSurface  *float64 `json:"stationnement_surface,omitempty"`  // Parking spaces per m2 of offices/shops [0-10]
	EspacesVertsMin       *float64 `json:"espaces_verts_min,omitempty"`      // Min green-space fraction (0-1]

	// Land-use lists. Cross-list duplication is allowed: a regulation can
	// genuinely mention the same use under several intent markers.
	UsagesAutorises    []string `json:"usages_autorises,omitempty"`
	UsagesInterdits    []string `json:"usages_interdits,omitempty"`
	UsagesConditionnes []string `json:"usages_conditionnes,omitempty"`

	// Provenance
	Articles  []string  `json:"articles,omitempty"` // Article codes found in the zone text
	Methode   Method    `json:"methode"`
	Confiance float64   `json:"confiance"` // [0,1]
	ExtraitLe time.Time `json:"extrait_le"`
}

// FieldCount returns how many of the core numeric fields are populated
func (r *RuleRecord) FieldCount() int {
	n := 0
	for _, p := range []*float64{r.HauteurMax, r.EmpriseSolMax, r.ReculVoirie, r.ReculLimites, r.StationnementLogement, r.StationnementSurface, r.EspacesVertsMin} {
		if p != nil {
			n++
		}
	}
	if r.EtagesMax != nil {
		n++
	}
	return n
}

// IsEmpty reports whether the record carries no extracted rule at all
func (r *RuleRecord) IsEmpty() bool {
	return r.FieldCount() == 0 &&
		len(r.UsagesAutorises) == 0 &&
		len(r.UsagesInterdits) == 0 &&
		len(r.UsagesConditionnes) == 0
}

// Restrictions renders the constraining rules as human-readable sentences.
// Derived on demand, never stored.
func (r *RuleRecord) Restrictions() []string {
	var out []string
	if r.HauteurMax != nil {
		out = append(out, fmt.Sprintf("Hauteur maximale des constructions : %s m", trimFloat(*r.HauteurMax)))
	}
	if r.EtagesMax != nil {
		out = append(out, fmt.Sprintf("Nombre de niveaux limité à R+%d", *r.EtagesMax))
	}
	if r.EmpriseSolMax != nil {
		out = append(out, fmt.Sprintf("Emprise au sol limitée à %s%% de la superficie du terrain", trimFloat(*r.EmpriseSolMax*100)))
	}
	if r.ReculVoirie != nil {
		out = append(out, fmt.Sprintf("Recul minimum de %s m par rapport à la voirie", trimFloat(*r.ReculVoirie)))
	}
	if r.ReculLimites != nil {
		out = append(out, fmt.Sprintf("Retrait minimum de %s m par rapport aux limites séparatives", trimFloat(*r.ReculLimites)))
	}
	if r.StationnementLogement != nil {
		out = append(out, fmt.Sprintf("%s place(s) de stationnement exigée(s) par logement", trimFloat(*r.StationnementLogement)))
	}
	if r.StationnementSurface != nil {
		out = append(out, fmt.Sprintf("%s place(s) de stationnement par m² de bureaux ou commerces", trimFloat(*r.StationnementSurface)))
	}
	if r.EspacesVertsMin != nil {
		out = append(out, fmt.Sprintf("Au moins %s%% du terrain en espaces verts", trimFloat(*r.EspacesVertsMin*100)))
	}
	for _, u := range r.UsagesInterdits {
		out = append(out, fmt.Sprintf("Usage interdit : %s", u))
	}
	for _, u := range r.UsagesConditionnes {
		out = append(out, fmt.Sprintf("Usage soumis à conditions : %s", u))
	}
	return out
}

// Droits renders the permitting rules as human-readable sentences
func (r *RuleRecord) Droits() []string {
	var out []string
	for _, u := range r.UsagesAutorises {
		out = append(out, fmt.Sprintf("Usage autorisé : %s", u))
	}
	if len(r.Articles) > 0 {
		out = append(out, fmt.Sprintf("Règles issues des articles : %s", strings.Join(r.Articles, ", ")))
	}
	return out
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// BatchReport aggregates a multi-zone extraction run
type BatchReport struct {
	SourceURL string        `json:"source_url"`
	FetchedAt time.Time     `json:"fetched_at"`
	Records   []*RuleRecord `json:"records"`
	Failures  []ZoneFailure `json:"failures,omitempty"`
	Stats     BatchStats    `json:"stats"`
}

// ZoneFailure records a zone that could not be extracted
type ZoneFailure struct {
	Zone  string `json:"zone"`
	Error string `json:"error"`
}

// BatchStats carries aggregate numbers for reporting
type BatchStats struct {
	ZonesDetected int            `json:"zones_detected"`
	ZonesOK       int            `json:"zones_ok"`
	ZonesFailed   int            `json:"zones_failed"`
	AvgConfiance  float64        `json:"avg_confiance"`
	ByMethod      map[Method]int `json:"by_method"`
}

// ComputeStats fills the Stats field from Records and Failures
func (b *BatchReport) ComputeStats() {
	stats := BatchStats{
		ZonesDetected: len(b.Records) + len(b.Failures),
		ZonesOK:       len(b.Records),
		ZonesFailed:   len(b.Failures),
		ByMethod:      make(map[Method]int),
	}
	sum := 0.0
	for _, rec := range b.Records {
		stats.ByMethod[rec.Methode]++
		sum += rec.Confiance
	}
	if len(b.Records) > 0 {
		stats.AvgConfiance = sum / float64(len(b.Records))
	}
	b.Stats = stats
}
