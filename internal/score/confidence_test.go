package score

import (
	"math"
	"testing"

	"github.com/tgaillard/pluscan/internal/model"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestConfidenceEmptyRecord(t *testing.T) {
	rec := &model.RuleRecord{Zone: "UB"}
	conf, signals := Confidence(rec, "du texte issu d'une page quelconque")
	if conf != 0 {
		t.Errorf("confidence = %g, want 0 for an empty record", conf)
	}
	if len(signals) != 1 || signals[0].Name != "empty-record" {
		t.Errorf("signals = %+v, want a single empty-record signal", signals)
	}
}

func TestConfidenceSingleField(t *testing.T) {
	rec := &model.RuleRecord{Zone: "UB", HauteurMax: fptr(12)}
	conf, _ := Confidence(rec, "")
	if math.Abs(conf-0.1) > 1e-9 {
		t.Errorf("confidence = %g, want 0.1 for one rule group", conf)
	}
}

func TestConfidenceGrouping(t *testing.T) {
	// Both setback fields belong to one group and must count once
	rec := &model.RuleRecord{
		Zone:         "UB",
		ReculVoirie:  fptr(5),
		ReculLimites: fptr(3),
	}
	conf, _ := Confidence(rec, "")
	if math.Abs(conf-0.1) > 1e-9 {
		t.Errorf("confidence = %g, want 0.1 for a single populated group", conf)
	}
}

func TestConfidenceMonotonic(t *testing.T) {
	sparse := &model.RuleRecord{Zone: "UB", HauteurMax: fptr(12)}
	richer := &model.RuleRecord{
		Zone:            "UB",
		HauteurMax:      fptr(12),
		EtagesMax:       iptr(2),
		UsagesAutorises: []string{"habitation"},
	}
	text := "article 10 du reglement relatif aux constructions"

	sparseConf, _ := Confidence(sparse, text)
	richerConf, _ := Confidence(richer, text)
	if richerConf <= sparseConf {
		t.Errorf("richer record scored %g, sparse %g; want strictly higher", richerConf, sparseConf)
	}
}

func TestConfidenceCapped(t *testing.T) {
	rec := &model.RuleRecord{
		Zone:                  "UB",
		HauteurMax:            fptr(12),
		EtagesMax:             iptr(2),
		EmpriseSolMax:         fptr(0.4),
		ReculVoirie:           fptr(5),
		StationnementLogement: fptr(1),
		UsagesAutorises:       []string{"habitation"},
		UsagesInterdits:       []string{"industrie"},
		Articles:              []string{"UB 10"},
	}
	text := "article zones terrains constructions reglement"
	conf, _ := Confidence(rec, text)
	if conf < 0.999 || conf > 1 {
		t.Errorf("confidence = %g, want capped at 1", conf)
	}
}

func TestConfidenceStructuralBonusNeedsContent(t *testing.T) {
	// Structural vocabulary alone never rescues an empty record
	rec := &model.RuleRecord{Zone: "UB"}
	conf, _ := Confidence(rec, "article zones terrains constructions reglement")
	if conf != 0 {
		t.Errorf("confidence = %g, want 0", conf)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-0.3, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
