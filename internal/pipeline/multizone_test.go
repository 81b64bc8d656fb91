package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/tgaillard/pluscan/internal/cache"
	"github.com/tgaillard/pluscan/internal/model"
)

func TestAnalyzeAllZones(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	p := New(testConfig(), source, nil, nil)

	report, err := p.AnalyzeAllZones(context.Background(), testURL, Options{})
	if err != nil {
		t.Fatalf("AnalyzeAllZones: %v", err)
	}

	if got := source.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (the document is downloaded once)", got)
	}
	if len(report.Records) != 2 {
		t.Fatalf("got %d records, want 2 (UB and N)", len(report.Records))
	}

	byZone := make(map[string]*model.RuleRecord)
	for _, rec := range report.Records {
		byZone[rec.Zone] = rec
	}
	ub, ok := byZone["UB"]
	if !ok {
		t.Fatal("zone UB missing from the report")
	}
	if ub.HauteurMax == nil || *ub.HauteurMax != 12 {
		t.Errorf("UB HauteurMax = %v, want 12", ub.HauteurMax)
	}
	n, ok := byZone["N"]
	if !ok {
		t.Fatal("zone N missing from the report")
	}
	if n.HauteurMax == nil || *n.HauteurMax != 4 {
		t.Errorf("N HauteurMax = %v, want 4", n.HauteurMax)
	}

	if report.SourceURL != testURL {
		t.Errorf("SourceURL = %q, want %q", report.SourceURL, testURL)
	}
	if report.Stats.ZonesOK != 2 || report.Stats.ZonesFailed != 0 {
		t.Errorf("stats = %+v, want 2 ok / 0 failed", report.Stats)
	}
	if report.Stats.ByMethod[model.MethodDeterministic] != 2 {
		t.Errorf("ByMethod = %v, want 2 deterministic", report.Stats.ByMethod)
	}
	if report.Stats.AvgConfiance <= 0 {
		t.Errorf("AvgConfiance = %g, want > 0", report.Stats.AvgConfiance)
	}
}

func TestAnalyzeAllZonesUsesCache(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(testConfig(), source, store, nil)
	ctx := context.Background()

	// Prime the cache with the strong zone
	if _, err := p.AnalyzeZone(ctx, testURL, "UB", Options{}); err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}

	report, err := p.AnalyzeAllZones(ctx, testURL, Options{})
	if err != nil {
		t.Fatalf("AnalyzeAllZones: %v", err)
	}
	if len(report.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(report.Records))
	}
	if report.Stats.ByMethod[model.MethodCache] != 1 {
		t.Errorf("ByMethod = %v, want 1 cache hit for UB", report.Stats.ByMethod)
	}
}

func TestAnalyzeAllZonesNoZones(t *testing.T) {
	source := &stubSource{page: htmlPage(
		"Compte rendu du conseil municipal du 12 mars.",
		"La seance est ouverte a dix-huit heures sous la presidence du maire.",
		"Le budget annuel est adopte a l'unanimite des membres presents apres un long debat.",
	)}
	p := New(testConfig(), source, nil, nil)

	if _, err := p.AnalyzeAllZones(context.Background(), testURL, Options{}); err == nil {
		t.Fatal("expected an error for a document without zone headings")
	}
}

func TestAnalyzeAllZonesPartialFailure(t *testing.T) {
	// UB is extractable; the DX heading exists but its section is too
	// short to locate, so the batch reports one success and one failure.
	page := htmlPage(
		"ZONE UB - SECTEUR URBAIN DENSE",
		"Article UB 1 - Occupations du sol",
		"Sont autorisées : les habitations, les bureaux et les commerces de proximite.",
		"Article UB 10 - Hauteur des constructions",
		"La hauteur des constructions ne peut excéder 12 mètres, soit un gabarit R+2 sur rue.",
		"Article UB 12 - Stationnement",
		"Il est exigé 1 place de stationnement par logement, conformément au règlement du secteur.",
		"ZONE DX - SECTEUR DIVERS",
		"Voir annexe.",
	)
	source := &stubSource{page: page}
	p := New(testConfig(), source, nil, nil)

	report, err := p.AnalyzeAllZones(context.Background(), testURL, Options{})
	if err != nil {
		t.Fatalf("AnalyzeAllZones: %v", err)
	}
	if len(report.Records) != 1 || report.Records[0].Zone != "UB" {
		t.Fatalf("records = %+v, want only UB", report.Records)
	}
	if len(report.Failures) != 1 || report.Failures[0].Zone != "DX" {
		t.Fatalf("failures = %+v, want only DX", report.Failures)
	}
	if report.Stats.ZonesDetected != 2 {
		t.Errorf("ZonesDetected = %d, want 2", report.Stats.ZonesDetected)
	}
}
