package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tgaillard/pluscan/internal/cache"
	"github.com/tgaillard/pluscan/internal/document"
	"github.com/tgaillard/pluscan/internal/llm"
	"github.com/tgaillard/pluscan/internal/model"
)

// stubSource serves a fixed HTML règlement and counts downloads
type stubSource struct {
	page    string
	err     error
	fetches atomic.Int32
}

func (s *stubSource) Fetch(ctx context.Context, url string) (*document.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.fetches.Add(1)
	return &document.Document{
		Bytes:       []byte(s.page),
		ContentType: "text/html",
		FinalURL:    url,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func htmlPage(lines ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range lines {
		fmt.Fprintf(&b, "<p>%s</p>", l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// A règlement with a rule-dense UB zone and a sparse N zone
func reglementPage() string {
	return htmlPage(
		"REGLEMENT DU PLAN LOCAL D'URBANISME",
		"ZONE UB - SECTEUR URBAIN DENSE",
		"Article UB 1 - Occupations du sol",
		"Sont autorisées : les habitations, les bureaux et les commerces.",
		"Sont interdites : les industries et les entrepôts.",
		"Article UB 9 - Emprise au sol",
		"L'emprise au sol des constructions ne peut excéder 40% de la superficie du terrain.",
		"Article UB 10 - Hauteur des constructions",
		"La hauteur des constructions ne peut excéder 12 mètres, soit un gabarit R+2.",
		"Article UB 12 - Stationnement",
		"Il est exigé 1 place de stationnement par logement, conformément au règlement.",
		"ZONE N - SECTEUR NATUREL",
		"Article N 1 - Occupations du sol",
		"Sont interdites : les constructions nouvelles à l'exception des exploitations forestières.",
		"Article N 10 - Hauteur des constructions",
		"La hauteur des annexes ne peut excéder 4 mètres au faîtage, dans le respect du caractère naturel du site et des boisements qui l'entourent.",
	)
}

// A zone section long enough to be located but with nothing extractable
func emptyZonePage() string {
	return htmlPage(
		"ZONE UC - SECTEUR PAVILLONNAIRE",
		"Article UC 1 - Caractère du secteur",
		"Le secteur présente un tissu pavillonnaire aéré dont le caractère doit être préservé.",
		"Les projets veilleront à une bonne insertion dans le paysage de la rue, au maintien",
		"des plantations existantes et à la préservation des vues depuis l'espace public.",
	)
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Concurrency.OutboundPerSecond = 1000 // no throttling in tests
	cfg.Concurrency.OutboundBurst = 1000
	return cfg
}

const testURL = "https://ville.example.fr/plu/reglement.pdf"

func TestAnalyzeZoneDeterministic(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	p := New(testConfig(), source, nil, nil)

	rec, err := p.AnalyzeZone(context.Background(), testURL, "ub", Options{})
	if err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}

	if rec.Zone != "UB" {
		t.Errorf("Zone = %q, want UB (input is uppercased)", rec.Zone)
	}
	if rec.Methode != model.MethodDeterministic {
		t.Errorf("Methode = %q, want %q", rec.Methode, model.MethodDeterministic)
	}
	if rec.HauteurMax == nil || *rec.HauteurMax != 12 {
		t.Errorf("HauteurMax = %v, want 12", rec.HauteurMax)
	}
	if rec.EtagesMax == nil || *rec.EtagesMax != 2 {
		t.Errorf("EtagesMax = %v, want 2", rec.EtagesMax)
	}
	if rec.EmpriseSolMax == nil || *rec.EmpriseSolMax != 0.4 {
		t.Errorf("EmpriseSolMax = %v, want 0.4", rec.EmpriseSolMax)
	}
	if rec.Confiance < 0.7 {
		t.Errorf("Confiance = %g, want >= 0.7", rec.Confiance)
	}
	if got := source.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}

func TestAnalyzeZoneCacheRoundTrip(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(testConfig(), source, store, nil)
	ctx := context.Background()

	first, err := p.AnalyzeZone(ctx, testURL, "UB", Options{})
	if err != nil {
		t.Fatalf("first AnalyzeZone: %v", err)
	}
	if first.Methode != model.MethodDeterministic {
		t.Fatalf("first Methode = %q, want %q", first.Methode, model.MethodDeterministic)
	}

	second, err := p.AnalyzeZone(ctx, testURL, "UB", Options{})
	if err != nil {
		t.Fatalf("second AnalyzeZone: %v", err)
	}
	if second.Methode != model.MethodCache {
		t.Errorf("second Methode = %q, want %q", second.Methode, model.MethodCache)
	}
	if got := source.fetches.Load(); got != 1 {
		t.Errorf("fetches = %d, want 1 (second call served from cache)", got)
	}
	if second.HauteurMax == nil || *second.HauteurMax != *first.HauteurMax {
		t.Error("cached record differs from the original")
	}

	// ForceRefresh bypasses the read path but keeps the document fresh
	third, err := p.AnalyzeZone(ctx, testURL, "UB", Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("third AnalyzeZone: %v", err)
	}
	if third.Methode != model.MethodDeterministic {
		t.Errorf("third Methode = %q, want %q", third.Methode, model.MethodDeterministic)
	}
	if got := source.fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 after a forced refresh", got)
	}
}

func TestAnalyzeZoneWeakResultNotCached(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(testConfig(), source, store, nil)
	ctx := context.Background()

	// Zone N is sparse: below both thresholds, no fallback configured
	rec, err := p.AnalyzeZone(ctx, testURL, "N", Options{})
	if err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	if rec.Methode != model.MethodDeterministic {
		t.Errorf("Methode = %q, want %q", rec.Methode, model.MethodDeterministic)
	}
	if rec.Confiance >= p.cfg.Extraction.AcceptConfidence {
		t.Fatalf("fixture drift: zone N scored %g, test needs a weak zone", rec.Confiance)
	}

	if _, err := p.AnalyzeZone(ctx, testURL, "N", Options{}); err != nil {
		t.Fatalf("second AnalyzeZone: %v", err)
	}
	if got := source.fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 (weak results are never cached)", got)
	}
}

func TestAnalyzeZoneNotFound(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	p := New(testConfig(), source, nil, nil)

	_, err := p.AnalyzeZone(context.Background(), testURL, "UZ", Options{})
	if !IsZoneNotFound(err) {
		t.Fatalf("err = %v, want a zone-not-found error", err)
	}
}

func TestAnalyzeZoneInvalidCode(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	p := New(testConfig(), source, nil, nil)

	for _, code := range []string{"", "123", "TROPLONG", "U B"} {
		if _, err := p.AnalyzeZone(context.Background(), testURL, code, Options{}); err == nil {
			t.Errorf("code %q accepted, want an error", code)
		}
	}
	if got := source.fetches.Load(); got != 0 {
		t.Errorf("fetches = %d, want 0 (validation precedes download)", got)
	}
}

func TestAnalyzeZoneDownloadError(t *testing.T) {
	dlErr := &model.DownloadError{URL: testURL, Status: 404}
	source := &stubSource{err: dlErr}
	p := New(testConfig(), source, nil, nil)

	_, err := p.AnalyzeZone(context.Background(), testURL, "UB", Options{})
	var got *model.DownloadError
	if !errors.As(err, &got) {
		t.Fatalf("err = %v, want *model.DownloadError", err)
	}
}

// fakeProvider scripts the generative backend for fallback tests
type fakeProvider struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestGenerativeFallbackOnWeakZone(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	provider := &fakeProvider{
		reply: `{"zone": "N", "hauteur_maximale": 4, "usages_interdits": ["industrie"], "confiance": 0.9}`,
	}
	p := New(testConfig(), source, store, llm.NewExtractor(provider, time.Second))
	ctx := context.Background()

	rec, err := p.AnalyzeZone(ctx, testURL, "N", Options{})
	if err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	if rec.Methode != model.MethodGenerative {
		t.Errorf("Methode = %q, want %q", rec.Methode, model.MethodGenerative)
	}
	if rec.Confiance != 0.9 {
		t.Errorf("Confiance = %g, want 0.9", rec.Confiance)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls.Load())
	}

	// Confident generative results are cached like deterministic ones
	second, err := p.AnalyzeZone(ctx, testURL, "N", Options{})
	if err != nil {
		t.Fatalf("second AnalyzeZone: %v", err)
	}
	if second.Methode != model.MethodCache {
		t.Errorf("second Methode = %q, want %q", second.Methode, model.MethodCache)
	}
	if provider.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want still 1", provider.calls.Load())
	}
}

func TestGenerativeNotCalledOnStrongZone(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	provider := &fakeProvider{reply: `{"zone": "UB"}`}
	p := New(testConfig(), source, nil, llm.NewExtractor(provider, time.Second))

	rec, err := p.AnalyzeZone(context.Background(), testURL, "UB", Options{})
	if err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	if rec.Methode != model.MethodDeterministic {
		t.Errorf("Methode = %q, want %q", rec.Methode, model.MethodDeterministic)
	}
	if provider.calls.Load() != 0 {
		t.Errorf("provider calls = %d, want 0 above the acceptance threshold", provider.calls.Load())
	}
}

func TestGenerativeFailureKeepsWeakDeterministicResult(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	provider := &fakeProvider{err: errors.New("backend down")}
	p := New(testConfig(), source, nil, llm.NewExtractor(provider, time.Second))

	rec, err := p.AnalyzeZone(context.Background(), testURL, "N", Options{})
	if err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	if rec.Methode != model.MethodDeterministic {
		t.Errorf("Methode = %q, want the deterministic record back", rec.Methode)
	}
	if rec.HauteurMax == nil {
		t.Error("deterministic partial result lost")
	}
}

func TestBothPathsFailing(t *testing.T) {
	source := &stubSource{page: emptyZonePage()}
	provider := &fakeProvider{err: errors.New("backend down")}
	p := New(testConfig(), source, nil, llm.NewExtractor(provider, time.Second))

	_, err := p.AnalyzeZone(context.Background(), testURL, "UC", Options{})
	var exErr *model.ExtractionFailedError
	if !errors.As(err, &exErr) {
		t.Fatalf("err = %v, want *model.ExtractionFailedError", err)
	}
	if len(exErr.Attempted) != 2 {
		t.Errorf("Attempted = %v, want both methods listed", exErr.Attempted)
	}
}

func TestMetricsCounting(t *testing.T) {
	source := &stubSource{page: reglementPage()}
	store := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(testConfig(), source, store, nil)
	ctx := context.Background()

	if _, err := p.AnalyzeZone(ctx, testURL, "UB", Options{}); err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	if _, err := p.AnalyzeZone(ctx, testURL, "UB", Options{}); err != nil {
		t.Fatalf("AnalyzeZone: %v", err)
	}
	_, _ = p.AnalyzeZone(ctx, testURL, "UZ", Options{})

	snap := p.Metrics().Snapshot()
	if snap.Deterministic != 1 || snap.CacheHits != 1 || snap.Failures != 1 {
		t.Errorf("snapshot = %+v, want 1 deterministic, 1 cache hit, 1 failure", snap)
	}
	if snap.RulesTotal == 0 {
		t.Error("RulesTotal = 0, want the extracted field count")
	}
}
