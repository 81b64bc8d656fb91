// Package pipeline orchestrates a full extraction run: cache lookup,
// document download, text extraction, zone location, deterministic
// pattern extraction, and the optional generative fallback.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tgaillard/pluscan/internal/cache"
	"github.com/tgaillard/pluscan/internal/document"
	"github.com/tgaillard/pluscan/internal/extract"
	"github.com/tgaillard/pluscan/internal/llm"
	"github.com/tgaillard/pluscan/internal/locate"
	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/worker"
)

// DocumentSource abstracts the règlement download so tests can stub it
type DocumentSource interface {
	Fetch(ctx context.Context, url string) (*document.Document, error)
}

// Options tunes a single analysis request
type Options struct {
	// ForceRefresh bypasses the cache read (the write still happens)
	ForceRefresh bool
}

// Pipeline is the extraction orchestrator. The cache and the generative
// extractor are injected and both optional: a nil cache disables caching,
// a nil generative extractor removes the fallback branch entirely.
type Pipeline struct {
	source        DocumentSource
	store         cache.Cache
	deterministic *extract.Extractor
	generative    *llm.Extractor
	limiter       *worker.Limiter
	cfg           *model.Config
	metrics       *Metrics
}

// New wires a pipeline. source is required; store and generative may be nil.
func New(cfg *model.Config, source DocumentSource, store cache.Cache, generative *llm.Extractor) *Pipeline {
	return &Pipeline{
		source:        source,
		store:         store,
		deterministic: extract.NewExtractor(),
		generative:    generative,
		limiter:       worker.NewLimiter(cfg.Concurrency.OutboundPerSecond, cfg.Concurrency.OutboundBurst),
		cfg:           cfg,
		metrics:       NewMetrics(),
	}
}

// Metrics exposes the pipeline's counters
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// AnalyzeZone resolves one (document URL, zone code) pair to a RuleRecord.
// Terminal states: a cache hit, an accepted extraction, or a typed error
// (DownloadError, TextExtractionError, ZoneNotFoundError,
// ExtractionFailedError). It never fabricates an empty-but-successful
// record when the zone genuinely could not be analyzed.
func (p *Pipeline) AnalyzeZone(ctx context.Context, pdfURL, zone string, opts Options) (*model.RuleRecord, error) {
	start := time.Now()

	zone = strings.ToUpper(strings.TrimSpace(zone))
	if !locate.ValidCode(zone) {
		return nil, fmt.Errorf("invalid zone code %q: expected 1-4 alphanumerics with at least one letter", zone)
	}

	if rec := p.cacheRead(pdfURL, zone, opts); rec != nil {
		p.metrics.RecordDone(model.MethodCache, time.Since(start), rec.FieldCount())
		return rec, nil
	}

	normText, err := p.fetchText(ctx, pdfURL)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, err
	}

	rec, err := p.analyzeText(ctx, pdfURL, normText, zone)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, err
	}

	p.metrics.RecordDone(rec.Methode, time.Since(start), rec.FieldCount())
	return rec, nil
}

// fetchText downloads the document and returns its normalized text
func (p *Pipeline) fetchText(ctx context.Context, pdfURL string) (string, error) {
	if err := p.limiter.Wait(ctx, pdfURL); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	doc, err := p.source.Fetch(ctx, pdfURL)
	if err != nil {
		return "", err
	}

	if !doc.IsPDF() && !doc.IsHTML() {
		p.warnf("unexpected content type %q for %s, attempting PDF extraction anyway", doc.ContentType, pdfURL)
	}

	text, err := document.ExtractText(doc, p.cfg.Extraction.MinDocumentChars)
	if err != nil {
		return "", err
	}

	return document.Normalize(text), nil
}

// analyzeText runs the extraction half of the state machine over already
// normalized document text. Multi-zone runs enter here once per zone after
// a single shared download.
func (p *Pipeline) analyzeText(ctx context.Context, pdfURL, normText, zone string) (*model.RuleRecord, error) {
	section := locate.ZoneSection(normText, zone, p.cfg.Extraction.MinZoneSectionChars)
	if section == "" {
		return nil, &model.ZoneNotFoundError{Zone: zone, URL: pdfURL}
	}

	rec, _, err := p.deterministic.Extract(section, zone)
	if err != nil {
		return nil, fmt.Errorf("deterministic extraction for zone %q: %w", zone, err)
	}

	if rec.Confiance >= p.cfg.Extraction.AcceptConfidence {
		p.cacheWrite(pdfURL, zone, rec)
		return rec, nil
	}

	if p.generative == nil {
		// No fallback configured: a weak deterministic result is still
		// the best available answer.
		return rec, nil
	}

	genRec, genErr := p.generative.Extract(ctx, section, zone)
	if genErr != nil {
		if rec.IsEmpty() {
			return nil, &model.ExtractionFailedError{
				Zone:      zone,
				URL:       pdfURL,
				Attempted: []model.Method{model.MethodDeterministic, model.MethodGenerative},
				Err:       genErr,
			}
		}
		p.warnf("generative fallback failed for zone %s, returning deterministic result: %v", zone, genErr)
		return rec, nil
	}

	p.cacheWrite(pdfURL, zone, genRec)
	return genRec, nil
}

// cacheRead returns a cached record, or nil on miss/disabled/forced refresh
func (p *Pipeline) cacheRead(pdfURL, zone string, opts Options) *model.RuleRecord {
	if p.store == nil || opts.ForceRefresh {
		return nil
	}

	data, found := p.store.Get(cache.Key(pdfURL, zone))
	if !found {
		return nil
	}

	var rec model.RuleRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt entry: behave as if the cache were absent
		p.warnf("cache entry for zone %s unreadable, ignoring: %v", zone, err)
		return nil
	}

	rec.Methode = model.MethodCache
	return &rec
}

// cacheWrite persists a record when it clears the cache-write threshold.
// Cache errors are never fatal.
func (p *Pipeline) cacheWrite(pdfURL, zone string, rec *model.RuleRecord) {
	if p.store == nil || rec.Confiance < p.cfg.Extraction.CacheWriteConfidence {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		p.warnf("marshal record for cache: %v", err)
		return
	}
	if err := p.store.Set(cache.Key(pdfURL, zone), data, p.cfg.Cache.TTL); err != nil {
		p.warnf("cache write for zone %s failed: %v", zone, err)
	}
}

func (p *Pipeline) warnf(format string, args ...any) {
	if p.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
	}
}

// IsZoneNotFound reports whether err is a zone-location failure, which in
// multi-zone mode skips only the affected zone.
func IsZoneNotFound(err error) bool {
	var znf *model.ZoneNotFoundError
	return errors.As(err, &znf)
}
