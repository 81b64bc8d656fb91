package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tgaillard/pluscan/internal/locate"
	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/worker"
)

// AnalyzeAllZones downloads the document once, detects every zone-like
// code in it, and runs the single-zone extraction per code through the
// worker pool. Individual zone failures are collected in the report, they
// never abort the batch.
func (p *Pipeline) AnalyzeAllZones(ctx context.Context, pdfURL string, opts Options) (*model.BatchReport, error) {
	normText, err := p.fetchText(ctx, pdfURL)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, err
	}

	zones := locate.DetectZones(normText)
	if len(zones) == 0 {
		p.metrics.RecordFailure()
		return nil, fmt.Errorf("no zone headings detected in %s", pdfURL)
	}

	pool := worker.NewPool(ctx, p.cfg.Concurrency.ZoneWorkers)
	pool.Start()
	for _, zone := range zones {
		pool.Submit(&zoneJob{pipeline: p, pdfURL: pdfURL, normText: normText, zone: zone, opts: opts})
	}
	results := pool.Wait()

	report := &model.BatchReport{
		SourceURL: pdfURL,
		FetchedAt: time.Now().UTC(),
	}
	for _, res := range results {
		zr := res.(*zoneResult)
		if zr.err != nil {
			p.warnf("zone %s skipped: %v", zr.zone, zr.err)
			report.Failures = append(report.Failures, model.ZoneFailure{Zone: zr.zone, Error: zr.err.Error()})
			continue
		}
		report.Records = append(report.Records, zr.record)
	}
	report.ComputeStats()

	return report, nil
}

// zoneJob extracts one zone from the already-downloaded document text
type zoneJob struct {
	pipeline *Pipeline
	pdfURL   string
	normText string
	zone     string
	opts     Options
}

// Execute runs the per-zone half of the state machine, honoring the cache
// on both sides just like a single-zone request.
func (j *zoneJob) Execute(ctx context.Context) worker.Result {
	start := time.Now()
	p := j.pipeline

	if rec := p.cacheRead(j.pdfURL, j.zone, j.opts); rec != nil {
		p.metrics.RecordDone(model.MethodCache, time.Since(start), rec.FieldCount())
		return &zoneResult{zone: j.zone, record: rec}
	}

	rec, err := p.analyzeText(ctx, j.pdfURL, j.normText, j.zone)
	if err != nil {
		p.metrics.RecordFailure()
		return &zoneResult{zone: j.zone, err: err}
	}

	p.metrics.RecordDone(rec.Methode, time.Since(start), rec.FieldCount())
	return &zoneResult{zone: j.zone, record: rec}
}

type zoneResult struct {
	zone   string
	record *model.RuleRecord
	err    error
}

// GetError satisfies worker.Result
func (r *zoneResult) GetError() error { return r.err }
