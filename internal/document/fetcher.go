package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/util"
)

// Test hook: retries sleep through this so tests can run instantly
var fetchSleepFunc = sleepContext

// sleepContext waits for d or for the context to end, whichever is first
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const maxFetchAttempts = 3

// Fetcher downloads règlement documents over HTTP with a bounded timeout,
// a maximum-size guard, and an optional robots.txt courtesy check for the
// commune and géoportail hosts the URLs point at.
type Fetcher struct {
	httpClient   *http.Client
	userAgent    string
	maxBytes     int64
	robots       *util.RobotsChecker
	ignoreRobots bool
}

// NewFetcher creates a fetcher from the HTTP configuration
func NewFetcher(cfg model.HTTPConfig) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent:    cfg.UserAgent,
		maxBytes:     cfg.MaxBodyBytes,
		robots:       util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		ignoreRobots: cfg.IgnoreRobots,
	}
}

// Document is a downloaded règlement before text extraction
type Document struct {
	Bytes       []byte
	ContentType string
	FinalURL    string
	FetchedAt   time.Time
}

// IsPDF reports whether the served content type looks like a PDF. A wrong
// content type is a warning, not a failure: communes frequently serve PDFs
// as application/octet-stream.
func (d *Document) IsPDF() bool {
	return hasMIME(d.ContentType, "application/pdf") ||
		(len(d.Bytes) >= 5 && string(d.Bytes[:5]) == "%PDF-")
}

// IsHTML reports whether the document is an HTML page rather than a PDF
func (d *Document) IsHTML() bool {
	return hasMIME(d.ContentType, "text/html") && !d.IsPDF()
}

func hasMIME(contentType, mime string) bool {
	return len(contentType) >= len(mime) && contentType[:len(mime)] == mime
}

// Fetch downloads the document, retrying transient upstream failures
// (5xx, 429) a bounded number of times. Hard failures surface as a typed
// *model.DownloadError and are not retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	if !f.ignoreRobots {
		if allowed, _, _ := f.robots.CanFetch(ctx, rawURL); !allowed {
			return nil, &model.DownloadError{URL: rawURL, Err: fmt.Errorf("disallowed by robots.txt")}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		doc, retryable, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable || attempt == maxFetchAttempts {
			break
		}
		if err := fetchSleepFunc(ctx, time.Duration(attempt)*500*time.Millisecond); err != nil {
			return nil, &model.DownloadError{URL: rawURL, Err: err}
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, &model.DownloadError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// Network-level errors (incl. timeouts) may be transient
		return nil, true, &model.DownloadError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, &model.DownloadError{URL: rawURL, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &model.DownloadError{URL: rawURL, Status: resp.StatusCode}
	}

	// Size guard: read one byte past the cap to distinguish "exactly at
	// the limit" from "oversized".
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, true, &model.DownloadError{URL: rawURL, Err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, false, &model.DownloadError{
			URL: rawURL,
			Err: fmt.Errorf("payload exceeds %d bytes", f.maxBytes),
		}
	}

	return &Document{
		Bytes:       body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		FetchedAt:   time.Now().UTC(),
	}, false, nil
}
