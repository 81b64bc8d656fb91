package model

import "fmt"

// DownloadError means the regulation document could not be retrieved:
// unreachable host, non-2xx status, or oversized payload.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// TextExtractionError means the document bytes yielded no usable text,
// typically a scanned PDF without an embedded text layer.
type TextExtractionError struct {
	URL string
	Err error
}

func (e *TextExtractionError) Error() string {
	return fmt.Sprintf("extract text from %s: %v", e.URL, e.Err)
}

func (e *TextExtractionError) Unwrap() error { return e.Err }

// ZoneNotFoundError means the zone code has no identifiable section in the
// document. In multi-zone mode only the affected zone is skipped.
type ZoneNotFoundError struct {
	Zone string
	URL  string
}

func (e *ZoneNotFoundError) Error() string {
	return fmt.Sprintf("zone %q not found in %s", e.Zone, e.URL)
}

// GenerativeTimeoutError means the fallback model call exceeded its deadline
type GenerativeTimeoutError struct {
	Zone string
	Err  error
}

func (e *GenerativeTimeoutError) Error() string {
	return fmt.Sprintf("generative extraction for zone %q timed out: %v", e.Zone, e.Err)
}

func (e *GenerativeTimeoutError) Unwrap() error { return e.Err }

// GenerativeParseError means the model reply contained no parseable JSON
// object. Partial recovery is never attempted.
type GenerativeParseError struct {
	Zone string
	Err  error
}

func (e *GenerativeParseError) Error() string {
	return fmt.Sprintf("generative extraction for zone %q returned unparseable output: %v", e.Zone, e.Err)
}

func (e *GenerativeParseError) Unwrap() error { return e.Err }

// ExtractionFailedError means both the deterministic and the generative
// paths failed to produce any usable rule for the zone.
type ExtractionFailedError struct {
	Zone      string
	URL       string
	Attempted []Method
	Err       error
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("extraction failed for zone %q in %s (attempted: %v): %v", e.Zone, e.URL, e.Attempted, e.Err)
}

func (e *ExtractionFailedError) Unwrap() error { return e.Err }
