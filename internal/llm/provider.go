// Package llm is the generative fallback path: when the regex library
// yields a weak record, a bounded excerpt of the zone text is sent to a
// text-completion model with a strict-JSON prompt and the reply is parsed
// into the same RuleRecord shape.
//
// The whole package is optional at the system level: an empty provider
// name disables it and the pipeline runs deterministically only.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tgaillard/pluscan/internal/model"
)

// Provider abstracts a text-completion backend
type Provider interface {
	// Name returns the provider name ("local", "openai")
	Name() string

	// Complete sends a prompt and returns the raw model output
	Complete(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks the endpoint is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// excerptChars bounds the zone text sent to the model, to respect the
// context window of small local models.
const excerptChars = 3000

// defaultConfidence is used when the model does not self-report one
const defaultConfidence = 0.5

// Extractor drives one provider through the extraction prompt
type Extractor struct {
	provider Provider
	timeout  time.Duration
}

// NewExtractor wires an extractor to a provider. A nil provider is not
// accepted here; the factory returns (nil, nil) for a disabled config and
// the orchestrator simply skips the fallback branch.
func NewExtractor(provider Provider, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{provider: provider, timeout: timeout}
}

// Name exposes the underlying provider name for metrics and logs
func (e *Extractor) Name() string { return e.provider.Name() }

// Extract asks the model for the zone's rules and parses its JSON reply.
// Timeouts surface as *model.GenerativeTimeoutError, unparseable output as
// *model.GenerativeParseError; there is no partial per-field recovery.
func (e *Extractor) Extract(ctx context.Context, zoneText, zoneCode string) (*model.RuleRecord, error) {
	excerpt := zoneText
	if len(excerpt) > excerptChars {
		cut := excerptChars
		// Back up to a rune boundary: normalized text still carries
		// multi-byte characters such as "²".
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}

	prompt := BuildPrompt(excerpt, zoneCode)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		if isTimeout(err) {
			return nil, &model.GenerativeTimeoutError{Zone: zoneCode, Err: err}
		}
		return nil, fmt.Errorf("generative completion for zone %q: %w", zoneCode, err)
	}

	rec, err := ParseReply(raw, zoneCode)
	if err != nil {
		return nil, &model.GenerativeParseError{Zone: zoneCode, Err: err}
	}
	return rec, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Some HTTP clients stringify the deadline error
	return strings.Contains(err.Error(), "context deadline exceeded")
}
