package llm

import (
	"fmt"
	"strings"

	"github.com/tgaillard/pluscan/internal/model"
)

// NewFromConfig builds the generative extractor declared in the
// configuration. An empty provider name returns (nil, nil): the fallback
// branch of the pipeline is then simply absent, not an error.
func NewFromConfig(cfg model.LLMConfig) (*Extractor, error) {
	var provider Provider
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "local", "ollama":
		provider, err = NewLocalProvider(cfg)
	case "openai":
		provider, err = NewOpenAIProvider(cfg)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: local, openai)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewExtractor(provider, cfg.Timeout), nil
}
