package model

import "time"

// Config holds the complete pluscan configuration
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the document fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	IgnoreRobots bool          `yaml:"ignore_robots" mapstructure:"ignore_robots"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig controls result caching. Disabled caching is a fully
// functional configuration, just slower.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ExtractionConfig carries the two confidence thresholds. They default to
// the same value but are configured independently: one decides when the
// deterministic result is good enough to skip the generative fallback, the
// other decides when a result is worth persisting.
type ExtractionConfig struct {
	AcceptConfidence     float64 `yaml:"accept_confidence" mapstructure:"accept_confidence"`
	CacheWriteConfidence float64 `yaml:"cache_write_confidence" mapstructure:"cache_write_confidence"`
	MinZoneSectionChars  int     `yaml:"min_zone_section_chars" mapstructure:"min_zone_section_chars"`
	MinDocumentChars     int     `yaml:"min_document_chars" mapstructure:"min_document_chars"`
}

// LLMConfig controls the optional generative fallback.
// An empty Provider disables that branch of the pipeline entirely.
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // "local", "openai", ""
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig caps simultaneous work in multi-zone mode
type ConcurrencyConfig struct {
	ZoneWorkers       int     `yaml:"zone_workers" mapstructure:"zone_workers"`
	OutboundPerSecond float64 `yaml:"outbound_per_second" mapstructure:"outbound_per_second"`
	OutboundBurst     int     `yaml:"outbound_burst" mapstructure:"outbound_burst"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "pluscan/0.2 (+https://github.com/tgaillard/pluscan)",
			MaxBodyBytes: 50 << 20, // PLU règlements run large
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "", // resolved to ~/.pluscan/cache by the CLI
			TTL:     21 * 24 * time.Hour,
		},
		Extraction: ExtractionConfig{
			AcceptConfidence:     0.7,
			CacheWriteConfidence: 0.7,
			MinZoneSectionChars:  200,
			MinDocumentChars:     100,
		},
		LLM: LLMConfig{
			Provider:  "", // disabled by default
			Timeout:   60 * time.Second,
			MaxTokens: 1200,
		},
		Concurrency: ConcurrencyConfig{
			ZoneWorkers:       4,
			OutboundPerSecond: 2,
			OutboundBurst:     4,
		},
	}
}
