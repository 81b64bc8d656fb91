package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgaillard/pluscan/internal/cache"
	"github.com/tgaillard/pluscan/internal/document"
	"github.com/tgaillard/pluscan/internal/llm"
	"github.com/tgaillard/pluscan/internal/model"
	"github.com/tgaillard/pluscan/internal/pipeline"
)

// Flags shared by analyze and zones
var (
	outJSON          string
	httpTimeout      time.Duration
	userAgent        string
	maxBytes         int64
	noCache          bool
	forceRefresh     bool
	ignoreRobots     bool
	llmProvider      string
	llmModel         string
	llmURL           string
	llmTimeout       time.Duration
	acceptConfidence float64
	cacheConfidence  float64
)

func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outJSON, "json", "", "write the result as JSON to this path (default: stdout)")
	cmd.Flags().DurationVar(&httpTimeout, "timeout", 30*time.Second, "PDF download timeout")
	cmd.Flags().StringVar(&userAgent, "ua", "pluscan/0.2 (+https://github.com/tgaillard/pluscan)", "HTTP User-Agent")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", 50<<20, "max document bytes to download")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache entirely")
	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "skip the cache read but keep writing results")
	cmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "skip the robots.txt courtesy check")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "generative fallback provider (local, openai); empty disables it")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "generative model name (e.g. mistral, gpt-4o-mini)")
	cmd.Flags().StringVar(&llmURL, "llm-url", "", "generative endpoint base URL (default: http://localhost:11434 for local)")
	cmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 60*time.Second, "generative call timeout")
	cmd.Flags().Float64Var(&acceptConfidence, "accept-confidence", 0.7, "confidence above which the deterministic result is accepted")
	cmd.Flags().Float64Var(&cacheConfidence, "cache-confidence", 0.7, "confidence above which results are cached")
}

// buildConfig assembles the effective configuration from flags
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = httpTimeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.IgnoreRobots = ignoreRobots
	cfg.Cache.Enabled = !noCache
	cfg.Extraction.AcceptConfidence = acceptConfidence
	cfg.Extraction.CacheWriteConfidence = cacheConfidence
	cfg.Output.Verbose = verbose

	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.BaseURL = llmURL
	cfg.LLM.Timeout = llmTimeout
	if llmProvider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if llmProvider == "local" && llmURL == "" {
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
			cfg.LLM.BaseURL = base
		}
	}

	return cfg
}

// buildPipeline wires the pipeline from a configuration
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache dir: %w", err)
			}
			dir = filepath.Join(home, ".pluscan", "cache")
		}
		store = cache.NewLayeredCache(30*time.Minute, dir, cfg.Cache.TTL)
	}

	generative, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("configure generative fallback: %w", err)
	}

	fetcher := document.NewFetcher(cfg.HTTP)
	return pipeline.New(cfg, fetcher, store, generative), nil
}
