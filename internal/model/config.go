package model

import "time"

// Config holds the complete claimlens configuration.
// All knobs have hardcoded defaults; everything is an optional override.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	FactCheck FactCheckConfig `yaml:"factcheck" mapstructure:"factcheck"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Debug     DebugConfig     `yaml:"debug" mapstructure:"debug"`
}

// LLMConfig configures the model client and the per-stage model identifiers.
type LLMConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // custom OpenAI-compatible endpoint
	Timeout int    `yaml:"timeout" mapstructure:"timeout"`   // seconds per call

	ExtractionModel string `yaml:"extraction_model" mapstructure:"extraction_model"`
	ValidationModel string `yaml:"validation_model" mapstructure:"validation_model"`
	QueryModel      string `yaml:"query_model" mapstructure:"query_model"`
	JudgeModel      string `yaml:"judge_model" mapstructure:"judge_model"`

	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig configures the web search client.
type SearchConfig struct {
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey     string  `yaml:"api_key" mapstructure:"api_key"`
	Timeout    int     `yaml:"timeout" mapstructure:"timeout"` // seconds per call
	MaxResults int     `yaml:"max_results" mapstructure:"max_results"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst      int     `yaml:"burst" mapstructure:"burst"`

	// EnrichEvidence enables the best-effort page fetch that expands short
	// search snippets before judging. Respects robots.txt.
	EnrichEvidence bool `yaml:"enrich_evidence" mapstructure:"enrich_evidence"`
}

// FactCheckConfig configures the authority fact-check index client.
type FactCheckConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Timeout  int    `yaml:"timeout" mapstructure:"timeout"`   // seconds per call
	CacheTTL int    `yaml:"cache_ttl" mapstructure:"cache_ttl"` // minutes

	// CacheDir enables a disk layer under the lookup cache so repeated runs
	// reuse earlier authority answers. Empty keeps the cache in memory only.
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`
}

// PipelineConfig configures the batch executor and stage behavior.
type PipelineConfig struct {
	QueryBatchSize int           `yaml:"query_batch_size" mapstructure:"query_batch_size"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	Concurrency    int           `yaml:"concurrency" mapstructure:"concurrency"`
	WavePause      time.Duration `yaml:"wave_pause" mapstructure:"wave_pause"`
	ValidateClaims bool          `yaml:"validate_claims" mapstructure:"validate_claims"`
}

// DebugConfig configures the best-effort debug artifact sink.
type DebugConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Timeout:         60,
			ExtractionModel: "gpt-4o",
			ValidationModel: "gpt-4o-mini",
			QueryModel:      "gpt-4o-mini",
			JudgeModel:      "gpt-4o-mini",
			MaxTokens:       4096,
		},
		Search: SearchConfig{
			Endpoint:   "https://api.search.brave.com/res/v1/web/search",
			Timeout:    20,
			MaxResults: 5,
			RatePerSec: 1,
			Burst:      3,
		},
		FactCheck: FactCheckConfig{
			Endpoint: "https://factchecktools.googleapis.com/v1alpha1/claims:search",
			Timeout:  15,
			CacheTTL: 60,
		},
		Pipeline: PipelineConfig{
			QueryBatchSize: 5,
			MaxAttempts:    3,
			RetryDelay:     2 * time.Second,
			Concurrency:    3,
			WavePause:      time.Second,
			ValidateClaims: true,
		},
		Debug: DebugConfig{
			Dir: "debug",
		},
	}
}
