package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/cache"
	"github.com/vzaikin/claimlens/internal/debug"
	"github.com/vzaikin/claimlens/internal/extract"
	"github.com/vzaikin/claimlens/internal/factcheck"
	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
	"github.com/vzaikin/claimlens/internal/pipeline"
	"github.com/vzaikin/claimlens/internal/score"
	"github.com/vzaikin/claimlens/internal/store"
	"github.com/vzaikin/claimlens/internal/transcript"
	"github.com/vzaikin/claimlens/internal/validate"
	"github.com/vzaikin/claimlens/internal/worker"
)

var (
	providerName string
	noValidate   bool
	enrich       bool
	debugDir     string
	outJSON      string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <video-url>",
	Short: "Extract and fact-check the claims in a video",
	Long: `Analyze fetches a video's transcript, extracts its factual claims, and
runs each claim through validation and the fact-check chain.

Example:
  claimlens analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ
  claimlens analyze https://youtu.be/dQw4w9WgXcQ --json claims.json --no-validate`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&providerName, "provider", "ytdlp", "transcription provider")
	analyzeCmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip the claim validation stage")
	analyzeCmd.Flags().BoolVar(&enrich, "enrich", false, "fetch evidence pages to expand short search snippets")
	analyzeCmd.Flags().StringVar(&debugDir, "debug-dir", "", "write intermediate artifacts to this directory")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "write the claim report to this path (default: stdout)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	videoURL := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noValidate {
		cfg.Pipeline.ValidateClaims = false
	}
	if enrich {
		cfg.Search.EnrichEvidence = true
	}
	if debugDir != "" {
		cfg.Debug.Enabled = true
		cfg.Debug.Dir = debugDir
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	analyzer, claims, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	analysis, err := analyzer.StartAnalysis(ctx, videoURL, providerName)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analysis %s started (status: %s), waiting for fact-checking...\n",
			analysis.ID, analysis.Status)
	}

	// The CLI is a one-shot runner, so wait for the background continuation
	// instead of polling.
	analyzer.Supervisor().Wait()

	return renderReport(ctx, analyzer, claims, analysis.ID)
}

// buildAnalyzer wires the pipeline from configuration. Missing search or
// authority credentials degrade those steps rather than refusing to run.
func buildAnalyzer(cfg *model.Config, logger *zap.Logger) (*pipeline.Analyzer, store.ClaimStore, error) {
	llmClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init LLM client: %w (set OPENAI_API_KEY)", err)
	}

	limiter := worker.NewLimiter(cfg.Search.RatePerSec, cfg.Search.Burst)

	var authority factcheck.AuthorityClient
	if cfg.FactCheck.APIKey != "" {
		var lookupCache cache.Cache
		if cfg.FactCheck.CacheDir != "" {
			ttl := time.Duration(cfg.FactCheck.CacheTTL) * time.Minute
			lookupCache = cache.NewLayeredCache(ttl, cfg.FactCheck.CacheDir, 7*24*time.Hour)
		}
		authority, err = factcheck.NewGoogleAuthorityClient(factcheck.GoogleAuthorityConfig{
			Endpoint: cfg.FactCheck.Endpoint,
			APIKey:   cfg.FactCheck.APIKey,
			Timeout:  cfg.FactCheck.Timeout,
			CacheTTL: cfg.FactCheck.CacheTTL,
			Cache:    lookupCache,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init fact check client: %w", err)
		}
	} else {
		logger.Warn("FACTCHECK_API_KEY not set, skipping authority lookups")
		authority = missAuthority{}
	}

	var search factcheck.SearchClient
	if cfg.Search.APIKey != "" {
		search, err = factcheck.NewBraveSearchClient(factcheck.BraveSearchConfig{
			Endpoint:   cfg.Search.Endpoint,
			APIKey:     cfg.Search.APIKey,
			Timeout:    cfg.Search.Timeout,
			MaxResults: cfg.Search.MaxResults,
		}, limiter)
		if err != nil {
			return nil, nil, fmt.Errorf("init search client: %w", err)
		}
	} else {
		logger.Warn("SEARCH_API_KEY not set, claims without an authority hit will be UNVERIFIABLE")
		search = emptySearch{}
	}

	var enricher *factcheck.Enricher
	if cfg.Search.EnrichEvidence {
		enricher = factcheck.NewEnricher(limiter, logger)
	}

	execOpts := worker.Options{
		Limit:     cfg.Pipeline.Concurrency,
		WavePause: cfg.Pipeline.WavePause,
		Retry: worker.RetryPolicy{
			MaxAttempts: cfg.Pipeline.MaxAttempts,
			Delay:       cfg.Pipeline.RetryDelay,
		},
	}

	var validator *validate.Validator
	if cfg.Pipeline.ValidateClaims {
		validator = validate.NewValidator(llmClient, cfg.LLM.ValidationModel, logger)
	}

	var sink debug.Sink = debug.NopSink{}
	if cfg.Debug.Enabled {
		sink = debug.NewFileSink(cfg.Debug.Dir, logger)
	}

	ytdlp, err := transcript.NewYtDlpProvider()
	if err != nil {
		return nil, nil, err
	}

	claims := store.NewMemoryClaims()
	analyzer := pipeline.NewAnalyzer(pipeline.Deps{
		Videos:         store.NewMemoryVideos(),
		Analyses:       store.NewMemoryAnalyses(),
		Claims:         claims,
		Transcriptions: store.NewMemoryTranscriptions(),
		Transcribers:   map[string]transcript.Provider{"ytdlp": ytdlp},
		Metadata:       ytdlp,
		Extractor:      extract.NewLLMExtractor(llmClient, cfg.LLM.ExtractionModel),
		Validator:      validator,
		QueryGen: factcheck.NewQueryGenerator(llmClient, cfg.LLM.QueryModel,
			cfg.Pipeline.QueryBatchSize, execOpts, logger),
		Resolver: factcheck.NewResolver(authority, search,
			factcheck.NewJudge(llmClient, cfg.LLM.JudgeModel), enricher, logger),
		Sink:            sink,
		Logger:          logger,
		ExtractionModel: cfg.LLM.ExtractionModel,
		ExecOpts:        execOpts,
	})

	return analyzer, claims, nil
}

func renderReport(ctx context.Context, analyzer *pipeline.Analyzer, claims store.ClaimStore, analysisID string) error {
	final, err := analyzer.FindAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}
	checked, err := claims.FindByAnalysis(ctx, analysisID)
	if err != nil {
		return err
	}

	report := struct {
		Analysis *model.Analysis `json:"analysis"`
		Summary  score.Summary   `json:"summary"`
		Claims   []*model.Claim  `json:"claims"`
	}{final, score.Summarize(checked), checked}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if outJSON == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outJSON, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Wrote report: %s\n", outJSON)
	return nil
}

// missAuthority always misses; used when no authority API key is set.
type missAuthority struct{}

func (missAuthority) Lookup(context.Context, string) (*factcheck.AuthorityResult, error) {
	return nil, nil
}

// emptySearch returns no results; used when no search API key is set.
type emptySearch struct{}

func (emptySearch) Search(context.Context, string) ([]factcheck.SearchResult, error) {
	return nil, nil
}
