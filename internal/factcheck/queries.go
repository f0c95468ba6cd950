package factcheck

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
	"github.com/vzaikin/claimlens/internal/worker"
)

const querySystemPrompt = `You write web search queries for fact-checking claims.

For every claim in the input, produce 2-3 short queries that would surface
evidence for or against it. Queries should name the concrete entities,
numbers, and events from the claim, not restate it verbatim.

Respond with JSON only:
{"queries": [{"id": "<claim id>", "queries": ["<q1>", "<q2>"]}]}

Include every claim id from the input exactly once.`

// QueryGenerator produces search queries for claims in fixed-size batches,
// one model call per batch, under the executor's retry policy. Claims the
// model misses get deterministic fallback queries, so every claim leaves
// with at least one query no matter what happens upstream.
type QueryGenerator struct {
	client    llm.Client
	model     string
	batchSize int
	opts      worker.Options
	logger    *zap.Logger
}

// NewQueryGenerator creates a generator.
func NewQueryGenerator(client llm.Client, modelName string, batchSize int, opts worker.Options, logger *zap.Logger) *QueryGenerator {
	if batchSize <= 0 {
		batchSize = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryGenerator{
		client:    client,
		model:     modelName,
		batchSize: batchSize,
		opts:      opts,
		logger:    logger,
	}
}

// Generate returns a claim-ID -> queries mapping covering every input claim.
func (g *QueryGenerator) Generate(ctx context.Context, claims []*model.Claim) map[string][]string {
	queries := make(map[string][]string, len(claims))
	if len(claims) == 0 {
		return queries
	}

	batches := batchClaims(claims, g.batchSize)

	units := make([]worker.Unit[map[string][]string], len(batches))
	for i, batch := range batches {
		b := batch
		units[i] = func(ctx context.Context) (map[string][]string, error) {
			return g.generateBatch(ctx, b)
		}
	}

	outcomes := worker.Run(ctx, units, g.opts)
	for _, out := range outcomes {
		if out.Err != nil {
			g.logger.Warn("query batch failed, falling back",
				zap.Int("batch", out.Index), zap.Error(out.Err))
			continue
		}
		for id, qs := range out.Value {
			queries[id] = qs
		}
	}

	// Coverage guarantee: synthesize queries for anything still missing.
	for _, claim := range claims {
		if len(queries[claim.ID]) == 0 {
			queries[claim.ID] = FallbackQueries(claim.Text)
		}
	}

	return queries
}

// generateBatch submits one batch of claims as a single model call.
func (g *QueryGenerator) generateBatch(ctx context.Context, batch []*model.Claim) (map[string][]string, error) {
	var b strings.Builder
	for _, claim := range batch {
		fmt.Fprintf(&b, "id: %s\nclaim: %s\n\n", claim.ID, claim.Text)
	}

	raw, err := g.client.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		System:      querySystemPrompt,
		Prompt:      b.String(),
		JSONMode:    true,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("query generation call: %w", err)
	}

	var resp struct {
		Queries []struct {
			ID      string   `json:"id"`
			Queries []string `json:"queries"`
		} `json:"queries"`
	}
	if err := llm.DecodeObject(raw, &resp); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(batch))
	for _, claim := range batch {
		known[claim.ID] = true
	}

	out := make(map[string][]string)
	for _, entry := range resp.Queries {
		if !known[entry.ID] {
			continue // model invented an id, drop it
		}
		var qs []string
		for _, q := range entry.Queries {
			if q = strings.TrimSpace(q); q != "" {
				qs = append(qs, q)
			}
		}
		if len(qs) > 0 {
			out[entry.ID] = qs
		}
	}
	return out, nil
}

// batchClaims splits claims into ceil(n/size) fixed-size batches.
func batchClaims(claims []*model.Claim, size int) [][]*model.Claim {
	var batches [][]*model.Claim
	for start := 0; start < len(claims); start += size {
		end := start + size
		if end > len(claims) {
			end = len(claims)
		}
		batches = append(batches, claims[start:end])
	}
	return batches
}

// FallbackQueries derives search queries from the claim text itself:
// a leading-words query and a shorter one tagged "fact check". Deterministic
// by construction.
func FallbackQueries(claimText string) []string {
	words := strings.Fields(claimText)
	if len(words) == 0 {
		return []string{"fact check"}
	}

	long := words
	if len(long) > 12 {
		long = long[:12]
	}
	queries := []string{strings.Join(long, " ")}

	short := words
	if len(short) > 8 {
		short = short[:8]
	}
	shortQ := strings.Join(short, " ") + " fact check"
	if shortQ != queries[0] {
		queries = append(queries, shortQ)
	}
	return queries
}
