package factcheck

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vzaikin/claimlens/internal/model"
)

// Outcome is the terminal fact-check result for one claim.
type Outcome struct {
	Status  model.FactCheckStatus
	Verdict model.Verdict
	Reason  string
	Sources []model.Source
}

// Resolver decides a verdict for a single claim through a strict priority
// chain: authority lookup, then web evidence, then the LLM judge. Each step
// has a deterministic fallback so a claim always ends with a terminal
// outcome.
type Resolver struct {
	authority AuthorityClient
	search    SearchClient
	judge     *Judge
	enricher  *Enricher // optional
	logger    *zap.Logger
}

// NewResolver creates a resolver. enricher may be nil.
func NewResolver(authority AuthorityClient, search SearchClient, judge *Judge, enricher *Enricher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		authority: authority,
		search:    search,
		judge:     judge,
		enricher:  enricher,
		logger:    logger,
	}
}

// Resolve runs the chain for one claim. The returned error is non-nil only
// for retryable judge failures (transport or contract); every other path
// returns a terminal outcome with a nil error. The caller runs Resolve
// through the batch executor, which supplies retries and converts an
// exhausted error into a FAILED outcome via FailureOutcome.
func (r *Resolver) Resolve(ctx context.Context, claim *model.Claim, queries []string) (Outcome, error) {
	// 1. Authority lookup. A hit short-circuits the chain; web search is
	// never invoked for this claim.
	hit, err := r.authority.Lookup(ctx, claim.Text)
	if err != nil {
		r.logger.Warn("authority lookup failed, continuing to web search",
			zap.String("claim_id", claim.ID), zap.Error(err))
		hit = nil
	}
	if hit != nil {
		var sources []model.Source
		if hit.URL != "" {
			title := hit.Title
			if title == "" {
				title = hit.Publisher
			}
			sources = append(sources, model.Source{URL: hit.URL, Title: title})
		}
		reason := fmt.Sprintf("Rated %q by %s.", hit.Rating, hit.Publisher)
		if hit.Publisher == "" {
			reason = fmt.Sprintf("Rated %q by an external fact-check index.", hit.Rating)
		}
		return Outcome{
			Status:  model.FactCheckCompleted,
			Verdict: NormalizeVerdict(hit.Rating),
			Reason:  reason,
			Sources: sources,
		}, nil
	}

	// 2. Web evidence aggregation. Failed queries degrade to empty result
	// sets inside gatherEvidence.
	evidence := gatherEvidence(ctx, r.search, queries, r.logger)
	if len(evidence) == 0 {
		return Outcome{
			Status:  model.FactCheckCompleted,
			Verdict: model.VerdictUnverifiable,
			Reason:  "No web evidence could be found for this claim.",
			Sources: []model.Source{},
		}, nil
	}

	if r.enricher != nil {
		evidence = r.enricher.Enrich(ctx, evidence)
	}

	// 3. LLM judge. Errors here are retryable; the executor re-runs the
	// whole chain, with the authority cache absorbing the repeat lookup.
	judgment, err := r.judge.Judge(ctx, claim.Text, evidence)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Status:  model.FactCheckCompleted,
		Verdict: judgment.Verdict,
		Reason:  judgment.Explanation,
		Sources: judgment.Sources,
	}, nil
}

// FailureOutcome converts an exhausted chain error into the terminal
// degraded result for one claim. The failure never escalates past the
// claim.
func FailureOutcome(err error) Outcome {
	return Outcome{
		Status:  model.FactCheckFailed,
		Verdict: model.VerdictUnverifiable,
		Reason:  fmt.Sprintf("Fact-check could not be completed: %v", err),
		Sources: []model.Source{},
	}
}
