package factcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/vzaikin/claimlens/internal/llm"
	"github.com/vzaikin/claimlens/internal/model"
)

const judgeSystemPrompt = `You are a fact-check judge. Given a claim and a corpus of web evidence,
decide a verdict.

Verdicts:
- TRUE: the evidence supports the claim
- FALSE: the evidence contradicts the claim
- MISLEADING: the claim mixes accurate and inaccurate elements, or strips
  essential context
- UNVERIFIABLE: the evidence is insufficient to decide

Only cite URLs that appear in the evidence corpus.

Respond with JSON only:
{"verdict": "<verdict>", "explanation": "<two or three sentences>", "sources": [{"url": "<url>", "title": "<title>"}]}`

// Judgment is the judge's decision for one claim.
type Judgment struct {
	Verdict     model.Verdict
	Explanation string
	Sources     []model.Source
}

// Judge submits a claim and its evidence corpus to a model and parses the
// verdict under a strict contract. A malformed response is returned as an
// error so the caller's retry policy treats it like a transport failure.
type Judge struct {
	client llm.Client
	model  string
}

// NewJudge creates a judge using the given model.
func NewJudge(client llm.Client, modelName string) *Judge {
	return &Judge{client: client, model: modelName}
}

// Judge evaluates one claim against its evidence.
func (j *Judge) Judge(ctx context.Context, claimText string, evidence []SearchResult) (*Judgment, error) {
	prompt := fmt.Sprintf("Claim:\n%s\n\nEvidence corpus:\n%s", claimText, BuildCorpus(evidence))

	raw, err := j.client.Complete(ctx, llm.CompletionRequest{
		Model:       j.model,
		System:      judgeSystemPrompt,
		Prompt:      prompt,
		JSONMode:    true,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("judge call: %w", err)
	}

	var resp struct {
		Verdict     string `json:"verdict"`
		Explanation string `json:"explanation"`
		Sources     []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"sources"`
	}
	if err := llm.DecodeObject(raw, &resp); err != nil {
		return nil, err
	}

	verdict := model.Verdict(strings.ToUpper(strings.TrimSpace(resp.Verdict)))
	if !model.KnownVerdict(verdict) {
		return nil, &llm.ParseError{Reason: fmt.Sprintf("unknown verdict %q", resp.Verdict), Raw: raw}
	}
	if strings.TrimSpace(resp.Explanation) == "" {
		return nil, &llm.ParseError{Reason: "missing explanation", Raw: raw}
	}

	// Keep only sources that actually exist in the corpus; judges invent
	// URLs under pressure.
	allowed := make(map[string]bool, len(evidence))
	for _, ev := range evidence {
		allowed[ev.URL] = true
	}
	var sources []model.Source
	for _, s := range resp.Sources {
		if allowed[s.URL] {
			sources = append(sources, model.Source{URL: s.URL, Title: s.Title})
		}
	}

	return &Judgment{
		Verdict:     verdict,
		Explanation: strings.TrimSpace(resp.Explanation),
		Sources:     sources,
	}, nil
}

// BuildCorpus concatenates title, URL, and snippet per result into the
// evidence text the judge reads.
func BuildCorpus(evidence []SearchResult) string {
	if len(evidence) == 0 {
		return "(no evidence)"
	}
	var b strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, ev.Title, ev.URL, ev.Snippet)
	}
	return b.String()
}
