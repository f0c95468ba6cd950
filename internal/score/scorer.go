package score

import (
	"fmt"

	"github.com/vzaikin/claimlens/internal/model"
)

// Severity levels for summary signals.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Signal types.
const (
	SignalCheckCoverage = "check_coverage"
	SignalFalseClaims   = "false_claims"
	SignalHallucination = "hallucination"
	SignalCheckFailures = "check_failures"
)

// Signal is a diagnostic attached to a summary.
type Signal struct {
	Type        string         `json:"type"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// Summary aggregates an analysis's fact-checked claims into a single
// accuracy figure plus diagnostic signals.
type Summary struct {
	TotalClaims   int `json:"total_claims"`
	Checked       int `json:"checked"`
	Failed        int `json:"failed"`
	True          int `json:"true"`
	False         int `json:"false"`
	Misleading    int `json:"misleading"`
	Unverifiable  int `json:"unverifiable"`
	Hallucinated  int `json:"hallucinated"`

	// AccuracyScore is 0-100 over claims with a decided verdict.
	// UNVERIFIABLE claims carry no information and are excluded.
	AccuracyScore int      `json:"accuracy_score"`
	Confidence    string   `json:"confidence"`
	Signals       []Signal `json:"signals,omitempty"`
}

// Summarize builds a summary from fact-checked claims.
func Summarize(claims []*model.Claim) Summary {
	s := Summary{TotalClaims: len(claims)}

	for _, claim := range claims {
		switch claim.FactCheckStatus {
		case model.FactCheckCompleted:
			s.Checked++
		case model.FactCheckFailed:
			s.Failed++
		}
		switch claim.Verdict {
		case model.VerdictTrue:
			s.True++
		case model.VerdictFalse:
			s.False++
		case model.VerdictMisleading:
			s.Misleading++
		case model.VerdictUnverifiable:
			s.Unverifiable++
		}
		if claim.ValidationStatus == model.ValidationHallucination {
			s.Hallucinated++
		}
	}

	// TRUE counts full, MISLEADING half, FALSE zero.
	decided := s.True + s.False + s.Misleading
	if decided > 0 {
		s.AccuracyScore = (s.True*100 + s.Misleading*50) / decided
	}

	s.Confidence = confidence(decided, s.TotalClaims)
	s.Signals = signals(s, decided)
	return s
}

// confidence reflects how much of the video the decided verdicts cover.
func confidence(decided, total int) string {
	if total == 0 || decided == 0 {
		return "none"
	}
	ratio := float64(decided) / float64(total)
	switch {
	case decided >= 5 && ratio >= 0.7:
		return "high"
	case decided >= 3 && ratio >= 0.4:
		return "medium"
	default:
		return "low"
	}
}

func signals(s Summary, decided int) []Signal {
	var out []Signal

	if s.TotalClaims > 0 {
		ratio := float64(decided) / float64(s.TotalClaims)
		severity := SeverityInfo
		if ratio < 0.3 {
			severity = SeverityCritical
		} else if ratio < 0.6 {
			severity = SeverityWarning
		}
		out = append(out, Signal{
			Type:        SignalCheckCoverage,
			Severity:    severity,
			Description: fmt.Sprintf("Decided verdicts for %d of %d claims", decided, s.TotalClaims),
			Data: map[string]any{
				"decided": decided,
				"total":   s.TotalClaims,
				"ratio":   ratio,
			},
		})
	}

	if s.False > 0 {
		severity := SeverityWarning
		if decided > 0 && s.False*2 >= decided {
			severity = SeverityCritical
		}
		out = append(out, Signal{
			Type:        SignalFalseClaims,
			Severity:    severity,
			Description: fmt.Sprintf("%d claim(s) judged FALSE", s.False),
			Data:        map[string]any{"false": s.False},
		})
	}

	if s.Hallucinated > 0 {
		out = append(out, Signal{
			Type:        SignalHallucination,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d claim(s) not present in the transcript", s.Hallucinated),
			Data:        map[string]any{"hallucinated": s.Hallucinated},
		})
	}

	if s.Failed > 0 {
		out = append(out, Signal{
			Type:        SignalCheckFailures,
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("%d claim(s) could not be fact-checked", s.Failed),
			Data:        map[string]any{"failed": s.Failed},
		})
	}

	return out
}
