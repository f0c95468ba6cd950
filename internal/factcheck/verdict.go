package factcheck

import (
	"strings"

	"github.com/vzaikin/claimlens/internal/model"
)

// ratingTable maps substrings of external fact-check ratings to internal
// verdicts. Entries are checked in order and the first match wins, so
// negated forms ("untrue", "not true") sit above their positive stems.
//
// Unrecognized ratings fall back to MISLEADING. That is a known
// approximation carried over from the original chain: an authority rating
// worded unusually ("legit", "bogus") lands on MISLEADING rather than
// guessing a polarity. Ratings that explicitly decline to decide
// ("unproven", "unverified") map to UNVERIFIABLE instead, widening the
// output set so an authority's non-answer is not reported as a judgment.
var ratingTable = []struct {
	substr  string
	verdict model.Verdict
}{
	{"pants on fire", model.VerdictFalse},
	{"untrue", model.VerdictFalse},
	{"not true", model.VerdictFalse},
	{"incorrect", model.VerdictFalse},
	{"inaccurate", model.VerdictFalse},
	{"fake", model.VerdictFalse},
	{"fabricat", model.VerdictFalse}, // fabricated / fabrication
	{"debunk", model.VerdictFalse},
	{"hoax", model.VerdictFalse},
	{"false", model.VerdictFalse},
	{"misleading", model.VerdictMisleading},
	{"mixture", model.VerdictMisleading},
	{"mixed", model.VerdictMisleading},
	{"half true", model.VerdictMisleading},
	{"half-true", model.VerdictMisleading},
	{"partly", model.VerdictMisleading},
	{"partially", model.VerdictMisleading},
	{"missing context", model.VerdictMisleading},
	{"out of context", model.VerdictMisleading},
	{"exaggerat", model.VerdictMisleading}, // exaggerated / exaggeration
	{"distort", model.VerdictMisleading},
	{"unproven", model.VerdictUnverifiable},
	{"unverif", model.VerdictUnverifiable}, // unverified / unverifiable
	{"accurate", model.VerdictTrue},
	{"correct", model.VerdictTrue},
	{"true", model.VerdictTrue},
}

// NormalizeVerdict maps an external authority rating string to the internal
// verdict enum.
func NormalizeVerdict(rating string) model.Verdict {
	r := strings.ToLower(strings.TrimSpace(rating))
	for _, entry := range ratingTable {
		if strings.Contains(r, entry.substr) {
			return entry.verdict
		}
	}
	return model.VerdictMisleading
}
