// Package outcome assigns the terminal result of an application attempt.
package outcome

import (
	"net/url"
	"strings"

	"job-applier/internal/entity"
)

// Evidence is everything the classifier looks at. Collect fills the
// page-derived fields; the controller sets the rest.
type Evidence struct {
	FormURL  string
	FinalURL string

	// Submitted is true when a submit control was activated without error.
	Submitted bool
	// SubmitMissing is true when no submit control could be resolved.
	SubmitMissing bool
	// ChallengeUnsolved is true when a challenge is still shown after the
	// solver budget was spent.
	ChallengeUnsolved bool
	// Accepted is true when a write request to a submission endpoint was
	// answered with 2xx after submit.
	Accepted bool

	Confirmation      bool
	ValidationMarkers []string
	ActionRequired    bool
}

type Verdict struct {
	Outcome entity.SubmissionOutcome
	Reason  string
}

// Classify applies the rules in strict priority order. Any evidence value
// yields a verdict. Nothing counts as applied unless the form was submitted.
func Classify(e Evidence) Verdict {
	switch {
	case e.ChallengeUnsolved:
		return Verdict{entity.OutcomeCaptchaBlocked, "challenge still present after retry budget"}
	case e.Submitted && e.Confirmation && len(e.ValidationMarkers) == 0:
		return Verdict{entity.OutcomeApplied, "confirmation text found"}
	case len(e.ValidationMarkers) > 0:
		return Verdict{entity.OutcomeValidationError, "validation: " + strings.Join(limit(e.ValidationMarkers, 3), "; ")}
	case e.ActionRequired:
		return Verdict{entity.OutcomeActionRequired, "out-of-band step requested"}
	case e.SubmitMissing:
		return Verdict{entity.OutcomeFailed, "no submit control resolvable"}
	case e.Submitted && MateriallyDifferent(e.FormURL, e.FinalURL):
		return Verdict{entity.OutcomeApplied, "url changed after submit"}
	case e.Submitted && e.Accepted:
		return Verdict{entity.OutcomeApplied, "submission accepted by server"}
	case !e.Submitted:
		return Verdict{entity.OutcomeFailed, "form was not submitted"}
	}

	return Verdict{entity.OutcomeFailed, "no confirmation signal"}
}

// MateriallyDifferent compares host and path, ignoring scheme, query,
// fragment and a trailing slash.
func MateriallyDifferent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)

	if errA != nil || errB != nil {
		return strings.TrimRight(a, "/") != strings.TrimRight(b, "/")
	}

	return !strings.EqualFold(ua.Host, ub.Host) ||
		strings.TrimRight(ua.Path, "/") != strings.TrimRight(ub.Path, "/")
}

func limit(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}

	return s
}
