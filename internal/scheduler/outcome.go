package scheduler

import (
	"strings"

	"shuttle/internal/services"
)

// OutcomeKind classifies a processor invocation.
type OutcomeKind int

const (
	// OutcomeSuccess means the candidate produced a payload for the committer.
	OutcomeSuccess OutcomeKind = iota
	// OutcomePermanentFailure means retrying can never succeed; the candidate
	// should be gated out of future eligibility.
	OutcomePermanentFailure
	// OutcomeTransientFailure means nothing is written; the candidate stays
	// eligible and is naturally retried on a future poll.
	OutcomeTransientFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomePermanentFailure:
		return "permanent_failure"
	case OutcomeTransientFailure:
		return "transient_failure"
	default:
		return "unknown"
	}
}

// Outcome is the three-way result of processing one candidate.
type Outcome struct {
	Kind    OutcomeKind
	Payload any
	Reason  string
	Err     error
}

// Succeed builds a success outcome carrying the commit payload.
func Succeed(payload any) Outcome {
	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// FailPermanent builds a permanent-failure outcome with a human-readable reason.
func FailPermanent(reason string) Outcome {
	return Outcome{Kind: OutcomePermanentFailure, Reason: strings.TrimSpace(reason)}
}

// FailTransient builds a transient-failure outcome. The error is logged but
// nothing durable changes.
func FailTransient(err error) Outcome {
	return Outcome{Kind: OutcomeTransientFailure, Err: err}
}

// OutcomeFromError classifies a stage error into an outcome using the
// services sentinel markers. A nil error succeeds with the given payload.
func OutcomeFromError(err error, payload any) Outcome {
	if err == nil {
		return Succeed(payload)
	}
	if services.IsPermanent(err) {
		return FailPermanent(err.Error())
	}
	return FailTransient(err)
}
