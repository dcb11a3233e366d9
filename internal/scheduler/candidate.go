package scheduler

import "context"

// Candidate references one unit of work by its natural key, scoped to the
// study partition it was selected from. Candidates are computed transiently by
// each poll; no claimed state is ever persisted, so a candidate is "claimed"
// only for the duration of one Processor invocation in one worker process.
type Candidate struct {
	Key   string
	Study string
}

// Source yields the next eligible candidate for a study partition, or nil
// when the partition is drained. Implementations must be pure reads.
type Source interface {
	Next(ctx context.Context, study string) (*Candidate, error)
}

// Processor turns one candidate into a three-way outcome. External tool
// invocation, network calls, and file I/O all happen inside this boundary;
// the worker loop only inspects the outcome kind.
type Processor interface {
	Process(ctx context.Context, candidate *Candidate) Outcome
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, candidate *Candidate) Outcome

func (f ProcessorFunc) Process(ctx context.Context, candidate *Candidate) Outcome {
	return f(ctx, candidate)
}

// Committer persists a successful outcome's payload. Commit must be safe to
// call more than once with equivalent input: racing workers may both process
// the same candidate, and the second commit has to leave the downstream table
// in the same final state as the first.
type Committer interface {
	Commit(ctx context.Context, candidate *Candidate, payload any) error
}

// CommitterFunc adapts a plain function to the Committer interface.
type CommitterFunc func(ctx context.Context, candidate *Candidate, payload any) error

func (f CommitterFunc) Commit(ctx context.Context, candidate *Candidate, payload any) error {
	return f(ctx, candidate, payload)
}
