// Package scheduler implements the lock-free, ledger-mediated work loop every
// pipeline stage runs on.
//
// Each Worker repeatedly asks its Source "what is the next eligible candidate
// for this study?", dispatches the stage Processor on it, and either commits
// the result through the Committer or routes the failure to the Healer. The
// eligibility predicate (present upstream, absent downstream, not gated)
// doubles as the claim mechanism: there is no lease, lock, or claimed flag,
// so two workers can race on the same candidate, and correctness rests
// entirely on commits being idempotent.
//
// The control loop rotates through study partitions in a fixed order. A
// partition with backlog is drained fully before the rotation advances. When
// a full sweep finds nothing but earlier polls in the sweep produced commits,
// the worker logs a "processed N" audit row and restarts immediately; only a
// completely empty sweep triggers the idle backoff.
//
// Store-level errors are fatal and terminate the worker. Everything else is
// folded into the Success/PermanentFailure/TransientFailure outcome and
// handled inside the loop.
package scheduler
