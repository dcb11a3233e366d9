// Package ledger persists all durable pipeline state in SQLite and exposes
// typed accessors for each stage's upstream and downstream tables.
//
// The Store owns the connection, migrations, and every write statement.
// Workers never hold authoritative state between polls: a candidate exists
// only as a row upstream with no matching row downstream. Completion writes
// use ON CONFLICT DO NOTHING (or an upsert for quick QC) so racing workers
// cannot corrupt state, only waste compute. Gating markers in
// process_exclusions are written by the self-healer and never removed
// automatically.
//
// Every statement is its own transaction. There is deliberately no
// multi-statement transaction spanning eligibility and commit; the claim race
// this permits is absorbed by the idempotent writes.
package ledger
