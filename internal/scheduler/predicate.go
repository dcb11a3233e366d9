package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// TableRef names a ledger table and the column holding the candidate key.
type TableRef struct {
	Table     string
	KeyColumn string
}

// Filter is one additional typed condition applied to the upstream table.
// Columns and operators come from stage code, never from user input, and both
// are validated before the query is built.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// EligibilityPredicate describes the per-stage selection rule: a key is
// eligible when it exists upstream, is absent from every downstream sink, has
// no gating marker, belongs to the polled study, and passes all filters.
// Selection among eligible keys is randomized to spread contention across
// concurrent workers; callers must not assume any order survives across polls.
type EligibilityPredicate struct {
	Upstream    TableRef
	StudyColumn string
	Downstream  []TableRef
	GateStage   string
	GateTable   string
	Filters     []Filter
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var allowedOps = map[string]struct{}{
	"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
}

// Build compiles the predicate into a single parameterized SELECT scoped to
// the given study. The query is a pure read with no side effects.
func (p EligibilityPredicate) Build(study string) (string, []any, error) {
	if err := validateIdentifier(p.Upstream.Table); err != nil {
		return "", nil, fmt.Errorf("upstream table: %w", err)
	}
	if err := validateIdentifier(p.Upstream.KeyColumn); err != nil {
		return "", nil, fmt.Errorf("upstream key column: %w", err)
	}
	if err := validateIdentifier(p.StudyColumn); err != nil {
		return "", nil, fmt.Errorf("study column: %w", err)
	}

	var (
		builder strings.Builder
		args    []any
	)
	fmt.Fprintf(&builder, "SELECT u.%s FROM %s AS u WHERE u.%s = ?",
		p.Upstream.KeyColumn, p.Upstream.Table, p.StudyColumn)
	args = append(args, study)

	for _, down := range p.Downstream {
		if err := validateIdentifier(down.Table); err != nil {
			return "", nil, fmt.Errorf("downstream table: %w", err)
		}
		if err := validateIdentifier(down.KeyColumn); err != nil {
			return "", nil, fmt.Errorf("downstream key column: %w", err)
		}
		fmt.Fprintf(&builder, " AND NOT EXISTS (SELECT 1 FROM %s AS d WHERE d.%s = u.%s)",
			down.Table, down.KeyColumn, p.Upstream.KeyColumn)
	}

	if p.GateStage != "" {
		gateTable := p.GateTable
		if gateTable == "" {
			gateTable = "process_exclusions"
		}
		if err := validateIdentifier(gateTable); err != nil {
			return "", nil, fmt.Errorf("gate table: %w", err)
		}
		fmt.Fprintf(&builder, " AND NOT EXISTS (SELECT 1 FROM %s AS g WHERE g.stage = ? AND g.candidate_key = u.%s)",
			gateTable, p.Upstream.KeyColumn)
		args = append(args, p.GateStage)
	}

	for _, filter := range p.Filters {
		if err := validateIdentifier(filter.Column); err != nil {
			return "", nil, fmt.Errorf("filter column: %w", err)
		}
		if _, ok := allowedOps[filter.Op]; !ok {
			return "", nil, fmt.Errorf("filter operator %q not allowed", filter.Op)
		}
		fmt.Fprintf(&builder, " AND u.%s %s ?", filter.Column, filter.Op)
		args = append(args, filter.Value)
	}

	builder.WriteString(" ORDER BY RANDOM() LIMIT 1")
	return builder.String(), args, nil
}

func validateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}

// Querier is the minimal read surface a SQL source needs.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLSource evaluates an eligibility predicate against the ledger.
type SQLSource struct {
	db        Querier
	predicate EligibilityPredicate
}

// NewSQLSource builds a Source backed by the given connection and predicate.
func NewSQLSource(db Querier, predicate EligibilityPredicate) *SQLSource {
	return &SQLSource{db: db, predicate: predicate}
}

// Next returns one eligible candidate for the study, or nil when the study is
// drained. An unknown study yields no candidate rather than an error; the two
// cases are indistinguishable to callers.
func (s *SQLSource) Next(ctx context.Context, study string) (*Candidate, error) {
	query, args, err := s.predicate.Build(study)
	if err != nil {
		return nil, err
	}
	var key string
	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("eligibility query: %w", err)
	}
	return &Candidate{Key: key, Study: study}, nil
}
