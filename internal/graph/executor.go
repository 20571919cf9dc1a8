package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrExecution is a store-reported syntax or runtime failure. Never
	// retried: the same text would fail the same way.
	ErrExecution = errors.New("query execution failed")

	// ErrTimeout is a store call that exceeded the configured deadline.
	ErrTimeout = errors.New("query timed out")
)

// Runner abstracts read access to the graph store so the executor is testable
// with a substitutable handle.
type Runner interface {
	ReadRows(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	ReadPlan(ctx context.Context, cypher string) (map[string]any, error)
}

type ExecutorConfig struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

// Executor runs guard-approved query text with bounded result sets. It never
// returns an unbounded result: absent limits get the default cap, oversized
// limits are clamped to the hard maximum, and rows are truncated as a
// backstop even when the text carries its own LIMIT.
type Executor struct {
	runner Runner
	cfg    ExecutorConfig
}

func NewExecutor(runner Runner, cfg ExecutorConfig) *Executor {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 1000
	}
	return &Executor{runner: runner, cfg: cfg}
}

// ClampLimit resolves a caller-requested limit: zero or negative means
// unspecified and gets the default; anything above the maximum is reduced,
// not rejected.
func (e *Executor) ClampLimit(requested int) int {
	if requested <= 0 {
		return e.cfg.DefaultLimit
	}
	if requested > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return requested
}

type ExecResult struct {
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"row_count"`
	Limit     int              `json:"limit"`
	Plan      map[string]any   `json:"plan,omitempty"`
	PlanError string           `json:"plan_error,omitempty"`
}

// Execute runs the query with the effective limit applied. includePlan adds
// the store's EXPLAIN output; a plan failure is reported alongside the rows
// rather than failing the call.
func (e *Executor) Execute(ctx context.Context, query string, limit int, includePlan bool) (*ExecResult, error) {
	eff := e.ClampLimit(limit)

	q := strings.TrimRight(strings.TrimSpace(query), ";")
	if !hasLimitClause(q) {
		q = fmt.Sprintf("%s LIMIT %d", q, eff)
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	rows, err := e.runner.ReadRows(ctx, q, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, e.cfg.Timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	if len(rows) > eff {
		rows = rows[:eff]
	}

	res := &ExecResult{Rows: rows, RowCount: len(rows), Limit: eff}

	if includePlan {
		plan, perr := e.runner.ReadPlan(ctx, query)
		if perr != nil {
			res.PlanError = perr.Error()
		} else {
			res.Plan = plan
		}
	}

	return res, nil
}

func hasLimitClause(query string) bool {
	for _, tok := range lexWords(stripNonCode(query)) {
		if strings.EqualFold(tok, "LIMIT") {
			return true
		}
	}
	return false
}
