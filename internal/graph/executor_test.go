package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	rows     []map[string]any
	err      error
	plan     map[string]any
	planErr  error
	lastRead string
	lastPlan string
}

func (f *fakeRunner) ReadRows(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	f.lastRead = cypher
	return f.rows, f.err
}

func (f *fakeRunner) ReadPlan(ctx context.Context, cypher string) (map[string]any, error) {
	f.lastPlan = cypher
	return f.plan, f.planErr
}

func newTestExecutor(r Runner) *Executor {
	return NewExecutor(r, ExecutorConfig{DefaultLimit: 100, MaxLimit: 1000})
}

func TestClampLimit(t *testing.T) {
	e := newTestExecutor(&fakeRunner{})

	tests := []struct {
		requested int
		want      int
	}{
		{0, 100},    // absent defaults
		{-5, 100},   // nonsense defaults
		{50, 50},    // in range passes through
		{1000, 1000},
		{5000, 1000}, // clamped, not rejected
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.ClampLimit(tt.requested))
	}
}

func TestExecuteAppendsLimitWhenAbsent(t *testing.T) {
	r := &fakeRunner{}
	e := newTestExecutor(r)

	_, err := e.Execute(context.Background(), "MATCH (n) RETURN n", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) RETURN n LIMIT 100", r.lastRead)

	_, err = e.Execute(context.Background(), "MATCH (n) RETURN n;", 25, false)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) RETURN n LIMIT 25", r.lastRead)
}

func TestExecuteKeepsExistingLimit(t *testing.T) {
	r := &fakeRunner{}
	e := newTestExecutor(r)

	_, err := e.Execute(context.Background(), "MATCH (n) RETURN n LIMIT 7", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "MATCH (n) RETURN n LIMIT 7", r.lastRead)
}

// Even a query carrying its own generous LIMIT cannot return more rows than
// the effective cap.
func TestExecuteTruncatesRows(t *testing.T) {
	rows := make([]map[string]any, 10)
	for i := range rows {
		rows[i] = map[string]any{"i": i}
	}
	e := newTestExecutor(&fakeRunner{rows: rows})

	res, err := e.Execute(context.Background(), "MATCH (n) RETURN n LIMIT 9999", 3, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RowCount)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, 3, res.Limit)
}

func TestExecuteClassifiesErrors(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		e := NewExecutor(&fakeRunner{err: context.DeadlineExceeded}, ExecutorConfig{Timeout: time.Second})
		_, err := e.Execute(context.Background(), "MATCH (n) RETURN n", 0, false)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("execution", func(t *testing.T) {
		e := newTestExecutor(&fakeRunner{err: errors.New("Invalid input 'RETRUN'")})
		_, err := e.Execute(context.Background(), "MATCH (n) RETRUN n", 0, false)
		assert.ErrorIs(t, err, ErrExecution)
		assert.Contains(t, err.Error(), "RETRUN")
	})
}

func TestExecuteIncludesPlan(t *testing.T) {
	r := &fakeRunner{plan: map[string]any{"operator": "ProduceResults"}}
	e := newTestExecutor(r)

	res, err := e.Execute(context.Background(), "MATCH (n) RETURN n", 0, true)
	require.NoError(t, err)
	assert.Equal(t, "ProduceResults", res.Plan["operator"])
	assert.Equal(t, "MATCH (n) RETURN n", r.lastPlan)
}

// A plan failure is reported next to the rows, not instead of them.
func TestExecutePlanFailureIsNotFatal(t *testing.T) {
	r := &fakeRunner{
		rows:    []map[string]any{{"n": 1}},
		planErr: errors.New("plan unavailable"),
	}
	e := newTestExecutor(r)

	res, err := e.Execute(context.Background(), "MATCH (n) RETURN n", 0, true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
	assert.Nil(t, res.Plan)
	assert.Equal(t, "plan unavailable", res.PlanError)
}
