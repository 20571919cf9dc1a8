package services

import (
	"context"
	"fmt"

	"schema-graph/internal/graph"
)

// ExecuteQueryRequest is the raw query tool-call input.
type ExecuteQueryRequest struct {
	CypherQuery      string `json:"cypher_query" binding:"required"`
	Limit            int    `json:"limit"`
	IncludeQueryPlan bool   `json:"include_query_plan"`
}

// QueryResult is the raw query tool-call output.
type QueryResult struct {
	Query     string           `json:"query"`
	RowCount  int              `json:"row_count"`
	Limit     int              `json:"limit"`
	Rows      []map[string]any `json:"rows"`
	Plan      map[string]any   `json:"plan,omitempty"`
	PlanError string           `json:"plan_error,omitempty"`
}

// QueryService validates query text with the guard and, only if allowed,
// hands it to the executor. Stateless; safe for concurrent callers.
type QueryService struct {
	guard    *graph.Guard
	executor *graph.Executor
}

func NewQueryService(guard *graph.Guard, executor *graph.Executor) *QueryService {
	return &QueryService{guard: guard, executor: executor}
}

// Execute classifies then runs the query. A rejection is reported as
// graph.ErrQueryRejected with the guard's reason; it never reaches the store.
func (s *QueryService) Execute(ctx context.Context, req *ExecuteQueryRequest) (*QueryResult, error) {
	verdict := s.guard.Validate(req.CypherQuery)
	if !verdict.Allowed {
		return nil, fmt.Errorf("%w: %s", graph.ErrQueryRejected, verdict.Reason)
	}

	res, err := s.executor.Execute(ctx, req.CypherQuery, req.Limit, req.IncludeQueryPlan)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Query:     req.CypherQuery,
		RowCount:  res.RowCount,
		Limit:     res.Limit,
		Rows:      res.Rows,
		Plan:      res.Plan,
		PlanError: res.PlanError,
	}, nil
}
