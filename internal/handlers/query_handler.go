package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"schema-graph/internal/graph"
	"schema-graph/internal/responses"
	"schema-graph/internal/services"
)

type QueryHandler struct {
	queryService *services.QueryService
}

func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// ExecuteQuery handles POST /api/v1/tools/query
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	var req services.ExecuteQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: cypher_query is required")
		return
	}

	result, err := h.queryService.Execute(c.Request.Context(), &req)
	if err != nil {
		status, msg := statusForError(err)
		responses.Fail(c, status, err, msg)
		return
	}

	responses.Success(c, http.StatusOK, result, "Query executed successfully")
}

// statusForError maps the error taxonomy onto HTTP statuses. Failures are
// scoped to the single call; nothing here touches stored state.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, graph.ErrQueryRejected):
		return http.StatusBadRequest, "Query rejected by read-only guard"
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, graph.ErrTimeout):
		return http.StatusGatewayTimeout, "Query timed out"
	case errors.Is(err, graph.ErrExecution):
		return http.StatusBadGateway, "Graph store reported an error"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
