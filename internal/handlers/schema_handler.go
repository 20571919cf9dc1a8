package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schema-graph/internal/responses"
	"schema-graph/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

type exploreSchemaRequest struct {
	SchemaType string `json:"schema_type" binding:"required"`
	NodeLabel  string `json:"node_label"`
	Limit      int    `json:"limit"`
}

// ExploreSchema handles POST /api/v1/tools/schema
func (h *SchemaHandler) ExploreSchema(c *gin.Context) {
	var req exploreSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body: schema_type is required")
		return
	}

	view, err := services.ParseSchemaView(req.SchemaType)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid schema_type")
		return
	}

	summary, err := h.schemaService.Explore(c.Request.Context(), view, req.NodeLabel, req.Limit)
	if err != nil {
		status, msg := statusForError(err)
		responses.Fail(c, status, err, msg)
		return
	}

	responses.Success(c, http.StatusOK, summary, "Schema summary generated successfully")
}
