package routes

import (
	"schema-graph/internal/handlers"

	"github.com/gin-gonic/gin"
)

type ToolRoutes struct {
	schemaHandler *handlers.SchemaHandler
	queryHandler  *handlers.QueryHandler
}

func NewToolRoutes(schemaHandler *handlers.SchemaHandler, queryHandler *handlers.QueryHandler) *ToolRoutes {
	return &ToolRoutes{
		schemaHandler: schemaHandler,
		queryHandler:  queryHandler,
	}
}

func (r *ToolRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	tools := rg.Group("/tools")
	{
		tools.POST("/schema", r.schemaHandler.ExploreSchema)
		tools.POST("/query", r.queryHandler.ExecuteQuery)
	}
}
