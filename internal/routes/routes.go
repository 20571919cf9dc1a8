package routes

import (
	"net/http"

	"schema-graph/internal/handlers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine, schemaHandler *handlers.SchemaHandler, queryHandler *handlers.QueryHandler, healthHandler *handlers.HealthHandler) {
	api := router.Group("/api/v1")

	toolRoutes := NewToolRoutes(schemaHandler, queryHandler)
	toolRoutes.RegisterRoutes(api)

	router.GET("/healthz", healthHandler.Healthz)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
