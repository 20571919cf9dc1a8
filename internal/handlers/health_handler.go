package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"schema-graph/internal/responses"
)

type HealthHandler struct {
	driver neo4j.DriverWithContext
}

func NewHealthHandler(driver neo4j.DriverWithContext) *HealthHandler {
	return &HealthHandler{driver: driver}
}

// Healthz handles GET /healthz: liveness plus graph store connectivity.
func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := h.driver.VerifyConnectivity(c.Request.Context()); err != nil {
		responses.Fail(c, http.StatusServiceUnavailable, err, "Graph store unreachable")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"graph_store": "up"}, "ok")
}
