package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"schema-graph/internal/config"
	"schema-graph/internal/database"
	"schema-graph/internal/graph"
	"schema-graph/internal/handlers"
	"schema-graph/internal/repositories"
	"schema-graph/internal/routes"
	"schema-graph/internal/services"
)

// New wires the serving path (guard -> executor / summary) over the graph
// store and returns the HTTP server plus the driver the caller must close on
// shutdown. The serving path never touches the relational source; rebuilds
// are a separate maintenance operation.
func New(ctx context.Context, cfg *config.Config) (*http.Server, neo4j.DriverWithContext, error) {
	driver, err := database.ConnectNeo4j(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// Dependency injection
	graphRepo := repositories.NewGraphRepository(driver, cfg.LoadBatchSize)
	executor := graph.NewExecutor(graphRepo, graph.ExecutorConfig{
		DefaultLimit: cfg.QueryDefaultLimit,
		MaxLimit:     cfg.QueryMaxLimit,
		Timeout:      cfg.QueryTimeout,
	})
	queryService := services.NewQueryService(graph.NewGuard(), executor)
	schemaService := services.NewSchemaService(executor)

	queryHandler := handlers.NewQueryHandler(queryService)
	schemaHandler := handlers.NewSchemaHandler(schemaService)
	healthHandler := handlers.NewHealthHandler(driver)

	router := gin.Default()
	router.Use(cors.Default())
	routes.RegisterRoutes(router, schemaHandler, queryHandler, healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Serving schema graph tools on :%d", cfg.Port)
	return srv, driver, nil
}
