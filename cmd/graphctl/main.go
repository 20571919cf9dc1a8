package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"schema-graph/internal/config"
	"schema-graph/internal/database"
	"schema-graph/internal/graph"
	"schema-graph/internal/repositories"
	"schema-graph/internal/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "graphctl",
		Short: "Maintenance commands for the schema knowledge graph",
		Long:  "Rebuilds or clears the property-graph model of the relational source's catalog.",
	}

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Extract the source catalog and fully replace the graph",
		Run:   runRebuild,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the managed node types and their relationships",
		Run:   runClear,
	}

	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(clearCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// Rebuilds are exclusive maintenance operations: run one at a time, not
// interleaved with another rebuild against the same store.
func runRebuild(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	pool, err := database.ConnectPostgres(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to source database: %v", err)
	}
	defer pool.Close()

	driver, err := database.ConnectNeo4j(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to graph store: %v", err)
	}
	defer driver.Close(ctx)

	catalogRepo := repositories.NewCatalogRepository(pool)
	graphRepo := repositories.NewGraphRepository(driver, cfg.LoadBatchSize)
	rebuild := services.NewRebuildService(catalogRepo, graph.NewMapper(), graph.NewLoader(graphRepo))

	report, err := rebuild.Rebuild(ctx)
	if err != nil {
		log.Fatalf("rebuild failed: %v", err)
	}

	fmt.Println("Schema knowledge graph rebuilt")
	fmt.Printf("  run id:       %s\n", report.RunID)
	fmt.Printf("  tables:       %d\n", report.Tables)
	fmt.Printf("  columns:      %d\n", report.Columns)
	fmt.Printf("  foreign keys: %d\n", report.ForeignKeys)
	fmt.Printf("  constraints:  %d\n", report.Constraints)
	fmt.Printf("  indexes:      %d\n", report.Indexes)
	for _, label := range graph.ManagedLabels {
		fmt.Printf("  %s nodes: %d\n", label, report.Nodes[label])
	}
	for _, relType := range graph.ManagedRelTypes {
		fmt.Printf("  %s relationships: %d\n", relType, report.Edges[relType])
	}
	if report.Anomalies.Total() > 0 {
		fmt.Printf("  mapping anomalies: %d (%d unresolved references)\n",
			report.Anomalies.Total(), report.Anomalies.UnresolvedReferences)
	}
	fmt.Printf("  duration: %s\n", report.Duration)
}

func runClear(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	driver, err := database.ConnectNeo4j(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to graph store: %v", err)
	}
	defer driver.Close(ctx)

	graphRepo := repositories.NewGraphRepository(driver, cfg.LoadBatchSize)
	loader := graph.NewLoader(graphRepo)

	deleted, err := loader.Clear(ctx)
	if err != nil {
		log.Fatalf("clear failed: %v", err)
	}
	fmt.Printf("Deleted %d managed nodes\n", deleted)
}
