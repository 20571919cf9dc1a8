package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"schema-graph/internal/graph"
	"schema-graph/internal/models"
)

// CatalogReader is the extraction half of the rebuild pipeline.
type CatalogReader interface {
	ReadAll(ctx context.Context) (*models.Catalog, error)
}

// RebuildReport summarizes one completed rebuild.
type RebuildReport struct {
	RunID       string            `json:"run_id"`
	Tables      int               `json:"tables"`
	Columns     int               `json:"columns"`
	ForeignKeys int               `json:"foreign_keys"`
	Constraints int               `json:"constraints"`
	Indexes     int               `json:"indexes"`
	Nodes       map[string]int    `json:"nodes"`
	Edges       map[string]int    `json:"edges"`
	Deleted     int64             `json:"deleted"`
	Anomalies   graph.Diagnostics `json:"anomalies"`
	Duration    time.Duration     `json:"duration_ns"`
}

// RebuildService chains CatalogReader -> GraphMapper -> GraphLoader. One
// offline batch operation; callers must not run it concurrently against the
// same store.
type RebuildService struct {
	reader CatalogReader
	mapper *graph.Mapper
	loader *graph.Loader
}

func NewRebuildService(reader CatalogReader, mapper *graph.Mapper, loader *graph.Loader) *RebuildService {
	return &RebuildService{reader: reader, mapper: mapper, loader: loader}
}

// Rebuild clears and repopulates the graph from a fresh catalog read. A
// failure aborts the whole rebuild and names the stage that broke.
func (s *RebuildService) Rebuild(ctx context.Context) (*RebuildReport, error) {
	start := time.Now()
	runID := uuid.NewString()
	log.Printf("Starting schema graph rebuild %s", runID)

	cat, err := s.reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s failed at extraction: %w", runID, err)
	}

	cs, diag := s.mapper.Map(cat)
	if diag.Total() > 0 {
		log.Printf("Rebuild %s: %d mapping anomalies (%d unresolved references, %d unclassified rows, %d orphaned rows)",
			runID, diag.Total(), diag.UnresolvedReferences, diag.UnclassifiedRows, diag.OrphanedRows)
	}

	stats, err := s.loader.Load(ctx, cs)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s failed at load: %w", runID, err)
	}

	report := &RebuildReport{
		RunID:       runID,
		Tables:      len(cat.Tables),
		Columns:     len(cat.Columns),
		ForeignKeys: len(cat.ForeignKeys),
		Constraints: len(cat.Constraints),
		Indexes:     len(cat.Indexes),
		Nodes:       stats.NodesByLabel,
		Edges:       stats.EdgesByType,
		Deleted:     stats.Deleted,
		Anomalies:   diag,
		Duration:    time.Since(start),
	}
	log.Printf("Rebuild %s complete in %s", runID, report.Duration)
	return report, nil
}

// Clear deletes the managed node types and their edges, leaving any unrelated
// graph data in the store untouched.
func (s *RebuildService) Clear(ctx context.Context) (int64, error) {
	return s.loader.Clear(ctx)
}
