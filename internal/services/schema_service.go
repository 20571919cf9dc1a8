package services

import (
	"context"
	"errors"
	"fmt"

	"schema-graph/internal/graph"
)

// ErrInvalidInput is a malformed tool-call argument (unknown view, unknown
// node label). Surfaced to the caller, never to the store.
var ErrInvalidInput = errors.New("invalid input")

// SchemaView is the tagged set of summary views. Each view has its own
// handler rather than a string-dispatched map.
type SchemaView string

const (
	ViewOverview      SchemaView = "overview"
	ViewNodes         SchemaView = "nodes"
	ViewRelationships SchemaView = "relationships"
	ViewProperties    SchemaView = "properties"
	ViewSampleData    SchemaView = "sample_data"
)

// ParseSchemaView validates a caller-supplied schema_type.
func ParseSchemaView(s string) (SchemaView, error) {
	switch SchemaView(s) {
	case ViewOverview, ViewNodes, ViewRelationships, ViewProperties, ViewSampleData:
		return SchemaView(s), nil
	default:
		return "", fmt.Errorf("%w: unknown schema_type %q", ErrInvalidInput, s)
	}
}

// Summary is the uniform result shape of every view.
type Summary struct {
	SchemaType string         `json:"schema_type"`
	NodeLabel  string         `json:"node_label,omitempty"`
	Data       map[string]any `json:"data"`
}

// SchemaService computes aggregate views over the loaded graph. Every query
// goes through the executor so limit clamping is never bypassed. The managed
// vocabulary is closed, so counts iterate the fixed label and relationship
// sets instead of asking the store to enumerate them.
type SchemaService struct {
	executor *graph.Executor
}

func NewSchemaService(executor *graph.Executor) *SchemaService {
	return &SchemaService{executor: executor}
}

// Explore dispatches to the view's handler.
func (s *SchemaService) Explore(ctx context.Context, view SchemaView, nodeLabel string, limit int) (*Summary, error) {
	if nodeLabel != "" {
		if err := validateLabel(nodeLabel); err != nil {
			return nil, err
		}
	}

	switch view {
	case ViewOverview:
		return s.overview(ctx)
	case ViewNodes:
		return s.nodes(ctx, nodeLabel)
	case ViewRelationships:
		return s.relationships(ctx)
	case ViewProperties:
		return s.properties(ctx, nodeLabel)
	case ViewSampleData:
		return s.sampleData(ctx, nodeLabel, limit)
	default:
		return nil, fmt.Errorf("%w: unknown schema_type %q", ErrInvalidInput, view)
	}
}

func validateLabel(label string) error {
	for _, l := range graph.ManagedLabels {
		if l == label {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown node_label %q (want one of Table, Column, Constraint, Index)", ErrInvalidInput, label)
}

func (s *SchemaService) overview(ctx context.Context) (*Summary, error) {
	nodeCounts := make(map[string]int64, len(graph.ManagedLabels))
	var totalNodes int64
	for _, label := range graph.ManagedLabels {
		n, err := s.count(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label))
		if err != nil {
			return nil, err
		}
		nodeCounts[label] = n
		totalNodes += n
	}

	relCounts := make(map[string]int64, len(graph.ManagedRelTypes))
	var totalRels int64
	for _, relType := range graph.ManagedRelTypes {
		n, err := s.count(ctx, fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS count", relType))
		if err != nil {
			return nil, err
		}
		relCounts[relType] = n
		totalRels += n
	}

	return &Summary{
		SchemaType: string(ViewOverview),
		Data: map[string]any{
			"total_nodes":         totalNodes,
			"total_relationships": totalRels,
			"node_labels":         graph.ManagedLabels,
			"relationship_types":  graph.ManagedRelTypes,
			"node_counts":         nodeCounts,
			"relationship_counts": relCounts,
		},
	}, nil
}

func (s *SchemaService) nodes(ctx context.Context, nodeLabel string) (*Summary, error) {
	labels := graph.ManagedLabels
	if nodeLabel != "" {
		labels = []string{nodeLabel}
	}

	counts := make(map[string]int64, len(labels))
	for _, label := range labels {
		n, err := s.count(ctx, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label))
		if err != nil {
			return nil, err
		}
		counts[label] = n
	}

	return &Summary{
		SchemaType: string(ViewNodes),
		NodeLabel:  nodeLabel,
		Data:       map[string]any{"node_counts": counts},
	}, nil
}

func (s *SchemaService) relationships(ctx context.Context) (*Summary, error) {
	counts := make(map[string]int64, len(graph.ManagedRelTypes))
	for _, relType := range graph.ManagedRelTypes {
		n, err := s.count(ctx, fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS count", relType))
		if err != nil {
			return nil, err
		}
		counts[relType] = n
	}

	return &Summary{
		SchemaType: string(ViewRelationships),
		Data:       map[string]any{"relationship_counts": counts},
	}, nil
}

func (s *SchemaService) properties(ctx context.Context, nodeLabel string) (*Summary, error) {
	labels := graph.ManagedLabels
	if nodeLabel != "" {
		labels = []string{nodeLabel}
	}

	props := make(map[string][]string, len(labels))
	for _, label := range labels {
		q := fmt.Sprintf(
			"MATCH (n:%s) UNWIND keys(n) AS prop RETURN DISTINCT prop AS property ORDER BY property",
			label,
		)
		res, err := s.executor.Execute(ctx, q, 0, false)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(res.Rows))
		for _, row := range res.Rows {
			if p, ok := row["property"].(string); ok {
				names = append(names, p)
			}
		}
		props[label] = names
	}

	return &Summary{
		SchemaType: string(ViewProperties),
		NodeLabel:  nodeLabel,
		Data:       map[string]any{"properties": props},
	}, nil
}

func (s *SchemaService) sampleData(ctx context.Context, nodeLabel string, limit int) (*Summary, error) {
	if nodeLabel != "" {
		q := fmt.Sprintf(
			"MATCH (n:%s) RETURN n.full_name AS full_name, properties(n) AS properties ORDER BY full_name",
			nodeLabel,
		)
		res, err := s.executor.Execute(ctx, q, limit, false)
		if err != nil {
			return nil, err
		}
		return &Summary{
			SchemaType: string(ViewSampleData),
			NodeLabel:  nodeLabel,
			Data:       map[string]any{"sample_nodes": res.Rows},
		}, nil
	}

	nodesRes, err := s.executor.Execute(ctx,
		"MATCH (n) RETURN labels(n) AS labels, keys(n) AS properties", limit, false)
	if err != nil {
		return nil, err
	}
	relsRes, err := s.executor.Execute(ctx,
		"MATCH (a)-[r]->(b) RETURN labels(a) AS from_labels, type(r) AS relationship_type, labels(b) AS to_labels",
		limit, false)
	if err != nil {
		return nil, err
	}

	return &Summary{
		SchemaType: string(ViewSampleData),
		Data: map[string]any{
			"sample_nodes":         nodesRes.Rows,
			"sample_relationships": relsRes.Rows,
		},
	}, nil
}

func (s *SchemaService) count(ctx context.Context, query string) (int64, error) {
	res, err := s.executor.Execute(ctx, query, 1, false)
	if err != nil {
		return 0, err
	}
	if len(res.Rows) == 0 {
		return 0, nil
	}
	switch v := res.Rows[0]["count"].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
