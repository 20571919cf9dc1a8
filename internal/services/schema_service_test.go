package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-graph/internal/graph"
)

func newSchemaService(r graph.Runner) *SchemaService {
	executor := graph.NewExecutor(r, graph.ExecutorConfig{DefaultLimit: 100, MaxLimit: 1000})
	return NewSchemaService(executor)
}

func TestParseSchemaView(t *testing.T) {
	for _, s := range []string{"overview", "nodes", "relationships", "properties", "sample_data"} {
		v, err := ParseSchemaView(s)
		require.NoError(t, err)
		assert.Equal(t, SchemaView(s), v)
	}

	_, err := ParseSchemaView("everything")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOverviewCountsEveryManagedType(t *testing.T) {
	runner := &stubRunner{rows: [][]map[string]any{{{"count": int64(3)}}}}
	svc := newSchemaService(runner)

	sum, err := svc.Explore(context.Background(), ViewOverview, "", 0)
	require.NoError(t, err)

	// One count query per managed label plus one per managed relationship type.
	assert.Len(t, runner.queries, len(graph.ManagedLabels)+len(graph.ManagedRelTypes))
	assert.Equal(t, int64(3*len(graph.ManagedLabels)), sum.Data["total_nodes"])
	assert.Equal(t, int64(3*len(graph.ManagedRelTypes)), sum.Data["total_relationships"])

	counts := sum.Data["node_counts"].(map[string]int64)
	assert.Equal(t, int64(3), counts[graph.LabelTable])
}

func TestNodesViewScopesToRequestedLabel(t *testing.T) {
	runner := &stubRunner{rows: [][]map[string]any{{{"count": int64(12)}}}}
	svc := newSchemaService(runner)

	sum, err := svc.Explore(context.Background(), ViewNodes, graph.LabelColumn, 0)
	require.NoError(t, err)

	require.Len(t, runner.queries, 1)
	assert.Contains(t, runner.queries[0], "(n:Column)")
	counts := sum.Data["node_counts"].(map[string]int64)
	assert.Equal(t, int64(12), counts[graph.LabelColumn])
}

func TestExploreRejectsUnknownLabel(t *testing.T) {
	runner := &stubRunner{}
	svc := newSchemaService(runner)

	_, err := svc.Explore(context.Background(), ViewNodes, "User", 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, runner.queries)
}

func TestPropertiesViewCollectsDistinctKeys(t *testing.T) {
	runner := &stubRunner{rows: [][]map[string]any{{
		{"property": "full_name"},
		{"property": "table_name"},
	}}}
	svc := newSchemaService(runner)

	sum, err := svc.Explore(context.Background(), ViewProperties, graph.LabelTable, 0)
	require.NoError(t, err)

	props := sum.Data["properties"].(map[string][]string)
	assert.Equal(t, []string{"full_name", "table_name"}, props[graph.LabelTable])
}

// sample_data limits route through the executor, so an oversized request is
// clamped rather than honored.
func TestSampleDataClampsLimit(t *testing.T) {
	runner := &stubRunner{rows: [][]map[string]any{{{"full_name": "public.customer"}}}}
	svc := newSchemaService(runner)

	sum, err := svc.Explore(context.Background(), ViewSampleData, graph.LabelTable, 5000)
	require.NoError(t, err)

	require.Len(t, runner.queries, 1)
	assert.True(t, strings.HasSuffix(runner.queries[0], "LIMIT 1000"), "query was: %s", runner.queries[0])
	assert.Equal(t, graph.LabelTable, sum.NodeLabel)
}

func TestSampleDataWithoutLabelSamplesBothShapes(t *testing.T) {
	runner := &stubRunner{rows: [][]map[string]any{
		{{"labels": []any{"Table"}, "properties": []any{"full_name"}}},
		{{"from_labels": []any{"Table"}, "relationship_type": "HAS_COLUMN", "to_labels": []any{"Column"}}},
	}}
	svc := newSchemaService(runner)

	sum, err := svc.Explore(context.Background(), ViewSampleData, "", 5)
	require.NoError(t, err)

	require.Len(t, runner.queries, 2)
	assert.Contains(t, runner.queries[0], "labels(n)")
	assert.Contains(t, runner.queries[1], "type(r)")
	assert.NotNil(t, sum.Data["sample_nodes"])
	assert.NotNil(t, sum.Data["sample_relationships"])
}
