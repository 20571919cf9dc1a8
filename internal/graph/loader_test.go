package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls      []string
	nodes      map[string][]map[string]any
	edges      map[string][]map[string]any
	failOnCall string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nodes: map[string][]map[string]any{},
		edges: map[string][]map[string]any{},
	}
}

func (f *fakeStore) record(call string) error {
	f.calls = append(f.calls, call)
	if call == f.failOnCall {
		return errors.New("store rejected the transaction")
	}
	return nil
}

func (f *fakeStore) EnsureSchemaConstraints(ctx context.Context) error {
	return f.record("constraints")
}

func (f *fakeStore) DeleteNodesByLabel(ctx context.Context, label string) (int64, error) {
	if err := f.record("delete:" + label); err != nil {
		return 0, err
	}
	return 2, nil
}

func (f *fakeStore) CreateNodes(ctx context.Context, label string, rows []map[string]any) error {
	if err := f.record("nodes:" + label); err != nil {
		return err
	}
	f.nodes[label] = rows
	return nil
}

func (f *fakeStore) CreateEdges(ctx context.Context, relType, fromLabel, toLabel string, rows []map[string]any) error {
	if err := f.record(fmt.Sprintf("edges:%s:%s:%s", relType, fromLabel, toLabel)); err != nil {
		return err
	}
	f.edges[relType] = rows
	return nil
}

func smallChangeSet() *ChangeSet {
	return &ChangeSet{
		Nodes: []NodeDirective{
			{Label: LabelTable, ID: "public.customer", Props: map[string]any{"full_name": "public.customer"}},
			{Label: LabelColumn, ID: "public.customer.customer_id", Props: map[string]any{"full_name": "public.customer.customer_id"}},
		},
		Edges: []EdgeDirective{
			{
				Type:      RelHasColumn,
				FromLabel: LabelTable, FromID: "public.customer",
				ToLabel: LabelColumn, ToID: "public.customer.customer_id",
			},
		},
	}
}

func TestLoaderFullReplaceOrder(t *testing.T) {
	store := newFakeStore()
	stats, err := NewLoader(store).Load(context.Background(), smallChangeSet())
	require.NoError(t, err)

	// Constraints first, then delete of every managed label, then creates.
	require.GreaterOrEqual(t, len(store.calls), 6)
	assert.Equal(t, "constraints", store.calls[0])
	assert.Equal(t,
		[]string{"delete:Table", "delete:Column", "delete:Constraint", "delete:Index"},
		store.calls[1:5])
	assert.Equal(t, "nodes:Table", store.calls[5])

	assert.Equal(t, 1, stats.NodesByLabel[LabelTable])
	assert.Equal(t, 1, stats.NodesByLabel[LabelColumn])
	assert.Equal(t, 0, stats.NodesByLabel[LabelConstraint])
	assert.Equal(t, 1, stats.EdgesByType[RelHasColumn])
	assert.Equal(t, 0, stats.EdgesByType[RelReferences])
	assert.Equal(t, int64(8), stats.Deleted)
}

func TestLoaderEdgeRowsCarryEndpointsAndProps(t *testing.T) {
	store := newFakeStore()
	cs := smallChangeSet()
	cs.Edges[0].Props = map[string]any{"position": 1}

	_, err := NewLoader(store).Load(context.Background(), cs)
	require.NoError(t, err)

	rows := store.edges[RelHasColumn]
	require.Len(t, rows, 1)
	assert.Equal(t, "public.customer", rows[0]["from"])
	assert.Equal(t, "public.customer.customer_id", rows[0]["to"])
	assert.Equal(t, map[string]any{"position": 1}, rows[0]["props"])
}

func TestLoaderAbortsOnFirstFailure(t *testing.T) {
	store := newFakeStore()
	store.failOnCall = "nodes:Column"

	_, err := NewLoader(store).Load(context.Background(), smallChangeSet())
	require.ErrorIs(t, err, ErrLoadFailed)
	assert.Contains(t, err.Error(), "Column")

	// Nothing after the failing entity type ran.
	for _, call := range store.calls {
		assert.NotContains(t, call, "edges:")
	}
}

func TestLoaderClearTouchesOnlyManagedLabels(t *testing.T) {
	store := newFakeStore()
	deleted, err := NewLoader(store).Clear(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(8), deleted)
	assert.Equal(t,
		[]string{"delete:Table", "delete:Column", "delete:Constraint", "delete:Index"},
		store.calls)
}
