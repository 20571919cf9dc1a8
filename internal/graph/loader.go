package graph

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrLoadFailed is a store-rejected batch. The store is left consistent at
// entity-type granularity: a failed type commits nothing, earlier types are
// fully loaded, and the rebuild aborts on first failure.
var ErrLoadFailed = errors.New("graph load failed")

// Store is the write surface of the graph store the loader needs. CreateNodes
// and CreateEdges must commit all rows of one call atomically, batching
// internally as needed.
type Store interface {
	EnsureSchemaConstraints(ctx context.Context) error
	DeleteNodesByLabel(ctx context.Context, label string) (int64, error)
	CreateNodes(ctx context.Context, label string, rows []map[string]any) error
	CreateEdges(ctx context.Context, relType, fromLabel, toLabel string, rows []map[string]any) error
}

// LoadStats reports what one load created.
type LoadStats struct {
	NodesByLabel map[string]int `json:"nodes_by_label"`
	EdgesByType  map[string]int `json:"edges_by_type"`
	Deleted      int64          `json:"deleted"`
}

// Loader performs the full-replace load of a change-set: delete the managed
// node types (and only those), then recreate the new set, one entity type at
// a time.
type Loader struct {
	store Store
}

func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load replaces the managed portion of the store with the change-set.
// Idempotent: identities come from the catalog, so loading the same
// change-set twice yields the same graph.
func (l *Loader) Load(ctx context.Context, cs *ChangeSet) (*LoadStats, error) {
	if err := l.store.EnsureSchemaConstraints(ctx); err != nil {
		return nil, fmt.Errorf("%w: ensuring uniqueness constraints: %v", ErrLoadFailed, err)
	}

	deleted, err := l.Clear(ctx)
	if err != nil {
		return nil, err
	}

	stats := &LoadStats{
		NodesByLabel: make(map[string]int, len(ManagedLabels)),
		EdgesByType:  make(map[string]int, len(ManagedRelTypes)),
		Deleted:      deleted,
	}

	nodes := cs.NodesByLabel()
	for _, label := range ManagedLabels {
		directives := nodes[label]
		rows := make([]map[string]any, len(directives))
		for i, n := range directives {
			rows[i] = n.Props
		}
		if err := l.store.CreateNodes(ctx, label, rows); err != nil {
			return nil, fmt.Errorf("%w: creating %s nodes: %v", ErrLoadFailed, label, err)
		}
		stats.NodesByLabel[label] = len(rows)
		log.Printf("Loaded %d %s nodes", len(rows), label)
	}

	edges := cs.EdgesByType()
	for _, relType := range ManagedRelTypes {
		directives := edges[relType]
		if len(directives) == 0 {
			stats.EdgesByType[relType] = 0
			continue
		}
		rows := make([]map[string]any, len(directives))
		for i, e := range directives {
			props := e.Props
			if props == nil {
				props = map[string]any{}
			}
			rows[i] = map[string]any{"from": e.FromID, "to": e.ToID, "props": props}
		}
		// Endpoint labels are fixed per relationship type in the managed
		// vocabulary, so the first directive speaks for the group.
		from, to := directives[0].FromLabel, directives[0].ToLabel
		if err := l.store.CreateEdges(ctx, relType, from, to, rows); err != nil {
			return nil, fmt.Errorf("%w: creating %s relationships: %v", ErrLoadFailed, relType, err)
		}
		stats.EdgesByType[relType] = len(rows)
		log.Printf("Loaded %d %s relationships", len(rows), relType)
	}

	return stats, nil
}

// Clear deletes every node (and attached edge) of the managed labels,
// touching nothing else sharing the store.
func (l *Loader) Clear(ctx context.Context) (int64, error) {
	var total int64
	for _, label := range ManagedLabels {
		n, err := l.store.DeleteNodesByLabel(ctx, label)
		if err != nil {
			return total, fmt.Errorf("%w: clearing %s nodes: %v", ErrLoadFailed, label, err)
		}
		total += n
	}
	return total, nil
}
