package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"schema-graph/internal/graph"
)

const defaultBatchSize = 500

// GraphRepository is the Neo4j-backed implementation of the loader's Store
// and the executor's Runner. Sessions are opened per call; nothing long-lived
// is held between calls beyond the driver itself.
type GraphRepository struct {
	driver    neo4j.DriverWithContext
	batchSize int
}

func NewGraphRepository(driver neo4j.DriverWithContext, batchSize int) *GraphRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &GraphRepository{driver: driver, batchSize: batchSize}
}

// managedLabel guards the string interpolation used for labels and
// relationship types: only the closed managed vocabulary may appear in
// generated Cypher.
func managedLabel(label string) error {
	for _, l := range graph.ManagedLabels {
		if l == label {
			return nil
		}
	}
	return fmt.Errorf("unmanaged node label %q", label)
}

func managedRelType(relType string) error {
	for _, t := range graph.ManagedRelTypes {
		if t == relType {
			return nil
		}
	}
	return fmt.Errorf("unmanaged relationship type %q", relType)
}

// EnsureSchemaConstraints creates a uniqueness constraint on each managed
// label's identity property.
func (r *GraphRepository) EnsureSchemaConstraints(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, label := range graph.ManagedLabels {
		stmt := fmt.Sprintf(
			"CREATE CONSTRAINT schema_graph_%s_identity IF NOT EXISTS FOR (n:%s) REQUIRE n.full_name IS UNIQUE",
			label, label,
		)
		if _, err := session.Run(ctx, stmt, nil); err != nil {
			return fmt.Errorf("creating constraint for %s: %w", label, err)
		}
	}
	return nil
}

// DeleteNodesByLabel removes every node of one managed label along with its
// attached relationships and reports how many nodes went away.
func (r *GraphRepository) DeleteNodesByLabel(ctx context.Context, label string) (int64, error) {
	if err := managedLabel(label); err != nil {
		return 0, err
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	deleted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf("MATCH (n:%s) DETACH DELETE n", label), nil)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return int64(summary.Counters().NodesDeleted()), nil
	})
	if err != nil {
		return 0, err
	}
	return deleted.(int64), nil
}

// CreateNodes bulk-creates nodes of one label. All rows commit in a single
// managed transaction; the UNWIND runs in chunks inside it so one statement
// never carries an unbounded parameter list.
func (r *GraphRepository) CreateNodes(ctx context.Context, label string, rows []map[string]any) error {
	if err := managedLabel(label); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	stmt := fmt.Sprintf("UNWIND $rows AS row CREATE (n:%s) SET n = row", label)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, chunk := range chunkRows(rows, r.batchSize) {
			res, err := tx.Run(ctx, stmt, map[string]any{"rows": chunk})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// CreateEdges bulk-creates relationships of one type by matching both
// endpoints on their identity property. Same transaction discipline as
// CreateNodes.
func (r *GraphRepository) CreateEdges(ctx context.Context, relType, fromLabel, toLabel string, rows []map[string]any) error {
	if err := managedRelType(relType); err != nil {
		return err
	}
	if err := managedLabel(fromLabel); err != nil {
		return err
	}
	if err := managedLabel(toLabel); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	stmt := fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (a:%s {full_name: row.from})
		MATCH (b:%s {full_name: row.to})
		CREATE (a)-[r:%s]->(b)
		SET r = row.props`,
		fromLabel, toLabel, relType,
	)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, chunk := range chunkRows(rows, r.batchSize) {
			res, err := tx.Run(ctx, stmt, map[string]any{"rows": chunk})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// ReadRows runs a read-only query and collects the records as plain maps.
func (r *GraphRepository) ReadRows(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var out []map[string]any
		for res.Next(ctx) {
			out = append(out, res.Record().AsMap())
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return rows.([]map[string]any), nil
}

// ReadPlan asks the store to EXPLAIN the query and flattens the plan tree.
func (r *GraphRepository) ReadPlan(ctx context.Context, cypher string) (map[string]any, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	plan, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, "EXPLAIN "+cypher, nil)
		if err != nil {
			return nil, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return nil, err
		}
		if summary.Plan() == nil {
			return map[string]any(nil), nil
		}
		return flattenPlan(summary.Plan()), nil
	})
	if err != nil {
		return nil, err
	}
	return plan.(map[string]any), nil
}

func flattenPlan(p neo4j.Plan) map[string]any {
	children := make([]map[string]any, 0, len(p.Children()))
	for _, c := range p.Children() {
		children = append(children, flattenPlan(c))
	}
	return map[string]any{
		"operator":    p.Operator(),
		"arguments":   p.Arguments(),
		"identifiers": p.Identifiers(),
		"children":    children,
	}
}

func chunkRows(rows []map[string]any, size int) [][]map[string]any {
	var chunks [][]map[string]any
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}
