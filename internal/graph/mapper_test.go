package graph

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-graph/internal/models"
)

func strPtr(s string) *string { return &s }

// pagilaSubset is a two-table catalog: customer(customer_id, email) and
// rental(rental_id, customer_id) with rental.customer_id -> customer.customer_id.
func pagilaSubset() *models.Catalog {
	return &models.Catalog{
		Tables: []models.TableRecord{
			{SchemaName: "public", TableName: "customer", TableType: "BASE TABLE"},
			{SchemaName: "public", TableName: "rental", TableType: "BASE TABLE"},
		},
		Columns: []models.ColumnRecord{
			{SchemaName: "public", TableName: "customer", ColumnName: "customer_id", DataType: "integer", OrdinalPosition: 1},
			{SchemaName: "public", TableName: "customer", ColumnName: "email", DataType: "text", IsNullable: true, OrdinalPosition: 2},
			{SchemaName: "public", TableName: "rental", ColumnName: "rental_id", DataType: "integer", OrdinalPosition: 1},
			{SchemaName: "public", TableName: "rental", ColumnName: "customer_id", DataType: "integer", OrdinalPosition: 2},
		},
		ForeignKeys: []models.ForeignKeyRecord{
			{
				ConstraintName: "rental_customer_id_fkey",
				SourceSchema:   "public", SourceTable: "rental", SourceColumn: "customer_id",
				TargetSchema: "public", TargetTable: "customer", TargetColumn: "customer_id",
				MatchOption: "NONE", UpdateRule: "CASCADE", DeleteRule: "RESTRICT",
			},
		},
		Constraints: []models.ConstraintRecord{
			{
				ConstraintName: "customer_pkey", SchemaName: "public", TableName: "customer",
				ConstraintType: "PRIMARY KEY", ColumnNames: []string{"customer_id"},
			},
		},
		Indexes: []models.IndexRecord{
			{
				SchemaName: "public", TableName: "customer", IndexName: "customer_pkey",
				IsUnique: true, IsPrimary: true, ColumnNames: []string{"customer_id"}, IndexType: "btree",
			},
		},
	}
}

func TestMapperBuildsExpectedChangeSet(t *testing.T) {
	cs, diag := NewMapper().Map(pagilaSubset())

	assert.Zero(t, diag.Total())

	nodes := cs.NodesByLabel()
	assert.Len(t, nodes[LabelTable], 2)
	assert.Len(t, nodes[LabelColumn], 4)
	assert.Len(t, nodes[LabelConstraint], 1)
	assert.Len(t, nodes[LabelIndex], 1)

	edges := cs.EdgesByType()
	assert.Len(t, edges[RelHasColumn], 4)
	assert.Len(t, edges[RelHasConstraint], 1)
	assert.Len(t, edges[RelHasIndex], 1)
	assert.Len(t, edges[RelAppliesTo], 1)
	assert.Len(t, edges[RelIndexes], 1)

	require.Len(t, edges[RelReferences], 1)
	ref := edges[RelReferences][0]
	assert.Equal(t, "public.rental.customer_id", ref.FromID)
	assert.Equal(t, "public.customer.customer_id", ref.ToID)
	assert.Equal(t, "rental_customer_id_fkey", ref.Props["constraint_name"])
}

// Re-running the mapper against an unchanged catalog must produce the same
// node and edge sets: identities come from the catalog, never from counters.
func TestMapperIdempotent(t *testing.T) {
	m := NewMapper()

	first, diag1 := m.Map(pagilaSubset())
	second, diag2 := m.Map(pagilaSubset())

	assert.Equal(t, diag1, diag2)
	assert.Equal(t, first, second)
}

func TestMapperDropsUnresolvedReferences(t *testing.T) {
	cat := pagilaSubset()
	cat.ForeignKeys = append(cat.ForeignKeys, models.ForeignKeyRecord{
		ConstraintName: "ghost_fkey",
		SourceSchema:   "public", SourceTable: "rental", SourceColumn: "customer_id",
		TargetSchema: "public", TargetTable: "nonexistent", TargetColumn: "id",
	})

	cs, diag := NewMapper().Map(cat)

	// One resolved edge, one anomaly, no dangling edges.
	assert.Len(t, cs.EdgesByType()[RelReferences], 1)
	assert.Equal(t, 1, diag.UnresolvedReferences)
}

func TestMapperDropsUnclassifiableConstraints(t *testing.T) {
	cat := pagilaSubset()
	cat.Constraints = append(cat.Constraints, models.ConstraintRecord{
		ConstraintName: "weird", SchemaName: "public", TableName: "customer",
		ConstraintType: "EXCLUSION", ColumnNames: []string{"email"},
	})

	cs, diag := NewMapper().Map(cat)

	assert.Len(t, cs.NodesByLabel()[LabelConstraint], 1)
	assert.Equal(t, 1, diag.UnclassifiedRows)
}

func TestMapperDropsOrphanedColumns(t *testing.T) {
	cat := pagilaSubset()
	cat.Columns = append(cat.Columns, models.ColumnRecord{
		SchemaName: "public", TableName: "vanished", ColumnName: "x",
		DataType: "text", OrdinalPosition: 1,
	})

	cs, diag := NewMapper().Map(cat)

	assert.Len(t, cs.NodesByLabel()[LabelColumn], 4)
	assert.Equal(t, 1, diag.OrphanedRows)
}

func TestMapperMergesDuplicateIdentities(t *testing.T) {
	cat := pagilaSubset()
	cat.Tables = append(cat.Tables, models.TableRecord{
		SchemaName: "public", TableName: "customer", TableType: "BASE TABLE",
		Comment: strPtr("second pass wins"),
	})

	cs, _ := NewMapper().Map(cat)

	tables := cs.NodesByLabel()[LabelTable]
	assert.Len(t, tables, 2)
	for _, n := range tables {
		if n.ID == "public.customer" {
			assert.Equal(t, "second pass wins", n.Props["comment"])
		}
	}
}

// Ordinal positions pass through untouched: contiguous and strictly
// increasing per table exactly as the source numbered them.
func TestMapperPreservesOrdinalPositions(t *testing.T) {
	cs, _ := NewMapper().Map(pagilaSubset())

	perTable := map[string][]int{}
	for _, n := range cs.NodesByLabel()[LabelColumn] {
		table := n.Props["table_name"].(string)
		perTable[table] = append(perTable[table], n.Props["ordinal_position"].(int))
	}

	for table, positions := range perTable {
		sort.Ints(positions)
		for i, p := range positions {
			assert.Equal(t, i+1, p, "table %s has a gap in ordinal positions", table)
		}
	}
}

// Composite key order is an explicit position property on the edge, not an
// artifact of iteration order.
func TestMapperStampsEdgePositions(t *testing.T) {
	cat := pagilaSubset()
	cat.Constraints = []models.ConstraintRecord{
		{
			ConstraintName: "rental_pkey", SchemaName: "public", TableName: "rental",
			ConstraintType: "PRIMARY KEY", ColumnNames: []string{"rental_id", "customer_id"},
		},
	}
	cat.Indexes = []models.IndexRecord{
		{
			SchemaName: "public", TableName: "rental", IndexName: "rental_pkey",
			IsUnique: true, IsPrimary: true,
			ColumnNames: []string{"rental_id", "customer_id"}, IndexType: "btree",
		},
	}

	cs, diag := NewMapper().Map(cat)
	assert.Zero(t, diag.Total())

	applies := cs.EdgesByType()[RelAppliesTo]
	require.Len(t, applies, 2)
	assert.Equal(t, 1, applies[0].Props["position"])
	assert.Equal(t, "public.rental.rental_id", applies[0].ToID)
	assert.Equal(t, 2, applies[1].Props["position"])
	assert.Equal(t, "public.rental.customer_id", applies[1].ToID)

	indexes := cs.EdgesByType()[RelIndexes]
	require.Len(t, indexes, 2)
	assert.Equal(t, 1, indexes[0].Props["position"])
	assert.Equal(t, 2, indexes[1].Props["position"])
}

// The REFERENCES edge count equals the number of foreign-key columns whose
// target resolved; each unresolved one is an anomaly, not an edge.
func TestMapperReferentialIntegrityCounts(t *testing.T) {
	cat := pagilaSubset()
	cat.ForeignKeys = append(cat.ForeignKeys,
		models.ForeignKeyRecord{
			ConstraintName: "missing_target",
			SourceSchema:   "public", SourceTable: "rental", SourceColumn: "rental_id",
			TargetSchema: "public", TargetTable: "store", TargetColumn: "store_id",
		},
		models.ForeignKeyRecord{
			ConstraintName: "missing_source",
			SourceSchema:   "public", SourceTable: "payment", SourceColumn: "rental_id",
			TargetSchema: "public", TargetTable: "rental", TargetColumn: "rental_id",
		},
	)

	cs, diag := NewMapper().Map(cat)

	assert.Len(t, cs.EdgesByType()[RelReferences], 1)
	assert.Equal(t, 2, diag.UnresolvedReferences)
}
