package graph

import (
	"fmt"

	"schema-graph/internal/models"
)

// Constraint types the mapper classifies. Catalog rows with any other
// constraint type are dropped and counted, never turned into ad-hoc node types.
var knownConstraintTypes = map[string]bool{
	"PRIMARY KEY": true,
	"UNIQUE":      true,
	"FOREIGN KEY": true,
	"CHECK":       true,
}

// Diagnostics counts mapping anomalies. Anomalies are not fatal: the rebuild
// continues and the counts surface in the rebuild report.
type Diagnostics struct {
	UnresolvedReferences int `json:"unresolved_references"`
	UnclassifiedRows     int `json:"unclassified_rows"`
	OrphanedRows         int `json:"orphaned_rows"`
}

func (d Diagnostics) Total() int {
	return d.UnresolvedReferences + d.UnclassifiedRows + d.OrphanedRows
}

// Mapper transforms catalog records into a graph change-set. It is a pure
// function of its input: no store access, no synthetic identifiers.
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

func tableID(schema, table string) string {
	return fmt.Sprintf("%s.%s", schema, table)
}

func columnID(schema, table, column string) string {
	return fmt.Sprintf("%s.%s.%s", schema, table, column)
}

// Map builds the change-set. Nodes sharing an identity are merged
// last-write-wins; edges are emitted only when both endpoints resolved.
func (m *Mapper) Map(cat *models.Catalog) (*ChangeSet, Diagnostics) {
	var diag Diagnostics
	cs := &ChangeSet{}

	tables := make(map[string]bool, len(cat.Tables))
	columns := make(map[string]bool, len(cat.Columns))

	addNode := func(seen map[string]int, label, id string, props map[string]any) {
		if i, ok := seen[id]; ok {
			// Same identity twice: source is authoritative and single-pass,
			// so the later row's properties win.
			for k, v := range props {
				cs.Nodes[i].Props[k] = v
			}
			return
		}
		seen[id] = len(cs.Nodes)
		cs.Nodes = append(cs.Nodes, NodeDirective{Label: label, ID: id, Props: props})
	}

	seenNodes := make(map[string]int)

	for _, t := range cat.Tables {
		id := tableID(t.SchemaName, t.TableName)
		tables[id] = true
		addNode(seenNodes, LabelTable, id, map[string]any{
			"schema_name": t.SchemaName,
			"table_name":  t.TableName,
			"table_type":  t.TableType,
			"comment":     deref(t.Comment),
			"full_name":   id,
		})
	}

	for _, c := range cat.Columns {
		owner := tableID(c.SchemaName, c.TableName)
		if !tables[owner] {
			diag.OrphanedRows++
			continue
		}
		id := columnID(c.SchemaName, c.TableName, c.ColumnName)
		columns[id] = true
		addNode(seenNodes, LabelColumn, id, map[string]any{
			"schema_name":              c.SchemaName,
			"table_name":               c.TableName,
			"column_name":              c.ColumnName,
			"data_type":                c.DataType,
			"is_nullable":              c.IsNullable,
			"column_default":           deref(c.ColumnDefault),
			"ordinal_position":         c.OrdinalPosition,
			"character_maximum_length": derefInt(c.CharMaxLength),
			"numeric_precision":        derefInt(c.NumericPrecision),
			"numeric_scale":            derefInt(c.NumericScale),
			"comment":                  deref(c.Comment),
			"full_name":                id,
		})
		cs.Edges = append(cs.Edges, EdgeDirective{
			Type:      RelHasColumn,
			FromLabel: LabelTable, FromID: owner,
			ToLabel: LabelColumn, ToID: id,
		})
	}

	for _, con := range cat.Constraints {
		if !knownConstraintTypes[con.ConstraintType] {
			diag.UnclassifiedRows++
			continue
		}
		owner := tableID(con.SchemaName, con.TableName)
		if !tables[owner] {
			diag.OrphanedRows++
			continue
		}
		id := fmt.Sprintf("%s.%s.%s", con.SchemaName, con.TableName, con.ConstraintName)
		addNode(seenNodes, LabelConstraint, id, map[string]any{
			"schema_name":     con.SchemaName,
			"table_name":      con.TableName,
			"constraint_name": con.ConstraintName,
			"constraint_type": con.ConstraintType,
			"column_names":    con.ColumnNames,
			"check_clause":    deref(con.CheckClause),
			"full_name":       id,
		})
		cs.Edges = append(cs.Edges, EdgeDirective{
			Type:      RelHasConstraint,
			FromLabel: LabelTable, FromID: owner,
			ToLabel: LabelConstraint, ToID: id,
		})
		for i, colName := range con.ColumnNames {
			colID := columnID(con.SchemaName, con.TableName, colName)
			if !columns[colID] {
				diag.OrphanedRows++
				continue
			}
			cs.Edges = append(cs.Edges, EdgeDirective{
				Type:      RelAppliesTo,
				FromLabel: LabelConstraint, FromID: id,
				ToLabel: LabelColumn, ToID: colID,
				// Column order matters for composite keys; stored explicitly
				// rather than implied by iteration order.
				Props: map[string]any{"position": i + 1},
			})
		}
	}

	for _, idx := range cat.Indexes {
		owner := tableID(idx.SchemaName, idx.TableName)
		if !tables[owner] {
			diag.OrphanedRows++
			continue
		}
		id := fmt.Sprintf("%s.%s.%s", idx.SchemaName, idx.TableName, idx.IndexName)
		addNode(seenNodes, LabelIndex, id, map[string]any{
			"schema_name":  idx.SchemaName,
			"table_name":   idx.TableName,
			"index_name":   idx.IndexName,
			"is_unique":    idx.IsUnique,
			"is_primary":   idx.IsPrimary,
			"column_names": idx.ColumnNames,
			"index_type":   idx.IndexType,
			"full_name":    id,
		})
		cs.Edges = append(cs.Edges, EdgeDirective{
			Type:      RelHasIndex,
			FromLabel: LabelTable, FromID: owner,
			ToLabel: LabelIndex, ToID: id,
		})
		for i, colName := range idx.ColumnNames {
			colID := columnID(idx.SchemaName, idx.TableName, colName)
			if !columns[colID] {
				diag.OrphanedRows++
				continue
			}
			cs.Edges = append(cs.Edges, EdgeDirective{
				Type:      RelIndexes,
				FromLabel: LabelIndex, FromID: id,
				ToLabel: LabelColumn, ToID: colID,
				Props: map[string]any{"position": i + 1},
			})
		}
	}

	for _, fk := range cat.ForeignKeys {
		srcID := columnID(fk.SourceSchema, fk.SourceTable, fk.SourceColumn)
		dstID := columnID(fk.TargetSchema, fk.TargetTable, fk.TargetColumn)
		if !columns[srcID] || !columns[dstID] {
			// Dropped, not represented as a dangling edge.
			diag.UnresolvedReferences++
			continue
		}
		cs.Edges = append(cs.Edges, EdgeDirective{
			Type:      RelReferences,
			FromLabel: LabelColumn, FromID: srcID,
			ToLabel: LabelColumn, ToID: dstID,
			Props: map[string]any{
				"constraint_name": fk.ConstraintName,
				"match_option":    fk.MatchOption,
				"update_rule":     fk.UpdateRule,
				"delete_rule":     fk.DeleteRule,
			},
		})
	}

	return cs, diag
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func derefInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
