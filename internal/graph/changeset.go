package graph

// Node labels managed by the rebuild pipeline. The loader deletes and creates
// only these, so unrelated data sharing the store is never touched.
const (
	LabelTable      = "Table"
	LabelColumn     = "Column"
	LabelConstraint = "Constraint"
	LabelIndex      = "Index"
)

// Relationship types managed by the rebuild pipeline.
const (
	RelHasColumn     = "HAS_COLUMN"
	RelHasConstraint = "HAS_CONSTRAINT"
	RelHasIndex      = "HAS_INDEX"
	RelReferences    = "REFERENCES"
	RelAppliesTo     = "APPLIES_TO"
	RelIndexes       = "INDEXES"
)

// ManagedLabels lists node labels in load order: tables first so edge MATCHes
// during the load always find their endpoints.
var ManagedLabels = []string{LabelTable, LabelColumn, LabelConstraint, LabelIndex}

// ManagedRelTypes lists every relationship type the loader may create.
var ManagedRelTypes = []string{
	RelHasColumn, RelHasConstraint, RelHasIndex,
	RelReferences, RelAppliesTo, RelIndexes,
}

// NodeDirective is a node-creation instruction. ID is the dotted full name
// built from catalog-stable parts ("schema.table", "schema.table.column",
// "schema.table.name") and doubles as the node's identity property, so two
// rebuilds over the same catalog produce the same node set.
type NodeDirective struct {
	Label string
	ID    string
	Props map[string]any
}

// EdgeDirective is an edge-creation instruction between two node identities.
type EdgeDirective struct {
	Type      string
	FromLabel string
	FromID    string
	ToLabel   string
	ToID      string
	Props     map[string]any
}

// ChangeSet is the mapper's output and the loader's input.
type ChangeSet struct {
	Nodes []NodeDirective
	Edges []EdgeDirective
}

// NodesByLabel groups node directives preserving input order within a label.
func (cs *ChangeSet) NodesByLabel() map[string][]NodeDirective {
	out := make(map[string][]NodeDirective, len(ManagedLabels))
	for _, n := range cs.Nodes {
		out[n.Label] = append(out[n.Label], n)
	}
	return out
}

// EdgesByType groups edge directives preserving input order within a type.
func (cs *ChangeSet) EdgesByType() map[string][]EdgeDirective {
	out := make(map[string][]EdgeDirective, len(ManagedRelTypes))
	for _, e := range cs.Edges {
		out[e.Type] = append(out[e.Type], e)
	}
	return out
}
