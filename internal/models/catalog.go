package models

// Catalog records extracted from the source database's own metadata views.
// Field sets mirror information_schema / pg_catalog output; identity fields
// are catalog-stable so the mapped graph is identical across re-runs.

type TableRecord struct {
	SchemaName string  `json:"schema_name"`
	TableName  string  `json:"table_name"`
	TableType  string  `json:"table_type"`
	Comment    *string `json:"comment,omitempty"`
}

type ColumnRecord struct {
	SchemaName       string  `json:"schema_name"`
	TableName        string  `json:"table_name"`
	ColumnName       string  `json:"column_name"`
	DataType         string  `json:"data_type"`
	IsNullable       bool    `json:"is_nullable"`
	ColumnDefault    *string `json:"column_default,omitempty"`
	OrdinalPosition  int     `json:"ordinal_position"`
	CharMaxLength    *int    `json:"character_maximum_length,omitempty"`
	NumericPrecision *int    `json:"numeric_precision,omitempty"`
	NumericScale     *int    `json:"numeric_scale,omitempty"`
	Comment          *string `json:"comment,omitempty"`
}

type ForeignKeyRecord struct {
	ConstraintName string `json:"constraint_name"`
	SourceSchema   string `json:"source_schema"`
	SourceTable    string `json:"source_table"`
	SourceColumn   string `json:"source_column"`
	TargetSchema   string `json:"target_schema"`
	TargetTable    string `json:"target_table"`
	TargetColumn   string `json:"target_column"`
	MatchOption    string `json:"match_option"`
	UpdateRule     string `json:"update_rule"`
	DeleteRule     string `json:"delete_rule"`
}

type ConstraintRecord struct {
	ConstraintName string   `json:"constraint_name"`
	SchemaName     string   `json:"schema_name"`
	TableName      string   `json:"table_name"`
	ConstraintType string   `json:"constraint_type"`
	ColumnNames    []string `json:"column_names"`
	CheckClause    *string  `json:"check_clause,omitempty"`
}

type IndexRecord struct {
	SchemaName  string   `json:"schema_name"`
	TableName   string   `json:"table_name"`
	IndexName   string   `json:"index_name"`
	IsUnique    bool     `json:"is_unique"`
	IsPrimary   bool     `json:"is_primary"`
	ColumnNames []string `json:"column_names"`
	IndexType   string   `json:"index_type"`
}

// Catalog bundles one complete extraction. The reader fills it all-or-nothing;
// a partially populated Catalog is never returned.
type Catalog struct {
	Tables      []TableRecord
	Columns     []ColumnRecord
	ForeignKeys []ForeignKeyRecord
	Constraints []ConstraintRecord
	Indexes     []IndexRecord
}
