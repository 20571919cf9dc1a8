package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"schema-graph/internal/models"
)

// ErrCatalogUnavailable is a source connection or metadata-view failure.
// Fatal to a rebuild; extraction is all-or-nothing per entity type and no
// partial catalog is ever returned.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// systemSchemas are excluded from every extract.
const systemSchemas = `('information_schema', 'pg_catalog', 'pg_toast')`

// CatalogRepository reads relational metadata from the source database's own
// system catalog. It never runs user-supplied SQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ReadAll performs one complete extraction. Any failure aborts the whole read.
func (r *CatalogRepository) ReadAll(ctx context.Context) (*models.Catalog, error) {
	if err := r.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	cat := &models.Catalog{}
	var err error

	if cat.Tables, err = r.GetTables(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading tables: %v", ErrCatalogUnavailable, err)
	}
	if cat.Columns, err = r.GetColumns(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading columns: %v", ErrCatalogUnavailable, err)
	}
	if cat.ForeignKeys, err = r.GetForeignKeys(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading foreign keys: %v", ErrCatalogUnavailable, err)
	}
	if cat.Constraints, err = r.GetConstraints(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading constraints: %v", ErrCatalogUnavailable, err)
	}
	if cat.Indexes, err = r.GetIndexes(ctx); err != nil {
		return nil, fmt.Errorf("%w: reading indexes: %v", ErrCatalogUnavailable, err)
	}

	log.Printf("Extracted catalog: %d tables, %d columns, %d foreign keys, %d constraints, %d indexes",
		len(cat.Tables), len(cat.Columns), len(cat.ForeignKeys), len(cat.Constraints), len(cat.Indexes))
	return cat, nil
}

// GetTables returns every user table and view with its comment.
func (r *CatalogRepository) GetTables(ctx context.Context) ([]models.TableRecord, error) {
	query := `
		SELECT
			t.table_schema,
			t.table_name,
			t.table_type,
			obj_description(pgc.oid) AS comment
		FROM information_schema.tables t
		LEFT JOIN pg_catalog.pg_namespace pgn ON pgn.nspname = t.table_schema
		LEFT JOIN pg_catalog.pg_class pgc
			ON pgc.relname = t.table_name AND pgc.relnamespace = pgn.oid
		WHERE t.table_schema NOT IN ` + systemSchemas + `
		ORDER BY t.table_schema, t.table_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []models.TableRecord
	for rows.Next() {
		var t models.TableRecord
		if err := rows.Scan(&t.SchemaName, &t.TableName, &t.TableType, &t.Comment); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// GetColumns returns every column ordered by table and ordinal position.
func (r *CatalogRepository) GetColumns(ctx context.Context) ([]models.ColumnRecord, error) {
	query := `
		SELECT
			c.table_schema,
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS is_nullable,
			c.column_default,
			c.ordinal_position,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			col_description(pgc.oid, c.ordinal_position) AS comment
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_namespace pgn ON pgn.nspname = c.table_schema
		LEFT JOIN pg_catalog.pg_class pgc
			ON pgc.relname = c.table_name AND pgc.relnamespace = pgn.oid
		WHERE c.table_schema NOT IN ` + systemSchemas + `
		ORDER BY c.table_schema, c.table_name, c.ordinal_position
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []models.ColumnRecord
	for rows.Next() {
		var c models.ColumnRecord
		if err := rows.Scan(
			&c.SchemaName, &c.TableName, &c.ColumnName, &c.DataType,
			&c.IsNullable, &c.ColumnDefault, &c.OrdinalPosition,
			&c.CharMaxLength, &c.NumericPrecision, &c.NumericScale, &c.Comment,
		); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetForeignKeys returns every foreign-key column pair with its rules.
func (r *CatalogRepository) GetForeignKeys(ctx context.Context) ([]models.ForeignKeyRecord, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.table_schema AS source_schema,
			tc.table_name AS source_table,
			kcu.column_name AS source_column,
			ccu.table_schema AS target_schema,
			ccu.table_name AS target_table,
			ccu.column_name AS target_column,
			rc.match_option,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints AS rc
			ON tc.constraint_name = rc.constraint_name
			AND tc.table_schema = rc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema NOT IN ` + systemSchemas + `
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []models.ForeignKeyRecord
	for rows.Next() {
		var fk models.ForeignKeyRecord
		if err := rows.Scan(
			&fk.ConstraintName, &fk.SourceSchema, &fk.SourceTable, &fk.SourceColumn,
			&fk.TargetSchema, &fk.TargetTable, &fk.TargetColumn,
			&fk.MatchOption, &fk.UpdateRule, &fk.DeleteRule,
		); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// GetConstraints returns every table constraint with its ordered column list.
func (r *CatalogRepository) GetConstraints(ctx context.Context) ([]models.ConstraintRecord, error) {
	query := `
		SELECT
			tc.constraint_name,
			tc.table_schema,
			tc.table_name,
			tc.constraint_type,
			COALESCE(
				array_agg(kcu.column_name ORDER BY kcu.ordinal_position)
					FILTER (WHERE kcu.column_name IS NOT NULL),
				'{}'
			) AS column_names,
			cc.check_clause
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		LEFT JOIN information_schema.check_constraints cc
			ON tc.constraint_name = cc.constraint_name
			AND tc.table_schema = cc.constraint_schema
		WHERE tc.table_schema NOT IN ` + systemSchemas + `
		GROUP BY tc.constraint_name, tc.table_schema, tc.table_name,
			tc.constraint_type, cc.check_clause
		ORDER BY tc.table_schema, tc.table_name, tc.constraint_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var constraints []models.ConstraintRecord
	for rows.Next() {
		var con models.ConstraintRecord
		if err := rows.Scan(
			&con.ConstraintName, &con.SchemaName, &con.TableName,
			&con.ConstraintType, &con.ColumnNames, &con.CheckClause,
		); err != nil {
			return nil, err
		}
		constraints = append(constraints, con)
	}
	return constraints, rows.Err()
}

// GetIndexes returns every index with its flags, method, and ordered columns.
func (r *CatalogRepository) GetIndexes(ctx context.Context) ([]models.IndexRecord, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			t.relname AS table_name,
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			ix.indisprimary AS is_primary,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS column_names,
			am.amname AS index_type
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_catalog.pg_am am ON am.oid = i.relam
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname NOT IN ` + systemSchemas + `
		GROUP BY n.nspname, t.relname, i.relname, ix.indisunique,
			ix.indisprimary, am.amname
		ORDER BY n.nspname, t.relname, i.relname
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []models.IndexRecord
	for rows.Next() {
		var idx models.IndexRecord
		if err := rows.Scan(
			&idx.SchemaName, &idx.TableName, &idx.IndexName,
			&idx.IsUnique, &idx.IsPrimary, &idx.ColumnNames, &idx.IndexType,
		); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}
