package schema

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBConfig holds connection settings for the schema database.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL through the pgx stdlib driver and pings it.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open schema db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping schema db: %w", err)
	}
	return db, nil
}

// Postgres implements Introspector with read-only catalog queries.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const listTablesQuery = `
SELECT t.table_name, t.table_schema, t.table_type,
       COALESCE(s.n_tup_ins + s.n_tup_upd + s.n_tup_del, 0) AS estimated_rows
FROM information_schema.tables t
LEFT JOIN pg_stat_user_tables s
  ON t.table_name = s.relname AND t.table_schema = s.schemaname
WHERE t.table_schema NOT IN ('information_schema', 'pg_catalog')
  AND t.table_type = 'BASE TABLE'
ORDER BY t.table_schema, t.table_name`

// ListTables returns user base tables ordered by schema, then name.
func (p *Postgres) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := p.db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.Name, &t.Schema, &t.Kind, &t.ApproxRows); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

const describeColumnsQuery = `
SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
       pk.column_name IS NOT NULL AS is_primary_key,
       fk.column_name IS NOT NULL AS is_foreign_key,
       fk.foreign_table_name, fk.foreign_column_name
FROM information_schema.columns c
LEFT JOIN (
  SELECT kcu.column_name, kcu.table_name, kcu.table_schema
  FROM information_schema.table_constraints tc
  JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
  WHERE tc.constraint_type = 'PRIMARY KEY'
) pk ON c.column_name = pk.column_name AND c.table_name = pk.table_name AND c.table_schema = pk.table_schema
LEFT JOIN (
  SELECT kcu.column_name, kcu.table_name, kcu.table_schema,
         ccu.table_name AS foreign_table_name, ccu.column_name AS foreign_column_name
  FROM information_schema.table_constraints tc
  JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
  JOIN information_schema.constraint_column_usage ccu
    ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
  WHERE tc.constraint_type = 'FOREIGN KEY'
) fk ON c.column_name = fk.column_name AND c.table_name = fk.table_name AND c.table_schema = fk.table_schema
WHERE c.table_name = $1 AND c.table_schema = $2
ORDER BY c.ordinal_position`

const describeIndexesQuery = `
SELECT indexdef
FROM pg_indexes
WHERE tablename = $1 AND schemaname = $2
ORDER BY indexname`

// DescribeTable returns the columns (in ordinal order) and index definitions
// of schema.name.
func (p *Postgres) DescribeTable(ctx context.Context, name, schema string) (TableDetails, error) {
	columns, err := p.columns(ctx, name, schema)
	if err != nil {
		return TableDetails{}, fmt.Errorf("describe %s.%s: %w", schema, name, err)
	}
	indexes, err := p.indexes(ctx, name, schema)
	if err != nil {
		return TableDetails{}, fmt.Errorf("describe %s.%s: %w", schema, name, err)
	}
	return TableDetails{Name: name, Schema: schema, Columns: columns, Indexes: indexes}, nil
}

func (p *Postgres) columns(ctx context.Context, name, schema string) ([]Column, error) {
	rows, err := p.db.QueryContext(ctx, describeColumnsQuery, name, schema)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			c                   Column
			nullable            string
			def, fkTable, fkCol sql.NullString
		)
		if err := rows.Scan(&c.Name, &c.Type, &nullable, &def, &c.PrimaryKey, &c.ForeignKey, &fkTable, &fkCol); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		c.Nullable = nullable == "YES"
		c.Default = def.String
		c.FKTable = fkTable.String
		c.FKColumn = fkCol.String
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return columns, nil
}

func (p *Postgres) indexes(ctx context.Context, name, schema string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, describeIndexesQuery, name, schema)
	if err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []string
	for rows.Next() {
		var def string
		if err := rows.Scan(&def); err != nil {
			return nil, fmt.Errorf("scan index: %w", err)
		}
		indexes = append(indexes, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indexes: %w", err)
	}
	return indexes, nil
}
