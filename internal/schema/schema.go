// Package schema reads table and column metadata used as prompt context.
package schema

import "context"

// Table is one user table.
type Table struct {
	Name   string
	Schema string
	// Kind is the information_schema table_type, e.g. "BASE TABLE".
	Kind string
	// ApproxRows is derived from pg_stat_user_tables counters; 0 when unknown.
	ApproxRows int64
}

// QualifiedName returns schema.name.
func (t Table) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// Column describes one column of a table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	Default    string
	PrimaryKey bool
	ForeignKey bool
	FKTable    string
	FKColumn   string
}

// TableDetails is the column and index layout of a table.
type TableDetails struct {
	Name    string
	Schema  string
	Columns []Column
	// Indexes holds index definitions (pg_indexes.indexdef).
	Indexes []string
}

// Introspector lists tables and describes them.
type Introspector interface {
	ListTables(ctx context.Context) ([]Table, error)
	DescribeTable(ctx context.Context, name, schema string) (TableDetails, error)
}
