// Package schema describes the relational shape of every output table.
//
// The store derives its DDL and COPY column lists from these specs, so the
// column order here must match the order of the corresponding tabular view.
package schema

import (
	"fmt"
	"strings"
)

// FieldType represents the SQL type of a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldNumeric
	FieldDate
	FieldUUID
	FieldJSON
	FieldTimestamp
)

// SQL returns the PostgreSQL type name.
func (t FieldType) SQL() string {
	switch t {
	case FieldInt:
		return "INTEGER"
	case FieldNumeric:
		return "DOUBLE PRECISION"
	case FieldDate:
		return "DATE"
	case FieldUUID:
		return "UUID"
	case FieldJSON:
		return "JSONB"
	case FieldTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// FieldSpec defines one column.
type FieldSpec struct {
	Name     string    // Column name, identical to the view column
	Type     FieldType // SQL type
	Nullable bool      // Column accepts missing values
}

// TableSpec defines one table.
type TableSpec struct {
	Name   string
	Fields []FieldSpec
}

// Columns returns the field names in order.
func (t TableSpec) Columns() []string {
	cols := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		cols[i] = f.Name
	}
	return cols
}

// CreateSQL returns an idempotent CREATE TABLE statement. Output tables get
// a leading run_id column referencing RunsTable.
func (t TableSpec) CreateSQL() string {
	var defs []string
	if t.Name != RunsTable.Name {
		defs = append(defs, fmt.Sprintf("run_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE", RunsTable.Name))
	}
	for _, f := range t.Fields {
		def := f.Name + " " + f.Type.SQL()
		if !f.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	if t.Name == RunsTable.Name {
		defs = append(defs, "PRIMARY KEY (id)")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))
}
