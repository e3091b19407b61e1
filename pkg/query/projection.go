// Package query provides SQL query building utilities with projection mapping.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps view property names to qualified column references
// (alias.column). It defines the table, alias, and column mappings for
// SQL query construction.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	columns    map[string]string
	columnList []string
	nullable   map[string]bool
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
// An empty schema produces unqualified table references (sqlite).
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:     schema,
		table:      table,
		alias:      alias,
		columns:    make(map[string]string),
		columnList: make([]string, 0),
		nullable:   make(map[string]bool),
	}
}

// Project adds a column mapping from database column to view property name.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	qualified := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns[viewName] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// ProjectNullable adds a column mapping for a nullable column. Sorting on a
// nullable column emits an explicit NULLS modifier so NULLs rank as the
// smallest value regardless of the backend's default.
func (p *ProjectionMap) ProjectNullable(column, viewName string) *ProjectionMap {
	p.Project(column, viewName)
	p.nullable[viewName] = true
	return p
}

// Nullable reports whether the view property name maps to a nullable column.
func (p *ProjectionMap) Nullable(viewName string) bool {
	return p.nullable[viewName]
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// From returns the FROM clause target: the qualified table with its alias.
func (p *ProjectionMap) From() string {
	if p.schema == "" {
		return fmt.Sprintf("%s %s", p.table, p.alias)
	}
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column returns the qualified column for a view property name, or the input if not mapped.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Has reports whether the view property name is mapped.
func (p *ProjectionMap) Has(viewName string) bool {
	_, ok := p.columns[viewName]
	return ok
}

// Columns returns all mapped columns as a comma-separated string.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}

// ColumnList returns all mapped columns as a slice.
func (p *ProjectionMap) ColumnList() []string {
	return p.columnList
}
