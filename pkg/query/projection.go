// Package query builds parameterized SELECT statements over a projection of
// one table.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to alias-qualified columns of one
// table. Only projected fields can be filtered or sorted on.
type ProjectionMap struct {
	table   string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjectionMap creates a ProjectionMap over schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		table:   fmt.Sprintf("%s.%s %s", schema, table, alias),
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column to the logical field name. Projection order is the
// SELECT column order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Table returns "schema.table alias".
func (p *ProjectionMap) Table() string {
	return p.table
}

// Column returns the qualified column of field.
func (p *ProjectionMap) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

// Columns returns the projected columns as a SELECT list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}

func (p *ProjectionMap) mustColumn(field string) string {
	col, ok := p.columns[field]
	if !ok {
		panic(fmt.Sprintf("query: field %q is not projected on %s", field, p.table))
	}
	return col
}
