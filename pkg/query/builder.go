package query

import (
	"fmt"
	"reflect"
	"strings"
)

// SortField is one term of an ORDER BY clause, named by logical field.
type SortField struct {
	Field      string
	Descending bool
}

// params numbers placeholders in the order arguments are bound.
type params struct {
	args []any
}

func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// condition renders one WHERE term, binding its arguments to p.
type condition func(p *params) string

// Builder composes a filtered, ordered query over a projection. Where methods
// panic on fields that are not projected; sort fields that are not projected
// are ignored, since they arrive from callers.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
	tiebreak    string
}

// NewBuilder creates a Builder for projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses a comma-separated sort string such as
// "PatientName,-UpdatedAt". A "-" prefix sorts descending. Returns nil for
// empty input.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	fields := make([]SortField, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// OrderByFields sets the sort order, replacing the default sort.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// Tiebreak appends field ascending to every ORDER BY so that pages are stable
// when sort keys repeat.
func (b *Builder) Tiebreak(field string) *Builder {
	b.tiebreak = b.projection.mustColumn(field)
	return b
}

// WhereContains adds a case-insensitive substring match. No-op for nil or
// empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.WhereSearch(value, field)
}

// WhereEquals adds an equality match. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.mustColumn(field)
	v := deref(value)
	b.conditions = append(b.conditions, func(p *params) string {
		return col + " = " + p.bind(v)
	})
	return b
}

// WhereAtLeast adds a lower bound. No-op for nil values.
func (b *Builder) WhereAtLeast(field string, value *int) *Builder {
	if value == nil {
		return b
	}
	col := b.projection.mustColumn(field)
	v := *value
	b.conditions = append(b.conditions, func(p *params) string {
		return col + " >= " + p.bind(v)
	})
	return b
}

// WhereSearch matches search case-insensitively against any of fields.
// No-op for nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = b.projection.mustColumn(f)
	}
	pattern := "%" + escapeLike(*search) + "%"

	b.conditions = append(b.conditions, func(p *params) string {
		terms := make([]string, len(cols))
		for i, col := range cols {
			terms[i] = col + " ILIKE " + p.bind(pattern)
		}
		return "(" + strings.Join(terms, " OR ") + ")"
	})
	return b
}

// BuildCount returns a COUNT(*) query over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	var p params
	where := b.where(&p)
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.Table(), where), p.args
}

// BuildPage returns the SELECT of page (1-based) with pageSize rows.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	var p params
	where := b.where(&p)

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.Table(),
		where,
		b.order(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, p.args
}

// BuildSingle returns the SELECT of the row whose idField equals id.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	var p params
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s",
		b.projection.Columns(),
		b.projection.Table(),
		b.projection.mustColumn(idField),
		p.bind(id),
	)
	return sql, p.args
}

func (b *Builder) where(p *params) string {
	if len(b.conditions) == 0 {
		return ""
	}
	terms := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		terms[i] = c(p)
	}
	return " WHERE " + strings.Join(terms, " AND ")
}

func (b *Builder) order() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	terms := make([]string, 0, len(fields)+1)
	tiebreak := b.tiebreak
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		if col == tiebreak {
			tiebreak = ""
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	if tiebreak != "" {
		terms = append(terms, tiebreak+" ASC")
	}

	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// deref binds the pointed-to value so drivers never see a pointer.
func deref(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Pointer {
		return v.Elem().Interface()
	}
	return value
}
