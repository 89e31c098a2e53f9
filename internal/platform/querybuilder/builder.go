// Package querybuilder renders the small set of PostgreSQL statements the
// repositories need, with $n placeholders numbered in argument order.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// binder collects arguments and hands out their placeholders.
type binder struct {
	args []any
}

func (b *binder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

type Condition interface {
	render(b *binder) string
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) render(b *binder) string {
	return c.column + " = " + b.bind(c.value)
}

type inCondition struct {
	column string
	values []any
}

// In matches nothing when values is empty.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

// InStrings is In for string slices, the common case for external ids.
func InStrings(column string, values []string) Condition {
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return In(column, items)
}

func (c inCondition) render(b *binder) string {
	if len(c.values) == 0 {
		return "1=0"
	}
	placeholders := make([]string, 0, len(c.values))
	for _, v := range c.values {
		placeholders = append(placeholders, b.bind(v))
	}
	return c.column + " IN (" + strings.Join(placeholders, ", ") + ")"
}

func renderWhere(sql *strings.Builder, b *binder, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			sql.WriteString(" WHERE ")
		} else {
			sql.WriteString(" AND ")
		}
		sql.WriteString(c.render(b))
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	joins   []string
	where   []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

// Join appends a raw join clause, e.g. "JOIN matches m ON m.external_id = p.match_external_id".
func (s *SelectBuilder) Join(clause string) *SelectBuilder {
	if clause = strings.TrimSpace(clause); clause != "" {
		s.joins = append(s.joins, clause)
	}
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, parts...)
	return s
}

func (s *SelectBuilder) Limit(limit int) *SelectBuilder {
	s.limit = limit
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	switch {
	case len(s.columns) == 0:
		return "", nil, fmt.Errorf("select columns are required")
	case strings.TrimSpace(s.table) == "":
		return "", nil, fmt.Errorf("select table is required")
	}

	var (
		sql strings.Builder
		b   binder
	)
	fmt.Fprintf(&sql, "SELECT %s FROM %s", strings.Join(s.columns, ", "), s.table)
	for _, join := range s.joins {
		sql.WriteString(" " + join)
	}
	renderWhere(&sql, &b, s.where)
	if len(s.orderBy) > 0 {
		sql.WriteString(" ORDER BY " + strings.Join(s.orderBy, ", "))
	}
	if s.limit > 0 {
		sql.WriteString(" LIMIT " + strconv.Itoa(s.limit))
	}
	return sql.String(), b.args, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append([]string(nil), columns...)
	return i
}

func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.rows = append(i.rows, append([]any(nil), values...))
	return i
}

// Suffix is appended verbatim, typically an ON CONFLICT clause.
func (i *InsertBuilder) Suffix(sql string) *InsertBuilder {
	i.suffix = strings.TrimSpace(sql)
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(i.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(i.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(i.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	var b binder
	tuples := make([]string, 0, len(i.rows))
	for n, row := range i.rows {
		if len(row) != len(i.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", n, len(row), len(i.columns))
		}
		placeholders := make([]string, 0, len(row))
		for _, v := range row {
			placeholders = append(placeholders, b.bind(v))
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", i.table, strings.Join(i.columns, ", "), strings.Join(tuples, ", "))
	if i.suffix != "" {
		sql += " " + i.suffix
	}
	return sql, b.args, nil
}

type assignment struct {
	column string
	value  any
	raw    string
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, value: value})
	return u
}

// SetRaw assigns an SQL expression such as NOW() without binding it.
func (u *UpdateBuilder) SetRaw(column, expr string) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, raw: expr})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(u.table) == "":
		return "", nil, fmt.Errorf("update table is required")
	case len(u.sets) == 0:
		return "", nil, fmt.Errorf("update sets are required")
	}

	var (
		sql strings.Builder
		b   binder
	)
	sets := make([]string, 0, len(u.sets))
	for _, s := range u.sets {
		if s.raw != "" {
			sets = append(sets, s.column+" = "+s.raw)
			continue
		}
		sets = append(sets, s.column+" = "+b.bind(s.value))
	}
	fmt.Fprintf(&sql, "UPDATE %s SET %s", u.table, strings.Join(sets, ", "))
	renderWhere(&sql, &b, u.where)
	return sql.String(), b.args, nil
}
