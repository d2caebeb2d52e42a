// Package querybuilder renders the handful of statement shapes the postgres
// store needs, numbering $n placeholders across every clause.
package querybuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text and positional arguments.
type sqlWriter struct {
	buf  strings.Builder
	args []any
}

func (w *sqlWriter) write(parts ...string) {
	for _, p := range parts {
		w.buf.WriteString(p)
	}
}

func (w *sqlWriter) bind(v any) {
	w.args = append(w.args, v)
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(len(w.args)))
}

// expand replaces each '?' in expr with the next bound argument. Extra '?'
// without a matching argument stay literal.
func (w *sqlWriter) expand(expr string, args []any) {
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(args) {
			w.bind(args[next])
			next++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

func (w *sqlWriter) where(conds []Condition) {
	for i, c := range conds {
		if i == 0 {
			w.write(" WHERE ")
		} else {
			w.write(" AND ")
		}
		c.render(w)
	}
}

func (w *sqlWriter) result() (string, []any, error) {
	return w.buf.String(), w.args, nil
}

// Condition is one AND-ed predicate of a WHERE clause.
type Condition interface {
	render(w *sqlWriter)
}

type conditionFunc func(w *sqlWriter)

func (f conditionFunc) render(w *sqlWriter) { f(w) }

func Eq(column string, value any) Condition {
	return conditionFunc(func(w *sqlWriter) {
		w.write(column, " = ")
		w.bind(value)
	})
}

// In renders an always-false predicate for an empty set.
func In(column string, values []any) Condition {
	return conditionFunc(func(w *sqlWriter) {
		if len(values) == 0 {
			w.write("1=0")
			return
		}
		w.write(column, " IN (")
		for i, v := range values {
			if i > 0 {
				w.write(", ")
			}
			w.bind(v)
		}
		w.write(")")
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(w *sqlWriter) { w.write(column, " IS NULL") })
}

// Expr is a raw predicate using '?' for its arguments.
func Expr(expr string, args ...any) Condition {
	return conditionFunc(func(w *sqlWriter) { w.expand(expr, args) })
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	orderBy   []string
	limit     int
	forUpdate bool
	suffix    string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, parts...)
	return b
}

// Limit ignores non-positive values.
func (b *SelectBuilder) Limit(limit int) *SelectBuilder {
	b.limit = limit
	return b
}

// ForUpdate row-locks the selected rows until the transaction ends.
func (b *SelectBuilder) ForUpdate() *SelectBuilder {
	b.forUpdate = true
	return b
}

// Suffix appends raw SQL after every other clause.
func (b *SelectBuilder) Suffix(sql string) *SelectBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 {
		return "", nil, errors.New("select columns are required")
	}
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("select table is required")
	}

	var w sqlWriter
	w.write("SELECT ", strings.Join(b.columns, ", "), " FROM ", b.table)
	w.where(b.where)
	if len(b.orderBy) > 0 {
		w.write(" ORDER BY ", strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		w.write(" LIMIT ", strconv.Itoa(b.limit))
	}
	if b.forUpdate {
		w.write(" FOR UPDATE")
	}
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
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

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Values adds one row; call it repeatedly for a multi-row insert.
func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

// Suffix carries ON CONFLICT / RETURNING clauses.
func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, errors.New("insert table is required")
	case len(b.columns) == 0:
		return "", nil, errors.New("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, errors.New("insert values are required")
	}

	var w sqlWriter
	w.write("INSERT INTO ", b.table, " (", strings.Join(b.columns, ", "), ") VALUES ")
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, expected %d", i, len(row), len(b.columns))
		}
		if i > 0 {
			w.write(", ")
		}
		w.write("(")
		for j, v := range row {
			if j > 0 {
				w.write(", ")
			}
			w.bind(v)
		}
		w.write(")")
	}
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

type assignment struct {
	column string
	value  any
	expr   string
	isExpr bool
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, value: value})
	return b
}

// SetExpr assigns a raw expression such as "version + 1" or "NOW()".
func (b *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	b.sets = append(b.sets, assignment{column: column, expr: expr, value: args, isExpr: true})
	return b
}

func (b *UpdateBuilder) Where(conds ...Condition) *UpdateBuilder {
	b.where = append(b.where, conds...)
	return b
}

func (b *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("update table is required")
	}
	if len(b.sets) == 0 {
		return "", nil, errors.New("update sets are required")
	}

	var w sqlWriter
	w.write("UPDATE ", b.table, " SET ")
	for i, s := range b.sets {
		if i > 0 {
			w.write(", ")
		}
		w.write(s.column, " = ")
		if s.isExpr {
			args, _ := s.value.([]any)
			w.expand(s.expr, args)
			continue
		}
		w.bind(s.value)
	}
	w.where(b.where)
	if b.suffix != "" {
		w.write(" ", b.suffix)
	}
	return w.result()
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conds ...Condition) *DeleteBuilder {
	b.where = append(b.where, conds...)
	return b
}

// ToSQL refuses to render a DELETE without a WHERE clause.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, errors.New("delete table is required")
	}
	if len(b.where) == 0 {
		return "", nil, errors.New("delete without where is not allowed")
	}

	var w sqlWriter
	w.write("DELETE FROM ", b.table)
	w.where(b.where)
	return w.result()
}
