package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// binder collects bind values and hands out postgres placeholders in order.
type binder struct {
	args []any
}

func (b *binder) bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// expand replaces each ? in expr with the next placeholder. Extra question
// marks without a value are left as they are.
func (b *binder) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}

	var out strings.Builder
	next := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && next < len(values) {
			out.WriteString(b.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(expr[i])
	}
	return out.String()
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

// EqLiteral compares against an inlined, quoted string. Used for constant
// values such as the empty room id of the global scope.
func EqLiteral(column, value string) Condition {
	return exprCondition{expr: column + " = '" + strings.ReplaceAll(value, "'", "''") + "'"}
}

type exprCondition struct {
	expr   string
	values []any
}

// Expr is a raw condition; each ? is bound to the next value.
func Expr(expr string, values ...any) Condition {
	return exprCondition{expr: expr, values: values}
}

func (c exprCondition) render(b *binder) string {
	return b.expand(c.expr, c.values)
}

func renderWhere(conditions []Condition, b *binder) string {
	if len(conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		parts = append(parts, c.render(b))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

type SelectBuilder struct {
	columns   []string
	table     string
	where     []Condition
	groupBy   []string
	orderBy   []string
	limit     int
	forUpdate bool
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) GroupBy(parts ...string) *SelectBuilder {
	s.groupBy = append(s.groupBy, parts...)
	return s
}

func (s *SelectBuilder) OrderBy(parts ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, parts...)
	return s
}

// Limit caps the row count; zero or less means no limit.
func (s *SelectBuilder) Limit(limit int) *SelectBuilder {
	s.limit = limit
	return s
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func (s *SelectBuilder) ForUpdate() *SelectBuilder {
	s.forUpdate = true
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	if len(s.columns) == 0 {
		return "", nil, fmt.Errorf("select columns are required")
	}
	if strings.TrimSpace(s.table) == "" {
		return "", nil, fmt.Errorf("select table is required")
	}

	var b binder
	query := "SELECT " + strings.Join(s.columns, ", ") + " FROM " + s.table + renderWhere(s.where, &b)
	if len(s.groupBy) > 0 {
		query += " GROUP BY " + strings.Join(s.groupBy, ", ")
	}
	if len(s.orderBy) > 0 {
		query += " ORDER BY " + strings.Join(s.orderBy, ", ")
	}
	if s.limit > 0 {
		query += " LIMIT " + strconv.Itoa(s.limit)
	}
	if s.forUpdate {
		query += " FOR UPDATE"
	}
	return query, b.args, nil
}

type assignment struct {
	column string
	expr   string
	values []any
	raw    bool
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
	u.sets = append(u.sets, assignment{column: column, values: []any{value}})
	return u
}

// SetExpr assigns a raw expression such as "total_points + ?".
func (u *UpdateBuilder) SetExpr(column, expr string, values ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, expr: expr, values: values, raw: true})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(u.table) == "" {
		return "", nil, fmt.Errorf("update table is required")
	}
	if len(u.sets) == 0 {
		return "", nil, fmt.Errorf("update sets are required")
	}

	var b binder
	sets := make([]string, 0, len(u.sets))
	for _, a := range u.sets {
		if a.raw {
			sets = append(sets, a.column+" = "+b.expand(a.expr, a.values))
			continue
		}
		sets = append(sets, a.column+" = "+b.bind(a.values[0]))
	}
	return "UPDATE " + u.table + " SET " + strings.Join(sets, ", ") + renderWhere(u.where, &b), b.args, nil
}
