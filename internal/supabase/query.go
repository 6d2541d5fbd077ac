package supabase

import (
	"fmt"
	"net/url"
	"strings"
)

// Query collects PostgREST query parameters: filters, select, order and limit.
type Query struct {
	values url.Values
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Eq adds a field=eq.value filter
func (q *Query) Eq(field string, value any) *Query {
	q.values.Add(field, "eq."+format(value))
	return q
}

// In adds a field=in.(a,b) filter. Values are quoted so commas survive.
func (q *Query) In(field string, values ...string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	q.values.Add(field, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// Select sets the column list, including embedded resources such as
// "*,teacher:users!teacher_id(name)"
func (q *Query) Select(columns string) *Query {
	q.values.Set("select", columns)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.values.Set("order", column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	q.values.Set("limit", fmt.Sprint(n))
	return q
}

// Encode returns the URL query string
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	return q.values.Encode()
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
