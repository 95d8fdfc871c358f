package localgrid

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
)

// selectPattern matches SELECT * FROM /Region [WHERE field = value] [LIMIT n].
// value is a $n bind parameter, a quoted string, or a number.
var selectPattern = regexp.MustCompile(
	`(?i)^\s*SELECT\s+\*\s+FROM\s+/?([A-Za-z_][\w-]*)` +
		`(?:\s+WHERE\s+([A-Za-z_]\w*)\s*=\s*(\$\d+|'[^']*'|-?\d+(?:\.\d+)?))?` +
		`(?:\s+LIMIT\s+(\d+))?\s*;?\s*$`)

// QueryService runs the supported OQL subset against cluster regions.
type QueryService struct {
	cluster *Cluster
}

var _ grid.QueryService = (*QueryService)(nil)

type selectQuery struct {
	region string
	field  string
	value  string
	// limit is -1 when the query has no LIMIT clause.
	limit  int
}

// Execute runs query. Shapes outside the supported subset return grid.ErrUnsupportedQuery.
func (s *QueryService) Execute(ctx context.Context, query string, args ...any) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q, ok := parseSelect(query)
	if !ok {
		return nil, detailed(grid.ErrUnsupportedQuery, "query shape is not supported by the local grid",
			map[string]any{"query": query})
	}

	region, err := s.cluster.Region(q.region)
	if err != nil {
		return nil, err
	}

	var want any
	if q.field != "" {
		if want, err = bindValue(q.value, args); err != nil {
			return nil, err
		}
	}

	results := make([]any, 0)
	if q.limit == 0 {
		return results, nil
	}
	for _, key := range region.Keys() {
		value, ok := region.Get(key)
		if !ok {
			continue
		}
		if q.field != "" {
			got, found := fieldValue(value, q.field)
			if !found || !looselyEqual(got, want) {
				continue
			}
		}
		results = append(results, value)
		if len(results) == q.limit {
			break
		}
	}
	return results, nil
}

func parseSelect(query string) (selectQuery, bool) {
	m := selectPattern.FindStringSubmatch(query)
	if m == nil {
		return selectQuery{}, false
	}
	q := selectQuery{region: m[1], field: m[2], value: m[3], limit: -1}
	if m[4] != "" {
		limit, err := strconv.Atoi(m[4])
		if err != nil {
			return selectQuery{}, false
		}
		q.limit = limit
	}
	return q, true
}

func bindValue(token string, args []any) (any, error) {
	switch {
	case strings.HasPrefix(token, "$"):
		n, _ := strconv.Atoi(token[1:])
		if n < 1 || n > len(args) {
			return nil, errors.New(fmt.Sprintf("bind parameter %s has no argument", token), errors.CategoryBadInput).
				WithTextCode("MISSING_QUERY_ARGUMENT").
				WithMetadata(map[string]any{"parameter": token, "args": len(args)})
		}
		return args[n-1], nil
	case strings.HasPrefix(token, "'"):
		return strings.Trim(token, "'"), nil
	default:
		return token, nil
	}
}

// fieldValue reads field from a map or struct value. Struct fields match case-insensitively.
func fieldValue(value any, field string) (any, bool) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if strings.EqualFold(iter.Key().String(), field) {
				return iter.Value().Interface(), true
			}
		}
	case reflect.Struct:
		f := rv.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, field) })
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
	}
	return nil, false
}

func looselyEqual(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}
