package main

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/pkg/di"
)

// echoFunction sends the caller's arguments back from every member it runs on.
type echoFunction struct{}

func (echoFunction) ID() string      { return "echo" }
func (echoFunction) HasResult() bool { return true }

func (echoFunction) Execute(fc grid.FunctionContext) error {
	return fc.ResultSender().LastResult(fc.Arguments())
}

// sumFunction adds up its numeric arguments on every member it runs on.
type sumFunction struct{}

func (sumFunction) ID() string      { return "sum" }
func (sumFunction) HasResult() bool { return true }

func (sumFunction) Execute(fc grid.FunctionContext) error {
	args, _ := fc.Arguments().([]any)
	var total float64
	for _, v := range args {
		n, ok := toFloat(v)
		if !ok {
			return errors.New(fmt.Sprintf("sum: %v is not a number", v), errors.CategoryBadInput).
				WithTextCode("NOT_A_NUMBER")
		}
		total += n
	}
	return fc.ResultSender().LastResult(total)
}

func registerBuiltins(c *di.Container) error {
	for _, fn := range []grid.Function{echoFunction{}, sumFunction{}} {
		if err := c.Cluster().RegisterFunction(fn); err != nil {
			return err
		}
	}

	builtins := []struct {
		id string
		fn any
	}{
		{"member-id", func(fc grid.FunctionContext) string {
			return string(fc.MemberID())
		}},
		{"count-local", func(data grid.RegionData) int {
			return len(data)
		}},
		{"keys-local", func(data grid.RegionData, filter grid.KeySet) []string {
			keys := make([]string, 0, len(data))
			for k := range data {
				if len(filter) > 0 && !filter.Contains(k) {
					continue
				}
				keys = append(keys, fmt.Sprint(k))
			}
			sort.Strings(keys)
			return keys
		}},
	}

	for _, b := range builtins {
		if _, err := c.RegisterFunction(b.id, b.fn); err != nil {
			return err
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
