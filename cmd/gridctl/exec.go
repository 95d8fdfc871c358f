package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-datagrid/execution"
	"github.com/goliatone/go-datagrid/grid"
)

type execOptions struct {
	pool     string
	servers  bool
	region   string
	filter   []string
	members  []string
	groups   []string
	all      bool
	extract  bool
	noResult bool
	timeout  time.Duration
}

func execCmd(a *app) *cobra.Command {
	var o execOptions

	cmd := &cobra.Command{
		Use:   "exec <function> [args...]",
		Short: "Execute a registered function on a set of members",
		Long: `Execute a registered function. Without target flags the function runs on one server of
the default pool. Arguments are decoded as YAML scalars.

Built-in functions: echo, sum, member-id, count-local, keys-local.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fnArgs, err := parseArgs(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if o.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, o.timeout)
				defer cancel()
			}

			tmpl, run, err := a.resolveTemplate(o)
			if err != nil {
				return err
			}

			logger := a.container.Logger().With("execution", uuid.NewString())
			logger.Debug("executing function", "function", args[0], "target", tmpl.Target().String(), "args", len(fnArgs))

			switch {
			case o.noResult:
				// The process exits after RunE, so wait for members to finish and drop their results.
				collector := grid.NewDefaultResultCollector()
				if _, err := run.build(args[0], fnArgs).SetResultCollector(collector).Run(ctx, false); err != nil {
					return err
				}
				_, err = collector.Results(ctx)
				logger.Info("function dispatched", "function", args[0], "error", err)
				return err
			case o.extract:
				value, err := run.extract(ctx, args[0], fnArgs)
				if err != nil {
					return err
				}
				return printYAML(cmd, value)
			}

			results, err := run.all(ctx, args[0], fnArgs)
			if err != nil {
				return err
			}
			logger.Info("function executed", "function", args[0], "target", tmpl.Target().String(), "results", len(results))
			return printYAML(cmd, sorted(results))
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.pool, "pool", "", "pool to run on (default pool when empty)")
	f.BoolVar(&o.servers, "servers", false, "run on every server of the pool instead of one")
	f.StringVar(&o.region, "region", "", "run on the members hosting a region")
	f.StringSliceVar(&o.filter, "filter", nil, "region keys to restrict the execution to")
	f.StringSliceVar(&o.members, "members", nil, "member IDs to run on")
	f.StringSliceVar(&o.groups, "groups", nil, "member groups to run on")
	f.BoolVar(&o.all, "all", false, "run on every member")
	f.BoolVar(&o.extract, "extract", false, "print only the first result")
	f.BoolVar(&o.noResult, "no-result", false, "discard function results once members finish")
	f.DurationVar(&o.timeout, "timeout", 0, "overall deadline for the call")

	cmd.MarkFlagsMutuallyExclusive("region", "members", "all", "pool")
	cmd.MarkFlagsMutuallyExclusive("region", "groups", "all", "pool")
	cmd.MarkFlagsMutuallyExclusive("extract", "no-result")
	return cmd
}

// runner runs a function id through a template, with or without a region filter.
type runner struct {
	build   func(id string, args []any) *execution.FunctionExecution
	all     func(ctx context.Context, id string, args []any) ([]any, error)
	extract func(ctx context.Context, id string, args []any) (any, error)
}

func (a *app) resolveTemplate(o execOptions) (*execution.Template, runner, error) {
	if o.region != "" {
		rt, err := a.container.OnRegion(o.region)
		if err != nil {
			return nil, runner{}, err
		}
		var filter grid.KeySet
		if len(o.filter) > 0 {
			keys := make([]any, len(o.filter))
			for i, k := range o.filter {
				keys[i] = k
			}
			filter = grid.NewKeySet(keys...)
		}
		return rt.Template, runner{
			build: func(id string, args []any) *execution.FunctionExecution {
				return rt.NewExecution().SetFunctionID(id).SetFilter(filter).SetArguments(args...)
			},
			all: func(ctx context.Context, id string, args []any) ([]any, error) {
				return rt.ExecuteWithFilter(ctx, id, filter, args...)
			},
			extract: func(ctx context.Context, id string, args []any) (any, error) {
				return rt.ExecuteAndExtractWithFilter(ctx, id, filter, args...)
			},
		}, nil
	}

	var (
		tmpl *execution.Template
		err  error
	)
	switch {
	case len(o.members) > 0 || len(o.groups) > 0:
		tmpl, err = a.container.OnMembers(o.members, o.groups)
	case o.all:
		tmpl, err = a.container.OnAllMembers()
	case o.servers:
		tmpl, err = a.container.OnServers(o.pool)
	default:
		tmpl, err = a.container.OnServer(o.pool)
	}
	if err != nil {
		return nil, runner{}, err
	}
	return tmpl, runner{
		build: func(id string, args []any) *execution.FunctionExecution {
			return tmpl.NewExecution().SetFunctionID(id).SetArguments(args...)
		},
		all: func(ctx context.Context, id string, args []any) ([]any, error) {
			return tmpl.ExecuteByID(ctx, id, args...)
		},
		extract: func(ctx context.Context, id string, args []any) (any, error) {
			return tmpl.ExecuteAndExtractByID(ctx, id, args...)
		},
	}, nil
}
