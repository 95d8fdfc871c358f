package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-datagrid/query"
)

func queryCmd(a *app) *cobra.Command {
	var (
		name    string
		region  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "query <oql> [args...]",
		Short: "Run an OQL query against the grid",
		Long: `Run an OQL SELECT against a region. Bind arguments ($1, $2, ...) are decoded as YAML
scalars. Results are cached per method name and arguments unless --no-cache is set.`,
		Example: `  gridctl query 'SELECT * FROM /Orders WHERE status = $1' open`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bind, err := parseArgs(args[1:])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			method := &query.Method{Name: name, Region: region}
			exec := a.container.QueryExecutor()
			if noCache {
				exec = query.NewTemplateExecutor(a.container.Cluster().QueryService())
			}

			results, err := exec.Execute(ctx, method, args[0], bind...)
			if err != nil {
				return err
			}
			return printYAML(cmd, results)
		},
	}

	cmd.Flags().StringVar(&name, "name", "gridctl.query", "method name used for cache keys and logs")
	cmd.Flags().StringVar(&region, "region", "", "region the method belongs to")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the query cache")
	return cmd
}
