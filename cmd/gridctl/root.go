package main

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-datagrid/internal/logging"
	"github.com/goliatone/go-datagrid/pkg/config"
	"github.com/goliatone/go-datagrid/pkg/di"
)

type app struct {
	configPath string
	logLevel   string
	container  *di.Container
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gridctl",
		Short:         "Run functions and queries against a local data grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (env DATAGRID_* overrides apply)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		membersCmd(a),
		functionsCmd(a),
		execCmd(a),
		queryCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logging.SetLevelFromString(cfg.Log.Level)
	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Format)
	logging.SetLogger(logger)

	container, err := di.NewContainer(cfg, di.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := registerBuiltins(container); err != nil {
		return err
	}
	a.container = container
	return nil
}

// parseArgs decodes each CLI argument as a YAML scalar, so "42" is an int and "true" a bool.
func parseArgs(raw []string) ([]any, error) {
	out := make([]any, len(raw))
	for i, s := range raw {
		var v any
		if err := yaml.Unmarshal([]byte(s), &v); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("argument %d is not a valid value", i))
		}
		if v == nil {
			v = s
		}
		out[i] = v
	}
	return out, nil
}

func printYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// sorted orders results by their printed form. Members answer in no particular order.
func sorted(results []any) []any {
	out := append([]any(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}
