package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func membersCmd(a *app) *cobra.Command {
	var serversOnly bool

	cmd := &cobra.Command{
		Use:   "members",
		Short: "List the members of the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSERVER\tGROUPS")
			for _, m := range a.container.Cluster().Members() {
				if serversOnly && !m.Server {
					continue
				}
				groups := strings.Join(m.Groups, ",")
				if groups == "" {
					groups = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", m.ID, m.Name, m.Server, groups)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&serversOnly, "servers", false, "only list server members")
	return cmd
}

func functionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the registered functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, id := range a.container.Cluster().Functions() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
