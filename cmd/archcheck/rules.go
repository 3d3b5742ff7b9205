package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/rules"
	"github.com/codewithboateng/archcheck/internal/rulesdsl"
)

func (a *app) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in checks instructions resolve to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHECK\tSEVERITY\tSUMMARY")
			for _, c := range rules.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Severity, c.Summary)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Load a rule file and show which check each instruction resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := rulesdsl.LoadFile(args[0])
			if err != nil {
				return fail(err)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GROUP\tPATTERN\tCHECK\tINSTRUCTION")
			unresolved := 0
			for _, g := range rs.Groups {
				for _, ins := range g.Instructions {
					id := "-"
					if c, ok := rules.Resolve(ins); ok {
						id = c.ID
					} else {
						unresolved++
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.Index, g.Pattern, id, ins)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d group(s) valid; %d instruction(s) without a check\n", len(rs.Groups), unresolved)
			return nil
		},
	})
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(a.stdout, "archcheck %s (report schema %s)\n", version, ir.Version)
		},
	}
}
