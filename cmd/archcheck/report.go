package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/reporting"
)

func (a *app) reportCmd() *cobra.Command {
	var (
		runID  string
		format string
		outDir string
		dbDSN  string
		list   bool
		limit  int
		minSev string
		prune  int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a stored run (latest by default) or list stored runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbDSN == "" {
				dbDSN = a.cfg.Database.DSN
			}
			if dbDSN == "" {
				return fail(fmt.Errorf("report: --db (or database.dsn in config) is required"))
			}
			if format == "" {
				format = a.cfg.Reporting.Format
			}
			format = strings.ToLower(format)
			if err := validateFormat(format); err != nil {
				return fail(err)
			}

			db, err := openDB(dbDSN)
			if err != nil {
				return fail(err)
			}
			defer db.Close()

			if prune > 0 {
				n, err := db.PruneRuns(prune)
				if err != nil {
					return fail(err)
				}
				fmt.Fprintf(a.stdout, "pruned %d run(s)\n", n)
				return nil
			}

			if list {
				rows, err := db.ListRuns(limit, 0)
				if err != nil {
					return fail(err)
				}
				tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN\tSTARTED\tFILES\tVIOLATIONS\tRULES")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format(time.RFC3339), r.Files, r.Violations, r.RuleSource)
				}
				return tw.Flush()
			}

			if minSev != "" {
				if runID == "" {
					return fail(fmt.Errorf("report: --min-severity needs --run"))
				}
				vs, err := db.ListViolations(runID, strings.ToUpper(minSev))
				if err != nil {
					return fail(err)
				}
				for _, v := range vs {
					fmt.Fprintln(a.stdout, reporting.FormatViolation(v))
				}
				return nil
			}

			var rep ir.Report
			if runID == "" {
				rep, err = db.LoadLatestRun()
			} else {
				rep, err = db.LoadRun(runID)
			}
			if err != nil {
				return fail(err)
			}
			return fail(a.emit(&rep, format, outDir))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&runID, "run", "", "Run ID (default: latest)")
	fl.StringVar(&format, "format", "", "Output format: text|json|html|sarif")
	fl.StringVar(&outDir, "out", "", "Write the report to this directory instead of stdout")
	fl.StringVar(&dbDSN, "db", "", "SQLite database path")
	fl.BoolVar(&list, "list", false, "List stored runs instead of rendering one")
	fl.IntVar(&limit, "limit", 20, "Rows shown by --list")
	fl.StringVar(&minSev, "min-severity", "", "Only print stored violations at or above LOW|MEDIUM|HIGH (needs --run)")
	fl.IntVar(&prune, "prune", 0, "Delete all but the newest N runs")
	return cmd
}

func (a *app) diffCmd() *cobra.Command {
	var (
		base, head string
		outDir     string
		dbDSN      string
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the violations of two stored runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outDir == "" {
				outDir = a.cfg.Reporting.OutDir
			}
			if dbDSN == "" {
				dbDSN = a.cfg.Database.DSN
			}
			if base == "" || head == "" {
				return fail(fmt.Errorf("diff: --base and --head are required"))
			}
			if dbDSN == "" {
				return fail(fmt.Errorf("diff: --db (or database.dsn in config) is required"))
			}
			db, err := openDB(dbDSN)
			if err != nil {
				return fail(err)
			}
			defer db.Close()

			for _, id := range []string{base, head} {
				ok, err := db.HasRun(id)
				if err != nil {
					return fail(err)
				}
				if !ok {
					return fail(fmt.Errorf("diff: no stored run %q", id))
				}
			}

			br, err := db.LoadRun(base)
			if err != nil {
				return fail(fmt.Errorf("load base run: %w", err))
			}
			hr, err := db.LoadRun(head)
			if err != nil {
				return fail(fmt.Errorf("load head run: %w", err))
			}
			path, d, err := reporting.WriteDiffJSON(outDir, &br, &hr)
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.stdout, "new: %d  removed: %d  changed: %d\n", d.Summary.NewCount, d.Summary.RemovedCount, d.Summary.ChangedCount)
			fmt.Fprintf(a.stderr, "report: %s\n", path)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&base, "base", "", "Base run ID")
	fl.StringVar(&head, "head", "", "Head run ID")
	fl.StringVar(&outDir, "out", "", "Output directory")
	fl.StringVar(&dbDSN, "db", "", "SQLite database path")
	return cmd
}
