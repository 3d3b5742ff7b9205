package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/pipeline"
	"github.com/codewithboateng/archcheck/internal/reporting"
	"github.com/codewithboateng/archcheck/internal/rules"
	"github.com/codewithboateng/archcheck/internal/storage"
)

type checkFlags struct {
	rules        string
	format       string
	outDir       string
	dbDSN        string
	minSeverity  string
	disable      []string
	exclude      []string
	workers      int
	maxFileLines int
}

func (f *checkFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.rules, "rules", "", "Rule file (default from config: .cursorrules)")
	fl.StringVar(&f.format, "format", "", "Output format: text|json|html|sarif")
	fl.StringVar(&f.outDir, "out", "", "Write the report to this directory instead of stdout")
	fl.StringVar(&f.dbDSN, "db", "", "SQLite database for run history and waivers")
	fl.StringVar(&f.minSeverity, "min-severity", "", "Lowest severity reported: LOW|MEDIUM|HIGH")
	fl.StringSliceVar(&f.disable, "disable", nil, "Check IDs to disable")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Extra glob patterns to skip")
	fl.IntVar(&f.workers, "workers", 0, "Worker pool size (0 = GOMAXPROCS)")
	fl.IntVar(&f.maxFileLines, "max-file-lines", 0, "Default limit for the max-file-lines check")
}

// resolve applies precedence: flags > config > defaults.
func (f *checkFlags) resolve(a *app) {
	if f.rules == "" {
		f.rules = a.cfg.Rules.Path
	}
	if f.format == "" {
		f.format = a.cfg.Reporting.Format
	}
	if f.dbDSN == "" {
		f.dbDSN = a.cfg.Database.DSN
	}
	if f.minSeverity == "" {
		f.minSeverity = a.cfg.Rules.MinSeverity
	}
	if len(f.disable) == 0 {
		f.disable = a.cfg.Rules.Disabled
	}
	f.exclude = append(append([]string{}, a.cfg.Analysis.Exclude...), f.exclude...)
	if f.workers == 0 {
		f.workers = a.cfg.Workers.PoolSize
	}
	if f.maxFileLines == 0 {
		f.maxFileLines = a.cfg.Rules.MaxFileLines
	}
	f.format = strings.ToLower(f.format)
	f.minSeverity = strings.ToUpper(f.minSeverity)
}

func validateFormat(format string) error {
	switch format {
	case "text", "json", "html", "sarif":
		return nil
	}
	return fmt.Errorf("unknown --format %q (text|json|html|sarif)", format)
}

func (f *checkFlags) validate() error {
	if err := validateFormat(f.format); err != nil {
		return err
	}
	switch f.minSeverity {
	case "LOW", "MEDIUM", "HIGH":
	default:
		return fmt.Errorf("unknown --min-severity %q (LOW|MEDIUM|HIGH)", f.minSeverity)
	}
	for _, id := range f.disable {
		if _, ok := rules.Get(id); !ok {
			return fmt.Errorf("unknown check %q in --disable", id)
		}
	}
	return nil
}

func (f *checkFlags) options(roots []string) pipeline.Options {
	return pipeline.Options{
		RulesPath: f.rules,
		Roots:     roots,
		Exclude:   f.exclude,
		Workers:   f.workers,
		Settings: rules.Settings{
			SeverityThreshold: f.minSeverity,
			Disabled:          rules.DisabledSet(f.disable),
			MaxFileLines:      f.maxFileLines,
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Check files against the rule set (exit 0 compliant, 1 violations, 2 usage error)",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.resolve(a)
			if err := f.validate(); err != nil {
				return fail(err)
			}
			roots := args
			if len(roots) == 0 {
				roots = a.cfg.Analysis.Sources
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rep, err := a.checkOnce(ctx, &f, roots)
			if err != nil {
				return fail(err)
			}
			if !rep.IsCompliant() {
				return errViolations
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// checkOnce runs the pipeline, persists the run when a database is
// configured and emits the report.
func (a *app) checkOnce(ctx context.Context, f *checkFlags, roots []string) (ir.Report, error) {
	opts := f.options(roots)

	var db *storage.DB
	if f.dbDSN != "" {
		var err error
		db, err = openDB(f.dbDSN)
		if err != nil {
			return ir.Report{}, err
		}
		defer db.Close()
		ws, err := db.ListWaivers(true)
		if err != nil {
			return ir.Report{}, fmt.Errorf("load waivers: %w", err)
		}
		opts.Waivers = ws
	}

	rep, err := pipeline.Run(ctx, opts)
	if err != nil {
		return rep, err
	}

	if db != nil {
		if err := db.SaveRun(&rep); err != nil {
			return rep, fmt.Errorf("save run: %w", err)
		}
		zap.L().Info("run saved", zap.String("run", rep.ID), zap.String("db", f.dbDSN))
	}

	return rep, a.emit(&rep, f.format, f.outDir)
}

// emit renders rep to stdout, or to a file in outDir when one is given.
func (a *app) emit(rep *ir.Report, format, outDir string) error {
	if outDir == "" {
		return render(a.stdout, rep, format)
	}
	var (
		path string
		err  error
	)
	switch format {
	case "json":
		path, err = reporting.WriteJSON(rep.ID, outDir, rep)
	case "html":
		path, err = reporting.WriteHTML(rep.ID, outDir, rep)
	case "sarif":
		path, err = reporting.WriteSARIF(rep.ID, outDir, rep, version)
	default:
		// text still goes to stdout; the JSON copy lands in outDir
		if err := reporting.RenderText(a.stdout, rep); err != nil {
			return err
		}
		path, err = reporting.WriteJSON(rep.ID, outDir, rep)
	}
	if err != nil {
		return fmt.Errorf("write %s report: %w", format, err)
	}
	fmt.Fprintf(a.stderr, "report: %s\n", path)
	return nil
}

func render(w io.Writer, rep *ir.Report, format string) error {
	switch format {
	case "json":
		return reporting.RenderJSON(w, rep)
	case "html":
		return reporting.RenderHTML(w, rep)
	case "sarif":
		return reporting.RenderSARIF(w, rep, version)
	default:
		return reporting.RenderText(w, rep)
	}
}

func openDB(dsn string) (*storage.DB, error) {
	db, err := storage.OpenSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
