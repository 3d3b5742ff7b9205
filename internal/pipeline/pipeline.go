// Package pipeline wires loading, collection, classification, evaluation and
// reporting into one run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/reporting"
	"github.com/codewithboateng/archcheck/internal/rules"
	"github.com/codewithboateng/archcheck/internal/rulesdsl"
	"github.com/codewithboateng/archcheck/internal/source"
	"github.com/codewithboateng/archcheck/internal/storage"
	"github.com/codewithboateng/archcheck/internal/worker"
)

type Options struct {
	RulesPath string
	// Roots are the files or directories to check. Empty means the
	// directory holding the rule file.
	Roots []string
	// Base makes candidate paths relative to it. Empty means the directory
	// holding the rule file, which is where glob patterns are rooted.
	Base     string
	Exclude  []string
	Settings rules.Settings
	Workers  int
	Waivers  []storage.Waiver
}

// NewRunID returns a sortable, unique run ID.
func NewRunID(now time.Time) string {
	return "run-" + now.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

// Run loads the rule set and checks every collected file. A malformed rule
// set aborts before any file is read. Unreadable files are recorded in the
// report and do not fail the run.
func Run(ctx context.Context, opts Options) (ir.Report, error) {
	rs, err := rulesdsl.LoadFile(opts.RulesPath)
	if err != nil {
		return ir.Report{}, err
	}

	base := opts.Base
	if base == "" {
		base = filepath.Dir(opts.RulesPath)
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{base}
	}

	if abs, err := filepath.Abs(base); err == nil {
		base = abs
	}
	absRoots := make([]string, len(roots))
	for i, root := range roots {
		absRoots[i] = root
		if abs, err := filepath.Abs(root); err == nil {
			absRoots[i] = abs
		}
	}
	anchor := anchorOf(base, absRoots)

	var (
		files []ir.CandidateFile
		errs  []ir.FileError
		seen  = map[string]string{} // candidate path -> origin
	)
	for _, root := range absRoots {
		fs, diags := source.Collect(root, source.Options{Base: base, Anchor: anchor, Exclude: opts.Exclude})
		for _, w := range diags.Warnings {
			zap.L().Warn("collect", zap.String("root", root), zap.String("warning", w))
		}
		errs = append(errs, diags.Errors...)
		for _, f := range fs {
			if prev, ok := seen[f.Path]; ok {
				if prev != f.Origin {
					errs = append(errs, ir.FileError{
						Path:  f.Path,
						Error: fmt.Sprintf("%s not checked: path already used by %s", f.Origin, prev),
					})
				}
				continue
			}
			seen[f.Path] = f.Origin
			files = append(files, f)
		}
	}

	rep, err := CheckFiles(ctx, rs, files, opts)
	rep.Errors = append(rep.Errors, errs...)
	sort.SliceStable(rep.Errors, func(i, j int) bool { return rep.Errors[i].Path < rep.Errors[j].Path })
	rep.Context.Roots = roots
	return rep, err
}

// anchorOf returns the deepest directory holding every root outside base, or
// "" when all roots lie under base.
func anchorOf(base string, roots []string) string {
	var anchor string
	for _, r := range roots {
		if within(base, r) {
			continue
		}
		dir := r
		if fi, err := os.Stat(r); err == nil && !fi.IsDir() {
			dir = filepath.Dir(r)
		}
		if anchor == "" {
			anchor = dir
			continue
		}
		for !within(anchor, dir) {
			parent := filepath.Dir(anchor)
			if parent == anchor {
				break
			}
			anchor = parent
		}
	}
	return anchor
}

func within(dir, p string) bool {
	r, err := filepath.Rel(dir, p)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// CheckFiles evaluates in-memory candidates against rs on the worker pool.
// On cancellation the partial report is returned together with ctx.Err().
func CheckFiles(ctx context.Context, rs ir.RuleSet, files []ir.CandidateFile, opts Options) (ir.Report, error) {
	started := time.Now()
	cls, err := classifier.New(rs)
	if err != nil {
		return ir.Report{}, fmt.Errorf("compile rule set: %w", err)
	}
	ev := rules.NewEvaluator(opts.Settings)

	pool, err := worker.New(opts.Workers)
	if err != nil {
		return ir.Report{}, fmt.Errorf("start worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]rules.Result, len(files))
	done := make([]bool, len(files))
	var submitErr error
	for i := range files {
		i := i
		err := pool.Submit(ctx, func(context.Context) {
			f := files[i]
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("file check panicked", zap.String("path", f.Path), zap.Any("panic", r))
					results[i] = rules.Result{
						Path:   f.Path,
						Errors: []ir.FileError{{Path: f.Path, Error: fmt.Sprintf("check panicked: %v", r)}},
					}
				}
				done[i] = true
			}()
			results[i] = ev.Evaluate(f, cls.Classify(f.Path))
		})
		if err != nil {
			submitErr = err
			break
		}
	}
	pool.Wait()

	var finished []rules.Result
	for i, ok := range done {
		if ok {
			finished = append(finished, results[i])
		}
	}

	rep := reporting.Build(finished)
	rep.ID = NewRunID(started)
	rep.StartedAt = started.UTC()
	rep.RuleSource = rs.Source
	rep.Context = contextOf(ev.Settings())

	if len(opts.Waivers) > 0 {
		waived := 0
		for p, vs := range rep.Violations {
			kept, n := rules.ApplyWaivers(vs, opts.Waivers)
			waived += n
			if len(kept) == 0 {
				delete(rep.Violations, p)
				continue
			}
			rep.Violations[p] = kept
		}
		rep.Waived = waived
	}

	zap.L().Info("check complete",
		zap.String("run", rep.ID),
		zap.Int("files", rep.Files),
		zap.Int("violations", rep.TotalViolations()),
		zap.Int("waived", rep.Waived),
		zap.Int("skipped_instructions", len(rep.Skipped)),
		zap.Duration("took", time.Since(started)),
	)

	if submitErr != nil {
		return rep, submitErr
	}
	return rep, ctx.Err()
}

func contextOf(s rules.Settings) ir.Context {
	c := ir.Context{SeverityThreshold: strings.ToUpper(s.SeverityThreshold)}
	for id, off := range s.Disabled {
		if off {
			c.DisabledChecks = append(c.DisabledChecks, strings.ToLower(id))
		}
	}
	sort.Strings(c.DisabledChecks)
	return c
}
