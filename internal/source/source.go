// Package source walks a project tree and reads the files to be checked.
package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/ir"
)

// ErrUnreadableFile matches every *UnreadableFileError.
var ErrUnreadableFile = errors.New("unreadable file")

// UnreadableFileError records a candidate that could not be read.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error { return e.Err }

func (e *UnreadableFileError) Is(target error) bool { return target == ErrUnreadableFile }

// DefaultExclude lists the directories no project wants checked.
var DefaultExclude = []string{
	"**/node_modules/**",
	"dist/**",
	"coverage/**",
	"**/.git/**",
}

// DefaultMaxBytes caps the size of a single candidate.
const DefaultMaxBytes = 2 << 20

type Options struct {
	// Base is the directory candidate paths are made relative to (usually
	// the directory holding the rule file). Empty means the walk root.
	Base string
	// Anchor replaces the walk root for files outside Base, so that several
	// roots can share one path space. Empty means the walk root.
	Anchor string
	// Exclude globs are added to DefaultExclude.
	Exclude []string
	// MaxBytes skips larger files with a warning. 0 means DefaultMaxBytes.
	MaxBytes int64
}

type Diagnostics struct {
	Errors   []ir.FileError
	Warnings []string
}

// Collect reads every non-excluded regular file under root (or root itself
// when it is a file). Files that cannot be read are reported in Diagnostics
// and never stop the walk. Results are sorted by path.
func Collect(root string, opts Options) ([]ir.CandidateFile, Diagnostics) {
	var diags Diagnostics
	excl, err := classifier.NewMatcher(append(append([]string{}, DefaultExclude...), opts.Exclude...))
	if err != nil {
		diags.Warnings = append(diags.Warnings, fmt.Sprintf("ignoring exclude globs: %v", err))
		excl, _ = classifier.NewMatcher(DefaultExclude)
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	info, err := os.Stat(root)
	if err != nil {
		diags.Errors = append(diags.Errors, fileError(root, err))
		return nil, diags
	}
	walkRoot := root
	if !info.IsDir() {
		walkRoot = filepath.Dir(root)
	}
	if opts.Anchor != "" {
		walkRoot = opts.Anchor
	}

	var out []ir.CandidateFile
	add := func(p string, size int64) {
		rel := relPath(opts.Base, walkRoot, p)
		if excl.Match(rel) {
			return
		}
		if size > maxBytes {
			diags.Warnings = append(diags.Warnings, fmt.Sprintf("%s: skipped, %d bytes exceeds %d", rel, size, maxBytes))
			return
		}
		b, err := os.ReadFile(p)
		if err != nil {
			diags.Errors = append(diags.Errors, fileError(rel, err))
			return
		}
		out = append(out, ir.CandidateFile{Path: rel, Content: b, Origin: p})
	}

	if !info.IsDir() {
		add(root, info.Size())
		return out, diags
	}

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				diags.Errors = append(diags.Errors, fileError(p, err))
				return fs.SkipDir
			}
			diags.Errors = append(diags.Errors, fileError(relPath(opts.Base, walkRoot, p), err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && excl.Match(relPath(opts.Base, walkRoot, p)) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			diags.Errors = append(diags.Errors, fileError(relPath(opts.Base, walkRoot, p), err))
			return nil
		}
		add(p, fi.Size())
		return nil
	})

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, diags
}

func fileError(p string, err error) ir.FileError {
	ue := &UnreadableFileError{Path: p, Err: err}
	zap.L().Warn("unreadable file", zap.String("path", p), zap.Error(err))
	return ir.FileError{Path: p, Error: ue.Error()}
}

// relPath expresses p relative to base when p lies under it, otherwise
// relative to the walk root.
func relPath(base, walkRoot, p string) string {
	if base != "" {
		if r, err := filepath.Rel(base, p); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			return classifier.NormalizePath(filepath.ToSlash(r))
		}
	}
	if r, err := filepath.Rel(walkRoot, p); err == nil {
		return classifier.NormalizePath(filepath.ToSlash(r))
	}
	return classifier.NormalizePath(filepath.ToSlash(p))
}
