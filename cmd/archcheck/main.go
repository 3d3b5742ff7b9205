package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/shared"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitCompliant  = 0
	exitViolations = 1
	exitUsage      = 2
)

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// errViolations signals a completed check that found violations. Nothing is
// printed for it.
var errViolations = &exitError{code: exitViolations}

type app struct {
	configPath string
	cfg        shared.Config
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "archcheck",
		Short:         "archcheck - validate source files against Cursor-style architecture rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := shared.LoadConfig(a.configPath)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			a.cfg = cfg
			if _, err := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML config (optional)")

	root.AddCommand(
		a.checkCmd(),
		a.reportCmd(),
		a.diffCmd(),
		a.rulesCmd(),
		a.waiverCmd(),
		a.watchCmd(),
		a.versionCmd(),
	)
	return root
}

// run executes the CLI and maps the outcome to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	_ = zap.L().Sync()
	if err == nil {
		return exitCompliant
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "archcheck:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "archcheck:", err)
	return exitUsage
}

// fail maps err to exit code 2: malformed rules, bad flags, I/O and storage
// failures all mean the check could not be completed.
func fail(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: exitUsage, err: err}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
