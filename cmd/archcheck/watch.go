package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/rulesdsl"
	"github.com/codewithboateng/archcheck/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var f checkFlags
	cmd := &cobra.Command{
		Use:   "watch [path...]",
		Short: "Re-run the check whenever sources or the rule file change",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.resolve(a)
			if err := f.validate(); err != nil {
				return fail(err)
			}
			roots := args
			if len(roots) == 0 {
				roots = a.cfg.Analysis.Sources
			}
			watchRoots := roots
			if len(watchRoots) == 0 {
				watchRoots = []string{filepath.Dir(f.rules)}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			once := func(ctx context.Context) {
				if _, err := a.checkOnce(ctx, &f, roots); err != nil {
					// a broken rule file is reported and watched until fixed
					if errors.Is(err, rulesdsl.ErrMalformedRuleSet) {
						fmt.Fprintln(a.stderr, "archcheck:", err)
						return
					}
					if ctx.Err() == nil {
						zap.L().Error("check failed", zap.Error(err))
					}
				}
			}
			once(ctx)

			return fail(watch.Run(ctx, watch.Options{
				Roots:   watchRoots,
				Files:   []string{f.rules},
				Base:    filepath.Dir(f.rules),
				Exclude: f.exclude,
			}, once))
		},
	}
	f.register(cmd)
	return cmd
}
