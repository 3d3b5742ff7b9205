package main

import (
	"fmt"
	"os/user"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/rules"
)

func (a *app) waiverCmd() *cobra.Command {
	var dbDSN string
	cmd := &cobra.Command{
		Use:   "waiver",
		Short: "Manage waivers that suppress known violations",
	}
	cmd.PersistentFlags().StringVar(&dbDSN, "db", "", "SQLite database path")
	dsn := func() (string, error) {
		if dbDSN == "" {
			dbDSN = a.cfg.Database.DSN
		}
		if dbDSN == "" {
			return "", fmt.Errorf("waiver: --db (or database.dsn in config) is required")
		}
		return dbDSN, nil
	}

	var (
		checkID, pathGlob, pattern, reason, by string
		ttl                                    time.Duration
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a waiver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if checkID == "" || reason == "" {
				return fail(fmt.Errorf("waiver add: --check and --reason are required"))
			}
			if checkID != "*" {
				if _, ok := rules.Get(checkID); !ok {
					return fail(fmt.Errorf("waiver add: unknown check %q", checkID))
				}
			}
			if pathGlob != "" {
				if _, err := classifier.Compile(pathGlob); err != nil {
					return fail(fmt.Errorf("waiver add: %w", err))
				}
			}
			if ttl <= 0 {
				return fail(fmt.Errorf("waiver add: --ttl must be positive"))
			}
			if by == "" {
				by = currentUser()
			}
			d, err := dsn()
			if err != nil {
				return fail(err)
			}
			db, err := openDB(d)
			if err != nil {
				return fail(err)
			}
			defer db.Close()
			id, err := db.CreateWaiver(checkID, pathGlob, pattern, reason, by, time.Now().Add(ttl))
			if err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.stdout, "waiver %d created\n", id)
			return nil
		},
	}
	add.Flags().StringVar(&checkID, "check", "", `Check ID to waive ("*" for any)`)
	add.Flags().StringVar(&pathGlob, "path", "", "Only waive paths matching this glob")
	add.Flags().StringVar(&pattern, "pattern", "", "Only waive violations whose evidence or instruction contains this text")
	add.Flags().StringVar(&reason, "reason", "", "Why the violation is accepted")
	add.Flags().StringVar(&by, "by", "", "Who grants the waiver (default: current user)")
	add.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "How long the waiver stays active")

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List waivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dsn()
			if err != nil {
				return fail(err)
			}
			db, err := openDB(d)
			if err != nil {
				return fail(err)
			}
			defer db.Close()
			ws, err := db.ListWaivers(!all)
			if err != nil {
				return fail(err)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCHECK\tPATH\tPATTERN\tEXPIRES\tSTATUS\tBY\tREASON")
			now := time.Now()
			for _, w := range ws {
				status := "active"
				switch {
				case w.RevokedAt != nil:
					status = "revoked"
				case !w.ExpiresAt.After(now):
					status = "expired"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					w.ID, w.CheckID, w.PathGlob, w.PatternSub, w.ExpiresAt.Format(time.RFC3339), status, w.CreatedBy, w.Reason)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "Include revoked and expired waivers")

	revoke := &cobra.Command{
		Use:   "revoke ID",
		Short: "Revoke a waiver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fail(fmt.Errorf("waiver revoke: bad id %q", args[0]))
			}
			d, err := dsn()
			if err != nil {
				return fail(err)
			}
			db, err := openDB(d)
			if err != nil {
				return fail(err)
			}
			defer db.Close()
			if err := db.RevokeWaiver(id); err != nil {
				return fail(err)
			}
			fmt.Fprintf(a.stdout, "waiver %d revoked\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, revoke)
	return cmd
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}
