package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dedsfe/cinevibe/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the result store",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheResetRepairsCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached resolutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				records, err := st.List(cmd.Context())
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(records))
				for _, rec := range records {
					if missingOnly && !rec.Missing() {
						continue
					}
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.Title,
						recordState(rec),
						yearColumn(rec.Year),
						rec.MediaID,
						strconv.Itoa(rec.RepairAttempts),
					})
				}

				out := cmd.OutOrStdout()
				if len(rows) == 0 {
					fmt.Fprintln(out, "No cached resolutions")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "State", "Year", "Media ID", "Repairs"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing", false, "Only show titles without a locator")
	return cmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title>",
		Short: "Show one cached resolution in detail",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(st *store.Store) error {
				rec, err := st.GetByTitle(cmd.Context(), title)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("no cached resolution for %q", title)
				}
				printRecord(cmd, rec)
				return nil
			})
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the result store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Total", "Resolved", "Missing", "Enriched"},
					[][]string{{
						strconv.Itoa(stats.Total),
						strconv.Itoa(stats.Resolved),
						strconv.Itoa(stats.Missing),
						strconv.Itoa(stats.Enriched),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newCacheResetRepairsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-repairs <id>...",
		Short: "Move records back to the front of the repair rotation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid record id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withStore(func(st *store.Store) error {
				updated, err := st.ResetRepairAttempts(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset repair attempts on %d record(s)\n", updated)
				return nil
			})
		},
	}
}

func printRecord(cmd *cobra.Command, rec *store.Record) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	stateKind := statusOK
	if rec.Missing() {
		stateKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Title", statusInfo, rec.Title, colorize))
	fmt.Fprintln(out, renderStatusLine("State", stateKind, recordState(rec), colorize))
	if rec.MatchedTitle != "" {
		fmt.Fprintln(out, renderStatusLine("Matched title", statusInfo, rec.MatchedTitle, colorize))
	}
	if rec.Year != 0 {
		fmt.Fprintln(out, renderStatusLine("Year", statusInfo, strconv.Itoa(rec.Year), colorize))
	}
	if rec.Resolved() {
		fmt.Fprintln(out, renderStatusLine("Locator", statusInfo, rec.LocatorURI, colorize))
		fmt.Fprintln(out, renderStatusLine("Media ID", statusInfo, rec.MediaID, colorize))
	}
	if rec.TMDBID != 0 {
		fmt.Fprintln(out, renderStatusLine("TMDB ID", statusInfo, strconv.FormatInt(rec.TMDBID, 10), colorize))
	}
	if rec.Overview != "" {
		fmt.Fprintln(out, renderStatusLine("Overview", statusInfo, rec.Overview, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Repair attempts", statusInfo, strconv.Itoa(rec.RepairAttempts), colorize))
	if rec.LastRepairAt != nil {
		fmt.Fprintln(out, renderStatusLine("Last repair", statusInfo, rec.LastRepairAt.Format(time.RFC3339), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Updated", statusInfo, rec.UpdatedAt.Format(time.RFC3339), colorize))
}

func recordState(rec *store.Record) string {
	switch {
	case rec.Resolved():
		return "resolved"
	case rec.Missing():
		return "missing"
	default:
		return "enriched-only"
	}
}

func yearColumn(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
