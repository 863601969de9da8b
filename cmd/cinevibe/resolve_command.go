package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dedsfe/cinevibe/internal/resolver"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year int
	var tmdbID int64
	var background bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve a title into a playable locator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				return fmt.Errorf("title is required")
			}
			req := resolver.Request{Title: title, Year: year, TMDBID: tmdbID}

			return ctx.withClient(func(client *apiClient) error {
				out := cmd.OutOrStdout()
				if background {
					jobID, err := client.EnqueueResolve(cmd.Context(), req)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued background resolution %s\n", jobID)
					fmt.Fprintf(out, "Check progress with `cinevibe status` or the job API.\n")
					return nil
				}

				result, err := client.Resolve(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(result)
				}
				printResolveOutcome(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Release year hint")
	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "TMDB movie ID for an exact cache lookup")
	cmd.Flags().BoolVar(&background, "background", false, "Queue the resolution instead of waiting")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response")
	return cmd
}

func printResolveOutcome(cmd *cobra.Command, result *resolveOutcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if result.Status == "resolved" {
		fmt.Fprintln(out, renderStatusLine("Outcome", statusOK, "resolved", colorize))
		fmt.Fprintln(out, renderStatusLine("Matched title", statusInfo, result.MatchedTitle, colorize))
		if result.Year != 0 {
			fmt.Fprintln(out, renderStatusLine("Year", statusInfo, fmt.Sprintf("%d", result.Year), colorize))
		}
		fmt.Fprintln(out, renderStatusLine("Media ID", statusInfo, result.MediaID, colorize))
		fmt.Fprintln(out, renderStatusLine("Locator", statusInfo, result.LocatorURI, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Outcome", statusWarn, "missing", colorize))
		if result.Reason != "" {
			fmt.Fprintln(out, renderStatusLine("Reason", statusInfo, result.Reason, colorize))
		}
	}
	fmt.Fprintln(out, renderStatusLine("From cache", statusInfo, yesNo(result.FromCache), colorize))
	if result.Similarity > 0 {
		fmt.Fprintln(out, renderStatusLine("Similarity", statusInfo, fmt.Sprintf("%.2f", result.Similarity), colorize))
	}
}
