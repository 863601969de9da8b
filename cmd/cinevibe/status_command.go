package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and result-store health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiClient) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(out, line)
				}
				uptime := (time.Duration(status.UptimeSeconds) * time.Second).String()
				fmt.Fprintln(out, renderStatusLine("Uptime", statusOK, uptime, colorize))
				pending := 0
				for _, depth := range status.QueueDepths {
					pending += depth
				}
				queueKind := statusOK
				if pending > 0 {
					queueKind = statusInfo
				}
				fmt.Fprintln(out, renderStatusLine("Workers", queueKind,
					fmt.Sprintf("%d shards, %d queued", len(status.QueueDepths), pending), colorize))
				bgPending := 0
				for _, depth := range status.BackgroundDepths {
					bgPending += depth
				}
				fmt.Fprintln(out, renderStatusLine("Background", statusInfo,
					fmt.Sprintf("%d lanes, %d queued", len(status.BackgroundDepths), bgPending), colorize))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Result store", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Titles", statusInfo, fmt.Sprintf("%d", status.Store.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Resolved", statusOK, fmt.Sprintf("%d", status.Store.Resolved), colorize))
				missingKind := statusOK
				if status.Store.Missing > 0 {
					missingKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Missing", missingKind, fmt.Sprintf("%d", status.Store.Missing), colorize))
				fmt.Fprintln(out, renderStatusLine("Enriched", statusInfo, fmt.Sprintf("%d", status.Store.Enriched), colorize))
				return nil
			})
		},
	}
}
