package main

import (
	"fmt"

	"github.com/alfredjeanlab/beadgraph/internal/ui"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of a running viewer engine",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		var out struct {
			Status string `json:"status"`
			Uptime string `json:"uptime"`
		}
		if err := call(cmd.Context(), "GET", "/v1/health", nil, &out); err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			printJSON(w, out)
		} else if out.Status == "ok" {
			fmt.Fprintf(w, "Health: %s %s\n", ui.RenderOK(out.Status), ui.RenderMuted("(up "+out.Uptime+")"))
		} else {
			fmt.Fprintf(w, "Health: %s\n", ui.RenderFail(out.Status))
		}

		if out.Status != "ok" {
			return fmt.Errorf("unhealthy: %s", out.Status)
		}
		return nil
	},
}
