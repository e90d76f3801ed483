package main

import (
	"os"

	"github.com/alfredjeanlab/beadgraph/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool
)

func defaultServerURL() string {
	if s := os.Getenv("BEADGRAPH_URL"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

var rootCmd = &cobra.Command{
	Use:           "bg <command>",
	Short:         "3D work-item graph viewer engine",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor && ui.ShouldUseColor(os.Stdout))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultServerURL(), "viewer engine HTTP URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("BEADGRAPH_AUTH_TOKEN"), "bearer token for the viewer engine")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "viewer", Title: "Viewer:"},
		&cobra.Group{ID: "graph", Title: "Graph:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Viewer
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(viewCmd)

	// Graph
	rootCmd.AddCommand(layoutCmd)
	rootCmd.AddCommand(statsCmd)

	// System
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
