package main

import (
	"fmt"

	"github.com/alfredjeanlab/beadgraph/internal/feed"
	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats [file]",
	Short:   "Show node counts for a dataset file or the running engine",
	GroupID: "graph",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var st model.Stats
		if len(args) == 1 {
			d, err := feed.LoadDataset(args[0])
			if err != nil {
				return err
			}
			st = loadGraph(d).Stats()
		} else if err := call(cmd.Context(), "GET", "/v1/stats", nil, &st); err != nil {
			return fmt.Errorf("fetching stats: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			printJSON(w, st)
			return nil
		}
		printStats(w, st)
		return nil
	},
}
