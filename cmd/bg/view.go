package main

import (
	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:     "view",
	Short:   "Show the selection, hover, filter and search of the running engine",
	GroupID: "viewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		var v model.View
		if err := call(cmd.Context(), "GET", "/v1/view", nil, &v); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput {
			printJSON(w, v)
			return nil
		}
		printView(w, v)
		return nil
	},
}
