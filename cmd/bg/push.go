package main

import (
	"fmt"

	"github.com/alfredjeanlab/beadgraph/internal/feed"
	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
	"github.com/spf13/cobra"
)

var pushFull bool

var pushCmd = &cobra.Command{
	Use:     "push <file>",
	Short:   "Send a dataset file to a running viewer engine",
	GroupID: "viewer",
	Long: `Send the nodes and links in a dataset file as an update. By default the
file is merged into the current graph; with --full it replaces it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := feed.LoadDataset(args[0])
		if err != nil {
			return err
		}
		body, err := reconcile.EncodeUpdate(reconcile.Payload{Full: pushFull, Nodes: d.Nodes, Links: d.Links})
		if err != nil {
			return fmt.Errorf("encoding update: %w", err)
		}
		if err := call(cmd.Context(), "POST", "/v1/updates", body, nil); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queued %d nodes, %d links\n", len(d.Nodes), len(d.Links))
		return nil
	},
}

func init() {
	pushCmd.Flags().BoolVar(&pushFull, "full", false, "replace the graph instead of merging")
}
