package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/alfredjeanlab/beadgraph/internal/scene"
	"github.com/alfredjeanlab/beadgraph/internal/ui"
)

func printJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}

// typeLabel is the node type prefixed with its scene color.
func typeLabel(t model.NodeType) string {
	c := scene.Appearance(t, model.OverlayNone).Color
	return ui.Swatch(uint32(c)) + " " + string(t)
}

func printStats(w io.Writer, st model.Stats) {
	fmt.Fprintf(w, "%s %d  %s %d  %s %d\n",
		ui.RenderAccent("Nodes:"), st.Nodes,
		ui.RenderAccent("Links:"), st.Links,
		ui.RenderAccent("Components:"), st.Components,
	)

	types := make([]model.NodeType, 0, len(st.ByType))
	for t := range st.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	statuses := make([]model.Status, 0, len(st.ByStatus))
	for s := range st.ByStatus {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(types) > 0 {
		fmt.Fprintln(tw, "\n"+ui.RenderAccent("By type:"))
		for _, t := range types {
			fmt.Fprintf(tw, "  %s\t%d\n", typeLabel(t), st.ByType[t])
		}
	}
	if len(statuses) > 0 {
		fmt.Fprintln(tw, "\n"+ui.RenderAccent("By status:"))
		for _, s := range statuses {
			fmt.Fprintf(tw, "  %s\t%d\n", s, st.ByStatus[s])
		}
	}
	tw.Flush()
}

// placedNode is one row of layout output.
type placedNode struct {
	ID    string         `json:"id"`
	Type  model.NodeType `json:"type"`
	Title string         `json:"title,omitempty"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Z     float64        `json:"z"`
}

func printPlacementTable(w io.Writer, rows []placedNode, ticks int, alpha float64) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tX\tY\tZ\tTITLE")
	for _, r := range rows {
		title := r.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%s\n", r.ID, typeLabel(r.Type), round1(r.X), round1(r.Y), round1(r.Z), title)
	}
	tw.Flush()
	fmt.Fprintln(w, ui.RenderMuted(fmt.Sprintf("\n%d nodes placed in %d ticks (alpha %.4f)", len(rows), ticks, alpha)))
}

func printView(w io.Writer, v model.View) {
	field := func(label, value string) {
		if value == "" {
			value = ui.RenderMuted("-")
		}
		fmt.Fprintf(w, "%-10s%s\n", label, value)
	}
	field("Selected:", v.Selected)
	field("Hovered:", v.Hovered)
	field("Filter:", string(v.Filter))
	field("Search:", v.Query)
}

// round1 avoids printing -0.0.
func round1(f float64) float64 {
	r := math.Round(f*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
