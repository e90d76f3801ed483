package model

// Dataset is a complete node/link snapshot.
type Dataset struct {
	Nodes []*Node `json:"nodes"`
	Links []Link  `json:"links"`
}

// Delta is an incremental patch against the current graph.
type Delta struct {
	Nodes        []*Node   `json:"nodes,omitempty"`
	RemovedNodes []string  `json:"removed_nodes,omitempty"`
	Links        []Link    `json:"links,omitempty"`
	RemovedLinks []LinkKey `json:"removed_links,omitempty"`
}

// IsEmpty reports whether the delta carries no changes.
func (d Delta) IsEmpty() bool {
	return len(d.Nodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.Links) == 0 && len(d.RemovedLinks) == 0
}

// Stats holds aggregate node counts for a graph.
type Stats struct {
	Nodes      int              `json:"nodes"`
	Links      int              `json:"links"`
	Components int              `json:"components"`
	ByType     map[NodeType]int `json:"by_type"`
	ByStatus   map[Status]int   `json:"by_status"`
}
