package graph

import (
	"fmt"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// EdgeID derives a stable edge id. The ordinal keeps parallel connections
// between the same pair of blocks distinct.
func EdgeID(source, target string, index int) string {
	return fmt.Sprintf("e-%s-%s-%d", source, target, index)
}

// ToPresentation projects a diagram onto canvas nodes and edges. Each block
// is placed at the fixed position of its category.
func ToPresentation(d diagram.Diagram) ([]Node, []Edge) {
	nodes := make([]Node, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		nodes = append(nodes, Node{
			ID:       b.ID,
			Type:     NodeTypeBlock,
			Position: diagram.PositionFor(b.Type),
			Data: NodeData{
				Category:   b.Type,
				Title:      b.Title,
				Components: diagram.CloneStrings(b.Components),
				Annotation: b.Annotation,
			},
			Draggable: true,
		})
	}

	edges := make([]Edge, 0, len(d.Connections))
	for i, c := range d.Connections {
		edges = append(edges, NewEdge(EdgeID(c.Source, c.Target, i), c.Source, c.Target, c.Label))
	}

	return nodes, edges
}

// ToCanonical strips presentation fields (position, style, edge ids) and
// returns the diagram the nodes and edges describe. Non-string edge labels
// are dropped.
func ToCanonical(nodes []Node, edges []Edge) diagram.Diagram {
	d := diagram.Diagram{
		Blocks:      make([]diagram.Block, 0, len(nodes)),
		Connections: make([]diagram.Connection, 0, len(edges)),
	}

	for _, n := range nodes {
		d.Blocks = append(d.Blocks, diagram.Block{
			ID:         n.ID,
			Type:       n.Data.Category,
			Title:      n.Data.Title,
			Components: diagram.CloneStrings(n.Data.Components),
			Annotation: n.Data.Annotation,
		})
	}

	for _, e := range edges {
		c := diagram.Connection{Source: e.Source, Target: e.Target}
		if label, ok := e.LabelText(); ok {
			c.Label = label
		}
		d.Connections = append(d.Connections, c)
	}

	return d
}
