// Package graph converts between the canonical diagram and the node/edge
// representation used by the interactive canvas.
package graph

import (
	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// NodeTypeBlock is the canvas renderer key for block nodes.
const NodeTypeBlock = "block"

// Default edge appearance.
const (
	EdgeTypeDefault  = "smoothstep"
	EdgeStrokeColor  = "#64748b"
	EdgeStrokeWidth  = 2
	MarkerArrowClose = "arrowclosed"
)

// NodeData is the editable content of a block node.
type NodeData struct {
	Category   diagram.Category `json:"category"`
	Title      string           `json:"title"`
	Components []string         `json:"components"`
	Annotation string           `json:"annotation,omitempty"`
}

// Node is the canvas projection of a block.
type Node struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Position  diagram.Position `json:"position"`
	Data      NodeData         `json:"data"`
	Draggable bool             `json:"draggable"`
}

// EdgeStyle is the stroke of a rendered edge.
type EdgeStyle struct {
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Marker is an edge end decoration.
type Marker struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// Edge is the canvas projection of a connection. Label holds whatever the
// canvas stored; only plain strings survive conversion back to a diagram.
type Edge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Label     any        `json:"label,omitempty"`
	Type      string     `json:"type,omitempty"`
	Animated  bool       `json:"animated,omitempty"`
	Style     *EdgeStyle `json:"style,omitempty"`
	MarkerEnd *Marker    `json:"markerEnd,omitempty"`
}

// Clone returns a copy of n that shares no slices with it.
func (n Node) Clone() Node {
	n.Data.Components = diagram.CloneStrings(n.Data.Components)
	return n
}

// Clone returns a copy of e that shares no pointers with it.
func (e Edge) Clone() Edge {
	if e.Style != nil {
		s := *e.Style
		e.Style = &s
	}
	if e.MarkerEnd != nil {
		m := *e.MarkerEnd
		e.MarkerEnd = &m
	}
	return e
}

// LabelText returns the label when it is a plain string.
func (e Edge) LabelText() (string, bool) {
	s, ok := e.Label.(string)
	return s, ok
}

// NewEdge returns an edge with the default style and arrowhead.
func NewEdge(id, source, target, label string) Edge {
	e := Edge{
		ID:     id,
		Source: source,
		Target: target,
		Type:   EdgeTypeDefault,
		Style: &EdgeStyle{
			Stroke:      EdgeStrokeColor,
			StrokeWidth: EdgeStrokeWidth,
		},
		MarkerEnd: &Marker{
			Type:  MarkerArrowClose,
			Color: EdgeStrokeColor,
		},
	}
	if label != "" {
		e.Label = label
	}
	return e
}

// CloneNodes deep-copies a node slice.
func CloneNodes(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// CloneEdges deep-copies an edge slice.
func CloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}
