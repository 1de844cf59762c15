package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

// ExportVersion is the only export format version this package reads and writes.
const ExportVersion = "1.0"

var (
	ErrUnsupportedVersion = errors.New("unsupported export version")
	ErrEmptyExport        = errors.New("export has no diagram content")
)

// ExportNode is the persisted form of a canvas node.
type ExportNode struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Position diagram.Position `json:"position"`
	Data     NodeData         `json:"data"`
}

// ExportEdge is the persisted form of a canvas edge.
type ExportEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  any    `json:"label,omitempty"`
}

// CanvasData carries the canvas-native nodes and edges so a reimport keeps
// user-arranged positions.
type CanvasData struct {
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
}

// ExportDocument is the persisted export file.
type ExportDocument struct {
	Version       string          `json:"version"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	Description   string          `json:"description"`
	Diagram       diagram.Diagram `json:"diagram"`
	ReactFlowData *CanvasData     `json:"reactFlowData,omitempty"`
}

// NewExport wraps the canonical form of nodes/edges together with the raw
// canvas objects.
func NewExport(description string, nodes []Node, edges []Edge, now time.Time) ExportDocument {
	canvas := &CanvasData{
		Nodes: make([]ExportNode, 0, len(nodes)),
		Edges: make([]ExportEdge, 0, len(edges)),
	}
	for _, n := range nodes {
		n = n.Clone()
		canvas.Nodes = append(canvas.Nodes, ExportNode{
			ID:       n.ID,
			Type:     n.Type,
			Position: n.Position,
			Data:     n.Data,
		})
	}
	for _, e := range edges {
		canvas.Edges = append(canvas.Edges, ExportEdge{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
		})
	}

	return ExportDocument{
		Version:       ExportVersion,
		GeneratedAt:   now.UTC(),
		Description:   description,
		Diagram:       ToCanonical(nodes, edges),
		ReactFlowData: canvas,
	}
}

// Encode writes the document as indented JSON.
func (doc ExportDocument) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// ParseExport reads an export document.
func ParseExport(r io.Reader) (ExportDocument, error) {
	var doc ExportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ExportDocument{}, fmt.Errorf("decode export: %w", err)
	}
	if doc.Version != ExportVersion {
		return ExportDocument{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, doc.Version)
	}
	if len(doc.Diagram.Blocks) == 0 && (doc.ReactFlowData == nil || len(doc.ReactFlowData.Nodes) == 0) {
		return ExportDocument{}, ErrEmptyExport
	}
	return doc, nil
}

// Restore rebuilds canvas nodes and edges. The canvas-native section wins
// when present; otherwise the canonical diagram is laid out afresh.
func (doc ExportDocument) Restore() ([]Node, []Edge) {
	if doc.ReactFlowData == nil || len(doc.ReactFlowData.Nodes) == 0 {
		return ToPresentation(doc.Diagram)
	}

	nodes := make([]Node, 0, len(doc.ReactFlowData.Nodes))
	for _, en := range doc.ReactFlowData.Nodes {
		typ := en.Type
		if typ == "" {
			typ = NodeTypeBlock
		}
		n := Node{
			ID:        en.ID,
			Type:      typ,
			Position:  en.Position,
			Data:      en.Data,
			Draggable: true,
		}
		nodes = append(nodes, n.Clone())
	}

	edges := make([]Edge, 0, len(doc.ReactFlowData.Edges))
	for i, ee := range doc.ReactFlowData.Edges {
		id := ee.ID
		if id == "" {
			id = EdgeID(ee.Source, ee.Target, i)
		}
		e := NewEdge(id, ee.Source, ee.Target, "")
		e.Label = ee.Label
		edges = append(edges, e)
	}

	return nodes, edges
}
