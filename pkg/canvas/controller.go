// Package canvas owns the live node/edge working set of the diagram editor
// and mirrors every change to an external store of record.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/graph"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrSyncFailed   = errors.New("sync to store failed")
	ErrStaleResult  = errors.New("result superseded by a newer request")
)

// Snapshot is an immutable copy of the working set.
type Snapshot struct {
	Revision uint64       `json:"revision"`
	Nodes    []graph.Node `json:"nodes"`
	Edges    []graph.Edge `json:"edges"`
}

// Diagram returns the canonical form of the snapshot.
func (s Snapshot) Diagram() diagram.Diagram {
	return graph.ToCanonical(s.Nodes, s.Edges)
}

// Sink receives the working set after every mutation.
type Sink interface {
	Sync(ctx context.Context, snap Snapshot) error
}

// Ticket identifies one outstanding generation request.
type Ticket uint64

// Controller is the single source of truth for the working set. All
// methods are safe for concurrent use.
type Controller struct {
	mu       sync.RWMutex
	nodes    []graph.Node
	edges    []graph.Edge
	revision uint64
	ticket   Ticket
	sink     Sink
}

// New creates an empty controller. A nil sink discards updates.
func New(sink Sink) *Controller {
	if sink == nil {
		sink = discardSink{}
	}
	return &Controller{sink: sink}
}

// Snapshot returns a copy of the current working set.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Canonical returns the working set as a diagram.
func (c *Controller) Canonical() diagram.Diagram {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return graph.ToCanonical(c.nodes, c.edges)
}

// Node returns a copy of the node with the given id.
func (c *Controller) Node(id string) (graph.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.nodeIndex(id); i >= 0 {
		return c.nodes[i].Clone(), true
	}
	return graph.Node{}, false
}

// MoveNode sets a node position. Nothing else changes.
func (c *Controller) MoveNode(ctx context.Context, id string, pos diagram.Position) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("move %q: %w", id, ErrNodeNotFound)
	}
	c.nodes[i].Position = pos
	return c.commitLocked(ctx)
}

// Connect appends a new edge with the default style. Parallel edges between
// the same pair are allowed.
func (c *Controller) Connect(ctx context.Context, source, target, label string) (graph.Edge, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nodeIndex(source) < 0 {
		return graph.Edge{}, fmt.Errorf("connect source %q: %w", source, ErrNodeNotFound)
	}
	if c.nodeIndex(target) < 0 {
		return graph.Edge{}, fmt.Errorf("connect target %q: %w", target, ErrNodeNotFound)
	}

	e := graph.NewEdge("e-"+uuid.NewString(), source, target, label)
	c.edges = append(c.edges, e)
	return e.Clone(), c.commitLocked(ctx)
}

// DeleteEdge removes a single edge.
func (c *Controller) DeleteEdge(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.edges {
		if e.ID == id {
			c.edges = append(c.edges[:i:i], c.edges[i+1:]...)
			return c.commitLocked(ctx)
		}
	}
	return fmt.Errorf("delete edge %q: %w", id, ErrEdgeNotFound)
}

// DeleteNode removes a node and every edge that starts or ends at it.
func (c *Controller) DeleteNode(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("delete node %q: %w", id, ErrNodeNotFound)
	}
	c.nodes = append(c.nodes[:i:i], c.nodes[i+1:]...)

	kept := make([]graph.Edge, 0, len(c.edges))
	for _, e := range c.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	c.edges = kept
	return c.commitLocked(ctx)
}

// Reset clears the working set. Outstanding tickets become stale.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticket++
	c.nodes = nil
	c.edges = nil
	return c.commitLocked(ctx)
}

// Replace discards the working set and installs copies of nodes and edges.
// Outstanding tickets become stale, so a late generation result cannot
// overwrite it.
func (c *Controller) Replace(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticket++
	return c.replaceLocked(ctx, nodes, edges)
}

// Load replaces the working set with the laid-out projection of d. Like
// Replace it invalidates outstanding tickets.
func (c *Controller) Load(ctx context.Context, d diagram.Diagram) error {
	nodes, edges := graph.ToPresentation(d)
	return c.Replace(ctx, nodes, edges)
}

// BeginRequest issues a ticket for a generation request. Issuing a ticket
// invalidates every earlier one.
func (c *Controller) BeginRequest() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticket++
	return c.ticket
}

// ReplaceIfCurrent loads d only when t is the most recently issued ticket
// and no Replace, Load or Reset has happened since it was issued. A
// superseded result returns ErrStaleResult and changes nothing.
func (c *Controller) ReplaceIfCurrent(ctx context.Context, t Ticket, d diagram.Diagram) error {
	nodes, edges := graph.ToPresentation(d)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t != c.ticket {
		return ErrStaleResult
	}
	return c.replaceLocked(ctx, nodes, edges)
}

func (c *Controller) replaceLocked(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	c.nodes = graph.CloneNodes(nodes)
	c.edges = graph.CloneEdges(edges)
	return c.commitLocked(ctx)
}

// merge applies confirmed edit fields to a node.
func (c *Controller) merge(ctx context.Context, id string, data graph.NodeData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.nodeIndex(id)
	if i < 0 {
		return fmt.Errorf("edit %q: %w", id, ErrNodeNotFound)
	}
	n := &c.nodes[i]
	n.Data.Title = data.Title
	n.Data.Components = diagram.CloneStrings(data.Components)
	n.Data.Annotation = data.Annotation
	return c.commitLocked(ctx)
}

func (c *Controller) nodeIndex(id string) int {
	for i := range c.nodes {
		if c.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Revision: c.revision,
		Nodes:    graph.CloneNodes(c.nodes),
		Edges:    graph.CloneEdges(c.edges),
	}
}

// commitLocked bumps the revision and pushes the new state to the sink.
// The sink is called under the lock so that it sees revisions in order.
func (c *Controller) commitLocked(ctx context.Context) error {
	c.revision++
	if err := c.sink.Sync(ctx, c.snapshotLocked()); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	return nil
}

type discardSink struct{}

func (discardSink) Sync(context.Context, Snapshot) error { return nil }
