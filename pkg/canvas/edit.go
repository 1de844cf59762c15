package canvas

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/graph"
)

var (
	ErrEditClosed     = errors.New("edit session already finished")
	ErrComponentIndex = errors.New("component index out of range")
)

// EditSession holds a draft of one node's editable fields. Nothing reaches
// the controller until Confirm.
type EditSession struct {
	mu       sync.Mutex
	ctrl     *Controller
	nodeID   string
	original graph.NodeData
	draft    graph.NodeData
	closed   bool
}

// BeginEdit opens an edit session on a node.
func (c *Controller) BeginEdit(id string) (*EditSession, error) {
	n, ok := c.Node(id)
	if !ok {
		return nil, fmt.Errorf("edit %q: %w", id, ErrNodeNotFound)
	}
	draft := n.Data
	draft.Components = diagram.CloneStrings(n.Data.Components)
	return &EditSession{
		ctrl:     c,
		nodeID:   id,
		original: n.Data,
		draft:    draft,
	}, nil
}

// NodeID returns the id of the node being edited.
func (s *EditSession) NodeID() string { return s.nodeID }

// Original returns the node data as it was when the session opened.
func (s *EditSession) Original() graph.NodeData {
	out := s.original
	out.Components = diagram.CloneStrings(s.original.Components)
	return out
}

// Draft returns a copy of the pending edits.
func (s *EditSession) Draft() graph.NodeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.draft
	out.Components = diagram.CloneStrings(s.draft.Components)
	return out
}

// SetTitle replaces the draft title. It fails once the session is closed.
func (s *EditSession) SetTitle(title string) error {
	return s.update(func(d *graph.NodeData) error {
		d.Title = title
		return nil
	})
}

// SetAnnotation replaces the draft annotation.
func (s *EditSession) SetAnnotation(annotation string) error {
	return s.update(func(d *graph.NodeData) error {
		d.Annotation = annotation
		return nil
	})
}

// AddComponent appends a component to the draft list.
func (s *EditSession) AddComponent(component string) error {
	return s.update(func(d *graph.NodeData) error {
		d.Components = append(d.Components, component)
		return nil
	})
}

// RemoveComponent drops the component at index i.
func (s *EditSession) RemoveComponent(i int) error {
	return s.update(func(d *graph.NodeData) error {
		if i < 0 || i >= len(d.Components) {
			return fmt.Errorf("remove %d: %w", i, ErrComponentIndex)
		}
		d.Components = append(d.Components[:i:i], d.Components[i+1:]...)
		return nil
	})
}

// SetComponent replaces the component at index i.
func (s *EditSession) SetComponent(i int, component string) error {
	return s.update(func(d *graph.NodeData) error {
		if i < 0 || i >= len(d.Components) {
			return fmt.Errorf("set %d: %w", i, ErrComponentIndex)
		}
		d.Components[i] = component
		return nil
	})
}

// Confirm merges title, components and annotation into the node. Id,
// category and position are left alone.
func (s *EditSession) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrEditClosed
	}
	s.closed = true
	draft := s.draft
	s.mu.Unlock()

	return s.ctrl.merge(ctx, s.nodeID, draft)
}

// Cancel discards the draft.
func (s *EditSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.draft = s.Original()
}

func (s *EditSession) update(fn func(*graph.NodeData) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrEditClosed
	}
	return fn(&s.draft)
}
