package store

import (
	"context"
	"errors"
	"time"

	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/graph"
)

// ErrWorkspaceNotFound is returned when no workspace has the given name.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// DefaultWorkspace is used when no name is configured.
const DefaultWorkspace = "default"

// Backend is a named workspace that mirrors a canvas working set. The sqlite
// and redis workspace stores both satisfy it.
type Backend interface {
	canvas.Sink
	Name() string
	Load(ctx context.Context) (Workspace, error)
	SetDescription(ctx context.Context, description string) error
}

// Workspace is a persisted canvas working set together with the description
// it was generated from.
type Workspace struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Revision    uint64       `json:"revision"`
	Nodes       []graph.Node `json:"nodes"`
	Edges       []graph.Edge `json:"edges"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Snapshot returns the working set in the form the canvas controller uses.
func (w Workspace) Snapshot() canvas.Snapshot {
	return canvas.Snapshot{
		Revision: w.Revision,
		Nodes:    graph.CloneNodes(w.Nodes),
		Edges:    graph.CloneEdges(w.Edges),
	}
}

// WorkspaceSummary is a listing entry.
type WorkspaceSummary struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Revision    uint64    `json:"revision"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	UpdatedAt   time.Time `json:"updated_at"`
}
