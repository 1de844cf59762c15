package store

import (
	"context"
	"time"

	"github.com/rmax-ai/blockgen/pkg/canvas"
)

// WorkspaceStore binds one named workspace to the canvas controller as its
// store of record.
type WorkspaceStore struct {
	store *Store
	name  string
	now   func() time.Time
}

// NewWorkspaceStore returns a sink for the named workspace.
func NewWorkspaceStore(st *Store, name string) *WorkspaceStore {
	if name == "" {
		name = DefaultWorkspace
	}
	return &WorkspaceStore{store: st, name: name, now: time.Now}
}

// Name returns the workspace name.
func (w *WorkspaceStore) Name() string {
	return w.name
}

// Sync implements canvas.Sink.
func (w *WorkspaceStore) Sync(ctx context.Context, snap canvas.Snapshot) error {
	return w.store.SaveWorkspace(ctx, Workspace{
		Name:      w.name,
		Revision:  snap.Revision,
		Nodes:     snap.Nodes,
		Edges:     snap.Edges,
		UpdatedAt: w.now(),
	})
}

// Load returns the persisted workspace.
func (w *WorkspaceStore) Load(ctx context.Context) (Workspace, error) {
	return w.store.LoadWorkspace(ctx, w.name)
}

// SetDescription records the description the working set came from.
func (w *WorkspaceStore) SetDescription(ctx context.Context, description string) error {
	return w.store.SetDescription(ctx, w.name, description)
}

var _ Backend = (*WorkspaceStore)(nil)
