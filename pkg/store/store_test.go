package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/diagram"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(filepath.Join(t.TempDir(), "blockgen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "blockgen.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	// Verify file existence
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	var tableName string
	err = store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='workspaces'").Scan(&tableName)
	if err != nil {
		t.Fatalf("failed to query sqlite_master for workspaces table: %v", err)
	}

	var mode string
	if err := store.db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("failed to query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected journal_mode 'wal', got '%s'", mode)
	}
}

func TestNewStore_OpenFailures(t *testing.T) {
	tmpDir := t.TempDir()
	notDir := filepath.Join(tmpDir, "plain")
	require.NoError(t, os.WriteFile(notDir, []byte("x"), 0o600))
	garbage := filepath.Join(tmpDir, "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte(strings.Repeat("not a database ", 512)), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{name: "ParentIsFile", path: filepath.Join(notDir, "blockgen.db")},
		{name: "NotADatabase", path: garbage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := NewStore(tt.path)
			assert.Error(t, err)
			assert.Nil(t, st)
		})
	}
}

func TestWorkspaceStore_MirrorsController(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sink := NewWorkspaceStore(st, "speaker")
	ctrl := canvas.New(sink)

	require.NoError(t, ctrl.Load(ctx, diagram.DefaultTemplate()))
	require.NoError(t, ctrl.MoveNode(ctx, "power", diagram.Position{X: 10, Y: 20}))
	require.NoError(t, ctrl.DeleteNode(ctx, "peripherals"))

	ws, err := sink.Load(ctx)
	require.NoError(t, err)

	snap := ctrl.Snapshot()
	assert.Equal(t, "speaker", ws.Name)
	assert.Equal(t, snap.Revision, ws.Revision)
	assert.Equal(t, snap.Nodes, ws.Nodes)
	assert.Equal(t, snap.Edges, ws.Edges)
	assert.Equal(t, snap.Diagram(), ws.Snapshot().Diagram())

	require.NotEmpty(t, ws.Nodes)
	assert.Equal(t, "power", ws.Nodes[0].ID)
	assert.Equal(t, diagram.Position{X: 10, Y: 20}, ws.Nodes[0].Position)
}

func TestWorkspaceStore_Description(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sink := NewWorkspaceStore(st, "")
	assert.Equal(t, DefaultWorkspace, sink.Name())

	require.NoError(t, sink.SetDescription(ctx, "Bluetooth speaker with RGB lighting effects"))

	// Syncing the working set must not wipe the description.
	ctrl := canvas.New(sink)
	require.NoError(t, ctrl.Load(ctx, diagram.DefaultTemplate()))

	ws, err := sink.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bluetooth speaker with RGB lighting effects", ws.Description)
	assert.Len(t, ws.Nodes, diagram.BlockCount)
}

func TestWorkspaceStore_ResetPersistsEmptySet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	sink := NewWorkspaceStore(st, "w")
	ctrl := canvas.New(sink)

	require.NoError(t, ctrl.Load(ctx, diagram.DefaultTemplate()))
	require.NoError(t, ctrl.Reset(ctx))

	ws, err := sink.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws.Nodes)
	assert.Empty(t, ws.Edges)
	assert.Equal(t, uint64(2), ws.Revision)
}

func TestListAndDeleteWorkspaces(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	nodesA := canvas.New(nil)
	require.NoError(t, nodesA.Load(ctx, diagram.DefaultTemplate()))
	snap := nodesA.Snapshot()

	require.NoError(t, st.SaveWorkspace(ctx, Workspace{Name: "older", Nodes: snap.Nodes, Edges: snap.Edges, UpdatedAt: base}))
	require.NoError(t, st.SaveWorkspace(ctx, Workspace{Name: "newer", Description: "lamp", UpdatedAt: base.Add(time.Hour)}))

	list, err := st.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Name)
	assert.Equal(t, "lamp", list[0].Description)
	assert.Equal(t, 0, list[0].Nodes)
	assert.Equal(t, "older", list[1].Name)
	assert.Equal(t, diagram.BlockCount, list[1].Nodes)
	assert.Equal(t, 4, list[1].Edges)

	require.NoError(t, st.DeleteWorkspace(ctx, "older"))
	err = st.DeleteWorkspace(ctx, "older")
	assert.True(t, errors.Is(err, ErrWorkspaceNotFound))

	_, err = st.LoadWorkspace(ctx, "older")
	assert.True(t, errors.Is(err, ErrWorkspaceNotFound))
}
