package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/store"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewClient(rdb), mr
}

func TestWorkspaceStore_MirrorsController(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)
	sink := NewWorkspaceStore(client, "shared")
	ctrl := canvas.New(sink)

	require.NoError(t, ctrl.Load(ctx, diagram.DefaultTemplate()))
	edge, err := ctrl.Connect(ctx, "inputs", "outputs", "bypass")
	require.NoError(t, err)

	assert.True(t, mr.Exists("blockgen:workspace:shared"))
	members, err := mr.SMembers(workspacesSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, members)

	ws, err := sink.Load(ctx)
	require.NoError(t, err)
	snap := ctrl.Snapshot()
	assert.Equal(t, snap.Revision, ws.Revision)
	assert.Equal(t, snap.Nodes, ws.Nodes)
	assert.Equal(t, snap.Edges, ws.Edges)
	assert.Equal(t, edge.ID, ws.Edges[len(ws.Edges)-1].ID)
}

func TestWorkspaceStore_SecondEditorSeesChanges(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	first := canvas.New(NewWorkspaceStore(client, "team"))
	require.NoError(t, first.Load(ctx, diagram.DefaultTemplate()))
	require.NoError(t, first.DeleteNode(ctx, "processing"))

	ws, err := NewWorkspaceStore(client, "team").Load(ctx)
	require.NoError(t, err)

	second := canvas.New(nil)
	require.NoError(t, second.Replace(ctx, ws.Nodes, ws.Edges))
	assert.Equal(t, first.Canonical(), second.Canonical())
	assert.Empty(t, second.Snapshot().Edges, "every template edge touches processing")
}

func TestWorkspaceStore_Description(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)
	sink := NewWorkspaceStore(client, "")
	assert.Equal(t, store.DefaultWorkspace, sink.Name())

	require.NoError(t, sink.SetDescription(ctx, "smart thermostat"))
	require.NoError(t, canvas.New(sink).Load(ctx, diagram.DefaultTemplate()))

	ws, err := sink.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "smart thermostat", ws.Description)
	assert.Len(t, ws.Nodes, diagram.BlockCount)
}

func TestClient_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	list, err := client.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, client.Save(ctx, store.Workspace{Name: "a", UpdatedAt: base}))
	require.NoError(t, client.Save(ctx, store.Workspace{Name: "b", Description: "lamp", UpdatedAt: base.Add(time.Minute)}))

	// A set member whose key vanished is skipped.
	mr.SAdd(workspacesSet, "ghost")

	list, err = client.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "lamp", list[0].Description)
	assert.Equal(t, "a", list[1].Name)

	require.NoError(t, client.Delete(ctx, "a"))
	err = client.Delete(ctx, "a")
	assert.True(t, errors.Is(err, store.ErrWorkspaceNotFound))

	_, err = client.Load(ctx, "a")
	assert.True(t, errors.Is(err, store.ErrWorkspaceNotFound))
}

func TestWorkspaceStore_SyncFailure(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	ctrl := canvas.New(NewWorkspaceStore(NewClient(rdb), "w"))

	mr.Close()
	err = ctrl.Load(ctx, diagram.DefaultTemplate())
	assert.ErrorIs(t, err, canvas.ErrSyncFailed)
	assert.Len(t, ctrl.Snapshot().Nodes, diagram.BlockCount, "in-memory mutation stands")
}
