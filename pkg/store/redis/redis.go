// Package redis keeps canvas workspaces in Redis so several editors can
// share one working set.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/store"
)

const workspacesSet = "blockgen:workspaces"

func workspaceKey(name string) string {
	return fmt.Sprintf("blockgen:workspace:%s", name)
}

// Client wraps a redis client with workspace operations.
type Client struct {
	client *redis.Client
}

func NewClient(client *redis.Client) *Client {
	return &Client{client: client}
}

// Save writes ws. The stored description is kept unless ws carries one.
func (c *Client) Save(ctx context.Context, ws store.Workspace) error {
	key := workspaceKey(ws.Name)
	if ws.Description == "" {
		prev, err := c.Load(ctx, ws.Name)
		if err == nil {
			ws.Description = prev.Description
		} else if !errors.Is(err, store.ErrWorkspaceNotFound) {
			return err
		}
	}
	if ws.UpdatedAt.IsZero() {
		ws.UpdatedAt = time.Now()
	}
	ws.UpdatedAt = ws.UpdatedAt.UTC()

	data, err := json.Marshal(ws)
	if err != nil {
		return fmt.Errorf("failed to marshal workspace: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, workspacesSet, ws.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workspace %q: %w", ws.Name, err)
	}
	return nil
}

// Load reads a workspace by name.
func (c *Client) Load(ctx context.Context, name string) (store.Workspace, error) {
	data, err := c.client.Get(ctx, workspaceKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.Workspace{}, fmt.Errorf("%w: %q", store.ErrWorkspaceNotFound, name)
	}
	if err != nil {
		return store.Workspace{}, fmt.Errorf("failed to GET workspace %q: %w", name, err)
	}

	var ws store.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return store.Workspace{}, fmt.Errorf("failed to unmarshal workspace %q: %w", name, err)
	}
	return ws, nil
}

// List returns all workspaces, most recently updated first.
func (c *Client) List(ctx context.Context) ([]store.WorkspaceSummary, error) {
	names, err := c.client.SMembers(ctx, workspacesSet).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to SMEMBERS %s: %w", workspacesSet, err)
	}
	if len(names) == 0 {
		return []store.WorkspaceSummary{}, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = workspaceKey(n)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to MGET workspaces: %w", err)
	}

	out := make([]store.WorkspaceSummary, 0, len(values))
	for i, val := range values {
		str, ok := val.(string)
		if !ok {
			// Set member without a value; the key was removed out of band.
			continue
		}
		var ws store.Workspace
		if err := json.Unmarshal([]byte(str), &ws); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workspace %q: %w", names[i], err)
		}
		out = append(out, store.WorkspaceSummary{
			Name:        ws.Name,
			Description: ws.Description,
			Revision:    ws.Revision,
			Nodes:       len(ws.Nodes),
			Edges:       len(ws.Edges),
			UpdatedAt:   ws.UpdatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes a workspace.
func (c *Client) Delete(ctx context.Context, name string) error {
	n, err := c.client.Del(ctx, workspaceKey(name)).Result()
	if err != nil {
		return fmt.Errorf("failed to DEL workspace %q: %w", name, err)
	}
	if err := c.client.SRem(ctx, workspacesSet, name).Err(); err != nil {
		return fmt.Errorf("failed to SREM workspace %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", store.ErrWorkspaceNotFound, name)
	}
	return nil
}

// WorkspaceStore binds one named workspace to a canvas controller.
type WorkspaceStore struct {
	client *Client
	name   string
}

func NewWorkspaceStore(client *Client, name string) *WorkspaceStore {
	if name == "" {
		name = store.DefaultWorkspace
	}
	return &WorkspaceStore{client: client, name: name}
}

func (w *WorkspaceStore) Name() string {
	return w.name
}

// Sync implements canvas.Sink.
func (w *WorkspaceStore) Sync(ctx context.Context, snap canvas.Snapshot) error {
	return w.client.Save(ctx, store.Workspace{
		Name:     w.name,
		Revision: snap.Revision,
		Nodes:    snap.Nodes,
		Edges:    snap.Edges,
	})
}

func (w *WorkspaceStore) Load(ctx context.Context) (store.Workspace, error) {
	return w.client.Load(ctx, w.name)
}

// SetDescription records the description, creating an empty workspace if needed.
func (w *WorkspaceStore) SetDescription(ctx context.Context, description string) error {
	ws, err := w.client.Load(ctx, w.name)
	if err != nil && !errors.Is(err, store.ErrWorkspaceNotFound) {
		return err
	}
	ws.Name = w.name
	ws.Description = description
	ws.UpdatedAt = time.Time{}
	return w.client.Save(ctx, ws)
}

var _ store.Backend = (*WorkspaceStore)(nil)
