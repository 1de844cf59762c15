package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rmax-ai/blockgen/pkg/store"
	"github.com/rmax-ai/blockgen/pkg/store/redis"
)

// workspaces is the backend selected by the global flags.
type workspaces struct {
	backend store.Backend
	list    func(ctx context.Context) ([]store.WorkspaceSummary, error)
	remove  func(ctx context.Context, name string) error
	close   func() error
}

func openWorkspaces(opts *options) (*workspaces, error) {
	if opts.redisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: opts.redisAddr})
		c := redis.NewClient(rdb)
		return &workspaces{
			backend: redis.NewWorkspaceStore(c, opts.workspace),
			list:    c.List,
			remove:  c.Delete,
			close:   rdb.Close,
		}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.workspaceDB), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}
	st, err := store.NewStore(opts.workspaceDB)
	if err != nil {
		return nil, err
	}
	return &workspaces{
		backend: store.NewWorkspaceStore(st, opts.workspace),
		list:    st.ListWorkspaces,
		remove:  st.DeleteWorkspace,
		close:   st.Close,
	}, nil
}
