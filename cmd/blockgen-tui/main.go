package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	goredis "github.com/redis/go-redis/v9"

	"github.com/rmax-ai/blockgen/pkg/archive"
	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/store"
	"github.com/rmax-ai/blockgen/pkg/store/redis"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".blockgen")

	endpoint := flag.String("endpoint", envOrDefault("BLOCKGEN_ENDPOINT", client.DefaultEndpoint), "blockgen-d base URL")
	dbPath := flag.String("workspace-db", envOrDefault("BLOCKGEN_WORKSPACE_DB", filepath.Join(dataDir, "workspaces.db")), "sqlite workspace database")
	redisAddr := flag.String("redis-addr", os.Getenv("BLOCKGEN_REDIS_ADDR"), "redis address for a shared workspace")
	workspace := flag.String("workspace", envOrDefault("BLOCKGEN_WORKSPACE", store.DefaultWorkspace), "workspace name")
	archiveDir := flag.String("archive-dir", envOrDefault("BLOCKGEN_ARCHIVE_DIR", filepath.Join(dataDir, "archive")), "export archive directory")
	flag.Parse()

	ctx := context.Background()

	backend, closeBackend, err := openBackend(*dbPath, *redisAddr, *workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening workspace: %v\n", err)
		os.Exit(1)
	}
	defer closeBackend()

	ctrl := canvas.New(backend)
	description, err := restore(ctx, ctrl, backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workspace %s: %v\n", backend.Name(), err)
		os.Exit(1)
	}

	m := newModel(ctx, ctrl, backend, client.NewClient(*endpoint), archive.New(*archiveDir))
	m.description = description

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}

func openBackend(dbPath, redisAddr, name string) (store.Backend, func() error, error) {
	if redisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: redisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", redisAddr, err)
		}
		return redis.NewWorkspaceStore(redis.NewClient(rdb), name), rdb.Close, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, err
	}
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store.NewWorkspaceStore(st, name), st.Close, nil
}

// restore loads the persisted working set into ctrl. A missing workspace
// starts empty.
func restore(ctx context.Context, ctrl *canvas.Controller, backend store.Backend) (string, error) {
	ws, err := backend.Load(ctx)
	if errors.Is(err, store.ErrWorkspaceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := ctrl.Replace(ctx, ws.Nodes, ws.Edges); err != nil {
		return "", err
	}
	return ws.Description, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
