package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rmax-ai/blockgen/pkg/graph"
)

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore initializes the SQLite database connection.
// It enables WAL mode for concurrency and durability.
func NewStore(dbPath string) (*Store, error) {
	// Open the database
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	// Enable WAL mode (Write-Ahead Logging)
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}

	// Initialize schema
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	// One row per named workspace. Nodes and edges are stored as the
	// canvas-native JSON so positions survive a restart.
	query := `
	CREATE TABLE IF NOT EXISTS workspaces (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		revision INTEGER NOT NULL DEFAULT 0,
		nodes JSON NOT NULL DEFAULT '[]',
		edges JSON NOT NULL DEFAULT '[]',
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workspaces_updated_at ON workspaces(updated_at);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create workspaces table: %w", err)
	}

	return nil
}

// SaveWorkspace writes the nodes, edges and revision of ws. The stored
// description is kept unless ws carries a non-empty one.
func (s *Store) SaveWorkspace(ctx context.Context, ws Workspace) error {
	nodes, err := json.Marshal(nonNilNodes(ws.Nodes))
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}
	edges, err := json.Marshal(nonNilEdges(ws.Edges))
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}
	updated := ws.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workspaces (name, description, revision, nodes, edges, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = CASE WHEN excluded.description = '' THEN workspaces.description ELSE excluded.description END,
			revision = excluded.revision,
			nodes = excluded.nodes,
			edges = excluded.edges,
			updated_at = excluded.updated_at
	`, ws.Name, ws.Description, ws.Revision, string(nodes), string(edges), updated.UTC())
	if err != nil {
		return fmt.Errorf("failed to save workspace %q: %w", ws.Name, err)
	}
	return nil
}

// LoadWorkspace reads a workspace by name.
func (s *Store) LoadWorkspace(ctx context.Context, name string) (Workspace, error) {
	var (
		ws           Workspace
		nodes, edges string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, revision, nodes, edges, updated_at
		FROM workspaces WHERE name = ?
	`, name).Scan(&ws.Name, &ws.Description, &ws.Revision, &nodes, &edges, &ws.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, fmt.Errorf("%w: %q", ErrWorkspaceNotFound, name)
	}
	if err != nil {
		return Workspace{}, fmt.Errorf("failed to load workspace %q: %w", name, err)
	}

	if err := json.Unmarshal([]byte(nodes), &ws.Nodes); err != nil {
		return Workspace{}, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal([]byte(edges), &ws.Edges); err != nil {
		return Workspace{}, fmt.Errorf("failed to unmarshal edges: %w", err)
	}
	return ws, nil
}

// ListWorkspaces returns all workspaces, most recently updated first.
func (s *Store) ListWorkspaces(ctx context.Context) ([]WorkspaceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, revision,
			json_array_length(nodes), json_array_length(edges), updated_at
		FROM workspaces
		ORDER BY updated_at DESC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workspaces: %w", err)
	}
	defer rows.Close()

	var out []WorkspaceSummary
	for rows.Next() {
		var sum WorkspaceSummary
		if err := rows.Scan(&sum.Name, &sum.Description, &sum.Revision, &sum.Nodes, &sum.Edges, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteWorkspace removes a workspace. Deleting a missing workspace is an error.
func (s *Store) DeleteWorkspace(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete workspace %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrWorkspaceNotFound, name)
	}
	return nil
}

// SetDescription records the description a workspace was generated from,
// creating an empty workspace if needed.
func (s *Store) SetDescription(ctx context.Context, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspaces (name, description, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at
	`, name, description, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set description for %q: %w", name, err)
	}
	return nil
}

func nonNilNodes(n []graph.Node) []graph.Node {
	if n == nil {
		return []graph.Node{}
	}
	return n
}

func nonNilEdges(e []graph.Edge) []graph.Edge {
	if e == nil {
		return []graph.Edge{}
	}
	return e
}
