// Package archive keeps exported diagram documents on the local filesystem.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmax-ai/blockgen/pkg/graph"
)

const keySuffix = ".json"

var (
	ErrNotFound   = errors.New("export not found")
	ErrInvalidKey = errors.New("invalid export key")
)

// Entry describes one archived export.
type Entry struct {
	Key     string    `json:"key"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Archive stores export documents as flat JSON files under a root directory.
type Archive struct {
	rootPath string
	now      func() time.Time
}

// New creates an archive rooted at rootPath. The directory is created on
// first save.
func New(rootPath string) *Archive {
	return &Archive{rootPath: rootPath, now: time.Now}
}

// Key returns the file name for an export taken at t.
func Key(t time.Time) string {
	return t.UTC().Format("20060102-150405") + "-" + uuid.NewString() + keySuffix
}

// Save writes doc under a fresh key and returns the key.
func (a *Archive) Save(ctx context.Context, doc graph.ExportDocument) (string, error) {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return "", err
	}
	key := Key(a.now())
	if err := a.put(key, &buf); err != nil {
		return "", err
	}
	return key, nil
}

// put writes content atomically via temp file + rename.
func (a *Archive) put(key string, reader io.Reader) error {
	if err := os.MkdirAll(a.rootPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", a.rootPath, err)
	}

	tempFile, err := os.CreateTemp(a.rootPath, "temp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tempFile.Close()

	if _, err := io.Copy(tempFile, reader); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	fullPath := filepath.Join(a.rootPath, key)
	if err := os.Rename(tempFile.Name(), fullPath); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("failed to rename temp file to %s: %w", fullPath, err)
	}
	return nil
}

// Load reads and parses an archived export.
func (a *Archive) Load(ctx context.Context, key string) (graph.ExportDocument, error) {
	fullPath, err := a.path(key)
	if err != nil {
		return graph.ExportDocument{}, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.ExportDocument{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return graph.ExportDocument{}, fmt.Errorf("failed to open export %s: %w", key, err)
	}
	defer file.Close()
	return graph.ParseExport(file)
}

// List returns archived exports, newest first.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(a.rootPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), keySuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Key: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	// Keys start with a sortable UTC timestamp.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key > entries[j].Key })
	return entries, nil
}

// Delete removes an archived export.
func (a *Archive) Delete(ctx context.Context, key string) error {
	fullPath, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("failed to delete export %s: %w", key, err)
	}
	return nil
}

// path resolves a key, rejecting anything that would escape the root.
func (a *Archive) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || !strings.HasSuffix(key, keySuffix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(a.rootPath, key), nil
}
