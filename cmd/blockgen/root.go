package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/store"
)

type options struct {
	endpoint    string
	workspaceDB string
	redisAddr   string
	workspace   string
	archiveDir  string
}

func defaultOptions() options {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".blockgen")
	return options{
		endpoint:    envOrDefault("BLOCKGEN_ENDPOINT", client.DefaultEndpoint),
		workspaceDB: envOrDefault("BLOCKGEN_WORKSPACE_DB", filepath.Join(dataDir, "workspaces.db")),
		redisAddr:   os.Getenv("BLOCKGEN_REDIS_ADDR"),
		workspace:   envOrDefault("BLOCKGEN_WORKSPACE", store.DefaultWorkspace),
		archiveDir:  envOrDefault("BLOCKGEN_ARCHIVE_DIR", filepath.Join(dataDir, "archive")),
	}
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()

	root := &cobra.Command{
		Use:           "blockgen",
		Short:         "Generate electronics block diagrams from product descriptions",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("blockgen {{.Version}} (" + Commit + ", " + BuildTime + ")\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.endpoint, "endpoint", opts.endpoint, "blockgen-d base URL")
	flags.StringVar(&opts.workspaceDB, "workspace-db", opts.workspaceDB, "sqlite workspace database")
	flags.StringVar(&opts.redisAddr, "redis-addr", opts.redisAddr, "redis address for shared workspaces (overrides --workspace-db)")
	flags.StringVarP(&opts.workspace, "workspace", "w", opts.workspace, "workspace name")
	flags.StringVar(&opts.archiveDir, "archive-dir", opts.archiveDir, "export archive directory")

	root.AddCommand(
		newGenerateCmd(&opts),
		newTemplateCmd(&opts),
		newBOMCmd(&opts),
		newImportCmd(&opts),
		newExportCmd(&opts),
		newArchiveCmd(&opts),
		newWorkspacesCmd(&opts),
		newHealthCmd(&opts),
		newMCPCmd(&opts),
	)
	return root
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
