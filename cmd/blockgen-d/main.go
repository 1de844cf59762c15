package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rmax-ai/blockgen/pkg/api"
	"github.com/rmax-ai/blockgen/pkg/engine"
	"github.com/rmax-ai/blockgen/pkg/provider/openai"
	"github.com/rmax-ai/blockgen/web"
)

var version = "dev"

func main() {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("invalid_config", "error", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("system_started", "component", "blockgen-d", "version", version)

	model := openai.NewOpenAIProvider("openai", cfg.APIKey, cfg.ModelBaseURL, cfg.Model, cfg.ModelTimeout)
	if cfg.APIKey == "" {
		logger.Warn("model_not_configured", "hint", "set BLOCKGEN_API_KEY or OPENAI_API_KEY")
	}
	generator := engine.NewGenerator(model, logger)

	srv := api.NewServer(generator, cfg.Addr)
	srv.SetLogger(logger)
	srv.SetVersion(version)
	if cfg.TLSCertFile != "" {
		srv.SetTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}

	assets, err := webAssets(cfg)
	if err != nil {
		logger.Error("failed_to_load_web_assets", "mode", cfg.WebAssetsMode, "error", err)
		os.Exit(1)
	}
	if assets != nil {
		srv.SetStaticFS(assets)
		logger.Info("web_assets_enabled", "mode", cfg.WebAssetsMode)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("shutdown_initiated", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server_failed", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed_to_stop_server", "error", err)
	}

	logger.Info("shutdown_complete")
}

func webAssets(cfg Config) (fs.FS, error) {
	switch cfg.WebAssetsMode {
	case "off":
		return nil, nil
	case "fs":
		return os.DirFS(cfg.WebDir), nil
	default:
		return web.Assets()
	}
}
