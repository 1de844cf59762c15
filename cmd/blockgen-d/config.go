package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAddr          = "127.0.0.1:8090"
	defaultModelTimeout  = 60 * time.Second
	defaultWebAssetsMode = "embedded"
	defaultLogLevel      = "info"
)

type Config struct {
	Addr          string
	APIKey        string
	ModelBaseURL  string
	Model         string
	ModelTimeout  time.Duration
	WebAssetsMode string
	WebDir        string
	LogLevel      slog.Level
	TLSCertFile   string
	TLSKeyFile    string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	addr := addrFromEnv(defaultAddr)
	apiKey := envOrDefaultWithFallback([]string{"BLOCKGEN_API_KEY", "OPENAI_API_KEY"}, "")
	baseURL := os.Getenv("BLOCKGEN_MODEL_BASE_URL")
	model := os.Getenv("BLOCKGEN_MODEL")
	modelTimeout := defaultModelTimeout
	if timeoutEnv := os.Getenv("BLOCKGEN_MODEL_TIMEOUT"); timeoutEnv != "" {
		parsed, err := time.ParseDuration(timeoutEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BLOCKGEN_MODEL_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("BLOCKGEN_MODEL_TIMEOUT must be positive")
		}
		modelTimeout = parsed
	}
	webAssetsMode := envOrDefault("BLOCKGEN_WEB_ASSETS_MODE", defaultWebAssetsMode)
	webDir := os.Getenv("BLOCKGEN_WEB_DIR")
	logLevel := envOrDefault("BLOCKGEN_LOG_LEVEL", defaultLogLevel)

	flagSet := flag.NewFlagSet("blockgen-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagAPIKey := flagSet.String("api-key", apiKey, "model provider API key")
	flagBaseURL := flagSet.String("model-base-url", baseURL, "OpenAI-compatible API base URL")
	flagModel := flagSet.String("model", model, "model name")
	flagModelTimeout := flagSet.String("model-timeout", modelTimeout.String(), "model request timeout")
	flagWebAssets := flagSet.String("web-assets", webAssetsMode, "web assets mode: embedded|fs|off")
	flagWebDir := flagSet.String("web-dir", webDir, "web assets directory when web-assets=fs")
	flagLogLevel := flagSet.String("log-level", logLevel, "log level: debug|info|warn|error")
	flagTLSCert := flagSet.String("tls-cert", os.Getenv("BLOCKGEN_TLS_CERT"), "TLS certificate file")
	flagTLSKey := flagSet.String("tls-key", os.Getenv("BLOCKGEN_TLS_KEY"), "TLS key file")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	timeoutParsed, err := time.ParseDuration(*flagModelTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid model timeout: %w", err)
	}
	if timeoutParsed <= 0 {
		return Config{}, errors.New("model timeout must be positive")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(*flagLogLevel))); err != nil {
		return Config{}, fmt.Errorf("invalid log level: %w", err)
	}

	config := Config{
		Addr:          strings.TrimSpace(*flagAddr),
		APIKey:        strings.TrimSpace(*flagAPIKey),
		ModelBaseURL:  strings.TrimSpace(*flagBaseURL),
		Model:         strings.TrimSpace(*flagModel),
		ModelTimeout:  timeoutParsed,
		WebAssetsMode: normalizeWebAssetsMode(*flagWebAssets),
		WebDir:        strings.TrimSpace(*flagWebDir),
		LogLevel:      level,
		TLSCertFile:   resolvePath(*flagTLSCert, cwd),
		TLSKeyFile:    resolvePath(*flagTLSKey, cwd),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return Config{}, errors.New("tls-cert and tls-key must be set together")
	}

	if config.WebAssetsMode == "fs" {
		if config.WebDir == "" {
			return Config{}, errors.New("web-assets=fs requires web-dir")
		}
		config.WebDir = resolvePath(config.WebDir, cwd)
	}

	if config.WebAssetsMode != "embedded" && config.WebAssetsMode != "fs" && config.WebAssetsMode != "off" {
		return Config{}, fmt.Errorf("unsupported web-assets mode: %s", config.WebAssetsMode)
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrDefaultWithFallback(keys []string, fallback string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("BLOCKGEN_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("BLOCKGEN_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}

func normalizeWebAssetsMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "embedded":
		return "embedded"
	case "fs", "dir", "directory":
		return "fs"
	case "off", "disabled", "none":
		return "off"
	default:
		return strings.ToLower(strings.TrimSpace(mode))
	}
}
