package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// EngineKind selects the EPUB rendering embedding used by the reader.
type EngineKind string

const (
	EngineNative     EngineKind = "native"
	EngineWebSandbox EngineKind = "websandbox"
)

type Config struct {
	APIBaseURL  string
	StorageRoot string
	BooksDir    string
	HTTPTimeout time.Duration
	Engine      EngineKind
	ViewWidth   int
	ViewHeight  int
	Logger      *zap.Logger
}

func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		// It's okay if .env file doesn't exist in production
		fmt.Printf("Warning: Could not load .env file: %v\n", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	apiBaseURL := os.Getenv("KAZBOOKS_API_URL")
	if apiBaseURL == "" {
		return nil, fmt.Errorf("KAZBOOKS_API_URL environment variable is required")
	}
	if !strings.HasPrefix(apiBaseURL, "http://") && !strings.HasPrefix(apiBaseURL, "https://") {
		return nil, fmt.Errorf("invalid KAZBOOKS_API_URL %q - must start with http:// or https://", apiBaseURL)
	}
	apiBaseURL = strings.TrimSuffix(apiBaseURL, "/")

	// Storage root (default to "data"); the books directory lives under it.
	storageRoot := os.Getenv("KAZBOOKS_STORAGE_ROOT")
	if storageRoot == "" {
		storageRoot = "data"
	}

	// Parse HTTP timeout in seconds (default to 30)
	timeout := 30 * time.Second
	if s := os.Getenv("KAZBOOKS_HTTP_TIMEOUT"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("failed to parse KAZBOOKS_HTTP_TIMEOUT: %q", s)
		}
		timeout = time.Duration(secs) * time.Second
	}

	engine := EngineNative
	switch strings.ToLower(os.Getenv("KAZBOOKS_READER_ENGINE")) {
	case "", string(EngineNative):
	case string(EngineWebSandbox):
		engine = EngineWebSandbox
	default:
		return nil, fmt.Errorf("invalid KAZBOOKS_READER_ENGINE %q - must be %q or %q",
			os.Getenv("KAZBOOKS_READER_ENGINE"), EngineNative, EngineWebSandbox)
	}

	width := intEnv("KAZBOOKS_VIEW_WIDTH", 390)
	height := intEnv("KAZBOOKS_VIEW_HEIGHT", 764)

	// Create storage root if it doesn't exist
	if err := os.MkdirAll(storageRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}

	return &Config{
		APIBaseURL:  apiBaseURL,
		StorageRoot: storageRoot,
		BooksDir:    filepath.Join(storageRoot, "books"),
		HTTPTimeout: timeout,
		Engine:      engine,
		ViewWidth:   width,
		ViewHeight:  height,
		Logger:      logger,
	}, nil
}

func intEnv(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return def
}
