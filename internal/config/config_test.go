package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "storage")
	t.Setenv("KAZBOOKS_API_URL", "https://api.kazbooks.kz")
	t.Setenv("KAZBOOKS_STORAGE_ROOT", root)
	t.Setenv("KAZBOOKS_HTTP_TIMEOUT", "")
	t.Setenv("KAZBOOKS_READER_ENGINE", "")
	t.Setenv("KAZBOOKS_VIEW_WIDTH", "")
	t.Setenv("KAZBOOKS_VIEW_HEIGHT", "")
	return root
}

func TestLoad_Defaults(t *testing.T) {
	root := setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.kazbooks.kz", cfg.APIBaseURL)
	assert.Equal(t, root, cfg.StorageRoot)
	assert.Equal(t, filepath.Join(root, "books"), cfg.BooksDir)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, EngineNative, cfg.Engine)
	assert.NotNil(t, cfg.Logger)

	// The storage root is created eagerly.
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoad_RequiresAPIURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAZBOOKS_API_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAZBOOKS_API_URL")
}

func TestLoad_RejectsMalformedAPIURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAZBOOKS_API_URL", "api.kazbooks.kz")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAZBOOKS_API_URL", "https://api.kazbooks.kz/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.kazbooks.kz", cfg.APIBaseURL)
}

func TestLoad_EngineSelection(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAZBOOKS_READER_ENGINE", "websandbox")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EngineWebSandbox, cfg.Engine)

	t.Setenv("KAZBOOKS_READER_ENGINE", "paper")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_Timeout(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("KAZBOOKS_HTTP_TIMEOUT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)

	t.Setenv("KAZBOOKS_HTTP_TIMEOUT", "soon")
	_, err = Load()
	require.Error(t, err)
}
