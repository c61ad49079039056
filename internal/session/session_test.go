package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_SetTokenClear(t *testing.T) {
	s := NewStore(t.TempDir(), zap.NewNop())

	_, ok := s.Token()
	assert.False(t, ok, "fresh store must have no token")

	require.NoError(t, s.Set("access-1", "refresh-1", &Profile{Email: "aigerim@example.kz"}))

	token, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "access-1", token)

	refresh, ok := s.RefreshToken()
	require.True(t, ok)
	assert.Equal(t, "refresh-1", refresh)

	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "aigerim@example.kz", user.Email)

	require.NoError(t, s.Clear())
	_, ok = s.Token()
	assert.False(t, ok)
	_, ok = s.User()
	assert.False(t, ok)
}

func TestStore_PersistsAcrossRestarts(t *testing.T) {
	root := t.TempDir()

	s := NewStore(root, zap.NewNop())
	require.NoError(t, s.Set("access-1", "refresh-1", &Profile{Email: "aigerim@example.kz"}))

	// A new store over the same root picks the session up.
	s2 := NewStore(root, zap.NewNop())
	token, ok := s2.Token()
	require.True(t, ok)
	assert.Equal(t, "access-1", token)

	user, ok := s2.User()
	require.True(t, ok)
	assert.Equal(t, "aigerim@example.kz", user.Email)
}

func TestStore_SessionFilePermissions(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, zap.NewNop())
	require.NoError(t, s.Set("access-1", "", nil))

	info, err := os.Stat(filepath.Join(root, "session.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_IgnoresCorruptSessionFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "session.json"), []byte("{not json"), 0600))

	s := NewStore(root, zap.NewNop())
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestStore_ClearWithoutFile(t *testing.T) {
	s := NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, s.Clear())
}
