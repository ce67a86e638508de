package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestGetDefaultsWhenMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	assert.Equal(t, Settings{DarkMode: true, UseDeviceColorScheme: true}, s.Get())
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := NewStore(path)

	got, err := s.Update(Patch{DarkMode: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, got.DarkMode)
	assert.True(t, got.UseDeviceColorScheme)

	reopened := NewStore(path)
	assert.Equal(t, got, reopened.Get())
}

func TestUpdateEmptyPatchDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s := NewStore(path)

	_, err := s.Update(Patch{})
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadsOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dark_mode: false\n"), 0o600))

	s := NewStore(path)
	first := s.Get()
	assert.False(t, first.DarkMode)
	assert.True(t, first.UseDeviceColorScheme)

	require.NoError(t, os.WriteFile(path, []byte("dark_mode: true\n"), 0o600))
	assert.Equal(t, first, s.Get())
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dark_mode: [oops"), 0o600))

	assert.Equal(t, Defaults(), NewStore(path).Get())
}
