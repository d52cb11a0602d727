package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/studyset/internal/config"
	"github.com/at-ishikawa/studyset/internal/inference"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	got := SetupTestConfig(t, tmpDir, "http://127.0.0.1:9000")

	want := filepath.Join(tmpDir, "config.yml")
	assert.Equal(t, want, got)

	for _, d := range []string{"cache", "outputs"} {
		info, err := os.Stat(filepath.Join(tmpDir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	cfg, err := config.Load(got)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderHTTP, cfg.Backend.Provider)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Backend.HTTP.BaseURL)
	assert.Equal(t, "test_cache", cfg.Cache.Namespace)
	assert.Equal(t, filepath.Join(tmpDir, "cache"), cfg.Cache.File.Directory)
}

func TestNewStudySet(t *testing.T) {
	got := NewStudySet(3, WithTest(2))

	assert.Len(t, got.Flashcards, 3)
	assert.Len(t, got.Quiz, 3)
	assert.Len(t, got.Test, 2)
	assert.NoError(t, inference.ValidateResult(got))
	assert.Empty(t, got.Flashcards[0].ID)
}
