package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"storypark/pkg/config"
)

func TestExampleConfigParses(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(exampleConfig), cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.DefaultConfig().Storypark.BaseURL, cfg.Storypark.BaseURL)
	assert.Equal(t, 3, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 60*time.Second, cfg.Download.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
	assert.Empty(t, cfg.Storypark.SessionID)
}

func TestMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storypark.SessionID = "abcd1234567890wxyz"

	display := maskedConfig(cfg)
	assert.Equal(t, "abcd...wxyz", display.Storypark.SessionID)
	assert.Equal(t, "abcd1234567890wxyz", cfg.Storypark.SessionID, "original must be untouched")
}

func TestCheckPaths(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	cfg := config.DefaultConfig()
	cfg.Output.RootPath = filepath.Join(dir, "archive")
	cfg.Logging.File = filepath.Join(dir, "logs", "storypark.log")
	assert.Empty(t, checkPaths(cfg))
	assert.DirExists(t, cfg.Output.RootPath)

	cfg.Output.ManifestFile = filepath.Join(blocker, "manifest.jsonl")
	assert.Len(t, checkPaths(cfg), 1)
}
