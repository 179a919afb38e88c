package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupConfigDir creates a temporary config directory. Non-empty configYAML
// and envFile contents are written to config.yaml and thqm.env.
func SetupConfigDir(t *testing.T, configYAML, envFile string) string {
	t.Helper()

	dir := t.TempDir()
	if configYAML != "" {
		WriteTestFile(t, dir, "config.yaml", configYAML)
	}
	if envFile != "" {
		WriteTestFile(t, dir, "thqm.env", envFile)
	}
	return dir
}

// WriteTestFile writes content to path relative to base, creating parent
// directories as needed.
func WriteTestFile(t *testing.T, base, path, content string) string {
	t.Helper()

	full := filepath.Join(base, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}
