package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, 4, cfg.Engine.Threads)
	assert.Equal(t, "4GB", cfg.Engine.MemoryLimit)
	assert.Equal(t, 1000, cfg.Engine.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.Client.CallTimeout)
	assert.Equal(t, 5*time.Second, cfg.Client.ShutdownWait)
	assert.Equal(t, 64, cfg.Client.QueueSize)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Engine.Threads)
	assert.Equal(t, 1000, cfg.Engine.DefaultLimit)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `env: production
log_level: warn
engine:
  threads: 8
  memory_limit: 8GB
  default_limit: 500
client:
  call_timeout: 10s
  queue_size: 128
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Engine.Threads)
	assert.Equal(t, "8GB", cfg.Engine.MemoryLimit)
	assert.Equal(t, 500, cfg.Engine.DefaultLimit)
	assert.Equal(t, 10*time.Second, cfg.Client.CallTimeout)
	assert.Equal(t, 128, cfg.Client.QueueSize)
	// Unset fields still fall back to defaults.
	assert.Equal(t, 5*time.Second, cfg.Client.ShutdownWait)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CSVSCOPE_ENGINE_THREADS", "2")
	t.Setenv("CSVSCOPE_CALL_TIMEOUT", "7s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.Threads)
	assert.Equal(t, 7*time.Second, cfg.Client.CallTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		// Zero values are indistinguishable from unset and pick up the
		// defaults, so only explicit negatives reach validation.
		{
			name: "negative threads",
			content: `engine:
  threads: -2
`,
		},
		{
			name: "negative default limit",
			content: `engine:
  default_limit: -1
`,
		},
		{
			name: "negative queue size",
			content: `client:
  queue_size: -8
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}
