package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

func TestParse_Full(t *testing.T) {
	data := []byte(`
module: build/example.wasm
env:
  LANG: de_DE.ISO-8859-1
  TZ: UTC
memory_limit_pages: 256
guest_allocation_limit: 1048576
log_level: debug
guest_output: log
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "build/example.wasm", cfg.Module)
	assert.Equal(t, map[string]string{"LANG": "de_DE.ISO-8859-1", "TZ": "UTC"}, cfg.Env)
	assert.Equal(t, uint32(256), cfg.MemoryLimitPages)
	assert.Equal(t, 1048576, cfg.GuestAllocationLimit)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, OutputLog, cfg.GuestOutput)
	assert.Len(t, cfg.HostOptions(), 3)
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Empty(t, cfg.HostOptions())
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("module: a.wasm\n"))
	require.NoError(t, err)
	assert.Equal(t, "a.wasm", cfg.Module)
	assert.Equal(t, OutputPassthrough, cfg.GuestOutput)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{name: "log level", yaml: "log_level: loud\n", wantField: "log_level"},
		{name: "guest output", yaml: "guest_output: file\n", wantField: "guest_output"},
		{name: "negative allocation limit", yaml: "guest_allocation_limit: -1\n", wantField: "guest_allocation_limit"},
		{name: "memory limit", yaml: "memory_limit_pages: 70000\n", wantField: "memory_limit_pages"},
		{name: "unknown key", yaml: "modules: x.wasm\n"},
		{name: "malformed", yaml: "env: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))

			var cfgErr *errors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wasmcall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("guest_output: log\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, OutputLog, cfg.GuestOutput)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSlogLevel_Fallback(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, Config{LogLevel: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, Config{}.SlogLevel())
}

func TestSchema(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	props, ok := decoded["properties"].(map[string]any)
	require.True(t, ok, "schema has properties")
	for _, key := range []string{"module", "env", "memory_limit_pages", "guest_allocation_limit", "log_level", "guest_output"} {
		assert.Contains(t, props, key)
	}
	assert.NotContains(t, decoded, "required")

	output := props["guest_output"].(map[string]any)
	assert.ElementsMatch(t, []any{"passthrough", "log"}, output["enum"])
}
