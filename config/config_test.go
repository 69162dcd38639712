package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wbg-runtime/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func asError(t *testing.T, err error) *errors.Error {
	t.Helper()
	var e *errors.Error
	require.True(t, stderrors.As(err, &e), "not a structured error: %v", err)
	return e
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "http://localhost/", cfg.Window.Href)
	assert.Equal(t, 1.0, cfg.Window.DevicePixelRatio)
	assert.Equal(t, 60.0, cfg.Window.FrameRate)
	assert.Equal(t, 44100.0, cfg.Audio.SampleRate)
	assert.Empty(t, cfg.Storage.Path)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "wbg.yaml", `
log:
  level: debug
wasm:
  memory_pages: 256
window:
  href: https://game.example/play/
  frame_rate: 30
storage:
  path: /tmp/wbg.db
`)
	t.Setenv("WBG_WASM_MEMORY_PAGES", "1024")
	t.Setenv("WBG_AUDIO_SAMPLE_RATE", "48000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint32(1024), cfg.Wasm.MemoryPages, "env overrides file")
	assert.Equal(t, "https://game.example/play/", cfg.Window.Href)
	assert.Equal(t, 30.0, cfg.Window.FrameRate)
	assert.Equal(t, 48000.0, cfg.Audio.SampleRate)
	assert.Equal(t, "/tmp/wbg.db", cfg.Storage.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.PhaseConfig, asError(t, err).Phase)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"level", map[string]string{"WBG_LOG_LEVEL": "loud"}},
		{"format", map[string]string{"WBG_LOG_FORMAT": "xml"}},
		{"href", map[string]string{"WBG_WINDOW_HREF": "not a url"}},
		{"pixel ratio", map[string]string{"WBG_WINDOW_DEVICE_PIXEL_RATIO": "0"}},
		{"sample rate", map[string]string{"WBG_AUDIO_SAMPLE_RATE": "10"}},
		{"memory", map[string]string{"WBG_WASM_MEMORY_PAGES": "70000"}},
		{"file root", map[string]string{"WBG_FETCH_FILE_ROOT": "/definitely/not/here"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Equal(t, errors.KindInvalidInput, asError(t, err).Kind, "got %v", err)
		})
	}
}

func TestDump(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Storage.Path = "game.db"

	var buf bytes.Buffer
	require.NoError(t, cfg.Dump(&buf))

	var back Config
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, *cfg, back)
	assert.Contains(t, buf.String(), "device_pixel_ratio: 1")
}

func TestRuntimeMapping(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Wasm.MemoryPages = 512
	cfg.Fetch.BaseURL = "https://cdn.example/"

	log, err := cfg.Logger()
	require.NoError(t, err)

	rc := cfg.Runtime(log)
	assert.Equal(t, uint32(512), rc.MemoryLimitPages)
	assert.Equal(t, "https://cdn.example/", rc.BaseURL)
	assert.Equal(t, cfg.Window.Href, rc.Href)
	assert.Equal(t, cfg.Audio.SampleRate, rc.SampleRate)
	assert.NotNil(t, rc.HTTPClient)
	assert.Same(t, log, rc.Logger)
}

func TestLogger_JSON(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(-1))
	assert.True(t, log.Core().Enabled(1))
}
