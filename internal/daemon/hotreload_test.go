package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/config"
)

func startConfigWatcher(t *testing.T, path string) (*ConfigWatcher, chan *config.Config, chan error) {
	t.Helper()

	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	reloads := make(chan *config.Config, 4)
	errs := make(chan error, 4)
	w.SetReloadCallback(func(cfg *config.Config) { reloads <- cfg })
	w.SetErrorCallback(func(err error) { errs <- err })

	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	t.Cleanup(w.Stop)
	return w, reloads, errs
}

func TestConfigWatcher_ReloadsValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notistack.toml")
	require.NoError(t, os.WriteFile(path, []byte("[global]\ndisplay_limit = 5\n"), 0o600))

	w, reloads, _ := startConfigWatcher(t, path)

	require.NoError(t, os.WriteFile(path, []byte("[global]\ndisplay_limit = 3\n"), 0o600))

	select {
	case cfg := <-reloads:
		assert.Equal(t, 3, cfg.Global.DisplayLimit)
		assert.Equal(t, path, cfg.Path)
		assert.Same(t, cfg, w.CurrentConfig())
	case <-time.After(2 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcher_KeepsConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notistack.toml")
	w, reloads, errs := startConfigWatcher(t, path)
	initial := w.CurrentConfig()

	require.NoError(t, os.WriteFile(path, []byte("[global]\norigin = \"middle\"\n"), 0o600))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, path)
	case <-time.After(2 * time.Second):
		t.Fatal("error callback was not called")
	}
	assert.Empty(t, reloads)
	assert.Same(t, initial, w.CurrentConfig())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	_, reloads, errs := startConfigWatcher(t, filepath.Join(dir, "notistack.toml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("garbage"), 0o600))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, reloads)
	assert.Empty(t, errs)
}

func TestConfigWatcher_DefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	w, err := NewConfigWatcher("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.ConfigPath(), w.Path())
}
