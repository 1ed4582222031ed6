package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

func TestVolumeExponent(t *testing.T) {
	tests := []struct {
		volume float64
		want   float64
	}{
		{1, 0},
		{0.5, -1},
		{0.25, -2},
		{0, -100},
		{-1, -100},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, volumeExponent(tt.volume), 1e-9)
		if tt.volume > 0 {
			assert.InDelta(t, tt.volume, math.Pow(2, volumeExponent(tt.volume)), 1e-9)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "sounds/a.wav"), expandPath("~/sounds/a.wav"))
	assert.Equal(t, "/abs/a.wav", expandPath("/abs/a.wav"))
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)

	p.SetVolume(2)
	assert.Equal(t, 1.0, p.GetVolume())
	p.SetVolume(-1)
	assert.Equal(t, 0.0, p.GetVolume())
	p.SetVolume(0.3)
	assert.Equal(t, 0.3, p.GetVolume())
}

func TestPlayer_UnsupportedFormat(t *testing.T) {
	p := NewPlayer(nil)
	path := filepath.Join(t.TempDir(), "beep.flac")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	assert.ErrorIs(t, p.Play(path), ErrUnsupportedFormat)
	assert.ErrorIs(t, p.Preload(path), ErrUnsupportedFormat)
	assert.NoError(t, p.Play(""))
}

func TestPlayer_MissingFile(t *testing.T) {
	p := NewPlayer(nil)
	assert.Error(t, p.Play(filepath.Join(t.TempDir(), "missing.wav")))
}

func TestManager_SoundFor(t *testing.T) {
	dir := t.TempDir()
	lowSound := filepath.Join(dir, "low.wav")
	require.NoError(t, os.WriteFile(lowSound, []byte("x"), 0o600))

	cfg := config.DefaultConfig()
	cfg.UrgencyLow.Sound = lowSound
	cfg.UrgencyCritical.Sound = filepath.Join(dir, "missing.wav")

	m := NewManager(cfg, nil)

	tests := []struct {
		name    string
		urgency model.Urgency
		hint    string
		want    string
		ok      bool
	}{
		{"configured urgency", model.UrgencyLow, "", lowSound, true},
		{"unconfigured urgency", model.UrgencyNormal, "", "", false},
		{"missing file skipped", model.UrgencyCritical, "", "", false},
		{"hint wins", model.UrgencyLow, "/tmp/hint.ogg", "/tmp/hint.ogg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.SoundFor(tt.urgency, tt.hint)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, map[model.Urgency]string{model.UrgencyLow: lowSound}, m.Sounds())
}

func TestManager_MutedAndSuppressed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.SoundVolume = 0
	m := NewManager(cfg, nil)

	_, ok := m.SoundFor(model.UrgencyNormal, "/tmp/hint.ogg")
	assert.False(t, ok)
	assert.NoError(t, m.Play(model.UrgencyNormal, "/tmp/hint.ogg", false))

	m.UpdateConfig(config.DefaultConfig())
	_, ok = m.SoundFor(model.UrgencyNormal, "/tmp/hint.ogg")
	assert.True(t, ok)
	assert.NoError(t, m.Play(model.UrgencyNormal, "/tmp/hint.ogg", true), "suppressed sounds are not loaded")
}
