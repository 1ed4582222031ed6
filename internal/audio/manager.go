package audio

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"sync"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

// Manager picks and plays the sound for each incoming notification.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	watcher *Watcher
	volume  int
	sounds  map[model.Urgency]string
}

// NewManager creates a new audio manager.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	player := NewPlayer(logger)
	m := &Manager{
		logger:  logger,
		player:  player,
		watcher: NewWatcher(player, logger),
		sounds:  make(map[model.Urgency]string),
	}
	m.apply(cfg)
	return m
}

// apply loads volume and per-urgency sounds from cfg. Missing files are
// logged and skipped.
func (m *Manager) apply(cfg *config.Config) {
	sounds := make(map[model.Urgency]string)
	volume := 0
	if cfg != nil {
		volume = cfg.Global.SoundVolume
		for _, u := range model.Urgencies {
			path := cfg.Urgency(u).Sound
			if path == "" {
				continue
			}
			path = expandPath(path)
			if _, err := os.Stat(path); err != nil {
				m.logger.Warn("sound file not found", "urgency", u, "path", path)
				continue
			}
			sounds[u] = path
		}
	}

	m.mu.Lock()
	m.volume = volume
	m.sounds = sounds
	m.mu.Unlock()

	m.player.SetVolume(float64(volume) / 100)
}

// Start preloads the configured sounds and watches them for changes.
func (m *Manager) Start(ctx context.Context) error {
	m.preload()
	if err := m.watcher.Start(ctx); err != nil {
		return err
	}

	m.logger.Info("audio manager started", "sounds", len(m.Sounds()))
	return nil
}

func (m *Manager) preload() {
	for _, path := range m.Sounds() {
		if err := m.player.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.player.Close()
}

// Sounds returns the configured sound per urgency.
func (m *Manager) Sounds() map[model.Urgency]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.sounds)
}

// SoundFor returns the file to play for a notification: the client's hint
// when given, otherwise the urgency's configured sound. It returns false
// when playback is muted.
func (m *Manager) SoundFor(u model.Urgency, hint string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.volume <= 0 {
		return "", false
	}
	if hint != "" {
		return expandPath(hint), true
	}
	path, ok := m.sounds[u]
	return path, ok
}

// Play plays the sound for a notification. suppress comes from the
// client's suppress-sound hint.
func (m *Manager) Play(u model.Urgency, hint string, suppress bool) error {
	if suppress {
		return nil
	}
	path, ok := m.SoundFor(u, hint)
	if !ok {
		return nil
	}
	return m.player.Play(path)
}

// UpdateConfig applies a reloaded configuration.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.player.ClearCache()
	m.apply(cfg)
	m.preload()
	m.logger.Debug("audio manager reloaded")
}
