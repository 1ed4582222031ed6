package daemon

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/dbus"
	"github.com/jmylchreest/notistack/internal/display"
	"github.com/jmylchreest/notistack/internal/history"
	"github.com/jmylchreest/notistack/internal/manager"
	"github.com/jmylchreest/notistack/internal/model"
)

// DefaultAction is the action key sent when a notification body is clicked.
const DefaultAction = "default"

// Bus is the part of the notification server the daemon drives.
type Bus interface {
	CloseWithReason(id uint32, reason dbus.CloseReason) error
	InvokeAction(id uint32, actionKey string, resident bool) error
	NotifyInternal(req *dbus.Request) uint32
}

// History records received notifications.
type History interface {
	Add(n model.Notification) (history.Entry, error)
}

// Sounds plays the arrival sound of a notification.
type Sounds interface {
	Play(u model.Urgency, hint string, suppress bool) error
	UpdateConfig(cfg *config.Config)
}

// Display is the popup event loop.
type Display interface {
	Refresh()
	SetConfig(cfg *config.Config)
}

// Options configures a Daemon. Config, Manager and Bus are required.
type Options struct {
	Config  *config.Config
	Manager *manager.Manager
	Bus     Bus
	History History
	Sounds  Sounds
	// Level is updated from global.log_verbosity on reload.
	Level  *slog.LevelVar
	Logger *slog.Logger
}

// Daemon connects the bus to the manager and the popup.
type Daemon struct {
	cfg      atomic.Pointer[config.Config]
	manager  *manager.Manager
	bus      Bus
	history  History
	sounds   Sounds
	notifier *InternalNotifier
	tracker  *tracker
	level    *slog.LevelVar
	logger   *slog.Logger

	mu      sync.RWMutex
	display Display

	// sounds play off the bus goroutine; tests wait on them.
	soundWG sync.WaitGroup
}

// New creates a daemon and subscribes it to the manager's removals.
func New(opts Options) *Daemon {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Daemon{
		manager:  opts.Manager,
		bus:      opts.Bus,
		history:  opts.History,
		sounds:   opts.Sounds,
		notifier: NewInternalNotifier(logger),
		tracker:  newTracker(),
		level:    opts.Level,
		logger:   logger,
	}
	d.cfg.Store(opts.Config)
	d.notifier.SetNotifyHandler(d.bus.NotifyInternal)
	d.manager.SetRemovedCallback(d.onRemoved)
	return d
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	return d.cfg.Load()
}

// Notifier returns the daemon's self-notification sender.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// SetDisplay attaches the popup loop. Until then, changes are not drawn.
func (d *Daemon) SetDisplay(display Display) {
	d.mu.Lock()
	d.display = display
	d.mu.Unlock()
	d.refresh()
}

func (d *Daemon) refresh() {
	d.mu.RLock()
	display := d.display
	d.mu.RUnlock()
	if display != nil {
		display.Refresh()
	}
}

// Startup sends the startup notification when it is enabled.
func (d *Daemon) Startup() {
	if d.Config().Global.StartupNotification {
		d.notifier.NotifyStartup()
	}
}

// HandleNotify ingests a notification from the bus.
func (d *Daemon) HandleNotify(req *dbus.Request, id uint32) {
	cfg := d.Config()
	n := req.Notification(id, time.Now(), cfg.Timeout)

	d.logger.Debug("notification received",
		"id", id,
		"app", n.AppName,
		"urgency", n.Urgency,
		"replaces_id", req.ReplacesID,
	)

	d.manager.Enqueue(n)
	d.tracker.track(n, req.Resident(), d.expire)

	if d.history != nil && !req.Transient() {
		if _, err := d.history.Add(n); err != nil {
			d.logger.Warn("failed to record notification", "id", id, "error", err)
		}
	}

	if d.sounds != nil {
		hint, suppress := req.SoundFile(), req.SuppressSound()
		d.soundWG.Add(1)
		go func() {
			defer d.soundWG.Done()
			if err := d.sounds.Play(n.Urgency, hint, suppress); err != nil {
				d.logger.Debug("failed to play sound", "id", id, "error", err)
			}
		}()
	}

	d.refresh()
}

// HandleClose closes a notification on its client's request and reports
// whether it was still open. The bus emits the NotificationClosed signal
// itself.
func (d *Daemon) HandleClose(id uint32) bool {
	if _, ok := d.manager.Close(id); !ok {
		return false
	}
	d.refresh()
	return true
}

// HandlePress applies the click policy: the close band dismisses the
// notification, anywhere else invokes its default action and marks it read
// unless the client made it resident. Presses on notifications that were
// closed since the last draw are ignored.
func (d *Daemon) HandlePress(p display.Press) {
	if !p.Hit {
		return
	}
	n := p.Unread[p.Index]

	if !p.InvokeAction {
		if _, ok := d.manager.Dismiss(p.Unread, p.Index); !ok {
			d.logger.Debug("stale dismiss ignored", "id", n.ID)
			return
		}
		if err := d.bus.CloseWithReason(n.ID, dbus.CloseReasonDismissed); err != nil {
			d.logger.Warn("failed to emit close signal", "id", n.ID, "error", err)
		}
		return
	}

	resident := d.tracker.resident(n.ID)
	if resident {
		if !d.manager.IsUnread(n.ID) {
			d.logger.Debug("stale invoke ignored", "id", n.ID)
			return
		}
	} else if _, ok := d.manager.MarkAsRead(n.ID); !ok {
		d.logger.Debug("stale invoke ignored", "id", n.ID)
		return
	}

	if n.HasAction(DefaultAction) {
		if err := d.bus.InvokeAction(n.ID, DefaultAction, resident); err != nil {
			d.logger.Warn("failed to emit action signal", "id", n.ID, "error", err)
		}
	} else if !resident {
		if err := d.bus.CloseWithReason(n.ID, dbus.CloseReasonDismissed); err != nil {
			d.logger.Warn("failed to emit close signal", "id", n.ID, "error", err)
		}
	}
}

// expire runs when a notification's timeout elapses.
func (d *Daemon) expire(state trackedState) {
	if !d.Config().Urgency(state.Urgency).AutoClear {
		return
	}
	if _, ok := d.manager.MarkAsRead(state.ID); !ok {
		return
	}

	d.logger.Debug("notification expired", "id", state.ID)
	if err := d.bus.CloseWithReason(state.ID, dbus.CloseReasonExpired); err != nil {
		d.logger.Warn("failed to emit close signal", "id", state.ID, "error", err)
	}
	d.refresh()
}

// onRemoved runs after a notification leaves the manager.
func (d *Daemon) onRemoved(n model.Notification, reason manager.RemoveReason) {
	d.tracker.remove(n.ID)

	// Read entries were closed when they were read.
	if reason == manager.RemovedEvicted {
		if err := d.bus.CloseWithReason(n.ID, dbus.CloseReasonUndefined); err != nil {
			d.logger.Debug("failed to emit close signal", "id", n.ID, "error", err)
		}
	}
}

// ApplyConfig swaps in a reloaded configuration.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	d.cfg.Store(cfg)

	d.manager.SetLimits(cfg.Global.DisplayLimit, cfg.Global.RetainRead)
	if d.sounds != nil {
		d.sounds.UpdateConfig(cfg)
	}
	if d.level != nil {
		if level, ok := cfg.Global.LogLevel(); ok {
			d.level.Set(level)
		}
	}

	d.mu.RLock()
	display := d.display
	d.mu.RUnlock()
	if display != nil {
		display.SetConfig(cfg)
	}
}

// Reload applies cfg and announces it.
func (d *Daemon) Reload(cfg *config.Config) {
	d.ApplyConfig(cfg)
	d.notifier.NotifyConfigReloaded(cfg.Path)
}

// ReloadFailed reports a config file that could not be loaded.
func (d *Daemon) ReloadFailed(err error) {
	d.notifier.NotifyConfigError(err)
}

// Close stops pending expiry timers.
func (d *Daemon) Close() {
	d.tracker.stop()
}
