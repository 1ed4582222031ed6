package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/notistack/internal/dbus"
)

// AppName is the application name on the daemon's own notifications.
const AppName = "notistack"

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// urgency maps the level to the D-Bus urgency byte.
func (l NotificationLevel) urgency() byte {
	switch l {
	case NotificationLevelInfo:
		return 0
	case NotificationLevelError:
		return 2
	default:
		return 1
	}
}

// InternalNotifier sends notifications about the daemon itself through the
// normal ingestion path. Each key is rate limited so a flapping config file
// cannot flood the popup.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	notifyHandler func(req *dbus.Request) uint32

	limiters    map[string]*rate.Limiter
	minInterval time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		limiters:    make(map[string]*rate.Limiter),
		minInterval: 5 * time.Second,
		enabled:     true,
	}
}

// SetNotifyHandler sets the function that delivers a notification, normally
// the bus server's NotifyInternal.
func (n *InternalNotifier) SetNotifyHandler(handler func(req *dbus.Request) uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with the
// same key. Existing limiters are reset.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
	n.limiters = make(map[string]*rate.Limiter)
}

func (n *InternalNotifier) limiter(key string) *rate.Limiter {
	l, ok := n.limiters[key]
	if !ok {
		limit := rate.Inf
		if n.minInterval > 0 {
			limit = rate.Every(n.minInterval)
		}
		l = rate.NewLimiter(limit, 1)
		n.limiters[key] = l
	}
	return l
}

// Notify sends an internal notification unless the key is rate limited.
// It returns the assigned ID, or 0 when nothing was sent.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) uint32 {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return 0
	}
	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return 0
	}
	if !n.limiter(key).Allow() {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return 0
	}
	n.mu.Unlock()

	req := &dbus.Request{
		AppName: AppName,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":   godbus.MakeVariant(level.urgency()),
			"transient": godbus.MakeVariant(true),
		},
		ExpireTimeout: -1,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	return handler(req)
}

// NotifyStartup announces that the daemon is running.
func (n *InternalNotifier) NotifyStartup() uint32 {
	return n.Notify("startup", AppName+" is up and running", "", NotificationLevelInfo)
}

// NotifyConfigReloaded announces a successful hot reload.
func (n *InternalNotifier) NotifyConfigReloaded(path string) uint32 {
	return n.Notify("config-reload", "Configuration reloaded", path, NotificationLevelInfo)
}

// NotifyConfigError reports a config file that failed to load. The previous
// configuration stays active.
func (n *InternalNotifier) NotifyConfigError(err error) uint32 {
	return n.Notify(
		"config-error",
		"Configuration error",
		"Keeping the previous configuration: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyAudioError reports a sound that could not be played.
func (n *InternalNotifier) NotifyAudioError(err error) uint32 {
	return n.Notify(
		"audio-error",
		"Audio error",
		"Failed to play notification sound: "+err.Error(),
		NotificationLevelWarning,
	)
}
