package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name to claim.
	DBusBusName = "org.freedesktop.Notifications"
)

// NotifyHandler receives an accepted notification. It runs before Notify
// returns, so the ID is registered before the client sees it.
type NotifyHandler func(req *Request, id uint32)

// CloseHandler closes the notification with the given ID and reports
// whether it was still open.
type CloseHandler func(id uint32) bool

// Registry reports which notification IDs are still open. The daemon backs
// it with the manager's unread set.
type Registry interface {
	IsUnread(id uint32) bool
}

// emitter is the part of *dbus.Conn used to send signals.
type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Server exports org.freedesktop.Notifications on the session bus. It hands
// out IDs and sends signals; which notifications are open is owned by the
// Registry.
type Server struct {
	conn    *dbus.Conn
	emitter emitter
	logger  *slog.Logger

	nextID atomic.Uint32

	notifyHandler NotifyHandler
	closeHandler  CloseHandler
	registry      Registry
	serverInfo    ServerInfo

	mu      sync.Mutex
	running bool
}

// NewServer creates a server. Until a Registry is set no ID counts as open,
// so every replaces_id is treated as a new notification.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger:     logger,
		serverInfo: DefaultServerInfo(),
	}
}

// SetNotifyHandler sets the handler for accepted notifications.
func (s *Server) SetNotifyHandler(handler NotifyHandler) {
	s.notifyHandler = handler
}

// SetCloseHandler sets the handler for CloseNotification.
func (s *Server) SetCloseHandler(handler CloseHandler) {
	s.closeHandler = handler
}

// SetRegistry sets the source of open notification IDs.
func (s *Server) SetRegistry(r Registry) {
	s.registry = r
}

// SetServerInfo sets the reply of GetServerInformation.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.serverInfo = info
}

// Start connects to the session bus, exports the interface and claims the
// well-known name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}
	if err := conn.Export(introspect.NewIntrospectable(introspectNode()), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.conn = conn
	s.emitter = conn
	s.running = true
	s.logger.Info("notification server started", "name", DBusBusName, "path", DBusPath)
	return nil
}

// Stop releases the bus name. The shared session connection stays open.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		return fmt.Errorf("failed to release bus name: %w", err)
	}
	s.logger.Info("notification server stopped")
	return nil
}

// GetCapabilities implements GetCapabilities() -> as.
func (s *Server) GetCapabilities() ([]string, *dbus.Error) {
	return ServerCapabilities, nil
}

// GetServerInformation implements GetServerInformation() -> (ssss).
func (s *Server) GetServerInformation() (string, string, string, string, *dbus.Error) {
	info := s.serverInfo
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify implements Notify(susssasa{sv}i) -> u. A replaces_id is honoured
// only while that notification is open; otherwise the request gets a fresh
// ID and ReplacesID is cleared.
func (s *Server) Notify(
	appName string,
	replacesID uint32,
	appIcon string,
	summary string,
	body string,
	actions []string,
	hints map[string]dbus.Variant,
	expireTimeout int32,
) (uint32, *dbus.Error) {
	req := &Request{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}

	id := replacesID
	if id == 0 || !s.isOpen(id) {
		if id != 0 {
			s.logger.Debug("replaces_id is not open", "replaces_id", id, "app", appName)
		}
		req.ReplacesID = 0
		id = s.allocateID()
	}

	s.deliver(req, id)
	return id, nil
}

// NotifyInternal delivers a notification raised by the daemon itself
// through the same path as bus clients.
func (s *Server) NotifyInternal(req *Request) uint32 {
	req.ReplacesID = 0
	id := s.allocateID()
	s.deliver(req, id)
	return id
}

// CloseNotification implements CloseNotification(u). NotificationClosed is
// sent only when the notification was still open.
func (s *Server) CloseNotification(id uint32) *dbus.Error {
	if s.closeHandler == nil || !s.closeHandler(id) {
		s.logger.Debug("close of unknown notification ignored", "id", id)
		return nil
	}
	if err := s.EmitNotificationClosed(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to emit close signal", "id", id, "error", err)
	}
	return nil
}

// IsOpen reports whether the notification is still open.
func (s *Server) IsOpen(id uint32) bool {
	return s.isOpen(id)
}

func (s *Server) isOpen(id uint32) bool {
	return s.registry != nil && s.registry.IsUnread(id)
}

// allocateID returns the next ID that is neither zero nor open. Open IDs are
// skipped after the counter wraps.
func (s *Server) allocateID() uint32 {
	for {
		if id := s.nextID.Add(1); id != 0 && !s.isOpen(id) {
			return id
		}
	}
}

func (s *Server) deliver(req *Request, id uint32) {
	s.logger.Debug("notification accepted",
		"id", id,
		"app", req.AppName,
		"replaces_id", req.ReplacesID,
	)
	if s.notifyHandler != nil {
		s.notifyHandler(req, id)
	}
}

func introspectNode() *introspect.Node {
	return &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: notificationMethods(),
				Signals: notificationSignals(),
			},
		},
	}
}

// notificationMethods returns the D-Bus method introspection data.
func notificationMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetCapabilities",
			Args: []introspect.Arg{
				{Name: "capabilities", Type: "as", Direction: "out"},
			},
		},
		{
			Name: "GetServerInformation",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "out"},
				{Name: "vendor", Type: "s", Direction: "out"},
				{Name: "version", Type: "s", Direction: "out"},
				{Name: "spec_version", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Notify",
			Args: []introspect.Arg{
				{Name: "app_name", Type: "s", Direction: "in"},
				{Name: "replaces_id", Type: "u", Direction: "in"},
				{Name: "app_icon", Type: "s", Direction: "in"},
				{Name: "summary", Type: "s", Direction: "in"},
				{Name: "body", Type: "s", Direction: "in"},
				{Name: "actions", Type: "as", Direction: "in"},
				{Name: "hints", Type: "a{sv}", Direction: "in"},
				{Name: "expire_timeout", Type: "i", Direction: "in"},
				{Name: "id", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "CloseNotification",
			Args: []introspect.Arg{
				{Name: "id", Type: "u", Direction: "in"},
			},
		},
	}
}

// notificationSignals returns the D-Bus signal introspection data.
func notificationSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "NotificationClosed",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "reason", Type: "u"},
			},
		},
		{
			Name: "ActionInvoked",
			Args: []introspect.Arg{
				{Name: "id", Type: "u"},
				{Name: "action_key", Type: "s"},
			},
		},
	}
}
