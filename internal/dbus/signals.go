package dbus

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when a signal is emitted before Start.
var ErrNotConnected = errors.New("not connected to D-Bus")

// EmitNotificationClosed emits the NotificationClosed signal.
func (s *Server) EmitNotificationClosed(id uint32, reason CloseReason) error {
	if s.emitter == nil {
		return ErrNotConnected
	}

	err := s.emitter.Emit(DBusPath, DBusInterface+".NotificationClosed", id, uint32(reason))
	if err != nil {
		return fmt.Errorf("failed to emit NotificationClosed signal: %w", err)
	}

	s.logger.Debug("emitted NotificationClosed signal", "id", id, "reason", reason.String())
	return nil
}

// EmitActionInvoked emits the ActionInvoked signal.
func (s *Server) EmitActionInvoked(id uint32, actionKey string) error {
	if s.emitter == nil {
		return ErrNotConnected
	}

	err := s.emitter.Emit(DBusPath, DBusInterface+".ActionInvoked", id, actionKey)
	if err != nil {
		return fmt.Errorf("failed to emit ActionInvoked signal: %w", err)
	}

	s.logger.Debug("emitted ActionInvoked signal", "id", id, "action_key", actionKey)
	return nil
}

// CloseWithReason sends NotificationClosed. The caller owns the open to
// closed transition and calls this once per notification.
func (s *Server) CloseWithReason(id uint32, reason CloseReason) error {
	return s.EmitNotificationClosed(id, reason)
}

// InvokeAction sends ActionInvoked, followed by NotificationClosed(dismissed)
// unless the notification is resident.
func (s *Server) InvokeAction(id uint32, actionKey string, resident bool) error {
	if err := s.EmitActionInvoked(id, actionKey); err != nil {
		return err
	}
	if resident {
		return nil
	}
	return s.CloseWithReason(id, CloseReasonDismissed)
}
