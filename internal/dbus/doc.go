// Package dbus implements the org.freedesktop.Notifications D-Bus interface.
// The server decodes Notify calls into model.Notification values for the
// daemon and emits the NotificationClosed and ActionInvoked signals.
package dbus
