// Package daemon wires the notification bus, the manager and the popup
// together. It owns the ingestion path, the click policy, expiry timers,
// configuration hot reload and the daemon's own notifications.
package daemon
