package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/notistack/internal/model"
)

// CloseReason represents the reason for closing a notification.
// These values are defined by the freedesktop.org notification specification.
type CloseReason uint32

const (
	// CloseReasonExpired indicates the notification expired (timeout reached).
	CloseReasonExpired CloseReason = 1
	// CloseReasonDismissed indicates the user dismissed the notification.
	CloseReasonDismissed CloseReason = 2
	// CloseReasonClosed indicates the notification was closed via CloseNotification.
	CloseReasonClosed CloseReason = 3
	// CloseReasonUndefined is reserved for undefined reasons.
	CloseReasonUndefined CloseReason = 4
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	case CloseReasonUndefined:
		return "undefined"
	default:
		return "unknown"
	}
}

// Request holds the raw parameters of a Notify call.
type Request struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire, otherwise milliseconds
}

// ParsedActions converts the D-Bus action array to structured form.
// D-Bus actions are passed as alternating key/label pairs.
func (r *Request) ParsedActions() []model.Action {
	actions := make([]model.Action, 0, len(r.Actions)/2)
	for i := 0; i+1 < len(r.Actions); i += 2 {
		actions = append(actions, model.Action{
			Key:   r.Actions[i],
			Label: r.Actions[i+1],
		})
	}
	return actions
}

// Urgency reads the urgency hint, which clients send as a byte.
func (r *Request) Urgency() model.Urgency {
	if v, ok := r.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return model.UrgencyFromByte(b)
		}
	}
	return model.UrgencyNormal
}

func (r *Request) stringHint(key string) string {
	if v, ok := r.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func (r *Request) boolHint(key string) bool {
	if v, ok := r.Hints[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// Category extracts the category hint.
func (r *Request) Category() string { return r.stringHint("category") }

// SoundFile extracts the sound-file hint.
func (r *Request) SoundFile() string { return r.stringHint("sound-file") }

// SuppressSound returns true if the suppress-sound hint is set.
func (r *Request) SuppressSound() bool { return r.boolHint("suppress-sound") }

// Transient returns true if the transient hint is set.
// Transient notifications are not written to history.
func (r *Request) Transient() bool { return r.boolHint("transient") }

// Resident returns true if the resident hint is set.
// Resident notifications stay unread after an action is invoked.
func (r *Request) Resident() bool { return r.boolHint("resident") }

// ExpireAfter resolves the requested expire timeout. -1 asks for the
// server default for the urgency; 0 and the result zero mean never.
func (r *Request) ExpireAfter(defaultTimeout func(model.Urgency) time.Duration) time.Duration {
	switch {
	case r.ExpireTimeout < 0:
		if defaultTimeout == nil {
			return 0
		}
		return defaultTimeout(r.Urgency())
	case r.ExpireTimeout == 0:
		return 0
	default:
		return time.Duration(r.ExpireTimeout) * time.Millisecond
	}
}

// Notification builds the immutable notification record for id, stamped
// with now.
func (r *Request) Notification(id uint32, now time.Time, defaultTimeout func(model.Urgency) time.Duration) model.Notification {
	return model.Notification{
		ID:            id,
		AppName:       r.AppName,
		Summary:       r.Summary,
		Body:          r.Body,
		Urgency:       r.Urgency(),
		Timestamp:     now.Unix(),
		ExpireTimeout: r.ExpireAfter(defaultTimeout),
		Actions:       r.ParsedActions(),
	}
}

// ServerCapabilities lists the capabilities advertised by notistackd.
var ServerCapabilities = []string{
	"actions",     // Default action on click
	"body",        // Support body text
	"persistence", // Notifications are written to history
	"sound",       // Play sounds
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string // "notistackd"
	Vendor      string // "notistack"
	Version     string // Build version
	SpecVersion string // "1.2"
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "notistackd",
		Vendor:      "notistack",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}
