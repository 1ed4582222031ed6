// Package model defines the core data structures for notistack.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Urgency is the freedesktop urgency level of a notification.
type Urgency int

// Urgency levels matching freedesktop spec.
const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Urgencies lists every urgency level in ascending order.
var Urgencies = []Urgency{UrgencyLow, UrgencyNormal, UrgencyCritical}

// String returns the lowercase name of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return fmt.Sprintf("urgency(%d)", int(u))
	}
}

// Valid reports whether u is one of the three defined levels.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyNormal, UrgencyCritical:
		return true
	default:
		return false
	}
}

// ParseUrgency parses "low", "normal" or "critical" (case-insensitive).
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return UrgencyLow, nil
	case "normal":
		return UrgencyNormal, nil
	case "critical":
		return UrgencyCritical, nil
	default:
		return UrgencyNormal, fmt.Errorf("%w: %q", ErrInvalidUrgency, s)
	}
}

// UrgencyFromByte converts the D-Bus "urgency" hint value, falling back to
// normal for out-of-range values.
func UrgencyFromByte(b byte) Urgency {
	u := Urgency(b)
	if !u.Valid() {
		return UrgencyNormal
	}
	return u
}

// Notification is a single alert as received from a client.
// Once constructed it is never mutated; read/unread state lives in the manager.
type Notification struct {
	ID      uint32  `json:"id"`
	AppName string  `json:"app_name"`
	Summary string  `json:"summary"`
	Body    string  `json:"body"`
	Urgency Urgency `json:"urgency"`

	// Timestamp is seconds since the epoch, assigned at ingestion.
	Timestamp int64 `json:"timestamp"`

	// ExpireTimeout is zero when the notification never expires.
	ExpireTimeout time.Duration `json:"expire_timeout,omitempty"`

	Actions []Action `json:"actions,omitempty"`
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Validation errors.
var (
	ErrInvalidUrgency   = errors.New("urgency must be low, normal or critical")
	ErrInvalidTimestamp = errors.New("timestamp must be greater than 0")
)

// Validate checks that the notification is well formed.
func (n Notification) Validate() error {
	if !n.Urgency.Valid() {
		return ErrInvalidUrgency
	}
	if n.Timestamp <= 0 {
		return ErrInvalidTimestamp
	}
	return nil
}

// TimestampTime returns the timestamp as a time.Time.
func (n Notification) TimestampTime() time.Time {
	return time.Unix(n.Timestamp, 0)
}

// HasExpiry reports whether an expire timeout was set.
func (n Notification) HasExpiry() bool {
	return n.ExpireTimeout > 0
}

// ExpiresAt returns when the notification expires. A notification without an
// expire timeout expires at its own timestamp.
func (n Notification) ExpiresAt() time.Time {
	return n.TimestampTime().Add(n.ExpireTimeout.Truncate(time.Second))
}

// Expired reports whether the notification has expired relative to now.
// The comparison is done in whole seconds.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt().Unix() < now.Unix()
}

// HasAction reports whether the client advertised the given action key.
func (n Notification) HasAction(key string) bool {
	for _, a := range n.Actions {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Age returns the time elapsed since the notification arrived, never negative.
func (n Notification) Age(now time.Time) time.Duration {
	d := now.Sub(n.TimestampTime())
	if d < 0 {
		return 0
	}
	return d
}

// BodyTruncated returns the body truncated to maxLen characters.
// If the body is longer, it is truncated and "..." is appended.
func (n Notification) BodyTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	body := strings.Join(strings.Fields(n.Body), " ")
	runes := []rune(body)
	if len(runes) <= maxLen {
		return body
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
