package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotification_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Notification)
		wantErr error
	}{
		{
			name:    "valid notification",
			modify:  func(n *Notification) {},
			wantErr: nil,
		},
		{
			name: "empty summary is allowed",
			modify: func(n *Notification) {
				n.Summary = ""
			},
			wantErr: nil,
		},
		{
			name: "invalid urgency (negative)",
			modify: func(n *Notification) {
				n.Urgency = -1
			},
			wantErr: ErrInvalidUrgency,
		},
		{
			name: "invalid urgency (too high)",
			modify: func(n *Notification) {
				n.Urgency = 3
			},
			wantErr: ErrInvalidUrgency,
		},
		{
			name: "invalid timestamp",
			modify: func(n *Notification) {
				n.Timestamp = 0
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNotification()
			tt.modify(&n)
			err := n.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUrgency_String(t *testing.T) {
	assert.Equal(t, "low", UrgencyLow.String())
	assert.Equal(t, "normal", UrgencyNormal.String())
	assert.Equal(t, "critical", UrgencyCritical.String())
	assert.Equal(t, "urgency(7)", Urgency(7).String())
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in      string
		want    Urgency
		wantErr bool
	}{
		{"low", UrgencyLow, false},
		{"Normal", UrgencyNormal, false},
		{" CRITICAL ", UrgencyCritical, false},
		{"urgent", UrgencyNormal, true},
		{"", UrgencyNormal, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUrgency(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidUrgency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUrgencyFromByte(t *testing.T) {
	assert.Equal(t, UrgencyLow, UrgencyFromByte(0))
	assert.Equal(t, UrgencyNormal, UrgencyFromByte(1))
	assert.Equal(t, UrgencyCritical, UrgencyFromByte(2))
	assert.Equal(t, UrgencyNormal, UrgencyFromByte(9))
}

func TestNotification_Expired(t *testing.T) {
	now := time.Unix(1_700_000_100, 0)

	tests := []struct {
		name      string
		timestamp int64
		expire    time.Duration
		want      bool
	}{
		{"no timeout, same second", now.Unix(), 0, false},
		{"no timeout, one second later", now.Unix() - 1, 0, true},
		{"timeout not yet reached", now.Unix() - 5, 10 * time.Second, false},
		{"timeout reached exactly", now.Unix() - 10, 10 * time.Second, false},
		{"timeout passed", now.Unix() - 11, 10 * time.Second, true},
		{"sub-second timeout rounds down", now.Unix() - 1, 900 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Notification{Timestamp: tt.timestamp, ExpireTimeout: tt.expire}
			assert.Equal(t, tt.want, n.Expired(now))
		})
	}
}

func TestNotification_Age(t *testing.T) {
	now := time.Unix(1_700_000_100, 0)
	assert.Equal(t, 100*time.Second, Notification{Timestamp: 1_700_000_000}.Age(now))
	assert.Equal(t, time.Duration(0), Notification{Timestamp: 1_700_000_200}.Age(now))
}

func TestNotification_HasAction(t *testing.T) {
	n := validNotification()
	n.Actions = []Action{{Key: "default", Label: "Open"}, {Key: "reply", Label: "Reply"}}

	assert.True(t, n.HasAction("default"))
	assert.True(t, n.HasAction("reply"))
	assert.False(t, n.HasAction("archive"))
}

func TestNotification_BodyTruncated(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		maxLen int
		want   string
	}{
		{"short body", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"very short max", "hello", 3, "hel"},
		{"zero max", "hello", 0, ""},
		{"negative max", "hello", -1, ""},
		{"multiline body", "hello\nworld\ntest", 20, "hello world test"},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Notification{Body: tt.body}
			assert.Equal(t, tt.want, n.BodyTruncated(tt.maxLen))
		})
	}
}

func TestNotification_TimestampTime(t *testing.T) {
	ts := int64(1703577600)
	n := Notification{Timestamp: ts}
	assert.Equal(t, time.Unix(ts, 0), n.TimestampTime())
}

func validNotification() Notification {
	return Notification{
		ID:        123,
		AppName:   "firefox",
		Summary:   "Download Complete",
		Body:      "myfile.zip has finished downloading",
		Timestamp: time.Now().Unix(),
		Urgency:   UrgencyNormal,
	}
}
