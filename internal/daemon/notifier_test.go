package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/dbus"
	"github.com/jmylchreest/notistack/internal/model"
)

func newTestNotifier() (*InternalNotifier, *[]*dbus.Request) {
	var sent []*dbus.Request
	n := NewInternalNotifier(nil)
	n.SetNotifyHandler(func(req *dbus.Request) uint32 {
		sent = append(sent, req)
		return uint32(len(sent))
	})
	return n, &sent
}

func TestInternalNotifier_RateLimitsPerKey(t *testing.T) {
	n, sent := newTestNotifier()

	assert.Equal(t, uint32(1), n.NotifyConfigError(errors.New("first")))
	assert.Zero(t, n.NotifyConfigError(errors.New("second")), "same key within the interval")
	assert.Equal(t, uint32(2), n.NotifyConfigReloaded("/tmp/notistack.toml"))

	require.Len(t, *sent, 2)
	assert.Contains(t, (*sent)[0].Body, "first")
}

func TestInternalNotifier_IntervalElapses(t *testing.T) {
	n, sent := newTestNotifier()
	n.SetMinInterval(10 * time.Millisecond)

	n.NotifyAudioError(errors.New("a"))
	require.Eventually(t, func() bool {
		return n.NotifyAudioError(errors.New("b")) != 0
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, *sent, 2)
}

func TestInternalNotifier_NoLimit(t *testing.T) {
	n, sent := newTestNotifier()
	n.SetMinInterval(0)

	for range 3 {
		n.NotifyStartup()
	}
	assert.Len(t, *sent, 3)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n, sent := newTestNotifier()
	n.SetEnabled(false)

	assert.Zero(t, n.NotifyStartup())
	assert.Empty(t, *sent)
}

func TestInternalNotifier_NoHandler(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.Zero(t, n.NotifyStartup())
}

func TestInternalNotifier_Levels(t *testing.T) {
	tests := []struct {
		level NotificationLevel
		want  model.Urgency
	}{
		{NotificationLevelInfo, model.UrgencyLow},
		{NotificationLevelWarning, model.UrgencyNormal},
		{NotificationLevelError, model.UrgencyCritical},
	}
	for _, tt := range tests {
		n, sent := newTestNotifier()
		n.Notify("key", "summary", "", tt.level)

		require.Len(t, *sent, 1)
		req := (*sent)[0]
		assert.Equal(t, tt.want, req.Urgency())
		assert.True(t, req.Transient())
		assert.Equal(t, int32(-1), req.ExpireTimeout)
	}
}
