package daemon

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/model"
)

func trackedNotification(id uint32, timeout time.Duration) model.Notification {
	return model.Notification{
		ID:            id,
		Urgency:       model.UrgencyNormal,
		Timestamp:     time.Now().Unix(),
		ExpireTimeout: timeout,
	}
}

func TestTracker_FiresOnExpiry(t *testing.T) {
	tr := newTracker()
	defer tr.stop()

	fired := make(chan trackedState, 1)
	tr.track(trackedNotification(1, 5*time.Millisecond), true, func(s trackedState) { fired <- s })

	select {
	case s := <-fired:
		assert.Equal(t, uint32(1), s.ID)
		assert.True(t, s.Resident)
		assert.False(t, s.ExpiresAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("expiry did not fire")
	}
}

func TestTracker_NoExpiry(t *testing.T) {
	tr := newTracker()
	defer tr.stop()

	tr.track(trackedNotification(1, 0), false, func(trackedState) { t.Error("must not fire") })

	s, ok := tr.get(1)
	require.True(t, ok)
	assert.True(t, s.ExpiresAt.IsZero())
	assert.Nil(t, s.timer)
}

func TestTracker_ReplaceAndRemoveCancel(t *testing.T) {
	tr := newTracker()
	defer tr.stop()

	var fired atomic.Int32
	onExpire := func(trackedState) { fired.Add(1) }

	tr.track(trackedNotification(1, 20*time.Millisecond), false, onExpire)
	tr.track(trackedNotification(1, 0), false, onExpire)
	tr.track(trackedNotification(2, 20*time.Millisecond), false, onExpire)
	tr.remove(2)

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, fired.Load())
	assert.Equal(t, 1, tr.count())
}

func TestTracker_StaleStateIgnored(t *testing.T) {
	tr := newTracker()
	defer tr.stop()

	state := &trackedState{ID: 1}
	tr.track(trackedNotification(1, 0), false, nil)

	tr.fire(state, func(trackedState) { t.Error("stale state fired") })
}

func TestTracker_Resident(t *testing.T) {
	tr := newTracker()
	defer tr.stop()

	tr.track(trackedNotification(1, 0), true, nil)
	tr.track(trackedNotification(2, 0), false, nil)

	assert.True(t, tr.resident(1))
	assert.False(t, tr.resident(2))
	assert.False(t, tr.resident(3))

	tr.stop()
	assert.Zero(t, tr.count())
}
