package display

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/manager"
	"github.com/jmylchreest/notistack/internal/model"
)

const waitFor = 2 * time.Second

// startLoop runs a loop over a fresh window until the test ends.
func startLoop(t *testing.T, cfg *config.Config, mgr *manager.Manager, onPress PressFunc) (*Loop, *fakeWindow) {
	t.Helper()

	win := newFakeWindow()
	loop := NewLoop(cfg, win, mgr, NewDriver(win, nil, nil), onPress, nil)
	loop.tick = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("loop did not stop")
		}
	})
	return loop, win
}

func newManager(ids ...uint32) *manager.Manager {
	m := manager.New(0, 10, nil)
	for _, id := range ids {
		n := testNotification(id, model.UrgencyNormal)
		n.Timestamp = time.Now().Unix()
		m.Enqueue(n)
	}
	return m
}

func TestLoop_PressCloseBandVersusInvoke(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1, 2)

	presses := make(chan Press, 4)
	loop, win := startLoop(t, cfg, mgr, func(p Press) { presses <- p })
	loop.Refresh()
	require.Eventually(t, win.isMapped, waitFor, time.Millisecond)

	width := cfg.Global.WrapWidth()
	win.press(width-1, 5)
	win.press(0, 5)

	closePress := <-presses
	invokePress := <-presses

	for _, p := range []Press{closePress, invokePress} {
		require.True(t, p.Hit)
		assert.Equal(t, 1, p.Index, "newest notification is on top")
		assert.Equal(t, uint32(2), p.Unread[p.Index].ID)
	}
	assert.False(t, closePress.InvokeAction)
	assert.True(t, invokePress.InvokeAction)

	assert.Equal(t, 2, mgr.UnreadCount(), "the loop never marks anything itself")
}

func TestLoop_PressOnSeparatorMisses(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1, 2)

	presses := make(chan Press, 1)
	loop, win := startLoop(t, cfg, mgr, func(p Press) { presses <- p })
	loop.Refresh()
	require.Eventually(t, win.isMapped, waitFor, time.Millisecond)

	// Blocks are [0,20), separator [20,22), [22,42).
	win.press(10, 21)
	p := <-presses
	assert.False(t, p.Hit)
	assert.Len(t, p.Unread, 2)
}

func TestLoop_DismissEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := manager.New(2, 10, nil)
	for id := uint32(1); id <= 3; id++ {
		mgr.Enqueue(testNotification(id, model.UrgencyNormal))
	}
	require.Equal(t, 2, mgr.UnreadCount())

	dismissed := make(chan bool, 1)
	loop, win := startLoop(t, cfg, mgr, func(p Press) {
		if !p.Hit || p.InvokeAction {
			dismissed <- false
			return
		}
		_, ok := mgr.Dismiss(p.Unread, p.Index)
		dismissed <- ok
	})
	loop.Refresh()
	require.Eventually(t, win.isMapped, waitFor, time.Millisecond)

	// Notification 2 is the lower of the two blocks.
	win.press(cfg.Global.WrapWidth()-1, 30)
	require.True(t, <-dismissed)

	buf := mgr.UnreadBuffer(10)
	require.Len(t, buf, 1)
	assert.Equal(t, uint32(3), buf[0].ID)
}

func TestLoop_StaleDismissIsNoop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1, 2)

	results := make(chan bool, 1)
	loop, win := startLoop(t, cfg, mgr, func(p Press) {
		// Another context removes the notification before the dismiss.
		mgr.Remove(p.Unread[p.Index].ID)
		_, ok := mgr.Dismiss(p.Unread, p.Index)
		results <- ok
	})
	loop.Refresh()
	require.Eventually(t, win.isMapped, waitFor, time.Millisecond)

	win.press(cfg.Global.WrapWidth()-1, 5)
	assert.False(t, <-results)
	assert.Equal(t, 1, mgr.UnreadCount())
}

func TestLoop_BlocksWhenRefreshDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1)

	loop, win := startLoop(t, cfg, mgr, nil)
	loop.Refresh()
	require.Eventually(t, func() bool { return len(win.blockFlags()) >= 2 }, waitFor, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	for _, block := range win.blockFlags() {
		assert.True(t, block)
	}
	assert.Equal(t, 1, win.surface.flushCount())
}

func TestLoop_BlocksWhenNothingUnread(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 5
	mgr := newManager()

	loop, win := startLoop(t, cfg, mgr, nil)
	loop.Refresh()
	require.Eventually(t, func() bool { return len(win.blockFlags()) >= 2 }, waitFor, time.Millisecond)

	for _, block := range win.blockFlags() {
		assert.True(t, block)
	}
	assert.False(t, win.isMapped())
	assert.Zero(t, win.surface.flushCount())
}

func TestLoop_PollsAndRedrawsOnInterval(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 10
	mgr := newManager(1)

	loop, win := startLoop(t, cfg, mgr, nil)
	loop.Refresh()

	require.Eventually(t, func() bool { return win.surface.flushCount() >= 3 }, waitFor, time.Millisecond,
		"age labels are redrawn without new events")
	assert.Contains(t, win.blockFlags(), false)
}

func TestLoop_UnmapsWhenEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1)

	loop, win := startLoop(t, cfg, mgr, nil)
	loop.Refresh()
	require.Eventually(t, win.isMapped, waitFor, time.Millisecond)

	mgr.MarkLastAsRead()
	loop.Refresh()
	require.Eventually(t, func() bool { return !win.isMapped() }, waitFor, time.Millisecond)
}

func TestLoop_RenderFailureSkipsFrame(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1)

	win := newFakeWindow()
	win.surface.flushErr = errors.New("broken pipe")
	loop := NewLoop(cfg, win, mgr, NewDriver(win, nil, nil), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.Refresh()
	require.Eventually(t, func() bool { return len(win.blockFlags()) >= 2 }, waitFor, time.Millisecond)
	assert.False(t, win.isMapped())

	cancel()
	assert.NoError(t, <-done)
}

func TestLoop_SetConfigRedraws(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Global.RefreshIntervalMS = 0
	mgr := newManager(1)

	loop, win := startLoop(t, cfg, mgr, nil)
	loop.Refresh()
	require.Eventually(t, func() bool { return win.surface.flushCount() == 1 }, waitFor, time.Millisecond)

	next := config.DefaultConfig()
	next.Global.RefreshIntervalMS = 0
	next.Global.Geometry.Width = 400
	loop.SetConfig(next)

	require.Eventually(t, func() bool {
		w, _ := win.surface.Size()
		return w == 400
	}, waitFor, time.Millisecond)
	assert.Same(t, next, loop.Config())
}
