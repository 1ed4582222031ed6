package manager

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/notistack/internal/model"
)

func notification(id uint32) model.Notification {
	return model.Notification{
		ID:        id,
		AppName:   "app",
		Summary:   fmt.Sprintf("summary %d", id),
		Urgency:   model.UrgencyNormal,
		Timestamp: 1_700_000_000 + int64(id),
	}
}

func ids(ns []model.Notification) []uint32 {
	out := make([]uint32, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func TestManager_EnqueueRespectsDisplayLimit(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			m := New(limit, 10, nil)
			for id := uint32(1); id <= 12; id++ {
				m.Enqueue(notification(id))

				require.LessOrEqual(t, m.UnreadCount(), limit)

				// The retained unread set is the most recent ones.
				want := []uint32{}
				for w := max(1, int(id)-limit+1); w <= int(id); w++ {
					want = append(want, uint32(w))
				}
				assert.Equal(t, want, ids(m.UnreadBuffer(0)))
			}
		})
	}
}

func TestManager_UnlimitedDisplay(t *testing.T) {
	m := New(0, 10, nil)
	for id := uint32(1); id <= 50; id++ {
		m.Enqueue(notification(id))
	}
	assert.Equal(t, 50, m.UnreadCount())
}

func TestManager_UnreadBuffer(t *testing.T) {
	m := New(0, 10, nil)
	for id := uint32(1); id <= 5; id++ {
		m.Enqueue(notification(id))
	}

	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, ids(m.UnreadBuffer(0)))
	assert.Equal(t, []uint32{3, 4, 5}, ids(m.UnreadBuffer(3)))
	assert.Equal(t, []uint32{1, 2, 3, 4, 5}, ids(m.UnreadBuffer(10)))

	m.MarkLastAsRead()
	assert.Equal(t, []uint32{2, 3, 4}, ids(m.UnreadBuffer(3)))
}

func TestManager_LastUnread(t *testing.T) {
	m := New(0, 10, nil)

	_, err := m.LastUnread()
	assert.ErrorIs(t, err, ErrEmptyState)

	m.Enqueue(notification(1))
	m.Enqueue(notification(2))

	n, err := m.LastUnread()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n.ID)
}

func TestManager_MarkLastAsReadNeverRepeats(t *testing.T) {
	m := New(0, 10, nil)
	for id := uint32(1); id <= 4; id++ {
		m.Enqueue(notification(id))
	}

	var previous uint32
	for m.UnreadCount() > 0 {
		last, err := m.LastUnread()
		require.NoError(t, err)
		assert.NotEqual(t, previous, last.ID)

		marked, ok := m.MarkLastAsRead()
		require.True(t, ok)
		assert.Equal(t, last.ID, marked.ID)
		previous = last.ID
	}

	_, ok := m.MarkLastAsRead()
	assert.False(t, ok, "no-op when nothing is unread")
	assert.Equal(t, 4, m.ReadCount())
}

func TestManager_ReadRetention(t *testing.T) {
	m := New(0, 2, nil)
	var pruned []uint32
	m.SetRemovedCallback(func(n model.Notification, reason RemoveReason) {
		if reason == RemovedPruned {
			pruned = append(pruned, n.ID)
		}
	})

	for id := uint32(1); id <= 4; id++ {
		m.Enqueue(notification(id))
		m.MarkLastAsRead()
	}

	assert.Equal(t, 2, m.ReadCount())
	assert.Equal(t, []uint32{1, 2}, pruned)

	m.SetLimits(0, 0)
	assert.Equal(t, 0, m.ReadCount())
}

func TestManager_Dismiss(t *testing.T) {
	t.Run("end to end with display limit", func(t *testing.T) {
		m := New(2, 10, nil)
		m.Enqueue(notification(1))
		m.Enqueue(notification(2))
		m.Enqueue(notification(3))

		assert.Equal(t, 2, m.UnreadCount())
		snapshot := m.UnreadBuffer(10)
		require.Equal(t, []uint32{2, 3}, ids(snapshot))

		dismissed, ok := m.Dismiss(snapshot, 0)
		require.True(t, ok)
		assert.Equal(t, uint32(2), dismissed.ID)
		assert.Equal(t, []uint32{3}, ids(m.UnreadBuffer(10)))
	})

	t.Run("stale snapshot does not remove the wrong entry", func(t *testing.T) {
		m := New(0, 10, nil)
		m.Enqueue(notification(1))
		m.Enqueue(notification(2))
		snapshot := m.UnreadBuffer(0)

		_, ok := m.Remove(1)
		require.True(t, ok)
		m.Enqueue(notification(3))

		_, ok = m.Dismiss(snapshot, 0)
		assert.False(t, ok)
		assert.Equal(t, []uint32{2, 3}, ids(m.UnreadBuffer(0)))

		_, ok = m.Dismiss(snapshot, 1)
		assert.True(t, ok)
		assert.Equal(t, []uint32{3}, ids(m.UnreadBuffer(0)))
	})

	t.Run("read entries are not dismissed", func(t *testing.T) {
		m := New(0, 10, nil)
		m.Enqueue(notification(1))
		snapshot := m.UnreadBuffer(0)
		m.MarkLastAsRead()

		_, ok := m.Dismiss(snapshot, 0)
		assert.False(t, ok)
		assert.Equal(t, 1, m.ReadCount())
	})

	t.Run("out of range index", func(t *testing.T) {
		m := New(0, 10, nil)
		m.Enqueue(notification(1))
		snapshot := m.UnreadBuffer(0)

		for _, idx := range []int{-1, 1, 5} {
			_, ok := m.Dismiss(snapshot, idx)
			assert.False(t, ok)
		}
		assert.Equal(t, 1, m.UnreadCount())
	})
}

func TestManager_Close(t *testing.T) {
	m := New(0, 10, nil)
	var removed []RemoveReason
	m.SetRemovedCallback(func(_ model.Notification, reason RemoveReason) {
		removed = append(removed, reason)
	})
	m.Enqueue(notification(1))
	m.Enqueue(notification(2))
	m.MarkAsRead(2)

	assert.True(t, m.IsUnread(1))
	assert.False(t, m.IsUnread(2))
	assert.False(t, m.IsUnread(3))

	n, ok := m.Close(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), n.ID)
	assert.False(t, m.IsUnread(1))

	_, ok = m.Close(2)
	assert.False(t, ok, "read entries are already closed")
	assert.Equal(t, 1, m.ReadCount())

	_, ok = m.Close(1)
	assert.False(t, ok)
	assert.Equal(t, []RemoveReason{RemovedClosed}, removed)
}

func TestManager_EnqueueReplacesByID(t *testing.T) {
	m := New(0, 10, nil)
	m.Enqueue(notification(1))
	m.Enqueue(notification(2))

	updated := notification(1)
	updated.Summary = "updated"
	m.Enqueue(updated)

	buf := m.UnreadBuffer(0)
	assert.Equal(t, []uint32{1, 2}, ids(buf), "unread replacement keeps its position")
	assert.Equal(t, "updated", buf[0].Summary)

	m.MarkAsRead(2)
	m.Enqueue(notification(2))
	assert.Equal(t, []uint32{1, 2}, ids(m.UnreadBuffer(0)))
	assert.Equal(t, 0, m.ReadCount(), "read entry with the same id is replaced")
}

func TestManager_MarkAsRead(t *testing.T) {
	m := New(0, 10, nil)
	m.Enqueue(notification(1))
	m.Enqueue(notification(2))

	n, ok := m.MarkAsRead(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), n.ID)

	_, ok = m.MarkAsRead(1)
	assert.False(t, ok, "already read")
	_, ok = m.MarkAsRead(42)
	assert.False(t, ok, "unknown id")

	assert.Equal(t, []uint32{2}, ids(m.UnreadBuffer(0)))
}

func TestManager_Callbacks(t *testing.T) {
	m := New(1, 10, nil)

	var added []uint32
	removed := map[uint32]RemoveReason{}
	m.SetAddedCallback(func(n model.Notification) {
		added = append(added, n.ID)
		// Callbacks run outside the lock.
		_ = m.UnreadCount()
	})
	m.SetRemovedCallback(func(n model.Notification, reason RemoveReason) {
		removed[n.ID] = reason
	})

	m.Enqueue(notification(1))
	m.Enqueue(notification(2))
	m.Remove(2)

	assert.Equal(t, []uint32{1, 2}, added)
	assert.Equal(t, map[uint32]RemoveReason{1: RemovedEvicted, 2: RemovedClosed}, removed)
}

func TestManager_SetLimitsEvicts(t *testing.T) {
	m := New(0, 10, nil)
	for id := uint32(1); id <= 5; id++ {
		m.Enqueue(notification(id))
	}

	m.SetLimits(2, 10)
	assert.Equal(t, []uint32{4, 5}, ids(m.UnreadBuffer(0)))
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := New(3, 5, nil)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m.Enqueue(notification(uint32(w*1000 + i)))
				snapshot := m.UnreadBuffer(3)
				if len(snapshot) > 0 {
					m.Dismiss(snapshot, len(snapshot)-1)
				}
				m.MarkLastAsRead()
				_, _ = m.LastUnread()
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, m.UnreadCount(), 3)
	assert.LessOrEqual(t, m.ReadCount(), 5)
}

func TestRemoveReason_String(t *testing.T) {
	assert.Equal(t, "evicted", RemovedEvicted.String())
	assert.Equal(t, "dismissed", RemovedDismissed.String())
	assert.Equal(t, "closed", RemovedClosed.String())
	assert.Equal(t, "pruned", RemovedPruned.String())
	assert.Equal(t, "unknown", RemoveReason(0).String())
}
