// Package manager holds the live set of notifications shown by the daemon.
//
// The manager is shared between the ingestion path (D-Bus) and the event
// loop. All state sits behind one mutex; callbacks run after the lock is
// released so they may call back into the manager.
package manager

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jmylchreest/notistack/internal/model"
)

// ErrEmptyState is returned by queries that need an unread notification when
// there is none.
var ErrEmptyState = errors.New("no unread notifications")

// RemoveReason says why a notification left the manager.
type RemoveReason int

const (
	// RemovedEvicted: pushed out by the display limit.
	RemovedEvicted RemoveReason = iota + 1
	// RemovedDismissed: dismissed from the popup.
	RemovedDismissed
	// RemovedClosed: closed by the client or replaced after being read.
	RemovedClosed
	// RemovedPruned: a read entry dropped by the retention cap.
	RemovedPruned
)

func (r RemoveReason) String() string {
	switch r {
	case RemovedEvicted:
		return "evicted"
	case RemovedDismissed:
		return "dismissed"
	case RemovedClosed:
		return "closed"
	case RemovedPruned:
		return "pruned"
	default:
		return "unknown"
	}
}

// AddedCallback is called after a notification is enqueued.
type AddedCallback func(n model.Notification)

// RemovedCallback is called after a notification leaves the manager.
type RemovedCallback func(n model.Notification, reason RemoveReason)

type entry struct {
	n    model.Notification
	read bool
}

type event struct {
	n      model.Notification
	added  bool
	reason RemoveReason
}

// Manager owns the ordered notification sequence, oldest first.
type Manager struct {
	mu           sync.Mutex
	entries      []entry
	displayLimit int
	retainRead   int

	onAdded   AddedCallback
	onRemoved RemovedCallback

	logger *slog.Logger
}

// New creates a manager. displayLimit bounds the unread entries (0 means
// unlimited); retainRead bounds the read entries kept afterwards.
func New(displayLimit, retainRead int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		displayLimit: max(displayLimit, 0),
		retainRead:   max(retainRead, 0),
		logger:       logger,
	}
}

// SetAddedCallback sets the callback for enqueued notifications.
func (m *Manager) SetAddedCallback(cb AddedCallback) {
	m.mu.Lock()
	m.onAdded = cb
	m.mu.Unlock()
}

// SetRemovedCallback sets the callback for removed notifications.
func (m *Manager) SetRemovedCallback(cb RemovedCallback) {
	m.mu.Lock()
	m.onRemoved = cb
	m.mu.Unlock()
}

// SetLimits changes the display limit and read retention, trimming the
// current state to fit.
func (m *Manager) SetLimits(displayLimit, retainRead int) {
	m.mu.Lock()
	m.displayLimit = max(displayLimit, 0)
	m.retainRead = max(retainRead, 0)
	events := m.evictUnreadLocked(nil)
	events = m.pruneReadLocked(events)
	m.mu.Unlock()

	m.emit(events)
}

// Enqueue adds a notification as unread. A notification with the ID of an
// unread entry replaces it in place; a read entry with that ID is dropped
// and the new one appended. If the display limit is exceeded the oldest
// unread entry is evicted.
func (m *Manager) Enqueue(n model.Notification) {
	m.mu.Lock()
	var events []event
	if i := m.indexLocked(n.ID); i >= 0 && !m.entries[i].read {
		m.entries[i].n = n
	} else {
		if i >= 0 {
			events = append(events, event{n: m.entries[i].n, reason: RemovedClosed})
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
		}
		m.entries = append(m.entries, entry{n: n})
	}
	events = append(events, event{n: n, added: true})
	events = m.evictUnreadLocked(events)
	m.mu.Unlock()

	m.logger.Debug("notification enqueued", "id", n.ID, "app", n.AppName, "urgency", n.Urgency)
	m.emit(events)
}

// UnreadCount returns the number of unread notifications.
func (m *Manager) UnreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unreadCountLocked()
}

// ReadCount returns the number of read notifications still retained.
func (m *Manager) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries) - m.unreadCountLocked()
}

// UnreadBuffer returns up to limit of the most recent unread notifications,
// oldest first. A limit of 0 returns all unread notifications.
func (m *Manager) UnreadBuffer(limit int) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	unread := make([]model.Notification, 0, len(m.entries))
	for _, e := range m.entries {
		if !e.read {
			unread = append(unread, e.n)
		}
	}
	if limit > 0 && len(unread) > limit {
		unread = unread[len(unread)-limit:]
	}
	return unread
}

// LastUnread returns the most recently enqueued unread notification.
func (m *Manager) LastUnread() (model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.lastUnreadLocked(); i >= 0 {
		return m.entries[i].n, nil
	}
	return model.Notification{}, ErrEmptyState
}

// MarkLastAsRead marks the most recent unread notification as read and
// returns it. It is a no-op when nothing is unread.
func (m *Manager) MarkLastAsRead() (model.Notification, bool) {
	m.mu.Lock()
	i := m.lastUnreadLocked()
	if i < 0 {
		m.mu.Unlock()
		return model.Notification{}, false
	}
	n := m.markReadLocked(i)
	events := m.pruneReadLocked(nil)
	m.mu.Unlock()

	m.emit(events)
	return n, true
}

// MarkAsRead marks the unread notification with the given ID as read.
func (m *Manager) MarkAsRead(id uint32) (model.Notification, bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 || m.entries[i].read {
		m.mu.Unlock()
		return model.Notification{}, false
	}
	n := m.markReadLocked(i)
	events := m.pruneReadLocked(nil)
	m.mu.Unlock()

	m.emit(events)
	return n, true
}

// Dismiss removes the notification at index in a snapshot previously
// returned by UnreadBuffer. The entry is identified by its ID, so a stale
// snapshot never removes the wrong notification; if the index is out of
// range or the notification is no longer unread, Dismiss does nothing.
func (m *Manager) Dismiss(snapshot []model.Notification, index int) (model.Notification, bool) {
	if index < 0 || index >= len(snapshot) {
		return model.Notification{}, false
	}
	id := snapshot[index].ID

	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 || m.entries[i].read {
		m.mu.Unlock()
		m.logger.Debug("stale dismiss ignored", "id", id, "index", index)
		return model.Notification{}, false
	}
	n := m.removeLocked(i)
	m.mu.Unlock()

	m.emit([]event{{n: n, reason: RemovedDismissed}})
	return n, true
}

// IsUnread reports whether the notification with the given ID is unread.
func (m *Manager) IsUnread(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexLocked(id)
	return i >= 0 && !m.entries[i].read
}

// Close drops the notification with the given ID if it is still unread.
// Read entries are left to the retention cap.
func (m *Manager) Close(id uint32) (model.Notification, bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 || m.entries[i].read {
		m.mu.Unlock()
		return model.Notification{}, false
	}
	n := m.removeLocked(i)
	m.mu.Unlock()

	m.emit([]event{{n: n, reason: RemovedClosed}})
	return n, true
}

// Remove drops the notification with the given ID, read or unread.
func (m *Manager) Remove(id uint32) (model.Notification, bool) {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return model.Notification{}, false
	}
	n := m.removeLocked(i)
	m.mu.Unlock()

	m.emit([]event{{n: n, reason: RemovedClosed}})
	return n, true
}

func (m *Manager) indexLocked(id uint32) int {
	for i := range m.entries {
		if m.entries[i].n.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) lastUnreadLocked() int {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if !m.entries[i].read {
			return i
		}
	}
	return -1
}

func (m *Manager) unreadCountLocked() int {
	count := 0
	for _, e := range m.entries {
		if !e.read {
			count++
		}
	}
	return count
}

func (m *Manager) markReadLocked(i int) model.Notification {
	m.entries[i].read = true
	return m.entries[i].n
}

func (m *Manager) removeLocked(i int) model.Notification {
	n := m.entries[i].n
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	return n
}

// evictUnreadLocked drops the oldest unread entries above the display limit.
func (m *Manager) evictUnreadLocked(events []event) []event {
	if m.displayLimit == 0 {
		return events
	}
	excess := m.unreadCountLocked() - m.displayLimit
	for i := 0; excess > 0 && i < len(m.entries); {
		if m.entries[i].read {
			i++
			continue
		}
		events = append(events, event{n: m.removeLocked(i), reason: RemovedEvicted})
		excess--
	}
	return events
}

// pruneReadLocked drops the oldest read entries above the retention cap.
func (m *Manager) pruneReadLocked(events []event) []event {
	excess := len(m.entries) - m.unreadCountLocked() - m.retainRead
	for i := 0; excess > 0 && i < len(m.entries); {
		if !m.entries[i].read {
			i++
			continue
		}
		events = append(events, event{n: m.removeLocked(i), reason: RemovedPruned})
		excess--
	}
	return events
}

func (m *Manager) emit(events []event) {
	if len(events) == 0 {
		return
	}
	m.mu.Lock()
	onAdded, onRemoved := m.onAdded, m.onRemoved
	m.mu.Unlock()

	for _, ev := range events {
		if ev.added {
			if onAdded != nil {
				onAdded(ev.n)
			}
			continue
		}
		m.logger.Debug("notification removed", "id", ev.n.ID, "reason", ev.reason)
		if onRemoved != nil {
			onRemoved(ev.n, ev.reason)
		}
	}
}
