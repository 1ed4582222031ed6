package daemon

import (
	"sync"
	"time"

	"github.com/jmylchreest/notistack/internal/model"
)

// trackedState is what the daemon remembers about a live notification
// beyond the immutable record: D-Bus hints and its expiry timer.
type trackedState struct {
	ID        uint32
	Urgency   model.Urgency
	Resident  bool
	ExpiresAt time.Time // zero = never
	timer     *time.Timer
}

// tracker maps notification IDs to their daemon-side state.
type tracker struct {
	mu   sync.Mutex
	byID map[uint32]*trackedState
}

func newTracker() *tracker {
	return &tracker{byID: make(map[uint32]*trackedState)}
}

// track registers n, replacing any previous state for its ID. When n has an
// expire timeout, onExpire runs once it elapses unless the state was
// replaced or removed first.
func (t *tracker) track(n model.Notification, resident bool, onExpire func(trackedState)) {
	state := &trackedState{
		ID:       n.ID,
		Urgency:  n.Urgency,
		Resident: resident,
	}
	t.mu.Lock()
	old := t.byID[n.ID]
	t.byID[n.ID] = state
	if n.HasExpiry() {
		state.ExpiresAt = n.TimestampTime().Add(n.ExpireTimeout)
		state.timer = time.AfterFunc(n.ExpireTimeout, func() { t.fire(state, onExpire) })
	}
	t.mu.Unlock()

	if old != nil && old.timer != nil {
		old.timer.Stop()
	}
}

func (t *tracker) fire(state *trackedState, onExpire func(trackedState)) {
	t.mu.Lock()
	current := t.byID[state.ID] == state
	t.mu.Unlock()

	if current {
		onExpire(*state)
	}
}

// get returns a copy of the state for id.
func (t *tracker) get(id uint32) (trackedState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.byID[id]
	if !ok {
		return trackedState{}, false
	}
	return *s, true
}

// resident reports whether the client marked id as resident.
func (t *tracker) resident(id uint32) bool {
	s, ok := t.get(id)
	return ok && s.Resident
}

// remove forgets id and stops its timer.
func (t *tracker) remove(id uint32) {
	t.mu.Lock()
	s, ok := t.byID[id]
	delete(t.byID, id)
	t.mu.Unlock()

	if ok && s.timer != nil {
		s.timer.Stop()
	}
}

// count returns the number of tracked notifications.
func (t *tracker) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// stop cancels every pending timer.
func (t *tracker) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.byID {
		if s.timer != nil {
			s.timer.Stop()
		}
		delete(t.byID, id)
	}
}
