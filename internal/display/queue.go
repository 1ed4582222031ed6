package display

import (
	"context"
	"sync/atomic"
)

// EventQueue buffers window events for the loop. At most one expose is
// pending at a time, so redraw requests never crowd out presses.
type EventQueue struct {
	events        chan Event
	exposePending atomic.Bool
}

// NewEventQueue creates a queue holding up to size events.
func NewEventQueue(size int) *EventQueue {
	return &EventQueue{events: make(chan Event, size)}
}

// Post queues ev without blocking. It returns false when the queue is full
// and the event was dropped. An expose posted while another is pending is
// merged into it.
func (q *EventQueue) Post(ev Event) bool {
	if ev.Kind == EventExpose && !q.exposePending.CompareAndSwap(false, true) {
		return true
	}
	select {
	case q.events <- ev:
		return true
	default:
		if ev.Kind == EventExpose {
			q.exposePending.Store(false)
		}
		return false
	}
}

// Next implements Window.NextEvent.
func (q *EventQueue) Next(ctx context.Context, block bool) (Event, bool, error) {
	if !block {
		select {
		case ev := <-q.events:
			return q.take(ev), true, nil
		default:
			return Event{}, false, nil
		}
	}
	select {
	case ev := <-q.events:
		return q.take(ev), true, nil
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	}
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

func (q *EventQueue) take(ev Event) Event {
	if ev.Kind == EventExpose {
		q.exposePending.Store(false)
	}
	return ev
}
