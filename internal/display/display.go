// Package display draws the notification stack onto an overlay window and
// runs the event loop that redraws it and resolves pointer presses.
//
// The windowing system is reached only through the Window and Surface
// interfaces; internal/display/gtkwin implements them with GTK4 and
// layer-shell, and tests use in-memory fakes.
package display

import (
	"context"
	"fmt"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

// EventKind distinguishes window events.
type EventKind int

const (
	// EventExpose asks for a full redraw.
	EventExpose EventKind = iota + 1
	// EventPress is a pointer button press at (X, Y) in window coordinates.
	EventPress
)

func (k EventKind) String() string {
	switch k {
	case EventExpose:
		return "expose"
	case EventPress:
		return "press"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one input event from the window.
type Event struct {
	Kind   EventKind
	X, Y   int
	Button uint
}

// Window is the host window. All methods are called from the event loop
// goroutine only, except RequestRedraw.
type Window interface {
	// Screen returns the pixel size of the screen the window is placed on.
	Screen() (width, height int, err error)

	// Configure moves and resizes the window.
	Configure(x, y, width, height int) error

	Map() error
	Unmap() error

	// NextEvent returns the next pending event. With block set it waits
	// until an event arrives or ctx is done; otherwise it returns ok=false
	// immediately when nothing is pending.
	NextEvent(ctx context.Context, block bool) (ev Event, ok bool, err error)

	// RequestRedraw queues an expose event. It is safe to call from any
	// goroutine.
	RequestRedraw()

	Surface() Surface
}

// Surface is the drawing target owned by the event loop.
type Surface interface {
	// MeasureMarkup returns the height of markup wrapped at width.
	MeasureMarkup(markup string, width int) (int, error)

	SetFont(desc string)
	Resize(width, height int) error
	Size() (width, height int)
	FillRect(x, y, width, height int, c config.Color)
	DrawMarkup(markup string, x, y, width int, c config.Color) error

	// Flush makes the painted frame visible.
	Flush() error
}

// Source is the read side of the notification manager.
type Source interface {
	UnreadCount() int
	UnreadBuffer(limit int) []model.Notification
}

// RenderError is a drawing or windowing failure during a frame.
type RenderError struct {
	Op    string
	Cause error
}

func (e *RenderError) Error() string {
	return "render " + e.Op + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

func renderErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RenderError{Op: op, Cause: err}
}
