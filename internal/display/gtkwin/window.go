// Package gtkwin implements the display window on GTK4 with the Wayland
// layer-shell protocol.
//
// GTK objects live on the main thread. Methods called by the event loop
// marshal their work onto the main loop with glib.IdleAdd; input arrives
// from GTK signal handlers through a buffered channel.
package gtkwin

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/cairo"
	glib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/notistack/internal/display"
)

// Namespace identifies the popup surface to the compositor.
const Namespace = "notistack"

// eventBuffer bounds the pending input events.
const eventBuffer = 64

// ErrNoMonitor is returned when no monitor is connected.
var ErrNoMonitor = errors.New("no monitor available")

// Window is a layer-shell overlay drawing a Surface.
type Window struct {
	window  *gtk.Window
	area    *gtk.DrawingArea
	surface *Surface
	events  *display.EventQueue
	logger  *slog.Logger

	mu      sync.Mutex
	monitor int
	screenW int
	screenH int
}

var _ display.Window = (*Window)(nil)

// New creates the hidden popup window. It must be called on the GTK main
// thread. monitor is 1-based; 0 lets the compositor choose.
func New(app *gtk.Application, monitor int, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}

	w := &Window{
		events:  display.NewEventQueue(eventBuffer),
		logger:  logger,
		monitor: monitor,
	}
	w.surface = newSurface(func() {
		glib.IdleAdd(func() { w.area.QueueDraw() })
	})

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)

	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.window, 0)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.window, Namespace)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeTop, true)
	layershell.SetAnchor(w.window, layershell.LayerShellEdgeLeft, true)

	w.area = gtk.NewDrawingArea()
	w.area.SetDrawFunc(func(_ *gtk.DrawingArea, cr *cairo.Context, _, _ int) {
		w.surface.paint(cr)
	})
	w.window.SetChild(w.area)

	click := gtk.NewGestureClick()
	click.SetButton(0) // all buttons
	click.ConnectPressed(func(_ int, x, y float64) {
		w.post(display.Event{
			Kind:   display.EventPress,
			X:      int(x),
			Y:      int(y),
			Button: click.CurrentButton(),
		})
	})
	w.window.AddController(click)

	w.window.ConnectMap(func() { w.RequestRedraw() })

	if d := gdk.DisplayGetDefault(); d != nil {
		if monitors := d.Monitors(); monitors != nil {
			monitors.ConnectItemsChanged(func(_, _, _ uint) {
				w.updateScreen()
				w.RequestRedraw()
			})
		}
	}
	w.updateScreen()

	return w
}

// SetMonitor moves the popup to another monitor (1-based, 0 = default).
func (w *Window) SetMonitor(monitor int) {
	w.mu.Lock()
	changed := w.monitor != monitor
	w.monitor = monitor
	w.mu.Unlock()

	if changed {
		glib.IdleAdd(func() {
			w.updateScreen()
			w.RequestRedraw()
		})
	}
}

// updateScreen resolves the target monitor and caches its size. It runs on
// the main thread.
func (w *Window) updateScreen() {
	w.mu.Lock()
	n := w.monitor
	w.mu.Unlock()

	mon := pickMonitor(n, w.logger)
	if mon == nil {
		w.logger.Warn("no monitor available")
		return
	}
	if n > 0 {
		layershell.SetMonitor(w.window, mon)
	}

	geo := mon.Geometry()
	w.mu.Lock()
	w.screenW, w.screenH = geo.Width(), geo.Height()
	w.mu.Unlock()

	w.logger.Debug("target monitor", "monitor", n, "width", geo.Width(), "height", geo.Height())
}

// Screen returns the size of the target monitor.
func (w *Window) Screen() (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.screenW == 0 || w.screenH == 0 {
		return 0, 0, ErrNoMonitor
	}
	return w.screenW, w.screenH, nil
}

// Configure places the window at (x, y) from the top-left of the monitor
// through layer-shell margins.
func (w *Window) Configure(x, y, width, height int) error {
	glib.IdleAdd(func() {
		layershell.SetMargin(w.window, layershell.LayerShellEdgeLeft, x)
		layershell.SetMargin(w.window, layershell.LayerShellEdgeTop, y)
		w.area.SetContentWidth(width)
		w.area.SetContentHeight(height)
		w.window.SetDefaultSize(width, height)
	})
	return nil
}

// Map shows the window.
func (w *Window) Map() error {
	glib.IdleAdd(func() { w.window.SetVisible(true) })
	return nil
}

// Unmap hides the window.
func (w *Window) Unmap() error {
	glib.IdleAdd(func() { w.window.SetVisible(false) })
	return nil
}

// NextEvent returns the next queued input event.
func (w *Window) NextEvent(ctx context.Context, block bool) (display.Event, bool, error) {
	return w.events.Next(ctx, block)
}

// RequestRedraw queues an expose event unless one is already pending.
func (w *Window) RequestRedraw() {
	w.post(display.Event{Kind: display.EventExpose})
}

func (w *Window) post(ev display.Event) {
	if !w.events.Post(ev) {
		w.logger.Debug("event queue full, dropping event", "kind", ev.Kind)
	}
}

// Surface returns the drawing surface. It must only be used from the event
// loop goroutine.
func (w *Window) Surface() display.Surface {
	return w.surface
}

// Destroy closes the window. It must be called on the main thread.
func (w *Window) Destroy() {
	w.window.Destroy()
}

// pickMonitor returns the configured monitor (1-based), falling back to the
// first one when it is missing or n is 0.
func pickMonitor(n int, logger *slog.Logger) *gdk.Monitor {
	d := gdk.DisplayGetDefault()
	if d == nil {
		return nil
	}
	monitors := d.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}

	index := uint(0)
	if n > 0 {
		if uint(n) > monitors.NItems() {
			logger.Warn("configured monitor not available, using first",
				"configured", n,
				"available", monitors.NItems(),
			)
		} else {
			index = uint(n - 1)
		}
	}
	return wrapMonitor(monitors.Item(index))
}

// wrapMonitor converts a list model item into a gdk.Monitor; gotk4 does
// not export its own wrapper.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
