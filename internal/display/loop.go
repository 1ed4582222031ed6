package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/layout"
	"github.com/jmylchreest/notistack/internal/model"
)

// DefaultTick is how long the polling loop sleeps when no event is pending.
const DefaultTick = 50 * time.Millisecond

// Press describes a pointer press resolved against the last drawn frame.
type Press struct {
	// Unread is the unread snapshot the frame was drawn from, oldest first.
	Unread []model.Notification

	// Index is the position in Unread of the pressed notification; it is
	// only meaningful when Hit is true.
	Index int
	Hit   bool

	// InvokeAction is false when the press landed on the close band.
	InvokeAction bool

	X, Y   int
	Button uint
}

// PressFunc handles a press. It runs on the loop goroutine and decides
// what, if anything, is marked read or dismissed.
type PressFunc func(p Press)

// hitMap is the click state of the last drawn frame. It is replaced as a
// whole after every draw.
type hitMap struct {
	unread     []model.Notification
	bounds     layout.ClickBounds
	width      int
	closeWidth int
}

// Loop waits for window events and redraws the notification stack.
type Loop struct {
	win     Window
	source  Source
	driver  *Driver
	onPress PressFunc
	logger  *slog.Logger

	cfg  atomic.Pointer[config.Config]
	hits atomic.Pointer[hitMap]

	tick   time.Duration
	now    func() time.Time
	mapped bool
}

// NewLoop creates an event loop drawing source into win.
func NewLoop(cfg *config.Config, win Window, source Source, driver *Driver, onPress PressFunc, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		win:     win,
		source:  source,
		driver:  driver,
		onPress: onPress,
		logger:  logger,
		tick:    DefaultTick,
		now:     time.Now,
	}
	l.cfg.Store(cfg)
	return l
}

// SetConfig swaps the configuration used by the next frame and redraws.
func (l *Loop) SetConfig(cfg *config.Config) {
	l.cfg.Store(cfg)
	l.Refresh()
}

// Config returns the configuration currently in use.
func (l *Loop) Config() *config.Config {
	return l.cfg.Load()
}

// Refresh asks the loop to redraw from the current manager state. It is
// safe to call from any goroutine.
func (l *Loop) Refresh() {
	l.win.RequestRedraw()
}

// Run processes events until ctx is cancelled. It blocks while nothing is
// unread or refresh is disabled, and polls otherwise so age labels keep
// updating.
func (l *Loop) Run(ctx context.Context) error {
	var lastDraw time.Time

	for {
		if ctx.Err() != nil {
			return nil
		}

		interval := l.cfg.Load().Global.RefreshInterval()
		polling := interval > 0 && l.source.UnreadCount() > 0

		ev, ok, err := l.win.NextEvent(ctx, !polling)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wait for window event: %w", err)
		}

		if !ok {
			if !polling {
				continue
			}
			if l.now().Sub(lastDraw) >= interval {
				l.redraw()
				lastDraw = l.now()
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(l.tick):
			}
			continue
		}

		switch ev.Kind {
		case EventExpose:
			l.redraw()
			lastDraw = l.now()
		case EventPress:
			l.press(ev)
			l.redraw()
			lastDraw = l.now()
		default:
			l.logger.Debug("ignoring window event", "kind", ev.Kind)
		}
	}
}

// redraw paints the current unread buffer, or hides the window when there
// is nothing to show. Render failures skip the frame.
func (l *Loop) redraw() {
	cfg := l.cfg.Load()
	unread := l.source.UnreadBuffer(cfg.Global.DisplayLimit)

	if len(unread) == 0 {
		l.hits.Store(nil)
		l.unmap()
		return
	}

	frame, err := l.driver.Draw(cfg, layout.Input{
		Notifications: unread,
		UnreadCount:   l.source.UnreadCount(),
		Now:           l.now(),
	})
	if err != nil {
		l.logger.Error("frame skipped", "error", err)
		return
	}
	if frame == nil {
		l.hits.Store(nil)
		l.unmap()
		return
	}

	width, _ := l.win.Surface().Size()
	l.hits.Store(&hitMap{
		unread:     unread,
		bounds:     frame.Bounds,
		width:      width,
		closeWidth: cfg.Global.CloseButtonWidth,
	})

	if !l.mapped {
		if err := l.win.Map(); err != nil {
			l.logger.Error("map window", "error", err)
			return
		}
		l.mapped = true
	}
}

func (l *Loop) unmap() {
	if !l.mapped {
		return
	}
	if err := l.win.Unmap(); err != nil {
		l.logger.Error("unmap window", "error", err)
		return
	}
	l.mapped = false
}

// press resolves ev against the last frame and hands it to the callback.
func (l *Loop) press(ev Event) {
	p := Press{X: ev.X, Y: ev.Y, Button: ev.Button}

	if h := l.hits.Load(); h != nil {
		p.Unread = h.unread
		p.Index, p.Hit = h.bounds.Lookup(ev.Y)
		p.InvokeAction = ev.X < h.width-h.closeWidth
	} else {
		p.Unread = l.source.UnreadBuffer(l.cfg.Load().Global.DisplayLimit)
	}

	l.logger.Debug("press", "x", ev.X, "y", ev.Y, "button", ev.Button, "hit", p.Hit, "index", p.Index, "invoke", p.InvokeAction)
	if l.onPress != nil {
		l.onPress(p)
	}
}
