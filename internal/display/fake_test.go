package display

import (
	"context"
	"strings"
	"sync"

	"github.com/jmylchreest/notistack/internal/config"
)

const fakeLineHeight = 10

type fill struct {
	x, y, w, h int
	color      config.Color
}

type text struct {
	markup  string
	x, y, w int
	color   config.Color
}

// fakeSurface records drawing calls and measures lineHeight per markup line.
type fakeSurface struct {
	mu            sync.Mutex
	width, height int
	font          string
	fills         []fill
	texts         []text
	flushes       int

	resizeErr error
	flushErr  error
}

func (s *fakeSurface) MeasureMarkup(markup string, _ int) (int, error) {
	return (strings.Count(markup, "\n") + 1) * fakeLineHeight, nil
}

func (s *fakeSurface) SetFont(desc string) {
	s.mu.Lock()
	s.font = desc
	s.mu.Unlock()
}

func (s *fakeSurface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resizeErr != nil {
		return s.resizeErr
	}
	s.width, s.height = width, height
	return nil
}

func (s *fakeSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeSurface) FillRect(x, y, w, h int, c config.Color) {
	s.mu.Lock()
	s.fills = append(s.fills, fill{x, y, w, h, c})
	s.mu.Unlock()
}

func (s *fakeSurface) DrawMarkup(markup string, x, y, w int, c config.Color) error {
	s.mu.Lock()
	s.texts = append(s.texts, text{markup, x, y, w, c})
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flushErr != nil {
		return s.flushErr
	}
	s.flushes++
	return nil
}

func (s *fakeSurface) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

func (s *fakeSurface) reset() {
	s.mu.Lock()
	s.fills, s.texts = nil, nil
	s.mu.Unlock()
}

// fakeWindow feeds scripted events to the loop.
type fakeWindow struct {
	surface          *fakeSurface
	screenW, screenH int
	events           chan Event

	mu         sync.Mutex
	configures [][4]int
	mapped     bool
	maps       int
	unmaps     int
	blocks     []bool
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		surface: &fakeSurface{},
		screenW: 1920,
		screenH: 1080,
		events:  make(chan Event, 32),
	}
}

func (w *fakeWindow) Screen() (int, int, error) {
	return w.screenW, w.screenH, nil
}

func (w *fakeWindow) Configure(x, y, width, height int) error {
	w.mu.Lock()
	w.configures = append(w.configures, [4]int{x, y, width, height})
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) Map() error {
	w.mu.Lock()
	w.mapped = true
	w.maps++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) Unmap() error {
	w.mu.Lock()
	w.mapped = false
	w.unmaps++
	w.mu.Unlock()
	return nil
}

func (w *fakeWindow) NextEvent(ctx context.Context, block bool) (Event, bool, error) {
	w.mu.Lock()
	w.blocks = append(w.blocks, block)
	w.mu.Unlock()

	if block {
		select {
		case ev := <-w.events:
			return ev, true, nil
		case <-ctx.Done():
			return Event{}, false, ctx.Err()
		}
	}
	select {
	case ev := <-w.events:
		return ev, true, nil
	default:
		return Event{}, false, nil
	}
}

func (w *fakeWindow) RequestRedraw() {
	w.events <- Event{Kind: EventExpose}
}

func (w *fakeWindow) Surface() Surface {
	return w.surface
}

func (w *fakeWindow) press(x, y int) {
	w.events <- Event{Kind: EventPress, X: x, Y: y, Button: 1}
}

func (w *fakeWindow) isMapped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mapped
}

func (w *fakeWindow) blockFlags() []bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]bool(nil), w.blocks...)
}

func (w *fakeWindow) configureCalls() [][4]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][4]int(nil), w.configures...)
}
