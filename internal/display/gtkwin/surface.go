package gtkwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/diamondburned/gotk4/pkg/cairo"
	"github.com/diamondburned/gotk4/pkg/pango"
	"github.com/diamondburned/gotk4/pkg/pangocairo"

	"github.com/jmylchreest/notistack/internal/config"
)

// Surface is a double-buffered ARGB32 image. The event loop paints into
// the back buffer; Flush swaps it to the front, where the GTK draw
// function picks it up on the main thread.
type Surface struct {
	onFlush func()

	// Owned by the event loop goroutine.
	back   *cairo.Surface
	cr     *cairo.Context
	font   *pango.FontDescription
	fontID string
	width  int
	height int

	mu    sync.Mutex
	front *cairo.Surface
}

func newSurface(onFlush func()) *Surface {
	s := &Surface{onFlush: onFlush}
	s.SetFont(config.DefaultFont)
	// A 1x1 image keeps text measurement working before the first resize.
	_ = s.Resize(1, 1)
	return s
}

// SetFont sets the Pango font description used for all text.
func (s *Surface) SetFont(desc string) {
	if desc == s.fontID && s.font != nil {
		return
	}
	s.fontID = desc
	s.font = pango.FontDescriptionFromString(desc)
}

// Resize replaces both buffers with blank images of the given size.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	back, err := newImage(width, height)
	if err != nil {
		return err
	}
	front, err := newImage(width, height)
	if err != nil {
		return err
	}

	s.back = back
	s.cr = cairo.Create(back)
	s.width, s.height = width, height

	s.mu.Lock()
	s.front = front
	s.mu.Unlock()
	return nil
}

func newImage(width, height int) (*cairo.Surface, error) {
	img := cairo.CreateImageSurface(cairo.FORMAT_ARGB32, width, height)
	if img == nil || img.Status() != cairo.STATUS_SUCCESS {
		return nil, errors.New("create image surface failed")
	}
	return img, nil
}

// Size returns the current buffer size.
func (s *Surface) Size() (int, int) {
	return s.width, s.height
}

// FillRect paints a solid rectangle, replacing what is underneath.
func (s *Surface) FillRect(x, y, width, height int, c config.Color) {
	r, g, b, a := c.RGBA()
	s.cr.Save()
	s.cr.SetOperator(cairo.OPERATOR_SOURCE)
	s.cr.SetSourceRGBA(r, g, b, a)
	s.cr.Rectangle(float64(x), float64(y), float64(width), float64(height))
	s.cr.Fill()
	s.cr.Restore()
}

func (s *Surface) layout(markup string, width int) *pango.Layout {
	l := pangocairo.CreateLayout(s.cr)
	l.SetFontDescription(s.font)
	l.SetWrap(pango.WrapWordChar)
	l.SetWidth(width * pango.SCALE)
	l.SetMarkup(markup, -1)
	return l
}

// MeasureMarkup returns the pixel height of markup wrapped at width.
func (s *Surface) MeasureMarkup(markup string, width int) (int, error) {
	_, h := s.layout(markup, width).PixelSize()
	return h, nil
}

// DrawMarkup paints markup at (x, y), wrapped at width.
func (s *Surface) DrawMarkup(markup string, x, y, width int, c config.Color) error {
	l := s.layout(markup, width)
	r, g, b, a := c.RGBA()
	s.cr.Save()
	s.cr.SetSourceRGBA(r, g, b, a)
	s.cr.MoveTo(float64(x), float64(y))
	pangocairo.ShowLayout(s.cr, l)
	s.cr.Restore()
	return nil
}

// Flush publishes the back buffer and schedules a repaint of the window.
func (s *Surface) Flush() error {
	if s.back == nil {
		return errors.New("flush before resize")
	}
	s.back.Flush()

	s.mu.Lock()
	s.front, s.back = s.back, s.front
	s.mu.Unlock()
	s.cr = cairo.Create(s.back)

	if s.onFlush != nil {
		s.onFlush()
	}
	return nil
}

// paint copies the front buffer onto cr. It runs on the GTK main thread.
func (s *Surface) paint(cr *cairo.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.front == nil {
		return
	}
	cr.SetOperator(cairo.OPERATOR_SOURCE)
	cr.SetSourceSurface(s.front, 0, 0)
	cr.Paint()
}
