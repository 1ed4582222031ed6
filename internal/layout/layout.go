// Package layout turns the unread notifications into a vertical stack of
// styled text blocks and records which pixel rows belong to which
// notification.
//
// Build is a pure function of its inputs: text measurement is delegated to
// a Measurer so the engine can run without a drawing surface.
package layout

import (
	"fmt"
	"sort"
	"time"

	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/model"
)

// separatorAlpha is the opacity of the separator band relative to the text color.
const separatorAlpha = 0.3

// Measurer reports the height in pixels of markup wrapped at width.
type Measurer interface {
	MeasureMarkup(markup string, width int) (int, error)
}

// Kind identifies what a block draws.
type Kind int

const (
	KindNotification Kind = iota
	KindSeparator
	KindFooter
)

func (k Kind) String() string {
	switch k {
	case KindNotification:
		return "notification"
	case KindSeparator:
		return "separator"
	case KindFooter:
		return "footer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Block is one horizontal band of the popup.
type Block struct {
	Kind Kind

	// Index is the position of the notification in Input.Notifications,
	// or -1 for separators and the footer.
	Index int

	Markup     string
	Y          int
	Height     int
	Foreground config.Color

	// Background overrides the window background when set.
	Background *config.Color
}

// End returns the first row below the block.
func (b Block) End() int {
	return b.Y + b.Height
}

// Bound is the half-open row range [Start, End) covered by a notification.
type Bound struct {
	Start int
	End   int
	Index int
}

// ClickBounds maps window rows to notification indexes, top to bottom.
type ClickBounds []Bound

// Lookup returns the notification index drawn at row y. Rows on separators,
// the footer or outside the stack do not match.
func (c ClickBounds) Lookup(y int) (int, bool) {
	i := sort.Search(len(c), func(i int) bool { return c[i].End > y })
	if i < len(c) && c[i].Start <= y {
		return c[i].Index, true
	}
	return 0, false
}

// Input is everything one frame depends on.
type Input struct {
	// Notifications in manager order, oldest first. The newest is drawn at
	// the top of the stack.
	Notifications []model.Notification

	// UnreadCount is the total number of unread notifications; anything
	// beyond len(Notifications) is reported in the footer.
	UnreadCount int

	Now time.Time
}

// Frame is the result of laying out one draw.
type Frame struct {
	Blocks []Block
	Bounds ClickBounds

	// Width is the configured wrap width; TextWidth leaves room for the
	// close band.
	Width     int
	TextWidth int
	Height    int

	// Background fills the whole window: the newest notification's urgency
	// background.
	Background config.Color

	// Newest is the notification whose urgency styles the frame.
	Newest model.Notification
}

// Build lays out the notifications. It returns nil when there is nothing to
// show.
func Build(cfg *config.Config, m Measurer, in Input) (*Frame, error) {
	if len(in.Notifications) == 0 {
		return nil, nil
	}

	newest := in.Notifications[len(in.Notifications)-1]
	urgency := cfg.Urgency(newest.Urgency)
	width := cfg.Global.WrapWidth()
	textWidth := max(width-cfg.Global.CloseButtonWidth, 1)

	sepColor := urgency.Foreground
	sepColor.A *= separatorAlpha

	f := &Frame{
		Blocks:     make([]Block, 0, 2*len(in.Notifications)),
		Bounds:     make(ClickBounds, 0, len(in.Notifications)),
		Width:      width,
		TextWidth:  textWidth,
		Background: urgency.Background,
		Newest:     newest,
	}

	y := 0
	for i := len(in.Notifications) - 1; i >= 0; i-- {
		n := in.Notifications[i]

		if i < len(in.Notifications)-1 && cfg.Global.SeparatorHeight > 0 {
			sep := sepColor
			f.Blocks = append(f.Blocks, Block{
				Kind:       KindSeparator,
				Index:      -1,
				Y:          y,
				Height:     cfg.Global.SeparatorHeight,
				Background: &sep,
			})
			y += cfg.Global.SeparatorHeight
		}

		markup := NotificationMarkup(n, in.Now)
		h, err := m.MeasureMarkup(markup, textWidth)
		if err != nil {
			return nil, fmt.Errorf("measure notification %d: %w", n.ID, err)
		}

		block := Block{
			Kind:       KindNotification,
			Index:      i,
			Markup:     markup,
			Y:          y,
			Height:     h,
			Foreground: cfg.Foreground(n),
		}
		if bg, ok := cfg.Background(n); ok {
			block.Background = &bg
		}
		f.Blocks = append(f.Blocks, block)
		f.Bounds = append(f.Bounds, Bound{Start: y, End: y + h, Index: i})
		y += h
	}

	if overflow := in.UnreadCount - len(in.Notifications); overflow > 0 {
		markup := FooterMarkup(overflow)
		h, err := m.MeasureMarkup(markup, textWidth)
		if err != nil {
			return nil, fmt.Errorf("measure footer: %w", err)
		}
		f.Blocks = append(f.Blocks, Block{
			Kind:       KindFooter,
			Index:      -1,
			Markup:     markup,
			Y:          y,
			Height:     h,
			Foreground: urgency.Foreground,
		})
		y += h
	}

	f.Height = y
	return f, nil
}
