package display

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/notistack/internal/action"
	"github.com/jmylchreest/notistack/internal/config"
	"github.com/jmylchreest/notistack/internal/layout"
	"github.com/jmylchreest/notistack/internal/model"
)

const (
	// closeGlyph is drawn in the close band of every notification block.
	closeGlyph = "✕"

	// closeShade is how far the close band is blended from the block
	// background towards the text color.
	closeShade = 0.15
)

// CommandFunc runs a rendered custom command.
type CommandFunc func(command string) error

// Driver paints one frame: it runs custom commands, lays the notifications
// out, sizes the window and draws the blocks.
type Driver struct {
	win        Window
	runCommand CommandFunc
	logger     *slog.Logger
}

// NewDriver creates a driver drawing into win. runCommand may be nil to
// disable custom commands.
func NewDriver(win Window, runCommand CommandFunc, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		win:        win,
		runCommand: runCommand,
		logger:     logger,
	}
}

// Draw renders in onto the window and returns the frame that was painted,
// or nil when there is nothing to show.
func (d *Driver) Draw(cfg *config.Config, in layout.Input) (*layout.Frame, error) {
	if len(in.Notifications) == 0 {
		return nil, nil
	}

	d.runCommands(cfg, in)

	surface := d.win.Surface()
	surface.SetFont(cfg.Global.Font)

	frame, err := layout.Build(cfg, surface, in)
	if err != nil {
		return nil, renderErr("layout", err)
	}
	if frame == nil {
		return nil, nil
	}

	width, height := frame.Width, max(frame.Height, 1)
	if !cfg.Global.WrapContent {
		width, height = cfg.Global.Geometry.Width, max(cfg.Global.Geometry.Height, 1)
	}
	if sw, sh := surface.Size(); cfg.Global.WrapContent || sw != width || sh != height {
		if err := d.place(cfg, width, height); err != nil {
			return nil, err
		}
		if err := surface.Resize(width, height); err != nil {
			return nil, renderErr("resize", err)
		}
	}

	surface.FillRect(0, 0, width, height, frame.Background)

	for _, b := range frame.Blocks {
		if b.Background != nil {
			surface.FillRect(0, b.Y, width, b.Height, *b.Background)
		}
		if b.Markup == "" {
			continue
		}
		if err := surface.DrawMarkup(b.Markup, 0, b.Y, frame.TextWidth, b.Foreground); err != nil {
			return nil, renderErr("draw text", err)
		}
	}

	if err := d.drawCloseBands(cfg, surface, frame, width); err != nil {
		return nil, err
	}

	if err := surface.Flush(); err != nil {
		return nil, renderErr("flush", err)
	}
	return frame, nil
}

// place moves the window to its origin-relative position for the given size.
func (d *Driver) place(cfg *config.Config, width, height int) error {
	screenW, screenH, err := d.win.Screen()
	if err != nil {
		return renderErr("screen", err)
	}
	g := cfg.Global.Geometry
	x, y := CalculatePosition(cfg.Global.Origin, g.X, g.Y, width, height, screenW, screenH)
	return renderErr("configure", d.win.Configure(x, y, width, height))
}

func (d *Driver) drawCloseBands(cfg *config.Config, surface Surface, frame *layout.Frame, width int) error {
	closeW := cfg.Global.CloseButtonWidth
	if closeW <= 0 {
		return nil
	}
	x := max(width-closeW, 0)

	for _, b := range frame.Blocks {
		if b.Kind != layout.KindNotification {
			continue
		}
		bg := frame.Background
		if b.Background != nil {
			bg = *b.Background
		}
		surface.FillRect(x, b.Y, closeW, b.Height, bg.Blend(b.Foreground, closeShade))
		if err := surface.DrawMarkup(closeGlyph, x+closeW/4, b.Y, closeW, b.Foreground); err != nil {
			return renderErr("draw close", err)
		}
	}
	return nil
}

// runCommands starts the custom commands of every displayed notification
// that has not expired yet. Each redraw runs them again.
func (d *Driver) runCommands(cfg *config.Config, in layout.Input) {
	if d.runCommand == nil {
		return
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	for _, n := range in.Notifications {
		if !hasCommands(cfg, n) || n.Expired(now) {
			continue
		}
		commands, err := action.Render(cfg, n, in.UnreadCount)
		if err != nil {
			d.logger.Warn("render custom command", "id", n.ID, "error", err)
		}
		for _, c := range commands {
			if err := d.runCommand(c); err != nil {
				d.logger.Warn("run custom command", "id", n.ID, "command", c, "error", err)
			}
		}
	}
}

func hasCommands(cfg *config.Config, n model.Notification) bool {
	return len(cfg.Urgency(n.Urgency).CustomCommands) > 0
}
