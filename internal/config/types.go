package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/notistack/internal/model"
)

// Parse errors for typed configuration values.
var (
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrInvalidOrigin   = errors.New("invalid origin")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Color is an RGB color with an alpha channel, written as #RRGGBB or #RRGGBBAA.
type Color struct {
	colorful.Color
	A float64
}

// ParseColor parses a hex color string. A missing alpha byte means opaque.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := 1.0
	if len(s) == 9 && s[0] == '#' {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w %q: %v", ErrInvalidColor, s, err)
		}
		alpha = float64(a) / 255.0
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("%w %q: %v", ErrInvalidColor, s, err)
	}
	return Color{Color: c, A: alpha}, nil
}

// MustColor is ParseColor for compile-time constants.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// String returns the color as #rrggbb, or #rrggbbaa when translucent.
func (c Color) String() string {
	if c.A >= 1 {
		return c.Hex()
	}
	return fmt.Sprintf("%s%02x", c.Hex(), uint8(c.A*255+0.5))
}

// RGBA returns the color channels in the 0..1 range cairo expects.
func (c Color) RGBA() (r, g, b, a float64) {
	cl := c.Clamped()
	return cl.R, cl.G, cl.B, c.A
}

// Blend mixes c towards other by t (0..1) in Lab space, keeping c's alpha.
func (c Color) Blend(other Color, t float64) Color {
	return Color{Color: c.BlendLab(other.Color, t).Clamped(), A: c.A}
}

// Origin is the screen corner that geometry offsets are measured from.
type Origin int

// Window anchor corners.
const (
	OriginTopLeft Origin = iota
	OriginTopRight
	OriginBottomLeft
	OriginBottomRight
)

// ValidOrigins returns all valid origin values.
func ValidOrigins() []Origin {
	return []Origin{OriginTopLeft, OriginTopRight, OriginBottomLeft, OriginBottomRight}
}

func (o Origin) String() string {
	switch o {
	case OriginTopLeft:
		return "top-left"
	case OriginTopRight:
		return "top-right"
	case OriginBottomLeft:
		return "bottom-left"
	case OriginBottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// ParseOrigin accepts the kebab-case corner names.
func ParseOrigin(s string) (Origin, error) {
	for _, o := range ValidOrigins() {
		if strings.EqualFold(strings.TrimSpace(s), o.String()) {
			return o, nil
		}
	}
	return OriginTopLeft, fmt.Errorf("%w %q, must be one of: %v", ErrInvalidOrigin, s, ValidOrigins())
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (o *Origin) UnmarshalText(text []byte) error {
	parsed, err := ParseOrigin(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Geometry is the window size and its offset from the origin, as WxH+X+Y.
type Geometry struct {
	Width  int
	Height int
	X      int
	Y      int
}

// ParseGeometry parses a WxH+X+Y string.
func ParseGeometry(s string) (Geometry, error) {
	size, offset, ok := strings.Cut(strings.TrimSpace(s), "+")
	if !ok {
		return Geometry{}, fmt.Errorf("%w %q: expected WxH+X+Y", ErrInvalidGeometry, s)
	}
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return Geometry{}, fmt.Errorf("%w %q: expected WxH+X+Y", ErrInvalidGeometry, s)
	}
	x, y, ok := strings.Cut(offset, "+")
	if !ok {
		return Geometry{}, fmt.Errorf("%w %q: expected WxH+X+Y", ErrInvalidGeometry, s)
	}

	var g Geometry
	for _, f := range []struct {
		dst *int
		src string
	}{{&g.Width, w}, {&g.Height, h}, {&g.X, x}, {&g.Y, y}} {
		v, err := strconv.ParseUint(f.src, 10, 31)
		if err != nil {
			return Geometry{}, fmt.Errorf("%w %q: %v", ErrInvalidGeometry, s, err)
		}
		*f.dst = int(v)
	}
	return g, nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (g *Geometry) UnmarshalText(text []byte) error {
	parsed, err := ParseGeometry(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (g Geometry) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// Filter selects notifications by regular expressions on their text fields.
// It is written in the config file as a JSON object string, for example
// '{"app_name":"^slack$","body":"deploy"}'. Unset fields match anything.
type Filter struct {
	AppName *regexp.Regexp
	Summary *regexp.Regexp
	Body    *regexp.Regexp

	raw string
}

// ParseFilter compiles a JSON filter object.
func ParseFilter(s string) (*Filter, error) {
	var fields struct {
		AppName *string `json:"app_name"`
		Summary *string `json:"summary"`
		Body    *string `json:"body"`
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidFilter, s, err)
	}

	f := &Filter{raw: s}
	for _, c := range []struct {
		dst **regexp.Regexp
		src *string
	}{{&f.AppName, fields.AppName}, {&f.Summary, fields.Summary}, {&f.Body, fields.Body}} {
		if c.src == nil {
			continue
		}
		re, err := regexp.Compile(*c.src)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidFilter, s, err)
		}
		*c.dst = re
	}
	return f, nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (f *Filter) UnmarshalText(text []byte) error {
	parsed, err := ParseFilter(string(text))
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (f Filter) MarshalText() ([]byte, error) {
	return []byte(f.raw), nil
}

// Matches reports whether every set expression matches the notification.
func (f *Filter) Matches(n model.Notification) bool {
	if f == nil {
		return true
	}
	if f.AppName != nil && !f.AppName.MatchString(n.AppName) {
		return false
	}
	if f.Summary != nil && !f.Summary.MatchString(n.Summary) {
		return false
	}
	if f.Body != nil && !f.Body.MatchString(n.Body) {
		return false
	}
	return true
}
