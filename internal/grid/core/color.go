package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a straight-alpha RGBA color.
// The zero value is fully transparent and is treated as "unset" by
// Theme.Merge.
type Color struct {
	R, G, B, A uint8
}

// Common colors.
var (
	ColorTransparent = Color{}
	ColorBlack       = Color{R: 0, G: 0, B: 0, A: 255}
	ColorWhite       = Color{R: 255, G: 255, B: 255, A: 255}
	ColorRed         = Color{R: 255, G: 0, B: 0, A: 255}
	ColorGray        = Color{R: 128, G: 128, B: 128, A: 255}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// RGBA creates a color from RGBA components.
func RGBA(r, g, b, a uint8) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ColorFromHex parses "#RGB", "#RRGGBB" or "#RRGGBBAA".
func ColorFromHex(hex string) (Color, error) {
	hex = strings.TrimPrefix(hex, "#")

	expand := func(s string) string {
		var b strings.Builder
		for _, r := range s {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		return b.String()
	}

	switch len(hex) {
	case 3:
		hex = expand(hex) + "ff"
	case 4:
		hex = expand(hex)
	case 6:
		hex += "ff"
	case 8:
	default:
		return Color{}, fmt.Errorf("invalid hex color length: %s", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color: %s", hex)
	}
	return Color{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// MustHex is ColorFromHex for package-level literals. It panics on error.
func MustHex(hex string) Color {
	c, err := ColorFromHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// IsSet reports whether the color carries any opacity.
func (c Color) IsSet() bool {
	return c.A != 0
}

// IsOpaque reports whether the color fully covers what is under it.
func (c Color) IsOpaque() bool {
	return c.A == 255
}

// WithAlpha returns the color with its alpha replaced.
func (c Color) WithAlpha(a uint8) Color {
	c.A = a
	return c
}

// Equals returns true if two colors are equal.
func (c Color) Equals(other Color) bool {
	return c == other
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ToHex returns the hex representation.
func (c Color) ToHex() string {
	return c.String()
}

// Blend mixes two opaque colors in RGB space; amount 0 is c and 1 is other.
func (c Color) Blend(other Color, amount float64) Color {
	if amount <= 0 {
		return c
	}
	if amount >= 1 {
		return other
	}
	mixed := c.colorful().BlendRgb(other.colorful(), amount).Clamped()
	r, g, b := mixed.RGB255()
	a := float64(c.A)*(1-amount) + float64(other.A)*amount
	return Color{R: r, G: g, B: b, A: uint8(a + 0.5)}
}

// Over composites c over the backdrop using source-over alpha.
// The backdrop is assumed opaque; the result is opaque.
func (c Color) Over(backdrop Color) Color {
	switch c.A {
	case 0:
		return backdrop
	case 255:
		return c
	}
	out := backdrop.WithAlpha(255).Blend(c.WithAlpha(255), float64(c.A)/255)
	out.A = 255
	return out
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

// Float returns the components scaled to [0, 1].
func (c Color) Float() (r, g, b, a float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255, float64(c.A) / 255
}
