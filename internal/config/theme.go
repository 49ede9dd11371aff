package config

import (
	"fmt"

	"github.com/dshills/gridstorm/internal/grid/core"
)

// colorFields pairs each theme color setting with its destination.
func (t *ThemeConfig) colorFields(theme *core.Theme) []struct {
	key string
	val string
	dst *core.Color
} {
	return []struct {
		key string
		val string
		dst *core.Color
	}{
		{"accent", t.Accent, &theme.AccentColor},
		{"accent_foreground", t.AccentForeground, &theme.AccentForeground},
		{"accent_light", t.AccentLight, &theme.AccentLight},
		{"text", t.Text, &theme.TextDark},
		{"text_medium", t.TextMedium, &theme.TextMedium},
		{"text_light", t.TextLight, &theme.TextLight},
		{"text_header", t.TextHeader, &theme.TextHeader},
		{"link", t.Link, &theme.LinkColor},
		{"background", t.Background, &theme.BgCell},
		{"background_medium", t.BackgroundMedium, &theme.BgCellMedium},
		{"header", t.Header, &theme.BgHeader},
		{"header_hovered", t.HeaderHovered, &theme.BgHeaderHovered},
		{"border", t.Border, &theme.BorderColor},
		{"horizontal_border", t.HorizontalBorder, &theme.HorizontalBorderColor},
	}
}

// Resolve applies the overrides to base.
func (t *ThemeConfig) Resolve(base core.Theme) (core.Theme, error) {
	theme := base
	for _, f := range t.colorFields(&theme) {
		if f.val == "" {
			continue
		}
		c, err := core.ColorFromHex(f.val)
		if err != nil {
			return base, fmt.Errorf("theme.%s: %w", f.key, err)
		}
		*f.dst = c
	}
	if t.Padding > 0 {
		theme.CellHorizontalPadding = t.Padding
	}
	if t.FontSize > 0 {
		theme.FontSize = t.FontSize
	}
	if t.HeaderFontSize > 0 {
		theme.HeaderFontSize = t.HeaderFontSize
	}
	return theme, nil
}

func (t *ThemeConfig) validate(verr *ValidationError) {
	var scratch core.Theme
	for _, f := range t.colorFields(&scratch) {
		if f.val == "" {
			continue
		}
		if _, err := core.ColorFromHex(f.val); err != nil {
			verr.add("theme."+f.key, ErrCodeInvalidColor, f.val, "must be #RRGGBB or #RRGGBBAA")
		}
	}
	if t.Padding < 0 {
		verr.add("theme.padding", ErrCodeOutOfRange, t.Padding, "must not be negative")
	}
	if t.FontSize < 0 || t.FontSize > 96 {
		verr.add("theme.font_size", ErrCodeOutOfRange, t.FontSize, "must be between 0 and 96")
	}
	if t.HeaderFontSize < 0 || t.HeaderFontSize > 96 {
		verr.add("theme.header_font_size", ErrCodeOutOfRange, t.HeaderFontSize, "must be between 0 and 96")
	}
}
