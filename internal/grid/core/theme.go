package core

// Theme holds the colors and metrics used while painting.
// A Theme used as an override only needs the fields it changes; unset
// colors (zero alpha) and zero metrics are ignored by Merge.
type Theme struct {
	AccentColor      Color // focus ring, selected header
	AccentForeground Color
	AccentLight      Color // selection tint, blended over backgrounds

	TextDark   Color
	TextMedium Color
	TextLight  Color
	TextHeader Color
	LinkColor  Color

	BgCell          Color
	BgCellMedium    Color // disabled rows, protected cells
	BgHeader        Color
	BgHeaderHovered Color
	BgBubble        Color

	BorderColor           Color
	HorizontalBorderColor Color

	CellHorizontalPadding float64
	CellVerticalPadding   float64
	FontSize              float64
	HeaderFontSize        float64
	RoundingRadius        float64
}

// DefaultTheme returns the built-in light theme.
func DefaultTheme() Theme {
	return Theme{
		AccentColor:      MustHex("#4F5DFF"),
		AccentForeground: ColorWhite,
		AccentLight:      MustHex("#4F5DFF1A"),

		TextDark:   MustHex("#313139"),
		TextMedium: MustHex("#737383"),
		TextLight:  MustHex("#B2B2C0"),
		TextHeader: MustHex("#313139"),
		LinkColor:  MustHex("#353FB5"),

		BgCell:          ColorWhite,
		BgCellMedium:    MustHex("#FAFAFB"),
		BgHeader:        MustHex("#F7F7F8"),
		BgHeaderHovered: MustHex("#EFEFF1"),
		BgBubble:        MustHex("#EDEDF3"),

		BorderColor:           MustHex("#73738324"),
		HorizontalBorderColor: MustHex("#73738324"),

		CellHorizontalPadding: 8,
		CellVerticalPadding:   3,
		FontSize:              13,
		HeaderFontSize:        13,
		RoundingRadius:        4,
	}
}

// Merge returns t with every set field of override applied.
// A nil override returns t unchanged.
func (t Theme) Merge(override *Theme) Theme {
	if override == nil {
		return t
	}
	o := override
	result := t

	mergeColor(&result.AccentColor, o.AccentColor)
	mergeColor(&result.AccentForeground, o.AccentForeground)
	mergeColor(&result.AccentLight, o.AccentLight)
	mergeColor(&result.TextDark, o.TextDark)
	mergeColor(&result.TextMedium, o.TextMedium)
	mergeColor(&result.TextLight, o.TextLight)
	mergeColor(&result.TextHeader, o.TextHeader)
	mergeColor(&result.LinkColor, o.LinkColor)
	mergeColor(&result.BgCell, o.BgCell)
	mergeColor(&result.BgCellMedium, o.BgCellMedium)
	mergeColor(&result.BgHeader, o.BgHeader)
	mergeColor(&result.BgHeaderHovered, o.BgHeaderHovered)
	mergeColor(&result.BgBubble, o.BgBubble)
	mergeColor(&result.BorderColor, o.BorderColor)
	mergeColor(&result.HorizontalBorderColor, o.HorizontalBorderColor)

	mergeFloat(&result.CellHorizontalPadding, o.CellHorizontalPadding)
	mergeFloat(&result.CellVerticalPadding, o.CellVerticalPadding)
	mergeFloat(&result.FontSize, o.FontSize)
	mergeFloat(&result.HeaderFontSize, o.HeaderFontSize)
	mergeFloat(&result.RoundingRadius, o.RoundingRadius)

	return result
}

// Resolve merges base < row override < cell override.
func Resolve(base Theme, row, cell *Theme) Theme {
	return base.Merge(row).Merge(cell)
}

func mergeColor(dst *Color, src Color) {
	if src.IsSet() {
		*dst = src
	}
}

func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}
