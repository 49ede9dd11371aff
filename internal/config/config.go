package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// Data source names.
const (
	SourceSynthetic = "synthetic"
	SourcePostgres  = "postgres"
)

// Config is the complete gridstorm configuration.
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Theme   ThemeConfig   `toml:"theme"`
	Logging LoggingConfig `toml:"logging"`
	Data    DataConfig    `toml:"data"`

	path string
}

// GridConfig holds layout and rendering settings.
type GridConfig struct {
	RowHeight          float64 `toml:"row_height"`
	HeaderHeight       float64 `toml:"header_height"`
	GroupHeaderHeight  float64 `toml:"group_header_height"`
	FreezeColumns      int     `toml:"freeze_columns"`
	FrozenTrailingRows int     `toml:"frozen_trailing_rows"`
	OverscanX          int     `toml:"overscan_x"`
	OverscanY          int     `toml:"overscan_y"`
	CacheSize          int     `toml:"cache_size"`
	MaxDamageCells     int     `toml:"max_damage_cells"`
	CoalesceRatio      float64 `toml:"coalesce_ratio"`
	VerticalBorders    bool    `toml:"vertical_borders"`
	Prediction         bool    `toml:"prediction"`

	// ScriptsDir holds Lua cell renderer scripts.
	ScriptsDir string `toml:"scripts_dir"`
}

// ThemeConfig overrides theme colors and metrics. Empty colors and zero
// metrics keep the built-in values.
type ThemeConfig struct {
	Accent           string  `toml:"accent"`
	AccentForeground string  `toml:"accent_foreground"`
	AccentLight      string  `toml:"accent_light"`
	Text             string  `toml:"text"`
	TextMedium       string  `toml:"text_medium"`
	TextLight        string  `toml:"text_light"`
	TextHeader       string  `toml:"text_header"`
	Link             string  `toml:"link"`
	Background       string  `toml:"background"`
	BackgroundMedium string  `toml:"background_medium"`
	Header           string  `toml:"header"`
	HeaderHovered    string  `toml:"header_hovered"`
	Border           string  `toml:"border"`
	HorizontalBorder string  `toml:"horizontal_border"`
	Padding          float64 `toml:"padding"`
	FontSize         float64 `toml:"font_size"`
	HeaderFontSize   float64 `toml:"header_font_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `toml:"level"`
	// File receives log output; empty means stderr.
	File string `toml:"file"`
}

// DataConfig selects and configures the content source.
type DataConfig struct {
	Source      string `toml:"source"`
	Rows        int    `toml:"rows"`
	ColumnsFile string `toml:"columns_file"`
	PageRows    int    `toml:"page_rows"`
	DelayMS     int    `toml:"delay_ms"` // simulated fetch latency for the synthetic source

	DatabaseURL string `toml:"database_url"`
	Table       string `toml:"table"`
	OrderBy     string `toml:"order_by"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := grid.DefaultOptions()
	return &Config{
		Grid: GridConfig{
			RowHeight:         opts.RowHeight,
			HeaderHeight:      opts.HeaderHeight,
			GroupHeaderHeight: opts.GroupHeaderHeight,
			OverscanX:         opts.OverscanX,
			OverscanY:         opts.OverscanY,
			CacheSize:         opts.CacheSize,
			MaxDamageCells:    opts.MaxDamageCells,
			CoalesceRatio:     opts.CoalesceRatio,
			VerticalBorders:   opts.VerticalBorders,
			Prediction:        opts.Prediction,
		},
		Logging: LoggingConfig{Level: "info"},
		Data: DataConfig{
			Source:   SourceSynthetic,
			Rows:     100000,
			PageRows: 64,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	cfg, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes TOML data over the defaults. Unknown keys are errors so
// typos do not silently fall back to defaults.
func Parse(source string, data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		var se *toml.StrictMissingError
		switch {
		case errors.As(err, &de):
			perr.Line, perr.Column = de.Position()
		case errors.As(err, &se):
			perr.Message = "unknown keys: " + se.String()
			if len(se.Errors) > 0 {
				perr.Line, perr.Column = se.Errors[0].Position()
			}
		}
		return nil, perr
	}
	return cfg, nil
}

// LoadAll loads the file at path, applies GRIDSTORM_* environment
// overrides and validates the result.
func LoadAll(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Encode writes the config as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// GridOptions converts the config to grid options.
func (c *Config) GridOptions() (grid.Options, error) {
	theme, err := c.Theme.Resolve(core.DefaultTheme())
	if err != nil {
		return grid.Options{}, err
	}
	g := c.Grid
	return grid.Options{
		RowHeight:          g.RowHeight,
		HeaderHeight:       g.HeaderHeight,
		GroupHeaderHeight:  g.GroupHeaderHeight,
		FreezeColumns:      g.FreezeColumns,
		FrozenTrailingRows: g.FrozenTrailingRows,
		OverscanX:          g.OverscanX,
		OverscanY:          g.OverscanY,
		CacheSize:          g.CacheSize,
		MaxDamageCells:     g.MaxDamageCells,
		CoalesceRatio:      g.CoalesceRatio,
		Theme:              theme,
		VerticalBorders:    g.VerticalBorders,
		Prediction:         g.Prediction,
	}, nil
}
