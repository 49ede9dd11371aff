package config

import "strings"

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate checks every section and returns a *ValidationError listing
// all problems, or nil.
func (c *Config) Validate() error {
	verr := &ValidationError{}

	g := c.Grid
	if g.RowHeight <= 0 || g.RowHeight > 1000 {
		verr.add("grid.row_height", ErrCodeOutOfRange, g.RowHeight, "must be between 0 and 1000")
	}
	if g.HeaderHeight < 0 {
		verr.add("grid.header_height", ErrCodeOutOfRange, g.HeaderHeight, "must not be negative")
	}
	if g.GroupHeaderHeight < 0 {
		verr.add("grid.group_header_height", ErrCodeOutOfRange, g.GroupHeaderHeight, "must not be negative")
	}
	nonNegative := []struct {
		path string
		v    int
	}{
		{"grid.freeze_columns", g.FreezeColumns},
		{"grid.frozen_trailing_rows", g.FrozenTrailingRows},
		{"grid.overscan_x", g.OverscanX},
		{"grid.overscan_y", g.OverscanY},
		{"grid.cache_size", g.CacheSize},
		{"grid.max_damage_cells", g.MaxDamageCells},
		{"data.rows", c.Data.Rows},
		{"data.page_rows", c.Data.PageRows},
		{"data.delay_ms", c.Data.DelayMS},
	}
	for _, f := range nonNegative {
		if f.v < 0 {
			verr.add(f.path, ErrCodeOutOfRange, f.v, "must not be negative")
		}
	}
	if g.CoalesceRatio < 0 || g.CoalesceRatio > 1 {
		verr.add("grid.coalesce_ratio", ErrCodeOutOfRange, g.CoalesceRatio, "must be between 0 and 1")
	}

	c.Theme.validate(verr)

	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, l := range logLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		verr.add("logging.level", ErrCodeInvalidEnum, c.Logging.Level, "must be one of debug, info, warn, error")
	}

	switch c.Data.Source {
	case SourceSynthetic:
	case SourcePostgres:
		if c.Data.DatabaseURL == "" {
			verr.add("data.database_url", ErrCodeRequiredMissing, "", "required for the postgres source")
		}
		if c.Data.Table == "" {
			verr.add("data.table", ErrCodeRequiredMissing, "", "required for the postgres source")
		}
	default:
		verr.add("data.source", ErrCodeInvalidEnum, c.Data.Source, "must be synthetic or postgres")
	}

	return verr.orNil()
}
