package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "GRIDSTORM_"

// LookupFunc looks up an environment variable, matching os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type envBinding struct {
	key string
	set func(c *Config, v string) error
}

func envString(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func envInt(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func envFloat(dst func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(c) = f
		return nil
	}
}

func envBool(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

// envBindings maps GRIDSTORM_<KEY> to config fields.
var envBindings = []envBinding{
	{"ROW_HEIGHT", envFloat(func(c *Config) *float64 { return &c.Grid.RowHeight })},
	{"HEADER_HEIGHT", envFloat(func(c *Config) *float64 { return &c.Grid.HeaderHeight })},
	{"FREEZE_COLUMNS", envInt(func(c *Config) *int { return &c.Grid.FreezeColumns })},
	{"FROZEN_TRAILING_ROWS", envInt(func(c *Config) *int { return &c.Grid.FrozenTrailingRows })},
	{"CACHE_SIZE", envInt(func(c *Config) *int { return &c.Grid.CacheSize })},
	{"MAX_DAMAGE_CELLS", envInt(func(c *Config) *int { return &c.Grid.MaxDamageCells })},
	{"PREDICTION", envBool(func(c *Config) *bool { return &c.Grid.Prediction })},
	{"SCRIPTS_DIR", envString(func(c *Config) *string { return &c.Grid.ScriptsDir })},
	{"LOG_LEVEL", envString(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FILE", envString(func(c *Config) *string { return &c.Logging.File })},
	{"SOURCE", envString(func(c *Config) *string { return &c.Data.Source })},
	{"ROWS", envInt(func(c *Config) *int { return &c.Data.Rows })},
	{"COLUMNS_FILE", envString(func(c *Config) *string { return &c.Data.ColumnsFile })},
	{"PAGE_ROWS", envInt(func(c *Config) *int { return &c.Data.PageRows })},
	{"DATABASE_URL", envString(func(c *Config) *string { return &c.Data.DatabaseURL })},
	{"TABLE", envString(func(c *Config) *string { return &c.Data.Table })},
	{"ORDER_BY", envString(func(c *Config) *string { return &c.Data.OrderBy })},
}

// ApplyEnv overrides cfg from GRIDSTORM_* variables found by lookup.
// The first malformed value is returned as an error naming the variable.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok {
			continue
		}
		if err := b.set(cfg, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s=%q: %w", EnvPrefix, b.key, v, err)
		}
	}
	return nil
}
