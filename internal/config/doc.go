// Package config provides the configuration system for gridstorm.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (applied by cmd)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← GRIDSTORM_*
//	├─────────────────────────────┤
//	│  2. Config File             │  ← gridstorm.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The file is TOML with four sections:
//
//	[grid]
//	row_height = 34
//	freeze_columns = 1
//	prediction = true
//
//	[theme]
//	accent = "#4F5DFF"
//
//	[logging]
//	level = "debug"
//	file = "/tmp/gridstorm.log"
//
//	[data]
//	rows = 100000
//	columns_file = "columns.yaml"
//	database_url = "postgres://localhost/app"
//	table = "people"
//
// Column definitions live in a separate YAML file (see LoadColumns).
//
// # Live Reload
//
// Watcher observes the config file with fsnotify and hands every
// successfully reloaded Config to a callback:
//
//	w, err := config.NewWatcher(path, func(cfg *config.Config, err error) {
//	    if err == nil {
//	        app.ApplyConfig(cfg)
//	    }
//	})
//	defer w.Close()
package config
