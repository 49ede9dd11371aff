package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/geometry"
)

// DefaultColumnWidth is used for columns that do not set a width.
const DefaultColumnWidth = 150

type columnsFile struct {
	Columns []geometry.Column `yaml:"columns"`
}

// LoadColumns reads a YAML column definition file.
func LoadColumns(path string) ([]geometry.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading columns file %s: %w", path, err)
	}
	return ParseColumns(path, data)
}

// ParseColumns decodes a YAML document of the form
//
//	columns:
//	  - id: name
//	    title: Name
//	    width: 180
//	    kind: text
//
// Missing widths default to DefaultColumnWidth and missing kinds to text.
func ParseColumns(source string, data []byte) ([]geometry.Column, error) {
	var f columnsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var te *yaml.TypeError
		if errors.As(err, &te) && len(te.Errors) > 0 {
			perr.Message = te.Errors[0]
		}
		return nil, perr
	}

	verr := &ValidationError{}
	seen := make(map[string]bool, len(f.Columns))
	for i := range f.Columns {
		col := &f.Columns[i]
		path := fmt.Sprintf("columns[%d]", i)
		if col.ID == "" {
			verr.add(path+".id", ErrCodeRequiredMissing, "", "column id is required")
		} else if seen[col.ID] {
			verr.add(path+".id", ErrCodeDuplicate, col.ID, "duplicate column id")
		}
		seen[col.ID] = true
		if col.Width < 0 {
			verr.add(path+".width", ErrCodeOutOfRange, col.Width, "must not be negative")
		}
		if col.Width == 0 {
			col.Width = DefaultColumnWidth
		}
		if col.Kind == "" {
			col.Kind = cell.KindText
		}
		if col.Title == "" {
			col.Title = col.ID
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return f.Columns, nil
}
