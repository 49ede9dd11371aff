package cellrender

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// ParseTSV splits clipboard text into rows of fields. Fields are tab
// separated and may be double-quoted to carry tabs, newlines or quotes.
func ParseTSV(text string) ([][]string, error) {
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse clipboard: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// PasteResult is one accepted per-cell paste.
type PasteResult struct {
	Item core.Item
	Cell cell.Content
}

// PasteMatrix applies a parsed clipboard matrix with its top left corner at
// target. Each field is offered to the target cell's renderer; cells for
// which get returns nil, cells with no renderer, and rejected pastes are
// skipped. Items beyond cols or rows are skipped too.
func PasteMatrix(reg *Registry, matrix [][]string, target core.Item, cols, rows int, get func(core.Item) cell.Content) []PasteResult {
	var out []PasteResult
	for dy, rec := range matrix {
		row := target.Row + dy
		if row >= rows {
			break
		}
		for dx, field := range rec {
			col := target.Col + dx
			if col >= cols {
				break
			}
			item := core.NewItem(col, row)
			c := get(item)
			if c == nil {
				continue
			}
			rend, ok := reg.Lookup(c.Kind())
			if !ok {
				continue
			}
			if updated, ok := rend.OnPaste(field, c); ok {
				out = append(out, PasteResult{Item: item, Cell: updated})
			}
		}
	}
	return out
}
