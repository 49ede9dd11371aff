package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/selection"
)

// syntheticNamespace seeds the deterministic row ids.
var syntheticNamespace = uuid.MustParse("6ba7b812-9dad-11d1-80b4-00c04fd430c8")

// Synthetic generates deterministic content from column kinds. It backs
// the demo and tests, and can simulate a slow source through Delay.
type Synthetic struct {
	Kinds []cell.Kind
	Delay time.Duration
}

// NewSynthetic returns a generator for the given column kinds.
func NewSynthetic(kinds ...cell.Kind) *Synthetic {
	return &Synthetic{Kinds: kinds}
}

// Get implements Getter.
func (s *Synthetic) Get(item core.Item) cell.Content {
	if !item.IsData() || item.Col >= len(s.Kinds) {
		return nil
	}
	r, c := item.Row, item.Col
	switch s.Kinds[c] {
	case cell.KindNumber:
		n := cell.NewNumber(float64((r+1)*(c+1)) * 1.25)
		n.Fixed = 2
		return n
	case cell.KindBoolean:
		b := cell.NewBoolean(r%3 == 0)
		b.B.AllowOverlay = true
		return b
	case cell.KindURI:
		u := fmt.Sprintf("https://example.com/items/%d", r)
		return &cell.URI{B: cell.Base{AllowOverlay: true}, Data: u, DisplayData: "item " + strconv.Itoa(r)}
	case cell.KindRowID:
		id := uuid.NewSHA1(syntheticNamespace, []byte(strconv.Itoa(r)))
		return &cell.RowID{B: cell.Base{Readonly: true}, Data: id.String()}
	case cell.KindProtected:
		return &cell.Protected{B: cell.Base{Readonly: true}}
	case cell.KindMarker:
		return &cell.Marker{Row: r, Markers: cell.MarkerBoth}
	default:
		t := cell.NewText(fmt.Sprintf("R%d C%d", r, c))
		t.B.Readonly = false
		return t
	}
}

// FetchRange implements RangeFetcher, sleeping for Delay first.
func (s *Synthetic) FetchRange(ctx context.Context, r selection.Range) ([][]cell.Content, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return FetchWithGetter(ctx, r, s.Get)
}
