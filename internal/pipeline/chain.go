package pipeline

import (
	"fmt"

	"github.com/clindwh/clindwh/internal/platform/csvsource"
)

// Handler owns one source column: it reads the (possibly absent) raw
// value, transforms it and writes the result into the draft. Returning
// an error rejects the whole row.
type Handler interface {
	Column() string
	Process(d *Draft, row csvsource.RawRow) error
}

// Chain drives an ordered handler list over one row. Order matters:
// later handlers may read fields set by earlier ones, and when two
// handlers write the same logical field the later value wins.
type Chain struct {
	handlers []Handler
}

func NewChain(handlers ...Handler) *Chain {
	return &Chain{handlers: handlers}
}

// Run walks the row through every handler in order and returns the
// finished draft. The first handler error aborts the row; nothing of a
// rejected draft is ever written to the warehouse.
func (c *Chain) Run(row csvsource.RawRow) (*Draft, error) {
	d := &Draft{}
	for _, h := range c.handlers {
		if err := h.Process(d, row); err != nil {
			return nil, fmt.Errorf("column %s: %w", h.Column(), err)
		}
	}
	return d, nil
}
