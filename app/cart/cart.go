// Package cart holds the shopping cart as observable state.
package cart

import (
	"context"
	"log/slog"

	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/state"
	"github.com/shopspring/decimal"
)

type Line struct {
	Product  model.Product `json:"product"`
	Quantity int           `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is what subscribers see. It is never mutated after publication.
type Snapshot struct {
	Lines []Line
	Total decimal.Decimal
}

type Holder struct {
	value *state.Value[Snapshot]
	store persistence.Store
	log   *slog.Logger
}

// New returns an empty cart. store may be nil when the cart is not persisted.
func New(store persistence.Store, log *slog.Logger) *Holder {
	if log == nil {
		log = slog.Default()
	}
	return &Holder{
		value: state.NewValue(Snapshot{Lines: []Line{}, Total: decimal.Zero}),
		store: store,
		log:   log,
	}
}

func (h *Holder) Add(p model.Product) {
	h.mutate(func(lines []Line) []Line {
		for i := range lines {
			if lines[i].Product.ID == p.ID {
				lines[i].Quantity++
				return lines
			}
		}
		return append(lines, Line{Product: p.Clone(), Quantity: 1})
	})
}

// UpdateQuantity adds delta to the line's quantity. A result of zero or less
// removes the line. Unknown ids are ignored.
func (h *Holder) UpdateQuantity(productID int64, delta int) {
	h.mutate(func(lines []Line) []Line {
		for i := range lines {
			if lines[i].Product.ID != productID {
				continue
			}
			q := max(0, lines[i].Quantity+delta)
			if q == 0 {
				return append(lines[:i], lines[i+1:]...)
			}
			lines[i].Quantity = q
			return lines
		}
		return lines
	})
}

func (h *Holder) Remove(productID int64) {
	h.mutate(func(lines []Line) []Line {
		out := lines[:0]
		for _, l := range lines {
			if l.Product.ID != productID {
				out = append(out, l)
			}
		}
		return out
	})
}

func (h *Holder) Clear() {
	h.mutate(func([]Line) []Line { return nil })
}

// Lines returns a copy of the current lines.
func (h *Holder) Lines() []Line {
	cur := h.value.Get().Lines
	out := make([]Line, len(cur))
	for i, l := range cur {
		out[i] = Line{Product: l.Product.Clone(), Quantity: l.Quantity}
	}
	return out
}

func (h *Holder) Total() decimal.Decimal {
	return h.value.Get().Total
}

func (h *Holder) Subscribe() <-chan Snapshot {
	return h.value.Subscribe()
}

func (h *Holder) Unsubscribe(ch <-chan Snapshot) {
	h.value.Unsubscribe(ch)
}

// Load replaces the cart with the persisted one.
func (h *Holder) Load(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	lines, err := persistence.LoadList[Line](ctx, h.store, persistence.KeyCart)
	if err != nil {
		return err
	}
	valid := lines[:0]
	for _, l := range lines {
		if l.Quantity > 0 {
			valid = append(valid, l)
		}
	}
	h.value.Set(newSnapshot(valid))
	return nil
}

func (h *Holder) Save(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	return persistence.SaveJSON(ctx, h.store, persistence.KeyCart, h.Lines())
}

// mutate hands fn a private copy of the lines, so published snapshots stay
// untouched.
func (h *Holder) mutate(fn func([]Line) []Line) {
	h.value.Update(func(cur Snapshot) Snapshot {
		lines := make([]Line, len(cur.Lines))
		copy(lines, cur.Lines)
		return newSnapshot(fn(lines))
	})
}

func newSnapshot(lines []Line) Snapshot {
	if lines == nil {
		lines = []Line{}
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return Snapshot{Lines: lines, Total: total}
}
