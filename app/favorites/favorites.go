// Package favorites tracks the products the user marked as favorite.
package favorites

import (
	"context"
	"slices"

	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/state"
)

type Holder struct {
	value *state.Value[[]model.Product]
	store persistence.Store
}

func New(store persistence.Store) *Holder {
	return &Holder{
		value: state.NewValue([]model.Product{}),
		store: store,
	}
}

// Load restores the favorite set, resolving ids against the catalog.
// Ids the catalog no longer knows are dropped.
func (h *Holder) Load(ctx context.Context, catalog []model.Product) error {
	ids, err := persistence.LoadList[int64](ctx, h.store, persistence.KeyFavorites)
	if err != nil {
		return err
	}
	out := []model.Product{}
	for _, p := range catalog {
		if slices.Contains(ids, p.ID) {
			fav := p.Clone()
			fav.IsFavorite = true
			out = append(out, fav)
		}
	}
	h.value.Set(out)
	return nil
}

// Toggle flips the favorite flag of p and persists the id set. It returns
// the new flag. When the save fails the flip is reverted.
func (h *Holder) Toggle(ctx context.Context, p model.Product) (bool, error) {
	var (
		on      bool
		removed model.Product
	)
	next := h.value.Update(func(cur []model.Product) []model.Product {
		out := make([]model.Product, 0, len(cur)+1)
		found := false
		for _, f := range cur {
			if f.ID == p.ID {
				found = true
				removed = f
				continue
			}
			out = append(out, f)
		}
		if !found {
			fav := p.Clone()
			fav.IsFavorite = true
			out = append(out, fav)
			on = true
		}
		return out
	})
	if err := persistence.SaveJSON(ctx, h.store, persistence.KeyFavorites, ids(next)); err != nil {
		h.revert(p.ID, on, removed)
		return !on, err
	}
	return on, nil
}

// revert undoes a single flip of id against the current set, so flips of
// other products made in between survive.
func (h *Holder) revert(id int64, added bool, removed model.Product) {
	h.value.Update(func(cur []model.Product) []model.Product {
		has := slices.ContainsFunc(cur, func(f model.Product) bool { return f.ID == id })
		switch {
		case added && has:
			return slices.DeleteFunc(slices.Clone(cur), func(f model.Product) bool { return f.ID == id })
		case !added && !has:
			return append(slices.Clone(cur), removed)
		}
		return cur
	})
}

func (h *Holder) IsFavorite(id int64) bool {
	return slices.ContainsFunc(h.value.Get(), func(p model.Product) bool { return p.ID == id })
}

// Products returns a copy of the favorite set.
func (h *Holder) Products() []model.Product {
	cur := h.value.Get()
	out := make([]model.Product, len(cur))
	for i, p := range cur {
		out[i] = p.Clone()
	}
	return out
}

// Mark returns a copy of products with IsFavorite set from the current set.
func (h *Holder) Mark(products []model.Product) []model.Product {
	out := make([]model.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
		out[i].IsFavorite = h.IsFavorite(p.ID)
	}
	return out
}

func (h *Holder) Subscribe() <-chan []model.Product {
	return h.value.Subscribe()
}

func ids(products []model.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	slices.Sort(out)
	return out
}
