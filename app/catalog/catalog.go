// Package catalog keeps the client's copy of the product and category lists.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/state"
	"golang.org/x/sync/singleflight"
)

// homeSection is the size of each product strip on the home screen.
const homeSection = 5

const refreshTimeout = 30 * time.Second

type Snapshot struct {
	Products   []model.Product
	Categories []model.Category
}

// Home is the home screen split of the product list.
type Home struct {
	New         []model.Product
	Recommended []model.Product
}

type Repository struct {
	api   api.FoodAPI
	value *state.Value[Snapshot]
	sfg   singleflight.Group // coalesces concurrent refreshes
	log   *slog.Logger

	// pending counts the unconfirmed mutations holding a category entry
	// that was added locally. Guarded by value's lock (only touched inside
	// Update).
	pending map[categoryKey]int
}

// categoryKey names a category (empty subcategory) or one subcategory.
type categoryKey struct {
	category    string
	subcategory string
}

func NewRepository(client api.FoodAPI, log *slog.Logger) *Repository {
	if log == nil {
		log = slog.Default()
	}
	return &Repository{
		api:   client,
		value: state.NewValue(Snapshot{Products: []model.Product{}, Categories: []model.Category{}}),
		log:     log,
		pending: make(map[categoryKey]int),
	}
}

// Refresh reloads products and categories. On failure the previous lists stay.
// The shared fetch is detached from ctx, so one caller giving up does not fail
// the others waiting on it.
func (r *Repository) Refresh(ctx context.Context) error {
	ch := r.sfg.DoChan("refresh", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		products, err := r.api.GetProducts(fetchCtx)
		if err != nil {
			return nil, fmt.Errorf("fetch products: %w", err)
		}
		categories, err := r.api.GetCategories(fetchCtx)
		if err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		r.value.Update(func(Snapshot) Snapshot {
			clear(r.pending)
			return Snapshot{Products: cloneProducts(products), Categories: cloneCategories(categories)}
		})
		return nil, nil
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
	if err != nil {
		r.log.WarnContext(ctx, "catalog refresh failed, keeping previous data", slog.Any("err", err))
	}
	return err
}

// Products returns a copy of the current list.
func (r *Repository) Products() []model.Product {
	return cloneProducts(r.value.Get().Products)
}

// Categories returns a copy of the current categories.
func (r *Repository) Categories() []model.Category {
	return cloneCategories(r.value.Get().Categories)
}

func (r *Repository) Subscribe() <-chan Snapshot {
	return r.value.Subscribe()
}

func (r *Repository) Unsubscribe(ch <-chan Snapshot) {
	r.value.Unsubscribe(ch)
}

func (r *Repository) Product(id int64) (model.Product, bool) {
	for _, p := range r.value.Get().Products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.Product{}, false
}

func (r *Repository) BySubcategory(category, subcategory string) []model.Product {
	out := []model.Product{}
	for _, p := range r.value.Get().Products {
		if p.Category == category && p.Subcategory == subcategory {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Search filters the local list by a case-insensitive name match.
func (r *Repository) Search(term string) []model.Product {
	out := []model.Product{}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return out
	}
	for _, p := range r.value.Get().Products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (r *Repository) Home() Home {
	products := r.Products()
	first := min(homeSection, len(products))
	second := min(2*homeSection, len(products))
	return Home{
		New:         append([]model.Product{}, products[:first]...),
		Recommended: append([]model.Product{}, products[first:second]...),
	}
}

// Replace swaps the whole product list, keeping categories.
func (r *Repository) Replace(products []model.Product) {
	r.value.Update(func(cur Snapshot) Snapshot {
		cur.Products = cloneProducts(products)
		return cur
	})
}

// Put inserts p, or replaces the product with the same id in place. The
// returned func puts back whatever was there before, touching only that id.
func (r *Repository) Put(p model.Product) (undo func()) {
	var (
		prev    model.Product
		existed bool
		index   int
	)
	r.value.Update(func(cur Snapshot) Snapshot {
		products := cloneProducts(cur.Products)
		index = indexOf(products, p.ID)
		if index >= 0 {
			prev, existed = products[index], true
			products[index] = p.Clone()
		} else {
			index = len(products)
			products = append(products, p.Clone())
		}
		cur.Products = products
		return cur
	})

	return func() {
		if !existed {
			r.Remove(p.ID)
			return
		}
		r.restore(prev, index)
	}
}

// Remove drops the product with id. ok is false when it was not present.
func (r *Repository) Remove(id int64) (undo func(), ok bool) {
	var (
		prev  model.Product
		index int
	)
	r.value.Update(func(cur Snapshot) Snapshot {
		index = indexOf(cur.Products, id)
		if index < 0 {
			return cur
		}
		ok = true
		prev = cur.Products[index]
		products := make([]model.Product, 0, len(cur.Products)-1)
		products = append(products, cur.Products[:index]...)
		products = append(products, cur.Products[index+1:]...)
		cur.Products = products
		return cur
	})
	if !ok {
		return func() {}, false
	}
	return func() { r.restore(prev, index) }, true
}

// restore puts p back at its old position, or replaces it in place if a
// product with the same id has reappeared.
func (r *Repository) restore(p model.Product, index int) {
	r.value.Update(func(cur Snapshot) Snapshot {
		products := cloneProducts(cur.Products)
		if i := indexOf(products, p.ID); i >= 0 {
			products[i] = p
		} else {
			index = min(index, len(products))
			products = append(products[:index], append([]model.Product{p}, products[index:]...)...)
		}
		cur.Products = products
		return cur
	})
}

// EnsureCategory appends the category and subcategory if they are unknown,
// with default colours. Every call that finds a locally added, still
// unconfirmed entry takes a hold on it. The undo func drops this call's hold
// and removes an entry only when no hold remains and no product in the list
// still refers to it.
func (r *Repository) EnsureCategory(category, subcategory string) (undo func()) {
	catKey := categoryKey{category: category}
	subKey := categoryKey{category: category, subcategory: subcategory}
	var holdCat, holdSub bool

	r.value.Update(func(cur Snapshot) Snapshot {
		categories := cloneCategories(cur.Categories)
		i := categoryIndex(categories, category)
		if i < 0 {
			categories = append(categories, model.Category{
				Name:     category,
				Gradient: []uint32{model.DefaultGradientStart, model.DefaultGradientEnd},
			})
			i = len(categories) - 1
			r.pending[catKey] = 0
		}
		if _, ok := r.pending[catKey]; ok {
			r.pending[catKey]++
			holdCat = true
		}
		if subcategory != "" {
			if !categories[i].HasSubcategory(subcategory) {
				categories[i].Subcategories = append(categories[i].Subcategories,
					model.Subcategory{Name: subcategory, Color: model.DefaultSubcategoryColor})
				r.pending[subKey] = 0
			}
			if _, ok := r.pending[subKey]; ok {
				r.pending[subKey]++
				holdSub = true
			}
		}
		cur.Categories = categories
		return cur
	})

	if !holdCat && !holdSub {
		return func() {}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.value.Update(func(cur Snapshot) Snapshot {
				dropSub := holdSub && r.release(subKey) && !referenced(cur.Products, subKey)
				dropCat := holdCat && r.release(catKey) && !referenced(cur.Products, catKey)
				if !dropSub && !dropCat {
					return cur
				}

				categories := cloneCategories(cur.Categories)
				i := categoryIndex(categories, category)
				if i < 0 {
					return cur
				}
				if dropSub {
					subs := categories[i].Subcategories[:0]
					for _, s := range categories[i].Subcategories {
						if s.Name != subcategory {
							subs = append(subs, s)
						}
					}
					categories[i].Subcategories = subs
				}
				if dropCat && len(categories[i].Subcategories) == 0 {
					categories = append(categories[:i], categories[i+1:]...)
				}
				cur.Categories = categories
				return cur
			})
		})
	}
}

// release drops one hold on key and reports whether it was the last one.
// Callers run inside value.Update.
func (r *Repository) release(key categoryKey) bool {
	n, ok := r.pending[key]
	if !ok {
		return false
	}
	if n > 1 {
		r.pending[key] = n - 1
		return false
	}
	delete(r.pending, key)
	return true
}

func referenced(products []model.Product, key categoryKey) bool {
	for _, p := range products {
		if p.Category != key.category {
			continue
		}
		if key.subcategory == "" || p.Subcategory == key.subcategory {
			return true
		}
	}
	return false
}

func indexOf(products []model.Product, id int64) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func categoryIndex(categories []model.Category, name string) int {
	for i := range categories {
		if categories[i].Name == name {
			return i
		}
	}
	return -1
}

func cloneProducts(in []model.Product) []model.Product {
	out := make([]model.Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func cloneCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
