// Package orders is the seller's order book.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/state"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrMutationInFlight = errors.New("a status change for this order is still in progress")
)

// Analytics summarises the order book for the seller dashboard.
type Analytics struct {
	TotalSales decimal.Decimal
	Completed  int
	Cancelled  int
}

type Book struct {
	api   api.OrdersAPI
	store persistence.Store
	log   *slog.Logger
	value *state.Value[[]model.Order]

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewBook(client api.OrdersAPI, store persistence.Store, log *slog.Logger) *Book {
	if log == nil {
		log = slog.Default()
	}
	return &Book{
		api:      client,
		store:    store,
		log:      log,
		value:    state.NewValue([]model.Order{}),
		inFlight: make(map[string]struct{}),
	}
}

// Load fetches all orders. If the service is unreachable the persisted copy
// is shown and the remote error returned.
func (b *Book) Load(ctx context.Context) error {
	list, err := b.api.ListAllOrders(ctx)
	if err != nil {
		b.log.WarnContext(ctx, "list orders failed, using persisted copy", slog.Any("err", err))
		cached, loadErr := persistence.LoadList[model.Order](ctx, b.store, persistence.KeyOrders)
		if loadErr != nil {
			b.log.WarnContext(ctx, "load persisted orders failed", slog.Any("err", loadErr))
		} else {
			b.value.Set(cached)
		}
		return fmt.Errorf("list orders: %w", err)
	}
	if list == nil {
		list = []model.Order{}
	}
	b.value.Set(list)
	b.persist(ctx)
	return nil
}

func (b *Book) Orders() []model.Order {
	return b.value.Get()
}

func (b *Book) Subscribe() <-chan []model.Order {
	return b.value.Subscribe()
}

// UpdateStatus shows the new status immediately and reverts it if the
// service rejects the change.
func (b *Book) UpdateStatus(ctx context.Context, number string, status model.OrderStatus) error {
	if _, err := model.ParseOrderStatus(string(status)); err != nil {
		return err
	}
	if err := b.acquire(number); err != nil {
		return err
	}
	defer b.release(number)

	var (
		prev  model.OrderStatus
		found bool
	)
	b.value.Update(func(cur []model.Order) []model.Order {
		out := cloneOrders(cur)
		for i := range out {
			if out[i].Number == number {
				prev, found = out[i].Status, true
				out[i].Status = status
				break
			}
		}
		return out
	})
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, number)
	}

	if err := b.api.UpdateOrderStatus(ctx, number, status); err != nil {
		b.setStatus(number, prev)
		b.log.WarnContext(ctx, "update order status failed, rolled back",
			slog.String("order", number), slog.Any("err", err))
		return fmt.Errorf("update order status: %w", err)
	}
	b.persist(ctx)
	return nil
}

func (b *Book) Analytics() Analytics {
	a := Analytics{TotalSales: decimal.Zero}
	for _, o := range b.value.Get() {
		switch o.Status {
		case model.OrderStatusDelivered:
			a.Completed++
			a.TotalSales = a.TotalSales.Add(o.TotalPrice)
		case model.OrderStatusCancelled:
			a.Cancelled++
		}
	}
	return a
}

func (b *Book) setStatus(number string, status model.OrderStatus) {
	b.value.Update(func(cur []model.Order) []model.Order {
		out := cloneOrders(cur)
		for i := range out {
			if out[i].Number == number {
				out[i].Status = status
			}
		}
		return out
	})
}

func (b *Book) persist(ctx context.Context) {
	if err := persistence.SaveJSON(ctx, b.store, persistence.KeyOrders, b.value.Get()); err != nil {
		b.log.WarnContext(ctx, "persist orders failed", slog.Any("err", err))
	}
}

func (b *Book) acquire(number string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, busy := b.inFlight[number]; busy {
		return fmt.Errorf("%w: %s", ErrMutationInFlight, number)
	}
	b.inFlight[number] = struct{}{}
	return nil
}

func (b *Book) release(number string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inFlight, number)
}

func cloneOrders(in []model.Order) []model.Order {
	out := make([]model.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
