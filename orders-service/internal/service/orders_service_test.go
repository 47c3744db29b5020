package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fjod/food_delivery/orders-service/internal/domain"
	"github.com/fjod/food_delivery/orders-service/internal/repository"
	"github.com/fjod/food_delivery/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-process OrderRepository for service and handler tests.
type memoryRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	clock  time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[string]*domain.Order), clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memoryRepo) CreateOrder(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.Number]; ok {
		return repository.ErrDuplicateOrder
	}
	r.clock = r.clock.Add(time.Minute)
	o.CreatedAt, o.UpdatedAt = r.clock, r.clock
	c := *o
	r.orders[o.Number] = &c
	return nil
}

func (r *memoryRepo) GetOrder(_ context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	c := *o
	return &c, nil
}

func (r *memoryRepo) list(match func(*domain.Order) bool) []*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Order{}
	for _, o := range r.orders {
		if match(o) {
			c := *o
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memoryRepo) ListOrdersByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *memoryRepo) ListAllOrders(context.Context) ([]*domain.Order, error) {
	return r.list(func(*domain.Order) bool { return true }), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, number string, status domain.OrderStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	c := *o
	return &c, nil
}

func (r *memoryRepo) Analytics(context.Context) (*domain.Analytics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := &domain.Analytics{TotalSales: decimal.Zero}
	for _, o := range r.orders {
		switch o.Status {
		case domain.OrderStatusDelivered:
			a.TotalSales = a.TotalSales.Add(o.TotalPrice)
			a.Completed++
		case domain.OrderStatusCancelled:
			a.Cancelled++
		}
	}
	return a, nil
}

func (r *memoryRepo) Close() error { return nil }

func seed(t *testing.T, repo *memoryRepo) {
	t.Helper()
	ctx := context.Background()
	for _, o := range []*domain.Order{
		{Number: "A-1", UserID: "alice", TotalPrice: decimal.RequireFromString("100.25"), Status: domain.OrderStatusProcessing},
		{Number: "A-2", UserID: "alice", TotalPrice: decimal.RequireFromString("50.50"), Status: domain.OrderStatusProcessing},
		{Number: "B-1", UserID: "bob", TotalPrice: decimal.RequireFromString("10"), Status: domain.OrderStatusProcessing},
	} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}
}

func TestListForUser(t *testing.T) {
	repo := newMemoryRepo()
	seed(t, repo)
	svc := NewOrdersService(repo, logger.Discard())

	orders, err := svc.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "A-2", orders[0].Number)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateStatus(t *testing.T) {
	repo := newMemoryRepo()
	seed(t, repo)
	svc := NewOrdersService(repo, logger.Discard())
	ctx := context.Background()

	order, err := svc.UpdateStatus(ctx, "seller@example.com", "A-1", "IN_TRANSIT")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInTransit, order.Status)

	_, err = svc.UpdateStatus(ctx, "seller@example.com", "A-1", "SHIPPED")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, "seller@example.com", "missing", "DELIVERED")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	stored, err := repo.GetOrder(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInTransit, stored.Status)
}

func TestAnalytics(t *testing.T) {
	repo := newMemoryRepo()
	seed(t, repo)
	svc := NewOrdersService(repo, logger.Discard())
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "s", "A-1", "DELIVERED")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "s", "A-2", "DELIVERED")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, "s", "B-1", "CANCELLED")
	require.NoError(t, err)

	a, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, "150.75", a.TotalSales.StringFixed(2))
	assert.Equal(t, 2, a.Completed)
	assert.Equal(t, 1, a.Cancelled)
}
