package repository

import (
	"context"
	"errors"

	"github.com/fjod/food_delivery/orders-service/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this number already exists")
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, number string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, number string, status domain.OrderStatus) (*domain.Order, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
	Close() error
}
