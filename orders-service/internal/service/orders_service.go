package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/food_delivery/orders-service/internal/domain"
	"github.com/fjod/food_delivery/orders-service/internal/repository"
)

var ErrInvalidStatus = errors.New("invalid order status")

type OrdersService struct {
	repo repository.OrderRepository
	log  *slog.Logger
}

func NewOrdersService(repo repository.OrderRepository, log *slog.Logger) *OrdersService {
	if log == nil {
		log = slog.Default()
	}
	return &OrdersService{repo: repo, log: log}
}

// ListForUser returns the caller's orders, newest first.
func (s *OrdersService) ListForUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

func (s *OrdersService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListAllOrders(ctx)
}

func (s *OrdersService) UpdateStatus(ctx context.Context, actor, number string, status string) (*domain.Order, error) {
	st := domain.OrderStatus(strings.TrimSpace(status))
	if !st.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	order, err := s.repo.UpdateStatus(ctx, number, st)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "order status changed",
		slog.String("number", number),
		slog.String("status", string(st)),
		slog.String("actor", actor))
	return order, nil
}

func (s *OrdersService) Analytics(ctx context.Context) (*domain.Analytics, error) {
	return s.repo.Analytics(ctx)
}
