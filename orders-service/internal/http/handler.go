package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/food_delivery/orders-service/internal/domain"
	"github.com/fjod/food_delivery/orders-service/internal/repository"
	"github.com/fjod/food_delivery/orders-service/internal/service"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/go-chi/chi/v5"
)

type Orders interface {
	ListForUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, actor, number, status string) (*domain.Order, error)
	Analytics(ctx context.Context) (*domain.Analytics, error)
}

type OrdersHandler struct {
	orders  Orders
	timeout time.Duration
}

func NewOrdersHandler(o Orders, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: o, timeout: timeout}
}

type StatusRequest struct {
	Status string `json:"status"`
}

// GET /orders
func (h *OrdersHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListForUser(ctx, httpx.Login(r.Context()))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, orders)
}

// GET /orders/all
func (h *OrdersHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAll(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, orders)
}

// PATCH /orders/{number}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(ctx, httpx.Login(r.Context()), chi.URLParam(r, "number"), req.Status)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// GET /orders/analytics
func (h *OrdersHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	a, err := h.orders.Analytics(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, a)
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		httpx.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.ErrorContext(ctx, "orders request failed", slog.Any("err", err))
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
