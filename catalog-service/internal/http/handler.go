package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/food_delivery/catalog-service/internal/domain"
	"github.com/fjod/food_delivery/catalog-service/internal/repository"
	"github.com/fjod/food_delivery/catalog-service/internal/service"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Catalog interface {
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, seller string, p *domain.Product) error
	UpdateProduct(ctx context.Context, seller string, p *domain.Product) error
	DeleteProduct(ctx context.Context, seller string, id int64) error
	GetSeller(ctx context.Context, userID string) (*domain.Seller, error)
	RegisterSeller(ctx context.Context, s *domain.Seller) error
}

type CatalogHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewCatalogHandler(c Catalog, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: c, timeout: timeout}
}

// ProductRequest is the body of POST/PUT /products. is_favorite is a client
// display flag and is accepted but not stored.
type ProductRequest struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Price       decimal.Decimal   `json:"price"`
	Images      []string          `json:"images"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes"`
	IsFavorite  bool              `json:"is_favorite"`
}

func (r ProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Images:      r.Images,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Description: r.Description,
		Attributes:  r.Attributes,
	}
}

type SellerRequest struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	FirmName    string `json:"firm_name"`
	Description string `json:"description"`
}

// GET /products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, repository.ProductFilter{
		Category:    r.URL.Query().Get("category"),
		Subcategory: r.URL.Query().Get("subcategory"),
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, products)
}

// GET /products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// GET /search?query=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Search(ctx, r.URL.Query().Get("query"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, products)
}

// GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, categories)
}

// POST /products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p := req.toDomain()
	if err := h.catalog.CreateProduct(ctx, httpx.Login(r.Context()), p); err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, p)
}

// PUT /products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	p := req.toDomain()
	p.ID = id
	if err := h.catalog.UpdateProduct(ctx, httpx.Login(r.Context()), p); err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// DELETE /products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(ctx, httpx.Login(r.Context()), id); err != nil {
		handleError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /sellers/{userID}
func (h *CatalogHandler) GetSeller(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.catalog.GetSeller(ctx, chi.URLParam(r, "userID"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, s)
}

// POST /sellers registers the caller as a seller.
func (h *CatalogHandler) RegisterSeller(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SellerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if login := httpx.Login(r.Context()); req.UserID != login {
		httpx.RespondError(w, http.StatusForbidden, "forbidden", "user_id must match the signed-in user")
		return
	}

	s := &domain.Seller{
		UserID:      req.UserID,
		Email:       req.Email,
		FirmName:    req.FirmName,
		Description: req.Description,
	}
	if err := h.catalog.RegisterSeller(ctx, s); err != nil {
		handleError(ctx, w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, s)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return 0, false
	}
	return id, true
}

func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httpx.RespondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, repository.ErrProductNotFound), errors.Is(err, repository.ErrSellerNotFound):
		httpx.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrProductExists), errors.Is(err, repository.ErrSellerExists):
		httpx.RespondError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.ErrorContext(ctx, "catalog request failed", slog.Any("err", err))
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
