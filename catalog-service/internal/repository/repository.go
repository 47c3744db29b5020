package repository

import (
	"context"
	"errors"

	"github.com/fjod/food_delivery/catalog-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product with this id already exists")
	ErrSellerNotFound  = errors.New("seller not found")
	ErrSellerExists    = errors.New("seller already registered")
)

// ProductFilter narrows ListProducts. Empty fields match everything.
type ProductFilter struct {
	Category    string
	Subcategory string
}

type RepoInterface interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetSeller(ctx context.Context, userID string) (*domain.Seller, error)
	CreateSeller(ctx context.Context, s *domain.Seller) error
	Close() error
}
