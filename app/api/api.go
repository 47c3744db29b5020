// Package api is the REST client for the catalog, auth and orders services.
package api

import (
	"context"

	"github.com/fjod/food_delivery/app/model"
)

type FoodAPI interface {
	GetProducts(ctx context.Context) ([]model.Product, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}

type SellerAPI interface {
	GetSeller(ctx context.Context, userID string) (*model.Seller, error)
	RegisterSeller(ctx context.Context, seller model.Seller) error
	GetProducts(ctx context.Context) ([]model.Product, error)
	AddProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, productID int64, product model.Product) error
	DeleteProduct(ctx context.Context, productID int64) error
}

type AuthAPI interface {
	Login(ctx context.Context, login, password string) (string, error)
	Register(ctx context.Context, login, password, email string) (string, error)
}

type OrdersAPI interface {
	ListAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, number string, status model.OrderStatus) error
}

var (
	_ FoodAPI   = (*Client)(nil)
	_ SellerAPI = (*Client)(nil)
	_ AuthAPI   = (*Client)(nil)
	_ OrdersAPI = (*Client)(nil)
)
