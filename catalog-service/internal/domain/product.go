package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Images      []string          `json:"images"`
	Category    string            `json:"category"`
	Subcategory string            `json:"subcategory"`
	Attributes  map[string]string `json:"attributes"`
	CreatedAt   time.Time         `json:"created_at"`
}

type Subcategory struct {
	Name  string `json:"name"`
	Color uint32 `json:"color"`
}

type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
	Gradient      []uint32      `json:"gradient"`
}

type Seller struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	FirmName    string    `json:"firm_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Colours given to categories that first appear through a seller's product.
const (
	DefaultSubcategoryColor uint32 = 0xFF000000
	DefaultGradientStart    uint32 = 0xFF000000
	DefaultGradientEnd      uint32 = 0xFF666666
)
