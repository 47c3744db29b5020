// Package model holds the client-side view of catalog, order and profile data
// as exchanged with the backend services.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Product struct {
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

// Clone returns a deep copy so snapshots never share slices or maps.
func (p Product) Clone() Product {
	c := p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.Attributes != nil {
		c.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// Validate checks the fields a seller must fill in.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case strings.TrimSpace(p.Category) == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case strings.TrimSpace(p.Subcategory) == "":
		return fmt.Errorf("%w: subcategory is required", ErrValidation)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
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

func (c Category) Clone() Category {
	out := c
	out.Subcategories = append([]Subcategory(nil), c.Subcategories...)
	out.Gradient = append([]uint32(nil), c.Gradient...)
	return out
}

func (c Category) HasSubcategory(name string) bool {
	for _, s := range c.Subcategories {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Default display colours for categories created from a seller's product.
const (
	DefaultSubcategoryColor uint32 = 0xFF000000
	DefaultGradientStart    uint32 = 0xFF000000
	DefaultGradientEnd      uint32 = 0xFF666666
)

type Seller struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	FirmName    string `json:"firm_name"`
	Description string `json:"description"`
}

type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}
