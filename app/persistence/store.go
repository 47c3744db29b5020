// Package persistence is the key-value storage behind the client state
// holders: profile, cart, favorites, search history and orders.
package persistence

import (
	"context"
	"errors"
)

// Keys used by the state holders.
const (
	KeyProfile       = "profile"
	KeyCart          = "cart"
	KeyFavorites     = "favorites"
	KeySearchHistory = "search_history"
	KeyOrders        = "orders"
)

var ErrNotFound = errors.New("key not found")

// Store is a namespaced key-value store holding JSON documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
