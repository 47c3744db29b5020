package repository

import (
	"context"
	"errors"

	"github.com/fjod/food_delivery/auth-service/internal/domain"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrLoginTaken   = errors.New("login already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, login string) (*domain.User, error)
	Close() error
}
