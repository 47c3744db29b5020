// Package auth signs users in and up against the auth service and keeps the
// resulting token in the profile.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/pkg/validate"
)

var (
	ErrInvalidEmail       = fmt.Errorf("%w: email must look like name@domain", model.ErrValidation)
	ErrPasswordTooLong    = fmt.Errorf("%w: password must be at most %d bytes", model.ErrValidation, validate.MaxPasswordBytes)
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrLoginTaken         = errors.New("login already registered")
)

// TokenSink receives the token after a successful sign-in.
type TokenSink interface {
	SetUserID(ctx context.Context, userID, email string) error
}

type Client struct {
	api  api.AuthAPI
	sink TokenSink
	log  *slog.Logger
}

func NewClient(a api.AuthAPI, sink TokenSink, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{api: a, sink: sink, log: log}
}

func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	if !validate.Required(login) || !validate.Required(password) {
		return "", fmt.Errorf("%w: login and password are required", model.ErrValidation)
	}

	token, err := c.api.Login(ctx, login, password)
	if err != nil {
		if errors.Is(err, api.ErrBadRequest) {
			return "", ErrInvalidCredentials
		}
		c.log.WarnContext(ctx, "login failed", slog.String("login", login), slog.Any("err", err))
		return "", fmt.Errorf("login: %w", err)
	}
	return token, c.store(ctx, token, "")
}

func (c *Client) Register(ctx context.Context, login, password, email string) (string, error) {
	if !validate.Required(login) || !validate.Required(password) {
		return "", fmt.Errorf("%w: login and password are required", model.ErrValidation)
	}
	if !validate.Email(email) {
		return "", ErrInvalidEmail
	}
	if !validate.Password(password) {
		return "", ErrPasswordTooLong
	}

	token, err := c.api.Register(ctx, login, password, email)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrConflict):
			return "", ErrLoginTaken
		case errors.Is(err, api.ErrBadRequest):
			return "", fmt.Errorf("%w: %w", model.ErrValidation, err)
		}
		c.log.WarnContext(ctx, "register failed", slog.String("login", login), slog.Any("err", err))
		return "", fmt.Errorf("register: %w", err)
	}
	return token, c.store(ctx, token, email)
}

func (c *Client) store(ctx context.Context, token, email string) error {
	if c.sink == nil {
		return nil
	}
	if err := c.sink.SetUserID(ctx, token, email); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
