package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fjod/food_delivery/auth-service/internal/domain"
	"github.com/fjod/food_delivery/auth-service/internal/repository"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/fjod/food_delivery/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid login or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrMissingFields      = errors.New("login and password are required")
	ErrLoginTaken         = errors.New("login already exists")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", validate.MaxPasswordBytes)
)

type AuthService struct {
	repo     repository.UserRepository
	sessions session.Store
	cost     int
	log      *slog.Logger
}

func NewAuthService(repo repository.UserRepository, sessions session.Store, log *slog.Logger) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		log:      log,
	}
}

// Login checks the password and issues a session token.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", ErrMissingFields
	}

	user, err := s.repo.GetUser(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(ctx, user.Login)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	s.log.InfoContext(ctx, "user logged in", slog.String("login", user.Login))
	return token, nil
}

// Register creates the account and signs it in.
func (s *AuthService) Register(ctx context.Context, login, password, email string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return "", ErrMissingFields
	}
	if !validate.Email(email) {
		return "", ErrInvalidEmail
	}
	if !validate.Password(password) {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Login:        login,
		PasswordHash: string(hash),
		Email:        email,
		Username:     login,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrLoginTaken) {
			return "", ErrLoginTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.sessions.Issue(ctx, user.Login)
	if err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	s.log.InfoContext(ctx, "user registered", slog.String("login", user.Login))
	return token, nil
}

// Resolve returns the login a token belongs to.
func (s *AuthService) Resolve(ctx context.Context, token string) (string, error) {
	return s.sessions.Lookup(ctx, token)
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}
