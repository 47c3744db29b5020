package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/food_delivery/catalog-service/internal/domain"
	"github.com/fjod/food_delivery/catalog-service/internal/events"
	"github.com/fjod/food_delivery/catalog-service/internal/repository"
	"github.com/fjod/food_delivery/pkg/validate"
	"golang.org/x/sync/singleflight"
)

var ErrValidation = errors.New("validation failed")

type CatalogService struct {
	repo      repository.RepoInterface
	publisher events.Publisher
	log       *slog.Logger
	sfg       singleflight.Group // coalesces concurrent category loads
}

func NewCatalogService(repo repository.RepoInterface, publisher events.Publisher, log *slog.Logger) *CatalogService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &CatalogService{repo: repo, publisher: publisher, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context, f repository.ProductFilter) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx, f)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	return s.repo.SearchProducts(ctx, query)
}

// ListCategories is read by every client on start-up; concurrent callers
// share one query. The result must be treated as read-only.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	v, err, _ := s.sfg.Do("categories", func() (any, error) {
		return s.repo.ListCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Category), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, seller string, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "product created", slog.Int64("product_id", p.ID), slog.String("seller", seller))
	s.publish(ctx, events.ProductEvent{Type: events.ProductCreated, ProductID: p.ID, Product: p, Seller: seller})
	return nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, seller string, p *domain.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, events.ProductEvent{Type: events.ProductUpdated, ProductID: p.ID, Product: p, Seller: seller})
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, seller string, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "product deleted", slog.Int64("product_id", id), slog.String("seller", seller))
	s.publish(ctx, events.ProductEvent{Type: events.ProductDeleted, ProductID: id, Seller: seller})
	return nil
}

func (s *CatalogService) GetSeller(ctx context.Context, userID string) (*domain.Seller, error) {
	return s.repo.GetSeller(ctx, userID)
}

func (s *CatalogService) RegisterSeller(ctx context.Context, seller *domain.Seller) error {
	switch {
	case !validate.Required(seller.UserID):
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	case !validate.Email(seller.Email):
		return fmt.Errorf("%w: invalid email", ErrValidation)
	case !validate.Required(seller.FirmName):
		return fmt.Errorf("%w: firm_name is required", ErrValidation)
	}
	return s.repo.CreateSeller(ctx, seller)
}

// publish never fails the request: the product change is already committed.
func (s *CatalogService) publish(ctx context.Context, e events.ProductEvent) {
	e.OccurredAt = time.Now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.WarnContext(ctx, "failed to publish catalog event",
			slog.String("type", string(e.Type)),
			slog.Int64("product_id", e.ProductID),
			slog.Any("err", err))
	}
}

func validateProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrValidation)
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case !validate.Required(p.Category):
		return fmt.Errorf("%w: category is required", ErrValidation)
	case !validate.Required(p.Subcategory):
		return fmt.Errorf("%w: subcategory is required", ErrValidation)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}
