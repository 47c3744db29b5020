// Package seller manages a seller's products with optimistic local updates
// that are rolled back when the catalog service rejects them.
package seller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/catalog"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/pkg/validate"
)

// Locally generated product ids fall in [minID, maxID].
const (
	minID = 1000
	maxID = 9999
)

var (
	ErrMutationInFlight = errors.New("another change to this product is still in progress")
	ErrNotFound         = errors.New("product not found")
	ErrNotSeller        = errors.New("account is not registered as a seller")
	ErrIDSpaceExhausted = errors.New("no free product id left")
)

// Session stores the token of the signed-in seller.
type Session interface {
	SetUserID(ctx context.Context, userID, email string) error
	UserID() string
}

type Sync struct {
	api     api.SellerAPI
	auth    api.AuthAPI
	catalog *catalog.Repository
	session Session
	log     *slog.Logger

	mu       sync.Mutex
	inFlight map[int64]struct{}
	intN     func(n int) int
}

func NewSync(sellerAPI api.SellerAPI, authAPI api.AuthAPI, repo *catalog.Repository, session Session, log *slog.Logger) *Sync {
	if log == nil {
		log = slog.Default()
	}
	return &Sync{
		api:      sellerAPI,
		auth:     authAPI,
		catalog:  repo,
		session:  session,
		log:      log,
		inFlight: make(map[int64]struct{}),
		intN:     rand.IntN,
	}
}

// Load replaces the local list with the seller's products. On failure the
// local list is kept and the error returned.
func (s *Sync) Load(ctx context.Context) error {
	products, err := s.api.GetProducts(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "load seller products failed, keeping local copy", slog.Any("err", err))
		return fmt.Errorf("load products: %w", err)
	}
	s.catalog.Replace(products)
	return nil
}

func (s *Sync) Products() []model.Product {
	return s.catalog.Products()
}

// Add assigns draft a fresh id, shows it immediately and then creates it
// remotely. The created product is returned.
func (s *Sync) Add(ctx context.Context, draft model.Product) (model.Product, error) {
	if err := draft.Validate(); err != nil {
		return model.Product{}, err
	}

	id, err := s.reserveNewID()
	if err != nil {
		return model.Product{}, err
	}
	defer s.release(id)

	p := draft.Clone()
	p.ID = id
	undoCategory := s.catalog.EnsureCategory(p.Category, p.Subcategory)
	undoPut := s.catalog.Put(p)

	if err := s.api.AddProduct(ctx, p); err != nil {
		undoPut()
		undoCategory()
		s.log.WarnContext(ctx, "add product failed, rolled back",
			slog.Int64("product_id", id), slog.Any("err", err))
		return model.Product{}, fmt.Errorf("add product: %w", err)
	}
	s.log.InfoContext(ctx, "product added", slog.Int64("product_id", id))
	return p, nil
}

// Update replaces product id with p, restoring the previous version if the
// remote update fails.
func (s *Sync) Update(ctx context.Context, id int64, p model.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	if _, ok := s.catalog.Product(id); !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	p = p.Clone()
	p.ID = id
	undoCategory := s.catalog.EnsureCategory(p.Category, p.Subcategory)
	undoPut := s.catalog.Put(p)

	if err := s.api.UpdateProduct(ctx, id, p); err != nil {
		undoPut()
		undoCategory()
		s.log.WarnContext(ctx, "update product failed, rolled back",
			slog.Int64("product_id", id), slog.Any("err", err))
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes product id locally first and puts it back if the remote
// delete fails.
func (s *Sync) Delete(ctx context.Context, id int64) error {
	if err := s.acquire(id); err != nil {
		return err
	}
	defer s.release(id)

	undo, ok := s.catalog.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if err := s.api.DeleteProduct(ctx, id); err != nil {
		undo()
		s.log.WarnContext(ctx, "delete product failed, rolled back",
			slog.Int64("product_id", id), slog.Any("err", err))
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// SignIn logs in and checks that the account has a seller registration.
func (s *Sync) SignIn(ctx context.Context, email, password string) error {
	if !validate.Email(email) {
		return fmt.Errorf("%w: invalid email", model.ErrValidation)
	}
	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	prev := s.session.UserID()
	if err := s.session.SetUserID(ctx, token, email); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if _, err := s.api.GetSeller(ctx, email); err != nil {
		s.resetSession(ctx, prev)
		if errors.Is(err, api.ErrNotFound) {
			return ErrNotSeller
		}
		return fmt.Errorf("get seller: %w", err)
	}
	return nil
}

// SignUp creates the account and registers it as a seller.
func (s *Sync) SignUp(ctx context.Context, email, password, firmName, description string) error {
	if !validate.Email(email) {
		return fmt.Errorf("%w: invalid email", model.ErrValidation)
	}
	if !validate.Password(password) {
		return fmt.Errorf("%w: password must be at most %d bytes", model.ErrValidation, validate.MaxPasswordBytes)
	}
	if !validate.Required(firmName) {
		return fmt.Errorf("%w: firm name is required", model.ErrValidation)
	}
	token, err := s.auth.Register(ctx, email, password, email)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	prev := s.session.UserID()
	if err := s.session.SetUserID(ctx, token, email); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	err = s.api.RegisterSeller(ctx, model.Seller{
		UserID:      email,
		Email:       email,
		FirmName:    firmName,
		Description: description,
	})
	if err != nil {
		s.resetSession(ctx, prev)
		return fmt.Errorf("register seller: %w", err)
	}
	return nil
}

func (s *Sync) resetSession(ctx context.Context, prev string) {
	if err := s.session.SetUserID(ctx, prev, ""); err != nil {
		s.log.WarnContext(ctx, "restore session failed", slog.Any("err", err))
	}
}

func (s *Sync) acquire(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return fmt.Errorf("%w: %d", ErrMutationInFlight, id)
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *Sync) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// reserveNewID draws random ids until one is neither in the list nor
// reserved by a pending mutation.
func (s *Sync) reserveNewID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken := make(map[int64]struct{}, len(s.inFlight))
	for id := range s.inFlight {
		taken[id] = struct{}{}
	}
	for _, p := range s.catalog.Products() {
		taken[p.ID] = struct{}{}
	}
	used := 0
	for id := range taken {
		if id >= minID && id <= maxID {
			used++
		}
	}
	if used >= maxID-minID+1 {
		return 0, ErrIDSpaceExhausted
	}

	for {
		id := int64(minID + s.intN(maxID-minID+1))
		if _, dup := taken[id]; !dup {
			s.inFlight[id] = struct{}{}
			return id, nil
		}
	}
}
