// Package profile holds the signed-in user's profile.
package profile

import (
	"context"

	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/state"
)

type Holder struct {
	value *state.Value[*model.Profile]
	store persistence.Store
}

func New(store persistence.Store) *Holder {
	return &Holder{
		value: state.NewValue[*model.Profile](nil),
		store: store,
	}
}

// Load reads the persisted profile. A missing profile leaves the holder empty.
func (h *Holder) Load(ctx context.Context) error {
	p, err := persistence.LoadObject[model.Profile](ctx, h.store, persistence.KeyProfile)
	if err != nil {
		return err
	}
	h.value.Set(p)
	return nil
}

// Profile returns a copy of the current profile, or nil when signed out.
func (h *Holder) Profile() *model.Profile {
	p := h.value.Get()
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (h *Holder) Save(ctx context.Context, p model.Profile) error {
	if err := persistence.SaveJSON(ctx, h.store, persistence.KeyProfile, p); err != nil {
		return err
	}
	h.value.Set(&p)
	return nil
}

// SetUserID stores the session token as the user id, keeping the rest of the
// profile.
func (h *Holder) SetUserID(ctx context.Context, userID, email string) error {
	var p model.Profile
	if cur := h.value.Get(); cur != nil {
		p = *cur
	}
	p.UserID = userID
	if email != "" {
		p.Email = email
	}
	return h.Save(ctx, p)
}

// UserID is the bearer token for API calls; empty when signed out.
func (h *Holder) UserID() string {
	if p := h.value.Get(); p != nil {
		return p.UserID
	}
	return ""
}

func (h *Holder) SignOut(ctx context.Context) error {
	if err := h.store.Delete(ctx, persistence.KeyProfile); err != nil {
		return err
	}
	h.value.Set(nil)
	return nil
}

func (h *Holder) Subscribe() <-chan *model.Profile {
	return h.value.Subscribe()
}
