package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthAPI struct {
	users map[string]string
}

func (f *fakeAuthAPI) Login(_ context.Context, login, password string) (string, error) {
	if pw, ok := f.users[login]; !ok || pw != password {
		return "", &api.StatusError{StatusCode: 400, Message: "invalid login or password"}
	}
	return "token-" + login, nil
}

func (f *fakeAuthAPI) Register(_ context.Context, login, password, _ string) (string, error) {
	if _, ok := f.users[login]; ok {
		return "", &api.StatusError{StatusCode: 409, Message: "login already exists"}
	}
	f.users[login] = password
	return "token-" + login, nil
}

func newClient() (*Client, *profile.Holder, *fakeAuthAPI) {
	fake := &fakeAuthAPI{users: map[string]string{"bob": "secret"}}
	p := profile.New(persistence.NewMemoryStore())
	return NewClient(fake, p, nil), p, fake
}

func TestRegister_BadEmail(t *testing.T) {
	c, _, fake := newClient()

	_, err := c.Register(context.Background(), "ann", "pw", "bad-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.NotContains(t, fake.users, "ann")
}

func TestRegister_PasswordTooLong(t *testing.T) {
	c, _, fake := newClient()

	_, err := c.Register(context.Background(), "ann", strings.Repeat("p", 73), "a@b.com")
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.NotContains(t, fake.users, "ann")
}

func TestRegister_OK(t *testing.T) {
	c, p, _ := newClient()

	token, err := c.Register(context.Background(), "ann", "pw", "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "token-ann", token)
	assert.Equal(t, "token-ann", p.UserID())
	assert.Equal(t, "a@b.com", p.Profile().Email)
}

func TestRegister_Duplicate(t *testing.T) {
	c, _, _ := newClient()

	_, err := c.Register(context.Background(), "bob", "pw", "bob@b.com")
	assert.ErrorIs(t, err, ErrLoginTaken)
}

func TestLogin(t *testing.T) {
	c, p, _ := newClient()

	token, err := c.Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "token-bob", token)
	assert.Equal(t, "token-bob", p.UserID())
}

func TestLogin_WrongPassword(t *testing.T) {
	c, p, _ := newClient()

	token, err := c.Login(context.Background(), "bob", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
	assert.Empty(t, p.UserID())
}

func TestLogin_Blank(t *testing.T) {
	c, _, _ := newClient()

	_, err := c.Login(context.Background(), " ", "x")
	assert.ErrorIs(t, err, model.ErrValidation)
}
