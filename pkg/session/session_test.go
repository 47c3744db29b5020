package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Hour), mr
}

func TestIssueAndLookup(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	login, err := store.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", login)

	assert.Equal(t, time.Hour, mr.TTL(sessionKey(token)))
}

func TestLookup_Unknown(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Lookup(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = store.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLookup_Expired(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "alice")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, store.Revoke(ctx, token))

	_, err = store.Lookup(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", BearerToken(req))

	req.Header.Set("Authorization", "bearer  xyz ")
	assert.Equal(t, "xyz", BearerToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", BearerToken(req))
}

func TestRequire(t *testing.T) {
	store, _ := setupTestRedis(t)
	token, err := store.Issue(context.Background(), "seller")
	require.NoError(t, err)

	var login string
	h := Require(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login = httpx.Login(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "seller", login)
}

func TestRequire_StoreDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	store := NewRedisStore(client, time.Hour)

	h := Require(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
