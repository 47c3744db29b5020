package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/pkg/circuitbreaker"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		CatalogURL: srv.URL,
		AuthURL:    srv.URL,
		OrdersURL:  srv.URL,
		Token:      func() string { return token },
	})
}

func TestGetProducts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, []model.Product{
			{ID: 1, Name: "Pizza", Price: decimal.RequireFromString("10.50")},
		})
	})
	c := newTestClient(t, mux, "")

	products, err := c.GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Pizza", products[0].Name)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("10.5")))
}

func TestSearchProducts_EncodesQuery(t *testing.T) {
	var got string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("query")
		httpx.RespondJSON(w, http.StatusOK, []model.Product{})
	})
	c := newTestClient(t, mux, "")

	_, err := c.SearchProducts(context.Background(), "пицца & суши")
	require.NoError(t, err)
	assert.Equal(t, "пицца & суши", got)
}

func TestAddProduct_SendsBearerAndBody(t *testing.T) {
	var auth string
	var body model.Product
	mux := http.NewServeMux()
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
	})
	c := newTestClient(t, mux, "tok-1")

	err := c.AddProduct(context.Background(), model.Product{ID: 42, Name: "Soup"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", auth)
	assert.Equal(t, int64(42), body.ID)
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			httpx.RespondError(w, http.StatusBadRequest, "invalid_credentials", "invalid login or password")
			return
		}
		httpx.RespondJSON(w, http.StatusOK, tokenResponse{Token: "abc"})
	})
	c := newTestClient(t, mux, "")

	tok, err := c.Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	_, err = c.Login(context.Background(), "bob", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "invalid_credentials", se.Code)
	assert.Equal(t, "invalid login or password", se.Message)
}

func TestStatusErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := error(&StatusError{StatusCode: tt.status})
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.NotErrorIs(t, &StatusError{StatusCode: http.StatusNotFound}, ErrConflict)
}

func TestUpdateOrderStatus(t *testing.T) {
	var gotStatus string
	var gotNumber string
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /orders/{number}/status", func(w http.ResponseWriter, r *http.Request) {
		gotNumber = r.PathValue("number")
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotStatus = req["status"]
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux, "tok")

	err := c.UpdateOrderStatus(context.Background(), "A-17", model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, "A-17", gotNumber)
	assert.Equal(t, "DELIVERED", gotStatus)
}

func TestGetSeller_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sellers/{id}", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, http.StatusNotFound, "not_found", "seller not found")
	})
	c := newTestClient(t, mux, "tok")

	s, err := c.GetSeller(context.Background(), "bob@example.com")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNetworkError_IsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{CatalogURL: url})
	_, err := c.GetCategories(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "boom")
	})
	c := newTestClient(t, h, "")

	for i := 0; i < 5; i++ {
		_, err := c.GetProducts(context.Background())
		require.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := c.GetProducts(context.Background())
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	var calls atomic.Int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		httpx.RespondError(w, http.StatusNotFound, "not_found", "nope")
	})
	c := newTestClient(t, h, "")

	for i := 0; i < 8; i++ {
		_, err := c.GetProducts(context.Background())
		require.ErrorIs(t, err, ErrNotFound)
		require.False(t, errors.Is(err, circuitbreaker.ErrOpen))
	}
	assert.Equal(t, int32(8), calls.Load())
}

func TestBreakerIsPerService(t *testing.T) {
	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "boom")
	}))
	t.Cleanup(orders.Close)
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"token": "tok-1"})
	}))
	t.Cleanup(auth.Close)

	c := NewClient(Config{CatalogURL: auth.URL, AuthURL: auth.URL, OrdersURL: orders.URL})

	for i := 0; i < 5; i++ {
		_, err := c.ListAllOrders(context.Background())
		require.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := c.ListAllOrders(context.Background())
	require.ErrorIs(t, err, circuitbreaker.ErrOpen)

	token, err := c.Login(context.Background(), "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}
