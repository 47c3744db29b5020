package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/pkg/circuitbreaker"
	"github.com/fjod/food_delivery/pkg/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Config struct {
	CatalogURL string
	AuthURL    string
	OrdersURL  string
	Timeout    time.Duration
	// Token returns the bearer token for authenticated calls; nil or "" means anonymous.
	Token  func() string
	Logger *slog.Logger
}

type Client struct {
	http       *http.Client
	catalogURL string
	authURL    string
	ordersURL  string
	token      func() string
	// breakers holds one breaker per service base URL, so an outage of one
	// service does not reject calls to the others.
	breakers map[string]*circuitbreaker.Breaker[[]byte]
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	token := cfg.Token
	if token == nil {
		token = func() string { return "" }
	}

	c := &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		catalogURL: strings.TrimRight(cfg.CatalogURL, "/"),
		authURL:    strings.TrimRight(cfg.AuthURL, "/"),
		ordersURL:  strings.TrimRight(cfg.OrdersURL, "/"),
		token:      token,
		breakers:   make(map[string]*circuitbreaker.Breaker[[]byte]),
	}
	for _, base := range []string{c.catalogURL, c.authURL, c.ordersURL} {
		if _, ok := c.breakers[base]; ok {
			continue
		}
		c.breakers[base] = circuitbreaker.New[[]byte](circuitbreaker.Settings{
			Name:         "food-delivery-api " + base,
			IsSuccessful: clientError,
			Logger:       cfg.Logger,
		})
	}
	return c
}

// breakerFor picks the breaker of the service whose base URL is the longest
// prefix of u.
func (c *Client) breakerFor(u string) *circuitbreaker.Breaker[[]byte] {
	var (
		best    *circuitbreaker.Breaker[[]byte]
		bestLen = -1
	)
	for base, b := range c.breakers {
		if strings.HasPrefix(u, base) && len(base) > bestLen {
			best, bestLen = b, len(base)
		}
	}
	return best
}

func (c *Client) GetProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := c.do(ctx, http.MethodGet, c.catalogURL+"/products", nil, &out)
	return out, err
}

func (c *Client) GetCategories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.do(ctx, http.MethodGet, c.catalogURL+"/categories", nil, &out)
	return out, err
}

func (c *Client) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	var out []model.Product
	u := c.catalogURL + "/search?" + url.Values{"query": {query}}.Encode()
	err := c.do(ctx, http.MethodGet, u, nil, &out)
	return out, err
}

func (c *Client) GetSeller(ctx context.Context, userID string) (*model.Seller, error) {
	var out model.Seller
	if err := c.do(ctx, http.MethodGet, c.catalogURL+"/sellers/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterSeller(ctx context.Context, seller model.Seller) error {
	return c.do(ctx, http.MethodPost, c.catalogURL+"/sellers", seller, nil)
}

func (c *Client) AddProduct(ctx context.Context, product model.Product) error {
	return c.do(ctx, http.MethodPost, c.catalogURL+"/products", product, nil)
}

func (c *Client) UpdateProduct(ctx context.Context, productID int64, product model.Product) error {
	return c.do(ctx, http.MethodPut, c.catalogURL+"/products/"+strconv.FormatInt(productID, 10), product, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodDelete, c.catalogURL+"/products/"+strconv.FormatInt(productID, 10), nil, nil)
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *Client) Login(ctx context.Context, login, password string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, c.authURL+"/login", loginRequest{login, password}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) Register(ctx context.Context, login, password, email string) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, c.authURL+"/register", registerRequest{login, password, email}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

func (c *Client) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	err := c.do(ctx, http.MethodGet, c.ordersURL+"/orders/all", nil, &out)
	return out, err
}

type statusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (c *Client) UpdateOrderStatus(ctx context.Context, number string, status model.OrderStatus) error {
	u := c.ordersURL + "/orders/" + url.PathEscape(number) + "/status"
	return c.do(ctx, http.MethodPatch, u, statusRequest{status}, nil)
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	body, err := c.breakerFor(u).Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, u, payload)
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return fmt.Errorf("%s %s: %w: %w", method, u, ErrUnavailable, err)
		}
		return fmt.Errorf("%s %s: %w", method, u, err)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, u, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, httpx.MaxBodySize*8))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= 300 {
		se := &StatusError{StatusCode: resp.StatusCode}
		var er httpx.ErrorResponse
		if json.Unmarshal(body, &er) == nil {
			se.Code, se.Message = er.Code, er.Error
		} else {
			se.Message = strings.TrimSpace(string(body))
		}
		return nil, se
	}
	return body, nil
}
