package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/food_delivery/auth-service/internal/service"
	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAuth struct {
	token string
	login string
	err   error
}

func (m mockAuth) Login(context.Context, string, string) (string, error) { return m.token, m.err }
func (m mockAuth) Register(context.Context, string, string, string) (string, error) {
	return m.token, m.err
}
func (m mockAuth) Resolve(context.Context, string) (string, error) { return m.login, m.err }
func (m mockAuth) Logout(context.Context, string) error            { return m.err }

func serve(t *testing.T, auth Authenticator, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewAuthHandler(auth, 5*time.Second), 10*time.Second)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httpx.ErrorResponse {
	t.Helper()
	var er httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&er))
	return er
}

func TestLogin_Success(t *testing.T) {
	rec := serve(t, mockAuth{token: "tok"}, http.MethodPost, "/login", `{"login":"bob","password":"pw"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok", resp.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	rec := serve(t, mockAuth{err: service.ErrInvalidCredentials}, http.MethodPost, "/login", `{"login":"bob","password":"x"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Code)
}

func TestLogin_BadJSON(t *testing.T) {
	rec := serve(t, mockAuth{}, http.MethodPost, "/login", `{"login":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeError(t, rec).Code)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{"bad email", service.ErrInvalidEmail, http.StatusBadRequest, "validation_failed"},
		{"missing fields", service.ErrMissingFields, http.StatusBadRequest, "validation_failed"},
		{"password too long", service.ErrPasswordTooLong, http.StatusBadRequest, "validation_failed"},
		{"duplicate", service.ErrLoginTaken, http.StatusConflict, "login_taken"},
		{"storage", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, mockAuth{err: tt.err}, http.MethodPost, "/register",
				`{"login":"bob","password":"pw","email":"bad-email"}`, nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec).Code)
		})
	}
}

func TestRegister_Success(t *testing.T) {
	rec := serve(t, mockAuth{token: "new"}, http.MethodPost, "/register",
		`{"login":"bob","password":"pw","email":"a@b.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"new"`)
}

func TestSession(t *testing.T) {
	rec := serve(t, mockAuth{login: "bob"}, http.MethodGet, "/session", "",
		map[string]string{"Authorization": "Bearer tok"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"login":"bob"`)

	rec = serve(t, mockAuth{err: session.ErrInvalidToken}, http.MethodGet, "/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	rec := serve(t, mockAuth{}, http.MethodPost, "/logout", "", map[string]string{"Authorization": "Bearer tok"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, mockAuth{}, http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := serve(t, mockAuth{}, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
