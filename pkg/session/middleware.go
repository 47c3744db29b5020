package session

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fjod/food_delivery/pkg/httpx"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// Require rejects requests without a valid bearer token and stores the
// resolved login on the request context.
func Require(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			login, err := store.Lookup(r.Context(), BearerToken(r))
			if err != nil {
				if !errors.Is(err, ErrInvalidToken) {
					slog.ErrorContext(r.Context(), "session lookup failed", slog.Any("err", err))
					httpx.RespondError(w, http.StatusServiceUnavailable, "service_unavailable", "session store unavailable")
					return
				}
				httpx.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(httpx.WithLogin(r.Context(), login)))
		})
	}
}
