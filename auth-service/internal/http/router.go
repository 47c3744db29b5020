package http

import (
	"net/http"
	"time"

	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *AuthHandler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.LogRequests)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", h.Login)
	r.Post("/register", h.Register)
	r.Get("/session", h.Session)
	r.Post("/logout", h.Logout)

	return r
}
