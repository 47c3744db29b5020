package http

import (
	"net/http"
	"time"

	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *OrdersHandler, sessions session.Store, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.LogRequests)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(session.Require(sessions))
		r.Get("/", h.ListMine)
		r.Get("/all", h.ListAll)
		r.Get("/analytics", h.Analytics)
		r.Patch("/{number}/status", h.UpdateStatus)
	})

	return r
}
