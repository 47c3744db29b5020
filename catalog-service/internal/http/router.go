package http

import (
	"net/http"
	"time"

	"github.com/fjod/food_delivery/pkg/httpx"
	"github.com/fjod/food_delivery/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *CatalogHandler, sessions session.Store, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.LogRequests)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/categories", h.ListCategories)
	r.Get("/search", h.Search)

	r.Group(func(r chi.Router) {
		r.Use(session.Require(sessions))
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
		r.Get("/sellers/{userID}", h.GetSeller)
		r.Post("/sellers", h.RegisterSeller)
	})

	return r
}
