// Package search runs remote product searches and remembers recent queries.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fjod/food_delivery/app/api"
	"github.com/fjod/food_delivery/app/model"
	"github.com/fjod/food_delivery/app/persistence"
	"github.com/fjod/food_delivery/app/state"
)

// MaxHistory is how many recent queries are kept.
const MaxHistory = 10

type Result struct {
	Query    string
	Products []model.Product
	Err      error
}

type Holder struct {
	api     api.FoodAPI
	store   persistence.Store
	log     *slog.Logger
	result  *state.Value[Result]
	history *state.Value[[]string]
}

func New(client api.FoodAPI, store persistence.Store, log *slog.Logger) *Holder {
	if log == nil {
		log = slog.Default()
	}
	return &Holder{
		api:     client,
		store:   store,
		log:     log,
		result:  state.NewValue(Result{Products: []model.Product{}}),
		history: state.NewValue([]string{}),
	}
}

func (h *Holder) LoadHistory(ctx context.Context) error {
	queries, err := persistence.LoadList[string](ctx, h.store, persistence.KeySearchHistory)
	if err != nil {
		return err
	}
	if len(queries) > MaxHistory {
		queries = queries[:MaxHistory]
	}
	h.history.Set(queries)
	return nil
}

// Search queries the catalog service. A blank query clears the results
// without a request. Failures are published in Result.Err and returned.
func (h *Holder) Search(ctx context.Context, query string) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		r := Result{Products: []model.Product{}}
		h.result.Set(r)
		return r, nil
	}

	if err := h.remember(ctx, query); err != nil {
		h.log.WarnContext(ctx, "save search history failed", slog.Any("err", err))
	}

	products, err := h.api.SearchProducts(ctx, query)
	if err != nil {
		h.log.WarnContext(ctx, "search failed", slog.String("query", query), slog.Any("err", err))
		r := Result{Query: query, Products: []model.Product{}, Err: err}
		h.result.Set(r)
		return r, err
	}
	if products == nil {
		products = []model.Product{}
	}
	r := Result{Query: query, Products: products}
	h.result.Set(r)
	return r, nil
}

func (h *Holder) Result() Result {
	return h.result.Get()
}

func (h *Holder) SubscribeResults() <-chan Result {
	return h.result.Subscribe()
}

// History returns recent queries, most recent first.
func (h *Holder) History() []string {
	return h.history.Get()
}

func (h *Holder) ClearHistory(ctx context.Context) error {
	h.history.Set([]string{})
	return persistence.SaveJSON(ctx, h.store, persistence.KeySearchHistory, []string{})
}

func (h *Holder) remember(ctx context.Context, query string) error {
	next := h.history.Update(func(cur []string) []string {
		out := make([]string, 0, MaxHistory)
		out = append(out, query)
		for _, q := range cur {
			if q != query && len(out) < MaxHistory {
				out = append(out, q)
			}
		}
		return out
	})
	return persistence.SaveJSON(ctx, h.store, persistence.KeySearchHistory, next)
}
