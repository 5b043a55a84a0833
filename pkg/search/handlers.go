package search

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/httputil"
)

// Handlers serves the public search endpoint.
type Handlers struct {
	engine *Engine
}

// NewHandlers creates new search handlers
func NewHandlers(engine *Engine) *Handlers {
	return &Handlers{engine: engine}
}

// RegisterRoutes registers the search routes. Search is public.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/search/books", h.search).Methods("GET")
}

// search handles GET /search/books
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", defaultLimit)
	if err != nil || limit < 0 {
		httputil.WriteBadRequest(w, "invalid limit")
		return
	}

	query := Query{
		Text:  r.URL.Query().Get("q"),
		Limit: limit,
	}

	genreID, present, err := httputil.ParseQueryUUID(r, "genre_id")
	if err != nil {
		httputil.WriteBadRequest(w, "invalid genre_id")
		return
	}
	if present {
		query.GenreID = &genreID
	}

	results, err := h.engine.Search(r.Context(), query)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, results)
}
