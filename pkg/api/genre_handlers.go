package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// GenreHandlers serves the genre taxonomy. Reads are public; writes are
// admin only. Names are unique.
type GenreHandlers struct {
	genres  storage.GenreRepository
	checker *rbac.Checker
	mapper  catalog.GenreMapper
}

// NewGenreHandlers creates new genre handlers
func NewGenreHandlers(genres storage.GenreRepository, checker *rbac.Checker) *GenreHandlers {
	return &GenreHandlers{genres: genres, checker: checker}
}

// RegisterRoutes registers the genre routes. Reads are public.
func (h *GenreHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/genres", h.list).Methods("GET")
	public.HandleFunc("/genres/{id}", h.get).Methods("GET")
	protected.HandleFunc("/genres", h.create).Methods("POST")
	protected.HandleFunc("/genres/{id}", h.update).Methods("PUT")
	protected.HandleFunc("/genres/{id}", h.delete).Methods("DELETE")
}

// GenreRequest is the create/update payload.
type GenreRequest struct {
	Name string `json:"name"`
}

// list handles GET /genres
func (h *GenreHandlers) list(w http.ResponseWriter, r *http.Request) {
	genres, err := h.genres.List(r.Context())
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.ExternalAll(genres))
}

// get handles GET /genres/{id}
func (h *GenreHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	genre, err := h.genres.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*genre))
}

// create handles POST /genres
func (h *GenreHandlers) create(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionCreate, Resource: rbac.ResourceGenre})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	var req GenreRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	genre := catalog.Genre{ID: uuid.New(), Name: req.Name}
	if err := h.genres.Create(r.Context(), &genre); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, h.mapper.External(genre))
}

// update handles PUT /genres/{id}
func (h *GenreHandlers) update(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionUpdate, Resource: rbac.ResourceGenre})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req GenreRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	genre, err := h.genres.Update(r.Context(), id, req.Name)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*genre))
}

// delete handles DELETE /genres/{id}
func (h *GenreHandlers) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionDelete, Resource: rbac.ResourceGenre})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.genres.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("genre %s", id))
		return
	}

	httputil.WriteNoContent(w)
}
