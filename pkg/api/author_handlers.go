package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// AuthorHandlers serves author profiles. Creating one promotes the user
// to the author role; deleting it demotes them back.
type AuthorHandlers struct {
	authors storage.AuthorRepository
	checker *rbac.Checker
}

// NewAuthorHandlers creates new author handlers
func NewAuthorHandlers(authors storage.AuthorRepository, checker *rbac.Checker) *AuthorHandlers {
	return &AuthorHandlers{authors: authors, checker: checker}
}

// RegisterRoutes registers the author routes. Reads are public.
func (h *AuthorHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/authors", h.list).Methods("GET")
	public.HandleFunc("/authors/{id}", h.get).Methods("GET")
	protected.HandleFunc("/authors", h.create).Methods("POST")
	protected.HandleFunc("/authors/{id}", h.update).Methods("PUT")
	protected.HandleFunc("/authors/{id}", h.delete).Methods("DELETE")
}

// AuthorRequest is the create/update payload.
type AuthorRequest struct {
	Bio            *string `json:"bio,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// list handles GET /authors
func (h *AuthorHandlers) list(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", 50)
	if err != nil || limit < 0 {
		httputil.WriteBadRequest(w, "invalid limit")
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		httputil.WriteBadRequest(w, "invalid offset")
		return
	}

	authors, err := h.authors.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, authors)
}

// get handles GET /authors/{id}
func (h *AuthorHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	author, err := h.authors.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, author)
}

// create handles POST /authors
func (h *AuthorHandlers) create(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	var req AuthorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	exists, err := h.authors.ExistsForUser(r.Context(), c.UserID)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:            c,
		Action:            rbac.ActionCreate,
		Resource:          rbac.ResourceAuthor,
		OwnsAuthorProfile: exists,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	author := catalog.Author{
		ID:        uuid.New(),
		UserID:    c.UserID,
		CreatedAt: time.Now(),
	}
	if req.Bio != nil {
		author.Bio = *req.Bio
	}
	if req.ProfilePicture != nil {
		author.ProfilePicture = *req.ProfilePicture
	}

	if err := h.authors.CreatePromoting(r.Context(), &author); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, author)
}

// update handles PUT /authors/{id}
func (h *AuthorHandlers) update(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req AuthorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	// Lookup miss is reported before any denial
	author, err := h.authors.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:   c,
		Action:   rbac.ActionUpdate,
		Resource: rbac.ResourceAuthor,
		OwnerID:  author.UserID,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	patch := catalog.AuthorPatch{Bio: req.Bio, ProfilePicture: req.ProfilePicture}
	if patch.IsZero() {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("no fields to update"))
		return
	}

	updated, err := h.authors.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, updated)
}

// delete handles DELETE /authors/{id}
func (h *AuthorHandlers) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	author, err := h.authors.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:   c,
		Action:   rbac.ActionDelete,
		Resource: rbac.ResourceAuthor,
		OwnerID:  author.UserID,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	deleted, err := h.authors.DeleteDemoting(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("author %s", id))
		return
	}

	httputil.WriteNoContent(w)
}
