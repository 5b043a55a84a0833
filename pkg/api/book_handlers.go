package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// BookHandlers serves the book catalog. Reads are public; publishing
// requires the author role, and an admin publishing on someone's behalf
// must name the author explicitly.
type BookHandlers struct {
	books   storage.BookRepository
	authors storage.AuthorRepository
	checker *rbac.Checker
	mapper  catalog.BookMapper
}

// NewBookHandlers creates new book handlers
func NewBookHandlers(books storage.BookRepository, authors storage.AuthorRepository, checker *rbac.Checker) *BookHandlers {
	return &BookHandlers{books: books, authors: authors, checker: checker}
}

// RegisterRoutes registers the book routes. Reads are public.
func (h *BookHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/books", h.list).Methods("GET")
	public.HandleFunc("/books/{id}", h.get).Methods("GET")
	protected.HandleFunc("/books", h.create).Methods("POST")
	protected.HandleFunc("/books/{id}", h.update).Methods("PUT")
	protected.HandleFunc("/books/{id}", h.delete).Methods("DELETE")
}

// BookCreateRequest is the publish payload. AuthorID is honored only for
// admin callers; for authors the owning profile is always their own.
type BookCreateRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	CoverImage  string      `json:"cover_image,omitempty"`
	FilePath    string      `json:"file_path"`
	AuthorID    *uuid.UUID  `json:"author_id,omitempty"`
	GenreIDs    []uuid.UUID `json:"genre_ids,omitempty"`
}

// BookUpdateRequest is the update payload. GenreIDs, when present,
// replaces the whole genre set.
type BookUpdateRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	CoverImage  *string      `json:"cover_image,omitempty"`
	FilePath    *string      `json:"file_path,omitempty"`
	GenreIDs    *[]uuid.UUID `json:"genre_ids,omitempty"`
}

// list handles GET /books
func (h *BookHandlers) list(w http.ResponseWriter, r *http.Request) {
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

	books, err := h.books.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.ExternalAll(books))
}

// get handles GET /books/{id}
func (h *BookHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*book))
}

// create handles POST /books
func (h *BookHandlers) create(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	var req BookCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionCreate, Resource: rbac.ResourceBook})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	authorID, err := h.resolveAuthorID(r, c, req.AuthorID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	book := catalog.Book{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		FilePath:    req.FilePath,
		UploadDate:  time.Now(),
		AuthorID:    authorID,
	}

	// All genre links land or none do
	if err := h.books.CreateWithGenres(r.Context(), &book, req.GenreIDs); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, h.mapper.External(book))
}

// resolveAuthorID picks the owning author profile: authors always get
// their own, admins must name one that exists.
func (h *BookHandlers) resolveAuthorID(r *http.Request, c rbac.Caller, explicit *uuid.UUID) (uuid.UUID, error) {
	if c.Role == catalog.RoleAdmin {
		if explicit == nil {
			return uuid.Nil, catalog.InvalidInputf("author_id is required for admin-published books")
		}
		author, err := h.authors.GetByID(r.Context(), *explicit)
		if err != nil {
			return uuid.Nil, err
		}
		return author.ID, nil
	}

	profile, err := h.authors.GetByUserID(r.Context(), c.UserID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return uuid.Nil, catalog.InvalidInputf("caller has no author profile")
		}
		return uuid.Nil, err
	}
	return profile.ID, nil
}

// update handles PUT /books/{id}
func (h *BookHandlers) update(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req BookUpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	if err := h.authorizeOwnership(r, c, rbac.ActionUpdate, book); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	patch := catalog.BookPatch{
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		FilePath:    req.FilePath,
		GenreIDs:    req.GenreIDs,
	}
	if patch.IsZero() {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("no fields to update"))
		return
	}

	updated, err := h.books.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*updated))
}

// delete handles DELETE /books/{id}
func (h *BookHandlers) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	if err := h.authorizeOwnership(r, c, rbac.ActionDelete, book); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	deleted, err := h.books.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("book %s", id))
		return
	}

	httputil.WriteNoContent(w)
}

// authorizeOwnership resolves the book's owning user and runs the check.
func (h *BookHandlers) authorizeOwnership(r *http.Request, c rbac.Caller, action rbac.Action, book *catalog.Book) error {
	ownerID := uuid.Nil
	author, err := h.authors.GetByID(r.Context(), book.AuthorID)
	if err == nil {
		ownerID = author.UserID
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:   c,
		Action:   action,
		Resource: rbac.ResourceBook,
		OwnerID:  ownerID,
	})
	return decision.Err()
}
