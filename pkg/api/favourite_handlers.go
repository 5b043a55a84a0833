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

// FavouriteHandlers serves per-user favourites, keyed by (user, book).
type FavouriteHandlers struct {
	favourites storage.FavouriteRepository
	books      storage.BookRepository
	checker    *rbac.Checker
}

// NewFavouriteHandlers creates new favourite handlers
func NewFavouriteHandlers(favourites storage.FavouriteRepository, books storage.BookRepository, checker *rbac.Checker) *FavouriteHandlers {
	return &FavouriteHandlers{favourites: favourites, books: books, checker: checker}
}

// RegisterRoutes registers the favourite routes on the protected router
func (h *FavouriteHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/favourites", h.list).Methods("GET")
	router.HandleFunc("/favourites", h.create).Methods("POST")
	router.HandleFunc("/favourites/{book_id}", h.delete).Methods("DELETE")
}

// FavouriteCreateRequest is the create payload.
type FavouriteCreateRequest struct {
	BookID uuid.UUID `json:"book_id"`
}

// list handles GET /favourites
func (h *FavouriteHandlers) list(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	favourites, err := h.favourites.ListByUser(r.Context(), c.UserID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, favourites)
}

// create handles POST /favourites
func (h *FavouriteHandlers) create(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	var req FavouriteCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.BookID == uuid.Nil {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("book_id is required"))
		return
	}

	if _, err := h.books.GetByID(r.Context(), req.BookID); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	fav := catalog.Favourite{UserID: c.UserID, BookID: req.BookID}
	if err := h.favourites.Create(r.Context(), &fav); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, fav)
}

// delete handles DELETE /favourites/{book_id}. An admin removes another
// user's favourite by naming them in the user_id query parameter.
func (h *FavouriteHandlers) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	bookID, ok := httputil.ParsePathUUIDOrError(w, r, "book_id")
	if !ok {
		return
	}

	queryUserID, present, err := httputil.ParseQueryUUID(r, "user_id")
	if err != nil {
		httputil.WriteBadRequest(w, "invalid user_id")
		return
	}
	var explicitID *uuid.UUID
	if present {
		explicitID = &queryUserID
	}
	targetUserID, explicit := resolveTargetUser(c, explicitID)

	exists, err := h.favourites.Exists(r.Context(), targetUserID, bookID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !exists {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("book %s is not a favourite of user %s", bookID, targetUserID))
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:         c,
		Action:         rbac.ActionDelete,
		Resource:       rbac.ResourceFavourite,
		OwnerID:        targetUserID,
		ExplicitUserID: explicit,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	deleted, err := h.favourites.Delete(r.Context(), targetUserID, bookID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("book %s is not a favourite of user %s", bookID, targetUserID))
		return
	}

	httputil.WriteNoContent(w)
}
