package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// ReviewHandlers serves reviews, keyed by (user, book). One review per
// pair; creation kicks off the author notification task.
type ReviewHandlers struct {
	reviews  storage.ReviewRepository
	books    storage.BookRepository
	checker  *rbac.Checker
	notifier Notifier
	logger   *observability.Logger
}

// NewReviewHandlers creates new review handlers
func NewReviewHandlers(reviews storage.ReviewRepository, books storage.BookRepository, checker *rbac.Checker, notifier Notifier, logger *observability.Logger) *ReviewHandlers {
	return &ReviewHandlers{
		reviews:  reviews,
		books:    books,
		checker:  checker,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterRoutes registers the review routes. A book's reviews are
// publicly readable.
func (h *ReviewHandlers) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/books/{id}/reviews", h.listByBook).Methods("GET")
	protected.HandleFunc("/reviews", h.listOwn).Methods("GET")
	protected.HandleFunc("/reviews", h.create).Methods("POST")
	protected.HandleFunc("/reviews/{book_id}", h.update).Methods("PUT")
	protected.HandleFunc("/reviews/{book_id}", h.delete).Methods("DELETE")
}

// ReviewCreateRequest is the create payload.
type ReviewCreateRequest struct {
	BookID uuid.UUID `json:"book_id"`
	Text   string    `json:"text,omitempty"`
	Rating int       `json:"rating"`
}

// ReviewUpdateRequest is the update payload. UserID lets an admin act on
// another user's review; it is ignored for everyone else.
type ReviewUpdateRequest struct {
	Text   *string    `json:"text,omitempty"`
	Rating *int       `json:"rating,omitempty"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// listByBook handles GET /books/{id}/reviews
func (h *ReviewHandlers) listByBook(w http.ResponseWriter, r *http.Request) {
	bookID, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.books.GetByID(r.Context(), bookID); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	reviews, err := h.reviews.ListByBook(r.Context(), bookID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, reviews)
}

// listOwn handles GET /reviews
func (h *ReviewHandlers) listOwn(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	reviews, err := h.reviews.ListByUser(r.Context(), c.UserID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, reviews)
}

// create handles POST /reviews
func (h *ReviewHandlers) create(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	var req ReviewCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.BookID == uuid.Nil {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("book_id is required"))
		return
	}
	if !catalog.ValidRating(req.Rating) {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("rating must be between %d and %d", catalog.RatingMin, catalog.RatingMax))
		return
	}

	if _, err := h.books.GetByID(r.Context(), req.BookID); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	review := catalog.Review{
		UserID:    c.UserID,
		BookID:    req.BookID,
		Text:      req.Text,
		Rating:    req.Rating,
		CreatedAt: time.Now(),
	}

	if err := h.reviews.Create(r.Context(), &review); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	// Notify the book's author off the request path. A full queue only
	// loses the notification, never the review.
	if h.notifier != nil {
		if err := h.notifier.Enqueue(review.UserID, review.BookID); err != nil && h.logger != nil {
			h.logger.WithError(err).Warn("failed to enqueue review notification")
		}
	}

	httputil.WriteCreated(w, review)
}

// update handles PUT /reviews/{book_id}
func (h *ReviewHandlers) update(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	bookID, ok := httputil.ParsePathUUIDOrError(w, r, "book_id")
	if !ok {
		return
	}

	var req ReviewUpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	targetUserID, explicit := resolveTargetUser(c, req.UserID)

	// Row miss answers NotFound even for foreign targets, so the
	// response cannot reveal whether another user reviewed the book
	if _, err := h.reviews.Get(r.Context(), targetUserID, bookID); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:         c,
		Action:         rbac.ActionUpdate,
		Resource:       rbac.ResourceReview,
		OwnerID:        targetUserID,
		ExplicitUserID: explicit,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	if req.Rating != nil && !catalog.ValidRating(*req.Rating) {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("rating must be between %d and %d", catalog.RatingMin, catalog.RatingMax))
		return
	}

	patch := catalog.ReviewPatch{Text: req.Text, Rating: req.Rating}
	if patch.IsZero() {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("no fields to update"))
		return
	}

	updated, err := h.reviews.Update(r.Context(), targetUserID, bookID, patch)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, updated)
}

// delete handles DELETE /reviews/{book_id}. An admin deletes another
// user's review by naming them in the user_id query parameter.
func (h *ReviewHandlers) delete(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.reviews.Get(r.Context(), targetUserID, bookID); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	decision := h.checker.Authorize(rbac.Check{
		Caller:         c,
		Action:         rbac.ActionDelete,
		Resource:       rbac.ResourceReview,
		OwnerID:        targetUserID,
		ExplicitUserID: explicit,
	})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	deleted, err := h.reviews.Delete(r.Context(), targetUserID, bookID)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("review by user %s for book %s", targetUserID, bookID))
		return
	}

	httputil.WriteNoContent(w)
}

// resolveTargetUser picks whose row the operation addresses. Only an
// admin may redirect it to another user, and only by naming them.
func resolveTargetUser(c rbac.Caller, named *uuid.UUID) (uuid.UUID, bool) {
	if c.Role == catalog.RoleAdmin && named != nil {
		return *named, true
	}
	return c.UserID, false
}
