package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/catalog"
)

func TestCreateReview_EnqueuesNotification(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")

	rec := env.do("POST", "/reviews", readerToken, ReviewCreateRequest{
		BookID: book.ID,
		Text:   "gripping start, rushed ending",
		Rating: 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var review catalog.Review
	decodeBody(t, rec, &review)
	assert.Equal(t, reader.ID, review.UserID)
	assert.Equal(t, book.ID, review.BookID)
	assert.Equal(t, 4, review.Rating)

	require.Equal(t, 1, env.notifier.callCount())
	assert.Equal(t, notifyCall{reviewerID: reader.ID, bookID: book.ID}, env.notifier.calls[0])
}

func TestCreateReview_NotifierFailureDoesNotLoseReview(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	_, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")

	env.notifier.err = assert.AnError

	rec := env.do("POST", "/reviews", readerToken, ReviewCreateRequest{
		BookID: book.ID,
		Rating: 5,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)

	env.db.mu.RLock()
	defer env.db.mu.RUnlock()
	assert.Len(t, env.db.reviews, 1)
}

func TestCreateReview_Validation(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	_, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")

	tests := []struct {
		name     string
		request  ReviewCreateRequest
		wantCode int
	}{
		{"missing book id", ReviewCreateRequest{Rating: 3}, http.StatusBadRequest},
		{"rating too low", ReviewCreateRequest{BookID: book.ID, Rating: 0}, http.StatusBadRequest},
		{"rating too high", ReviewCreateRequest{BookID: book.ID, Rating: 6}, http.StatusBadRequest},
		{"unknown book", ReviewCreateRequest{BookID: uuid.New(), Rating: 3}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do("POST", "/reviews", readerToken, tt.request)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	assert.Equal(t, 0, env.notifier.callCount())
}

func TestCreateReview_OnePerUserAndBook(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	_, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")

	rec := env.do("POST", "/reviews", readerToken, ReviewCreateRequest{BookID: book.ID, Rating: 4})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do("POST", "/reviews", readerToken, ReviewCreateRequest{BookID: book.ID, Rating: 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, 1, env.notifier.callCount())
}

func TestListReviewsByBook_Public(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, _ := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	rec := env.do("GET", "/books/"+book.ID.String()+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []catalog.Review
	decodeBody(t, rec, &reviews)
	assert.Len(t, reviews, 1)

	rec = env.do("GET", "/books/"+uuid.New().String()+"/reviews", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOwnReviews(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, readerToken := env.seedUser("reader", catalog.RoleUser)
	other, _ := env.seedUser("other", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)
	env.seedReview(other.ID, book.ID, 2)

	rec := env.do("GET", "/reviews", readerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reviews []catalog.Review
	decodeBody(t, rec, &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, reader.ID, reviews[0].UserID)
}

func TestUpdateReview_OwnRow(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	rec := env.do("PUT", "/reviews/"+book.ID.String(), readerToken, ReviewUpdateRequest{
		Text:   strptr("on reflection it holds up"),
		Rating: intptr(5),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var review catalog.Review
	decodeBody(t, rec, &review)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "on reflection it holds up", review.Text)

	// Out-of-range rating
	rec = env.do("PUT", "/reviews/"+book.ID.String(), readerToken, ReviewUpdateRequest{Rating: intptr(9)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Empty patch
	rec = env.do("PUT", "/reviews/"+book.ID.String(), readerToken, ReviewUpdateRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateReview_AdminTargetsNamedUser(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, _ := env.seedUser("reader", catalog.RoleUser)
	_, adminToken := env.seedUser("admin", catalog.RoleAdmin)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	// Without naming a user the admin addresses their own (missing) row
	rec := env.do("PUT", "/reviews/"+book.ID.String(), adminToken, ReviewUpdateRequest{Rating: intptr(1)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do("PUT", "/reviews/"+book.ID.String(), adminToken, ReviewUpdateRequest{
		Rating: intptr(1),
		UserID: &reader.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var review catalog.Review
	decodeBody(t, rec, &review)
	assert.Equal(t, reader.ID, review.UserID)
	assert.Equal(t, 1, review.Rating)
}

func TestUpdateReview_ForeignTargetAnswersNotFound(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, _ := env.seedUser("reader", catalog.RoleUser)
	_, otherToken := env.seedUser("other", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	// A non-admin naming another user is redirected to their own row, so
	// the answer never reveals whether the other user reviewed the book
	rec := env.do("PUT", "/reviews/"+book.ID.String(), otherToken, ReviewUpdateRequest{
		Rating: intptr(1),
		UserID: &reader.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, readerToken := env.seedUser("reader", catalog.RoleUser)
	_, adminToken := env.seedUser("admin", catalog.RoleAdmin)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	// Admin removes the named user's review
	rec := env.do("DELETE", "/reviews/"+book.ID.String()+"?user_id="+reader.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Gone now
	rec = env.do("DELETE", "/reviews/"+book.ID.String(), readerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteReview_OwnRow(t *testing.T) {
	env := newTestEnv(t)
	dave, _ := env.seedUser("dave", catalog.RoleAuthor)
	reader, readerToken := env.seedUser("reader", catalog.RoleUser)
	profile := env.seedAuthor(dave.ID)
	book := env.seedBook(profile.ID, "Reviewed Work")
	env.seedReview(reader.ID, book.ID, 4)

	rec := env.do("DELETE", "/reviews/"+book.ID.String(), readerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do("DELETE", "/reviews/"+book.ID.String()+"?user_id=oops", readerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
