package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/catalog"
)

// pairKey identifies a (user, book) row.
type pairKey struct {
	userID uuid.UUID
	bookID uuid.UUID
}

// memDB is an in-memory database backing all repositories. It mirrors the
// PostgreSQL stores' error contracts (taxonomy errors for misses and
// duplicates) and their cross-table cascades, so handlers exercise the
// same paths they would against a real database.
type memDB struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]*catalog.User
	authors    map[uuid.UUID]*catalog.Author
	books      map[uuid.UUID]*catalog.Book
	genres     map[uuid.UUID]*catalog.Genre
	reviews    map[pairKey]*catalog.Review
	favourites map[pairKey]catalog.Favourite
	roles      map[uuid.UUID]*catalog.RoleRecord
}

func newMemDB() *memDB {
	return &memDB{
		users:      make(map[uuid.UUID]*catalog.User),
		authors:    make(map[uuid.UUID]*catalog.Author),
		books:      make(map[uuid.UUID]*catalog.Book),
		genres:     make(map[uuid.UUID]*catalog.Genre),
		reviews:    make(map[pairKey]*catalog.Review),
		favourites: make(map[pairKey]catalog.Favourite),
		roles:      make(map[uuid.UUID]*catalog.RoleRecord),
	}
}

func (db *memDB) stores() Stores {
	return Stores{
		Users:      &memUsers{db},
		Authors:    &memAuthors{db},
		Books:      &memBooks{db},
		Genres:     &memGenres{db},
		Reviews:    &memReviews{db},
		Favourites: &memFavourites{db},
		Roles:      &memRoles{db},
	}
}

// cascadeUserRows removes the rows a user-delete cascades to.
// Callers hold db.mu.
func (db *memDB) cascadeUserRows(userID uuid.UUID) {
	for key := range db.reviews {
		if key.userID == userID {
			delete(db.reviews, key)
		}
	}
	for key := range db.favourites {
		if key.userID == userID {
			delete(db.favourites, key)
		}
	}
	for id, author := range db.authors {
		if author.UserID == userID {
			db.cascadeAuthorRows(id)
			delete(db.authors, id)
		}
	}
}

// cascadeAuthorRows removes an author's books and their dependent rows.
// Callers hold db.mu.
func (db *memDB) cascadeAuthorRows(authorID uuid.UUID) {
	for id, book := range db.books {
		if book.AuthorID == authorID {
			db.cascadeBookRows(id)
			delete(db.books, id)
		}
	}
}

// cascadeBookRows removes a book's reviews and favourites.
// Callers hold db.mu.
func (db *memDB) cascadeBookRows(bookID uuid.UUID) {
	for key := range db.reviews {
		if key.bookID == bookID {
			delete(db.reviews, key)
		}
	}
	for key := range db.favourites {
		if key.bookID == bookID {
			delete(db.favourites, key)
		}
	}
}

type memUsers struct{ db *memDB }

func (s *memUsers) GetByID(_ context.Context, id uuid.UUID) (*catalog.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	user, ok := s.db.users[id]
	if !ok {
		return nil, catalog.NotFoundf("user %s", id)
	}
	copied := *user
	return &copied, nil
}

func (s *memUsers) GetByUsername(_ context.Context, username string) (*catalog.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, user := range s.db.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, catalog.NotFoundf("user %q", username)
}

func (s *memUsers) List(_ context.Context, limit, offset int) ([]catalog.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	users := make([]catalog.User, 0, len(s.db.users))
	for _, user := range s.db.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return window(users, limit, offset), nil
}

func (s *memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, user := range s.db.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memUsers) Create(_ context.Context, user *catalog.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return catalog.Conflictf("username or email already registered")
		}
	}
	copied := *user
	s.db.users[user.ID] = &copied
	return nil
}

func (s *memUsers) Update(_ context.Context, id uuid.UUID, patch catalog.UserPatch) (*catalog.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	user, ok := s.db.users[id]
	if !ok {
		return nil, catalog.NotFoundf("user %s", id)
	}
	for otherID, other := range s.db.users {
		if otherID == id {
			continue
		}
		if patch.Username != nil && other.Username == *patch.Username {
			return nil, catalog.Conflictf("username %q already registered", *patch.Username)
		}
		if patch.Email != nil && other.Email == *patch.Email {
			return nil, catalog.Conflictf("email %q already registered", *patch.Email)
		}
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	user.UpdatedAt = time.Now()
	copied := *user
	return &copied, nil
}

func (s *memUsers) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return false, nil
	}
	s.db.cascadeUserRows(id)
	delete(s.db.users, id)
	return true, nil
}

type memAuthors struct{ db *memDB }

func (s *memAuthors) GetByID(_ context.Context, id uuid.UUID) (*catalog.Author, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	author, ok := s.db.authors[id]
	if !ok {
		return nil, catalog.NotFoundf("author %s", id)
	}
	copied := *author
	return &copied, nil
}

func (s *memAuthors) GetByUserID(_ context.Context, userID uuid.UUID) (*catalog.Author, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, author := range s.db.authors {
		if author.UserID == userID {
			copied := *author
			return &copied, nil
		}
	}
	return nil, catalog.NotFoundf("author profile for user %s", userID)
}

func (s *memAuthors) List(_ context.Context, limit, offset int) ([]catalog.Author, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	authors := make([]catalog.Author, 0, len(s.db.authors))
	for _, author := range s.db.authors {
		authors = append(authors, *author)
	}
	sort.Slice(authors, func(i, j int) bool { return authors[i].ID.String() < authors[j].ID.String() })
	return window(authors, limit, offset), nil
}

func (s *memAuthors) ExistsForUser(_ context.Context, userID uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, author := range s.db.authors {
		if author.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memAuthors) CreatePromoting(_ context.Context, author *catalog.Author) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.authors {
		if existing.UserID == author.UserID {
			return catalog.Conflictf("user %s already has an author profile", author.UserID)
		}
	}
	copied := *author
	s.db.authors[author.ID] = &copied
	if user, ok := s.db.users[author.UserID]; ok && user.Role == catalog.RoleUser {
		user.Role = catalog.RoleAuthor
	}
	return nil
}

func (s *memAuthors) Update(_ context.Context, id uuid.UUID, patch catalog.AuthorPatch) (*catalog.Author, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	author, ok := s.db.authors[id]
	if !ok {
		return nil, catalog.NotFoundf("author %s", id)
	}
	if patch.Bio != nil {
		author.Bio = *patch.Bio
	}
	if patch.ProfilePicture != nil {
		author.ProfilePicture = *patch.ProfilePicture
	}
	copied := *author
	return &copied, nil
}

func (s *memAuthors) DeleteDemoting(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	author, ok := s.db.authors[id]
	if !ok {
		return false, nil
	}
	if user, ok := s.db.users[author.UserID]; ok && user.Role == catalog.RoleAuthor {
		user.Role = catalog.RoleUser
	}
	s.db.cascadeAuthorRows(id)
	delete(s.db.authors, id)
	return true, nil
}

type memBooks struct{ db *memDB }

func (s *memBooks) GetByID(_ context.Context, id uuid.UUID) (*catalog.Book, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	book, ok := s.db.books[id]
	if !ok {
		return nil, catalog.NotFoundf("book %s", id)
	}
	copied := *book
	return &copied, nil
}

func (s *memBooks) List(_ context.Context, limit, offset int) ([]catalog.Book, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	books := make([]catalog.Book, 0, len(s.db.books))
	for _, book := range s.db.books {
		books = append(books, *book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return window(books, limit, offset), nil
}

func (s *memBooks) CreateWithGenres(_ context.Context, book *catalog.Book, genreIDs []uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	genres, err := s.db.resolveGenres(genreIDs)
	if err != nil {
		return err
	}
	book.Genres = genres
	copied := *book
	s.db.books[book.ID] = &copied
	return nil
}

// resolveGenres validates every id before any state changes, matching the
// all-or-nothing transaction in the real store. Callers hold db.mu.
func (db *memDB) resolveGenres(genreIDs []uuid.UUID) ([]catalog.Genre, error) {
	genres := make([]catalog.Genre, 0, len(genreIDs))
	for _, id := range genreIDs {
		genre, ok := db.genres[id]
		if !ok {
			return nil, catalog.NotFoundf("genre %s", id)
		}
		genres = append(genres, *genre)
	}
	return genres, nil
}

func (s *memBooks) Update(_ context.Context, id uuid.UUID, patch catalog.BookPatch) (*catalog.Book, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	book, ok := s.db.books[id]
	if !ok {
		return nil, catalog.NotFoundf("book %s", id)
	}
	if patch.GenreIDs != nil {
		genres, err := s.db.resolveGenres(*patch.GenreIDs)
		if err != nil {
			return nil, err
		}
		book.Genres = genres
	}
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Description != nil {
		book.Description = *patch.Description
	}
	if patch.CoverImage != nil {
		book.CoverImage = *patch.CoverImage
	}
	if patch.FilePath != nil {
		book.FilePath = *patch.FilePath
	}
	copied := *book
	return &copied, nil
}

func (s *memBooks) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.books[id]; !ok {
		return false, nil
	}
	s.db.cascadeBookRows(id)
	delete(s.db.books, id)
	return true, nil
}

type memGenres struct{ db *memDB }

func (s *memGenres) GetByID(_ context.Context, id uuid.UUID) (*catalog.Genre, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	genre, ok := s.db.genres[id]
	if !ok {
		return nil, catalog.NotFoundf("genre %s", id)
	}
	copied := *genre
	return &copied, nil
}

func (s *memGenres) List(_ context.Context) ([]catalog.Genre, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	genres := make([]catalog.Genre, 0, len(s.db.genres))
	for _, genre := range s.db.genres {
		genres = append(genres, *genre)
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	return genres, nil
}

func (s *memGenres) Create(_ context.Context, genre *catalog.Genre) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.genres {
		if existing.Name == genre.Name {
			return catalog.Conflictf("genre %q already exists", genre.Name)
		}
	}
	copied := *genre
	s.db.genres[genre.ID] = &copied
	return nil
}

func (s *memGenres) Update(_ context.Context, id uuid.UUID, name string) (*catalog.Genre, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	genre, ok := s.db.genres[id]
	if !ok {
		return nil, catalog.NotFoundf("genre %s", id)
	}
	for otherID, other := range s.db.genres {
		if otherID != id && other.Name == name {
			return nil, catalog.Conflictf("genre %q already exists", name)
		}
	}
	genre.Name = name
	copied := *genre
	return &copied, nil
}

func (s *memGenres) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.genres[id]; !ok {
		return false, nil
	}
	delete(s.db.genres, id)
	return true, nil
}

type memReviews struct{ db *memDB }

func (s *memReviews) Get(_ context.Context, userID, bookID uuid.UUID) (*catalog.Review, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	review, ok := s.db.reviews[pairKey{userID, bookID}]
	if !ok {
		return nil, catalog.NotFoundf("review by user %s for book %s", userID, bookID)
	}
	copied := *review
	return &copied, nil
}

func (s *memReviews) ListByBook(_ context.Context, bookID uuid.UUID) ([]catalog.Review, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	reviews := make([]catalog.Review, 0)
	for key, review := range s.db.reviews {
		if key.bookID == bookID {
			reviews = append(reviews, *review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *memReviews) ListByUser(_ context.Context, userID uuid.UUID) ([]catalog.Review, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	reviews := make([]catalog.Review, 0)
	for key, review := range s.db.reviews {
		if key.userID == userID {
			reviews = append(reviews, *review)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].CreatedAt.Before(reviews[j].CreatedAt) })
	return reviews, nil
}

func (s *memReviews) Exists(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.reviews[pairKey{userID, bookID}]
	return ok, nil
}

func (s *memReviews) Create(_ context.Context, review *catalog.Review) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{review.UserID, review.BookID}
	if _, ok := s.db.reviews[key]; ok {
		return catalog.Conflictf("user %s already reviewed book %s", review.UserID, review.BookID)
	}
	copied := *review
	s.db.reviews[key] = &copied
	return nil
}

func (s *memReviews) Update(_ context.Context, userID, bookID uuid.UUID, patch catalog.ReviewPatch) (*catalog.Review, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	review, ok := s.db.reviews[pairKey{userID, bookID}]
	if !ok {
		return nil, catalog.NotFoundf("review by user %s for book %s", userID, bookID)
	}
	if patch.Text != nil {
		review.Text = *patch.Text
	}
	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	copied := *review
	return &copied, nil
}

func (s *memReviews) Delete(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{userID, bookID}
	if _, ok := s.db.reviews[key]; !ok {
		return false, nil
	}
	delete(s.db.reviews, key)
	return true, nil
}

type memFavourites struct{ db *memDB }

func (s *memFavourites) ListByUser(_ context.Context, userID uuid.UUID) ([]catalog.Favourite, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	favs := make([]catalog.Favourite, 0)
	for key, fav := range s.db.favourites {
		if key.userID == userID {
			favs = append(favs, fav)
		}
	}
	sort.Slice(favs, func(i, j int) bool { return favs[i].BookID.String() < favs[j].BookID.String() })
	return favs, nil
}

func (s *memFavourites) Exists(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.favourites[pairKey{userID, bookID}]
	return ok, nil
}

func (s *memFavourites) Create(_ context.Context, fav *catalog.Favourite) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{fav.UserID, fav.BookID}
	if _, ok := s.db.favourites[key]; ok {
		return catalog.Conflictf("book %s is already a favourite of user %s", fav.BookID, fav.UserID)
	}
	s.db.favourites[key] = *fav
	return nil
}

func (s *memFavourites) Delete(_ context.Context, userID, bookID uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := pairKey{userID, bookID}
	if _, ok := s.db.favourites[key]; !ok {
		return false, nil
	}
	delete(s.db.favourites, key)
	return true, nil
}

type memRoles struct{ db *memDB }

func (s *memRoles) GetByID(_ context.Context, id uuid.UUID) (*catalog.RoleRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	role, ok := s.db.roles[id]
	if !ok {
		return nil, catalog.NotFoundf("role %s", id)
	}
	copied := *role
	return &copied, nil
}

func (s *memRoles) List(_ context.Context) ([]catalog.RoleRecord, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	roles := make([]catalog.RoleRecord, 0, len(s.db.roles))
	for _, role := range s.db.roles {
		roles = append(roles, *role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (s *memRoles) Create(_ context.Context, role *catalog.RoleRecord) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.roles {
		if existing.Name == role.Name {
			return catalog.Conflictf("role %q already exists", role.Name)
		}
	}
	copied := *role
	s.db.roles[role.ID] = &copied
	return nil
}

func (s *memRoles) Update(_ context.Context, id uuid.UUID, permissions map[string]bool) (*catalog.RoleRecord, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	role, ok := s.db.roles[id]
	if !ok {
		return nil, catalog.NotFoundf("role %s", id)
	}
	role.Permissions = permissions
	copied := *role
	return &copied, nil
}

func (s *memRoles) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.roles[id]; !ok {
		return false, nil
	}
	delete(s.db.roles, id)
	return true, nil
}

// window applies limit/offset pagination to a sorted slice.
func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// recordingNotifier captures Enqueue calls instead of delivering.
type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

type notifyCall struct {
	reviewerID uuid.UUID
	bookID     uuid.UUID
}

func (n *recordingNotifier) Enqueue(reviewerID, bookID uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, notifyCall{reviewerID: reviewerID, bookID: bookID})
	return nil
}

func (n *recordingNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

const testTokenSecret = "test-secret-0123456789abcdef"

// testEnv wires a full server against the in-memory database.
type testEnv struct {
	t        *testing.T
	db       *memDB
	issuer   *auth.TokenIssuer
	notifier *recordingNotifier
	server   *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	issuer := auth.NewTokenIssuer(testTokenSecret, time.Hour)
	notifier := &recordingNotifier{}
	return &testEnv{
		t:        t,
		db:       db,
		issuer:   issuer,
		notifier: notifier,
		server:   NewServer(db.stores(), issuer, notifier, nil),
	}
}

// do performs a request against the server. An empty token leaves the
// request anonymous.
func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

// seedUser inserts an account directly and issues a token for it. The
// stored hash is not a real bcrypt hash, so seeded accounts cannot log
// in; tests of the login path register through the API instead.
func (e *testEnv) seedUser(username string, role catalog.Role) (catalog.User, string) {
	e.t.Helper()
	now := time.Now()
	user := catalog.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "seeded",
		IsActive:     true,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	e.db.mu.Lock()
	e.db.users[user.ID] = &user
	e.db.mu.Unlock()

	token, err := e.issuer.Issue(auth.Identity{UserID: user.ID, Role: role})
	require.NoError(e.t, err)
	return user, token
}

func (e *testEnv) seedAuthor(userID uuid.UUID) catalog.Author {
	e.t.Helper()
	author := catalog.Author{ID: uuid.New(), UserID: userID, CreatedAt: time.Now()}
	e.db.mu.Lock()
	e.db.authors[author.ID] = &author
	e.db.mu.Unlock()
	return author
}

func (e *testEnv) seedBook(authorID uuid.UUID, title string) catalog.Book {
	e.t.Helper()
	book := catalog.Book{
		ID:         uuid.New(),
		Title:      title,
		FilePath:   "/books/" + title + ".epub",
		UploadDate: time.Now(),
		AuthorID:   authorID,
	}
	e.db.mu.Lock()
	e.db.books[book.ID] = &book
	e.db.mu.Unlock()
	return book
}

func (e *testEnv) seedGenre(name string) catalog.Genre {
	e.t.Helper()
	genre := catalog.Genre{ID: uuid.New(), Name: name}
	e.db.mu.Lock()
	e.db.genres[genre.ID] = &genre
	e.db.mu.Unlock()
	return genre
}

func (e *testEnv) seedReview(userID, bookID uuid.UUID, rating int) catalog.Review {
	e.t.Helper()
	review := catalog.Review{
		UserID:    userID,
		BookID:    bookID,
		Text:      "seeded review",
		Rating:    rating,
		CreatedAt: time.Now(),
	}
	e.db.mu.Lock()
	e.db.reviews[pairKey{userID, bookID}] = &review
	e.db.mu.Unlock()
	return review
}

func (e *testEnv) seedFavourite(userID, bookID uuid.UUID) catalog.Favourite {
	e.t.Helper()
	fav := catalog.Favourite{UserID: userID, BookID: bookID}
	e.db.mu.Lock()
	e.db.favourites[pairKey{userID, bookID}] = fav
	e.db.mu.Unlock()
	return fav
}

func strptr(s string) *string { return &s }

func intptr(i int) *int { return &i }
