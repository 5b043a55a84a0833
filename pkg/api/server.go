package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/middleware"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// Notifier enqueues a review notification for asynchronous delivery.
// Implemented by tasks.Dispatcher.
type Notifier interface {
	Enqueue(reviewerID, bookID uuid.UUID) error
}

// Stores bundles the repositories the API serves from.
type Stores struct {
	Users      storage.UserRepository
	Authors    storage.AuthorRepository
	Books      storage.BookRepository
	Genres     storage.GenreRepository
	Reviews    storage.ReviewRepository
	Favourites storage.FavouriteRepository
	Roles      storage.RoleRepository
}

// Server represents our API server
type Server struct {
	router   *mux.Router
	stores   Stores
	checker  *rbac.Checker
	issuer   *auth.TokenIssuer
	notifier Notifier
	logger   *observability.Logger

	authHandlers      *AuthHandlers
	userHandlers      *UserHandlers
	authorHandlers    *AuthorHandlers
	bookHandlers      *BookHandlers
	genreHandlers     *GenreHandlers
	reviewHandlers    *ReviewHandlers
	favouriteHandlers *FavouriteHandlers
	roleHandlers      *RoleHandlers
}

// NewServer creates a new API server. The notifier may be nil, in which
// case review creation skips enqueueing (useful in tests).
func NewServer(stores Stores, issuer *auth.TokenIssuer, notifier Notifier, logger *observability.Logger) *Server {
	checker := rbac.NewChecker()

	s := &Server{
		router:   mux.NewRouter(),
		stores:   stores,
		checker:  checker,
		issuer:   issuer,
		notifier: notifier,
		logger:   logger,
	}

	s.authHandlers = NewAuthHandlers(stores.Users, issuer)
	s.userHandlers = NewUserHandlers(stores.Users, checker)
	s.authorHandlers = NewAuthorHandlers(stores.Authors, checker)
	s.bookHandlers = NewBookHandlers(stores.Books, stores.Authors, checker)
	s.genreHandlers = NewGenreHandlers(stores.Genres, checker)
	s.reviewHandlers = NewReviewHandlers(stores.Reviews, stores.Books, checker, notifier, logger)
	s.favouriteHandlers = NewFavouriteHandlers(stores.Favourites, stores.Books, checker)
	s.roleHandlers = NewRoleHandlers(stores.Roles, checker)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes. Reads of books, genres and
// authors are public; everything else requires a bearer token.
func (s *Server) setupRoutes() {
	authMW := middleware.NewAuthMiddleware(s.issuer, false)

	public := s.router.NewRoute().Subrouter()
	protected := s.router.NewRoute().Subrouter()
	protected.Use(authMW.Handler)

	s.authHandlers.RegisterRoutes(public)
	s.userHandlers.RegisterRoutes(protected)
	s.authorHandlers.RegisterRoutes(public, protected)
	s.bookHandlers.RegisterRoutes(public, protected)
	s.genreHandlers.RegisterRoutes(public, protected)
	s.reviewHandlers.RegisterRoutes(public, protected)
	s.favouriteHandlers.RegisterRoutes(protected)
	s.roleHandlers.RegisterRoutes(protected)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router so callers can attach extra
// middleware (rate limiting, tracing) around the whole API.
func (s *Server) Router() *mux.Router {
	return s.router
}

// caller extracts the authenticated principal from the request context.
func caller(r *http.Request) (rbac.Caller, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		return rbac.Caller{}, false
	}
	return rbac.Caller{UserID: identity.UserID, Role: identity.Role}, true
}
