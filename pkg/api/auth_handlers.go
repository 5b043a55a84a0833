package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// AuthHandlers serves registration and login.
type AuthHandlers struct {
	users  storage.UserRepository
	issuer *auth.TokenIssuer
	mapper catalog.UserMapper
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(users storage.UserRepository, issuer *auth.TokenIssuer) *AuthHandlers {
	return &AuthHandlers{users: users, issuer: issuer}
}

// RegisterRoutes registers the auth routes on the public router
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.register).Methods("POST")
	router.HandleFunc("/auth/login", h.login).Methods("POST")
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	User        catalog.UserView `json:"user"`
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.ValidateAll(w,
		func() (bool, string) { return req.Username != "", "username is required" },
		func() (bool, string) { return req.Email != "", "email is required" },
		func() (bool, string) { return req.Password != "", "password is required" },
	) {
		return
	}

	exists, err := h.users.ExistsByUsernameOrEmail(r.Context(), req.Username, req.Email)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if exists {
		httputil.WriteTaxonomyError(w, catalog.Conflictf("username or email already registered"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	now := time.Now()
	user := catalog.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         catalog.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.Create(r.Context(), &user); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, h.mapper.External(user))
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		// Same answer for unknown user and bad password
		httputil.WriteTaxonomyError(w, catalog.Unauthorizedf("incorrect username or password"))
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		httputil.WriteTaxonomyError(w, catalog.Unauthorizedf("incorrect username or password"))
		return
	}
	if !user.IsActive {
		httputil.WriteTaxonomyError(w, catalog.Unauthorizedf("account is deactivated"))
		return
	}

	token, err := h.issuer.Issue(auth.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        h.mapper.External(*user),
	})
}
