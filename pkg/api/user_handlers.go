package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/catalog"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/rbac"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// UserHandlers serves user account administration.
type UserHandlers struct {
	users   storage.UserRepository
	checker *rbac.Checker
	mapper  catalog.UserMapper
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(users storage.UserRepository, checker *rbac.Checker) *UserHandlers {
	return &UserHandlers{users: users, checker: checker}
}

// RegisterRoutes registers the user routes on the protected router
func (h *UserHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.list).Methods("GET")
	router.HandleFunc("/users/me", h.updateSelf).Methods("PATCH")
	router.HandleFunc("/users/{id}", h.get).Methods("GET")
	router.HandleFunc("/users/{id}", h.updateAsAdmin).Methods("PATCH")
	router.HandleFunc("/users/{id}", h.delete).Methods("DELETE")
}

// UserSelfPatch is the payload a user may apply to their own account.
type UserSelfPatch struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UserAdminPatch is the payload an admin may apply to any account.
type UserAdminPatch struct {
	UserSelfPatch
	IsActive *bool         `json:"is_active,omitempty"`
	Role     *catalog.Role `json:"role,omitempty"`
}

// list handles GET /users
func (h *UserHandlers) list(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionList, Resource: rbac.ResourceUser})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

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

	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.ExternalAll(users))
}

// get handles GET /users/{id}
func (h *UserHandlers) get(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionRead, Resource: rbac.ResourceUser, OwnerID: id})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*user))
}

// updateSelf handles PATCH /users/me
func (h *UserHandlers) updateSelf(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)

	var req UserSelfPatch
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	patch, err := selfPatch(req)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), c.UserID, patch)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*user))
}

// updateAsAdmin handles PATCH /users/{id}
func (h *UserHandlers) updateAsAdmin(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionUpdate, Resource: rbac.ResourceUser, OwnerID: id})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	// Self-updates through this route get the admin field set only for
	// admins; a plain user reaches here only for their own id.
	if c.Role != catalog.RoleAdmin && c.UserID == id {
		h.updateSelf(w, r)
		return
	}

	var req UserAdminPatch
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	patch := catalog.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		IsActive: req.IsActive,
	}
	hash, err := hashedPatchPassword(req.Password)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	patch.PasswordHash = hash
	if req.Role != nil {
		if !req.Role.Valid() {
			httputil.WriteTaxonomyError(w, catalog.InvalidInputf("unknown role %q", *req.Role))
			return
		}
		patch.Role = req.Role
	}
	if patch.IsZero() {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("no fields to update"))
		return
	}

	user, err := h.users.Update(r.Context(), id, patch)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, h.mapper.External(*user))
}

// delete handles DELETE /users/{id}
func (h *UserHandlers) delete(w http.ResponseWriter, r *http.Request) {
	c, _ := caller(r)
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: rbac.ActionDelete, Resource: rbac.ResourceUser, OwnerID: id})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	deleted, err := h.users.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("user %s", id))
		return
	}

	httputil.WriteNoContent(w)
}

// selfPatch converts the payload into a repository patch, hashing a new
// password. An empty payload is rejected.
func selfPatch(req UserSelfPatch) (catalog.UserPatch, error) {
	patch := catalog.UserPatch{
		Username: req.Username,
		Email:    req.Email,
	}
	hash, err := hashedPatchPassword(req.Password)
	if err != nil {
		return catalog.UserPatch{}, err
	}
	patch.PasswordHash = hash
	if patch.IsZero() {
		return catalog.UserPatch{}, catalog.InvalidInputf("no fields to update")
	}
	return patch, nil
}

func hashedPatchPassword(password *string) (*string, error) {
	if password == nil {
		return nil, nil
	}
	if *password == "" {
		return nil, catalog.InvalidInputf("password cannot be empty")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return nil, err
	}
	return &hash, nil
}
