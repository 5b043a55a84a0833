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

// RoleHandlers serves the role administration entity. Permission
// resolution itself uses the static hierarchy; these records exist for
// admins to annotate capability maps.
type RoleHandlers struct {
	roles   storage.RoleRepository
	checker *rbac.Checker
}

// NewRoleHandlers creates new role handlers
func NewRoleHandlers(roles storage.RoleRepository, checker *rbac.Checker) *RoleHandlers {
	return &RoleHandlers{roles: roles, checker: checker}
}

// RegisterRoutes registers the role routes on the protected router
func (h *RoleHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/roles", h.list).Methods("GET")
	router.HandleFunc("/roles", h.create).Methods("POST")
	router.HandleFunc("/roles/{id}", h.get).Methods("GET")
	router.HandleFunc("/roles/{id}", h.update).Methods("PUT")
	router.HandleFunc("/roles/{id}", h.delete).Methods("DELETE")
}

// RoleCreateRequest is the create payload.
type RoleCreateRequest struct {
	Name        catalog.Role    `json:"name"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// RoleUpdateRequest is the update payload.
type RoleUpdateRequest struct {
	Permissions map[string]bool `json:"permissions"`
}

func (h *RoleHandlers) authorize(w http.ResponseWriter, r *http.Request, action rbac.Action) bool {
	c, _ := caller(r)
	decision := h.checker.Authorize(rbac.Check{Caller: c, Action: action, Resource: rbac.ResourceRole})
	if err := decision.Err(); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return false
	}
	return true
}

// list handles GET /roles
func (h *RoleHandlers) list(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ActionList) {
		return
	}

	roles, err := h.roles.List(r.Context())
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, roles)
}

// get handles GET /roles/{id}
func (h *RoleHandlers) get(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ActionRead) {
		return
	}

	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	role, err := h.roles.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, role)
}

// create handles POST /roles
func (h *RoleHandlers) create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ActionCreate) {
		return
	}

	var req RoleCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !req.Name.Valid() {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("unknown role %q", req.Name))
		return
	}

	role := catalog.RoleRecord{
		ID:          uuid.New(),
		Name:        req.Name,
		Permissions: req.Permissions,
	}
	if err := h.roles.Create(r.Context(), &role); err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteCreated(w, role)
}

// update handles PUT /roles/{id}
func (h *RoleHandlers) update(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ActionUpdate) {
		return
	}

	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	var req RoleUpdateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Permissions == nil {
		httputil.WriteTaxonomyError(w, catalog.InvalidInputf("permissions are required"))
		return
	}

	role, err := h.roles.Update(r.Context(), id, req.Permissions)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}

	httputil.WriteSuccess(w, role)
}

// delete handles DELETE /roles/{id}
func (h *RoleHandlers) delete(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, rbac.ActionDelete) {
		return
	}

	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	deleted, err := h.roles.Delete(r.Context(), id)
	if err != nil {
		httputil.WriteTaxonomyError(w, err)
		return
	}
	if !deleted {
		httputil.WriteTaxonomyError(w, catalog.NotFoundf("role %s", id))
		return
	}

	httputil.WriteNoContent(w)
}
