package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/application/identity"
)

// UserHandler handles account administration
type UserHandler struct {
	BaseHandler
	users *identity.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *identity.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns every user
// GET /users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, users)
}

// Get returns one user
// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateProfile replaces name and telephone
// PUT /users/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateProfileRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangeRole switches a user between tenant and manager
// PUT /users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.ChangeRoleRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// AssignApartment moves a tenant in, or out with a null apartment_id
// PUT /users/:id/apartment
func (h *UserHandler) AssignApartment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.AssignApartmentRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.AssignApartment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateManagedBuildings replaces the buildings a manager manages
// PUT /users/:id/buildings
func (h *UserHandler) UpdateManagedBuildings(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateManagedBuildingsRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.UpdateManagedBuildings(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete removes a user and everything hanging off the account
// DELETE /users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
