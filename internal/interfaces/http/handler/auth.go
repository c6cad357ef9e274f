package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/identity"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles registration and token endpoints
type AuthHandler struct {
	BaseHandler
	users *identity.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *identity.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// MeResponse describes the caller. User is absent for administrators.
type MeResponse struct {
	Email string                 `json:"email"`
	Role  string                 `json:"role"`
	User  *identity.UserResponse `json:"user,omitempty"`
}

// Register creates a tenant account
// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterRequest
	if !h.bind(c, &req) {
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Login exchanges credentials for a token pair
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refresh rotates a refresh token
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if !h.bind(c, &req) {
		return
	}
	resp, err := h.users.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Logout revokes the presented access token and the optional refresh token
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req identity.LogoutRequest
	if c.Request.ContentLength > 0 && !h.bind(c, &req) {
		return
	}
	if err := h.users.Logout(c.Request.Context(), middleware.GetClaims(c), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the authenticated caller
// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp := MeResponse{Email: claims.Email, Role: claims.Role}
	if claims.UserID != "" {
		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			h.HandleError(c, identity.ErrTokenInvalid)
			return
		}
		user, err := h.users.Get(c.Request.Context(), id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.User = user
	}
	h.Success(c, resp)
}
