package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/application/property"
)

// ApartmentHandler handles apartments
type ApartmentHandler struct {
	BaseHandler
	apartments *property.ApartmentService
}

// NewApartmentHandler creates a new apartment handler
func NewApartmentHandler(apartments *property.ApartmentService) *ApartmentHandler {
	return &ApartmentHandler{apartments: apartments}
}

// ListByBuilding returns the apartments of a building
// GET /buildings/:id/apartments
func (h *ApartmentHandler) ListByBuilding(c *gin.Context) {
	buildingID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	apartments, err := h.apartments.ListByBuilding(c.Request.Context(), buildingID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apartments)
}

// Create adds an apartment to a building
// POST /buildings/:id/apartments
func (h *ApartmentHandler) Create(c *gin.Context) {
	buildingID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req property.CreateApartmentRequest
	if !h.bind(c, &req) {
		return
	}
	apartment, err := h.apartments.Create(c.Request.Context(), buildingID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, apartment)
}

// ListAvailable returns apartments without a tenant
// GET /apartments/available
func (h *ApartmentHandler) ListAvailable(c *gin.Context) {
	apartments, err := h.apartments.ListAvailable(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apartments)
}

// Get returns one apartment
// GET /apartments/:id
func (h *ApartmentHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	apartment, err := h.apartments.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apartment)
}

// Update changes number, area or floor. An area change recalculates draft invoices.
// PUT /apartments/:id
func (h *ApartmentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req property.UpdateApartmentRequest
	if !h.bind(c, &req) {
		return
	}
	apartment, err := h.apartments.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, apartment)
}

// Delete removes an apartment with its readings and invoices
// DELETE /apartments/:id
func (h *ApartmentHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.apartments.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
