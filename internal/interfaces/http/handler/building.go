package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/property"
)

// BuildingHandler handles buildings and their invoice listing
type BuildingHandler struct {
	BaseHandler
	buildings *property.BuildingService
	invoices  *billing.InvoiceService
}

// NewBuildingHandler creates a new building handler
func NewBuildingHandler(buildings *property.BuildingService, invoices *billing.InvoiceService) *BuildingHandler {
	return &BuildingHandler{buildings: buildings, invoices: invoices}
}

// List returns every building
// GET /buildings
func (h *BuildingHandler) List(c *gin.Context) {
	buildings, err := h.buildings.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, buildings)
}

// Create adds a building with its tariff
// POST /buildings
func (h *BuildingHandler) Create(c *gin.Context) {
	var req property.CreateBuildingRequest
	if !h.bind(c, &req) {
		return
	}
	building, err := h.buildings.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, building)
}

// Get returns one building
// GET /buildings/:id
func (h *BuildingHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	building, err := h.buildings.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, building)
}

// Update changes address, floors or tariff. A tariff change recalculates draft invoices.
// PUT /buildings/:id
func (h *BuildingHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req property.UpdateBuildingRequest
	if !h.bind(c, &req) {
		return
	}
	building, err := h.buildings.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, building)
}

// Delete removes a building with its apartments, readings and invoices
// DELETE /buildings/:id
func (h *BuildingHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.buildings.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Invoices lists the invoices of a building's apartments
// GET /buildings/:id/invoices
func (h *BuildingHandler) Invoices(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoices, err := h.invoices.ListByBuilding(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
