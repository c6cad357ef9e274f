package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/application/metering"
	"github.com/shopspring/decimal"
)

// ReadingBody is the JSON form of a meter reading
type ReadingBody struct {
	MeasurementDate string          `json:"measurement_date" binding:"required,datetime=2006-01-02"`
	Electricity     decimal.Decimal `json:"electricity"`
	ColdWater       decimal.Decimal `json:"cold_water"`
	HotWater        decimal.Decimal `json:"hot_water"`
	Heating         decimal.Decimal `json:"heating"`
}

func (b ReadingBody) toRequest() metering.ReadingRequest {
	return metering.ReadingRequest{
		MeasurementDate: parseDate(b.MeasurementDate),
		Electricity:     b.Electricity,
		ColdWater:       b.ColdWater,
		HotWater:        b.HotWater,
		Heating:         b.Heating,
	}
}

// ReadingHandler handles meter readings
type ReadingHandler struct {
	BaseHandler
	readings *metering.ReadingService
}

// NewReadingHandler creates a new reading handler
func NewReadingHandler(readings *metering.ReadingService) *ReadingHandler {
	return &ReadingHandler{readings: readings}
}

// ListByApartment returns the readings of an apartment
// GET /apartments/:id/readings
func (h *ReadingHandler) ListByApartment(c *gin.Context) {
	apartmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	readings, err := h.readings.ListByApartment(c.Request.Context(), apartmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, readings)
}

// Create records a reading and bills it on the draft invoice of its period
// POST /apartments/:id/readings
func (h *ReadingHandler) Create(c *gin.Context) {
	apartmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var body ReadingBody
	if !h.bind(c, &body) {
		return
	}
	reading, err := h.readings.Create(c.Request.Context(), apartmentID, body.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, reading)
}

// Mine returns the readings of the caller's apartment
// GET /readings/my
func (h *ReadingHandler) Mine(c *gin.Context) {
	email, _, ok := h.caller(c)
	if !ok {
		return
	}
	readings, err := h.readings.ListForTenant(c.Request.Context(), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, readings)
}

// Get returns one reading
// GET /readings/:id
func (h *ReadingHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	reading, err := h.readings.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reading)
}

// Update replaces a reading's values or date
// PUT /readings/:id
func (h *ReadingHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var body ReadingBody
	if !h.bind(c, &body) {
		return
	}
	reading, err := h.readings.Update(c.Request.Context(), id, body.toRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, reading)
}

// Delete removes a reading that is not billed on a confirmed invoice
// DELETE /readings/:id
func (h *ReadingHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.readings.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
