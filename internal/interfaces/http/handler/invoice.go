package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/domain/identity"
)

// IssueInvoiceBody is the JSON form of an invoice request
type IssueInvoiceBody struct {
	ApartmentID uuid.UUID `json:"apartment_id" binding:"required"`
	// IssueDate selects the billing period; today when empty
	IssueDate    string `json:"issue_date" binding:"omitempty,datetime=2006-01-02"`
	ManagerEmail string `json:"manager_email" binding:"omitempty,email"`
}

// InvoiceHandler handles invoices
type InvoiceHandler struct {
	BaseHandler
	invoices *billing.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *billing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Issue creates a draft invoice. A manager issuing without manager_email is recorded as the issuer.
// POST /invoices
func (h *InvoiceHandler) Issue(c *gin.Context) {
	email, role, ok := h.caller(c)
	if !ok {
		return
	}
	var body IssueInvoiceBody
	if !h.bind(c, &body) {
		return
	}
	req := billing.CreateInvoiceRequest{
		ApartmentID:  body.ApartmentID,
		IssueDate:    parseDate(body.IssueDate),
		ManagerEmail: body.ManagerEmail,
	}
	if req.ManagerEmail == "" && role == identity.RoleManager.String() {
		req.ManagerEmail = email
	}

	invoice, err := h.invoices.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Get returns one invoice with its snapshot
// GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateConfirmation confirms a draft invoice
// PUT /invoices/:id/confirmation
func (h *InvoiceHandler) UpdateConfirmation(c *gin.Context) {
	email, role, ok := h.caller(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billing.UpdateConfirmationRequest
	if !h.bind(c, &req) {
		return
	}
	if req.ManagerEmail == "" && role == identity.RoleManager.String() {
		req.ManagerEmail = email
	}
	invoice, err := h.invoices.UpdateConfirmation(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Pay marks an invoice as paid
// POST /invoices/:id/pay
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoices.PayInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete removes an invoice and releases its reading
// DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.invoices.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Mine lists the caller's invoices
// GET /invoices/my
func (h *InvoiceHandler) Mine(c *gin.Context) {
	email, _, ok := h.caller(c)
	if !ok {
		return
	}
	invoices, err := h.invoices.ListForTenant(c.Request.Context(), email)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}
