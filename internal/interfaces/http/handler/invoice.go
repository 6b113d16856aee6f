package handler

import (
	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InvoiceHandler handles vendor invoice endpoints.
type InvoiceHandler struct {
	BaseHandler
	invoices *procurementapp.InvoiceService
	matcher  *procurementapp.MatcherService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoices *procurementapp.InvoiceService, matcher *procurementapp.MatcherService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, matcher: matcher}
}

// UploadInvoiceLine is a single billed line in the upload body.
type UploadInvoiceLine struct {
	Description    string `json:"description" binding:"required,min=1,max=500"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,gt=0"`
}

// UploadInvoiceRequest is the request body for uploading a vendor invoice.
type UploadInvoiceRequest struct {
	InvoiceNumber string              `json:"invoice_number" binding:"required,max=100"`
	VendorID      string              `json:"vendor_id" binding:"required,uuid"`
	PoID          string              `json:"po_id" binding:"omitempty,uuid"`
	Currency      string              `json:"currency" binding:"required,len=3"`
	DocumentKey   string              `json:"document_key" binding:"max=500"`
	Lines         []UploadInvoiceLine `json:"lines" binding:"required,min=1,dive"`
}

// DisputeInvoiceRequest is the request body for disputing an invoice.
type DisputeInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Upload creates an invoice against a vendor, optionally linked to a PO.
func (h *InvoiceHandler) Upload(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req UploadInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}
	var poID *uuid.UUID
	if req.PoID != "" {
		parsed, err := uuid.Parse(req.PoID)
		if err != nil {
			h.BadRequest(c, "Invalid purchase order ID")
			return
		}
		poID = &parsed
	}

	lines := make([]procurementapp.InvoiceLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = procurementapp.InvoiceLineInput{
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		}
	}

	inv, err := h.invoices.Upload(c.Request.Context(), tenantID, req.InvoiceNumber, vendorID, poID, req.Currency, req.DocumentKey, lines)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, inv)
}

// GetByID returns a single invoice.
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoices.Get(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// List returns a paginated invoice list.
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	invoices, total, err := h.invoices.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// Dispute transitions EXCEPTION -> DISPUTED.
func (h *InvoiceHandler) Dispute(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req DisputeInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.invoices.Dispute(c.Request.Context(), tenantID, actorID, invoiceID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// Override transitions EXCEPTION|DISPUTED -> MATCHED via finance override.
func (h *InvoiceHandler) Override(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoices.Override(c.Request.Context(), tenantID, actorID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// ApproveForPayment transitions MATCHED -> APPROVED and commits the linked
// PR's budget reservation to spent.
func (h *InvoiceHandler) ApproveForPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoices.ApproveForPayment(c.Request.Context(), tenantID, actorID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// MarkPaid transitions APPROVED -> PAID.
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	inv, err := h.invoices.MarkPaid(c.Request.Context(), tenantID, actorID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, inv)
}

// Rematch re-runs the three-way match for an invoice against its linked PO,
// useful after a correcting receipt or PO amendment.
func (h *InvoiceHandler) Rematch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	result, err := h.matcher.MatchInvoice(c.Request.Context(), tenantID, invoiceID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
