package handler

import (
	"time"

	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceiptHandler handles goods-receipt endpoints.
type ReceiptHandler struct {
	BaseHandler
	receipts *procurementapp.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receipts *procurementapp.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// CreateReceiptLine is a single received line in the create body.
type CreateReceiptLine struct {
	PoLineItemID     string `json:"po_line_item_id" binding:"required,uuid"`
	QuantityReceived int64  `json:"quantity_received" binding:"required,gt=0"`
	Condition        string `json:"condition" binding:"required,oneof=GOOD DAMAGED PARTIAL"`
}

// CreateReceiptRequest is the request body for opening a draft receipt.
type CreateReceiptRequest struct {
	PoID        string              `json:"po_id" binding:"required,uuid"`
	ReceiptDate time.Time           `json:"receipt_date" binding:"required"`
	Lines       []CreateReceiptLine `json:"lines" binding:"required,min=1,dive"`
}

// Create opens a draft receipt against a purchase order.
func (h *ReceiptHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	receiverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}

	var req CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	poID, err := uuid.Parse(req.PoID)
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	lines := make([]procurementapp.ReceiptLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lineItemID, err := uuid.Parse(l.PoLineItemID)
		if err != nil {
			h.BadRequest(c, "Invalid purchase order line ID")
			return
		}
		lines[i] = procurementapp.ReceiptLineInput{
			PoLineItemID:     lineItemID,
			QuantityReceived: l.QuantityReceived,
			Condition:        procurement.LineCondition(l.Condition),
		}
	}

	receipt, err := h.receipts.Create(c.Request.Context(), tenantID, receiverID, poID, req.ReceiptDate, lines)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, receipt)
}

// GetByID returns a single receipt.
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.receipts.Get(c.Request.Context(), tenantID, receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}

// List returns a paginated receipt list.
func (h *ReceiptHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	receipts, total, err := h.receipts.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, receipts, total, filter.Page, filter.PageSize)
}

// Confirm transitions DRAFT -> CONFIRMED, applying received lines to the PO
// and re-running the three-way match for any invoice still open against it.
func (h *ReceiptHandler) Confirm(c *gin.Context) {
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
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.receipts.Confirm(c.Request.Context(), tenantID, actorID, receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Cancel cancels a receipt logged in error.
func (h *ReceiptHandler) Cancel(c *gin.Context) {
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
	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID")
		return
	}

	receipt, err := h.receipts.Cancel(c.Request.Context(), tenantID, actorID, receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, receipt)
}
