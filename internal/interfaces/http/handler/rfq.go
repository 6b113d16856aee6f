package handler

import (
	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RfqHandler handles the pre-PR vendor sourcing round.
type RfqHandler struct {
	BaseHandler
	rfqs *procurementapp.RfqService
}

// NewRfqHandler creates a new RfqHandler.
func NewRfqHandler(rfqs *procurementapp.RfqService) *RfqHandler {
	return &RfqHandler{rfqs: rfqs}
}

// CreateRfqRequest is the request body for opening a draft RFQ.
type CreateRfqRequest struct {
	RfqNumber    string `json:"rfq_number" binding:"required,max=100"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

// InviteVendorRequest is the request body for inviting a vendor to an RFQ.
type InviteVendorRequest struct {
	VendorID string `json:"vendor_id" binding:"required,uuid"`
}

// RecordBidRequest is the request body for recording a vendor's bid.
type RecordBidRequest struct {
	VendorID   string `json:"vendor_id" binding:"required,uuid"`
	TotalCents int64  `json:"total_cents" binding:"required,gt=0"`
	Notes      string `json:"notes" binding:"max=1000"`
}

// AwardRfqRequest is the request body for awarding an RFQ to a vendor.
type AwardRfqRequest struct {
	VendorID string `json:"vendor_id" binding:"required,uuid"`
}

// Create opens a draft RFQ for a department's sourcing round.
func (h *RfqHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		h.BadRequest(c, "Invalid department ID")
		return
	}

	rfq, err := h.rfqs.Create(c.Request.Context(), tenantID, req.RfqNumber, departmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, rfq)
}

// GetByID returns a single RFQ.
func (h *RfqHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	rfq, err := h.rfqs.Get(c.Request.Context(), tenantID, rfqID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// List returns a paginated RFQ list.
func (h *RfqHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	rfqs, total, err := h.rfqs.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, rfqs, total, filter.Page, filter.PageSize)
}

// Invite adds a vendor invite to a draft RFQ.
func (h *RfqHandler) Invite(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	var req InviteVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	rfq, err := h.rfqs.Invite(c.Request.Context(), tenantID, rfqID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// Publish transitions DRAFT -> OPEN.
func (h *RfqHandler) Publish(c *gin.Context) {
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
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	rfq, err := h.rfqs.Publish(c.Request.Context(), tenantID, actorID, rfqID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// RecordBid appends a vendor's total bid against an open RFQ.
func (h *RfqHandler) RecordBid(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	var req RecordBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	rfq, err := h.rfqs.RecordBid(c.Request.Context(), tenantID, rfqID, vendorID, req.TotalCents, req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// Award transitions OPEN -> AWARDED, selecting the winning vendor's bid.
func (h *RfqHandler) Award(c *gin.Context) {
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
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	var req AwardRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	rfq, err := h.rfqs.Award(c.Request.Context(), tenantID, actorID, rfqID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// Close transitions AWARDED -> CLOSED.
func (h *RfqHandler) Close(c *gin.Context) {
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
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	rfq, err := h.rfqs.Close(c.Request.Context(), tenantID, actorID, rfqID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}

// Cancel transitions any non-terminal RFQ status to CANCELLED.
func (h *RfqHandler) Cancel(c *gin.Context) {
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
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rfq ID")
		return
	}

	rfq, err := h.rfqs.Cancel(c.Request.Context(), tenantID, actorID, rfqID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, rfq)
}
