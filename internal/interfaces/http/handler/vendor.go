package handler

import (
	"context"

	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VendorHandler handles vendor onboarding and lifecycle endpoints.
type VendorHandler struct {
	BaseHandler
	vendors *procurementapp.VendorService
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(vendors *procurementapp.VendorService) *VendorHandler {
	return &VendorHandler{vendors: vendors}
}

// CreateVendorRequest is the request body for onboarding a vendor.
type CreateVendorRequest struct {
	LegalName string `json:"legal_name" binding:"required,min=1,max=200"`
	TaxID     string `json:"tax_id" binding:"required,min=1,max=50"`
	Email     string `json:"email" binding:"required,email,max=200"`
}

// BlockVendorRequest is the request body for blocking a vendor.
type BlockVendorRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// Create onboards a new vendor in DRAFT status.
// @Router /procurement/vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
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

	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	vendor, err := h.vendors.Create(c.Request.Context(), tenantID, actorID, req.LegalName, req.TaxID, req.Email)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, vendor)
}

// GetByID returns a single vendor.
// @Router /procurement/vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	vendor, err := h.vendors.Get(c.Request.Context(), tenantID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, vendor)
}

// List returns a paginated vendor list.
// @Router /procurement/vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	filter := parseListFilter(c)
	vendors, total, err := h.vendors.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, vendors, total, filter.Page, filter.PageSize)
}

// SubmitForReview moves a DRAFT vendor to PENDING_REVIEW.
// @Router /procurement/vendors/{id}/submit-for-review [post]
func (h *VendorHandler) SubmitForReview(c *gin.Context) {
	h.runTransition(c, h.vendors.SubmitForReview)
}

// Approve moves a PENDING_REVIEW vendor to ACTIVE.
// @Router /procurement/vendors/{id}/approve [post]
func (h *VendorHandler) Approve(c *gin.Context) {
	h.runTransition(c, h.vendors.Approve)
}

// Reactivate moves a BLOCKED vendor back to ACTIVE.
// @Router /procurement/vendors/{id}/reactivate [post]
func (h *VendorHandler) Reactivate(c *gin.Context) {
	h.runTransition(c, h.vendors.Reactivate)
}

// Block halts sourcing against a vendor.
// @Router /procurement/vendors/{id}/block [post]
func (h *VendorHandler) Block(c *gin.Context) {
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
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	var req BlockVendorRequest
	_ = c.ShouldBindJSON(&req)

	vendor, err := h.vendors.Block(c.Request.Context(), tenantID, actorID, vendorID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, vendor)
}

func (h *VendorHandler) runTransition(c *gin.Context, fn func(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*procurement.Vendor, error)) {
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
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	vendor, err := fn(c.Request.Context(), tenantID, actorID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, vendor)
}
