package handler

import (
	"time"

	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles vendor master agreement endpoints.
type ContractHandler struct {
	BaseHandler
	contracts *procurementapp.ContractService
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(contracts *procurementapp.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// CreateContractRequest is the request body for recording a new contract.
type CreateContractRequest struct {
	VendorID       string    `json:"vendor_id" binding:"required,uuid"`
	ContractNumber string    `json:"contract_number" binding:"required,max=100"`
	Effective      time.Time `json:"effective" binding:"required"`
	Expiry         time.Time `json:"expiry" binding:"required"`
	CeilingCents   int64     `json:"ceiling_cents" binding:"required,gt=0"`
}

// Create records a new vendor master agreement.
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), tenantID, vendorID, req.ContractNumber, req.Effective, req.Expiry, req.CeilingCents)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, contract)
}

// GetByID returns a single contract.
func (h *ContractHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, contract)
}

// List returns a paginated contract list.
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	contracts, total, err := h.contracts.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, contracts, total, filter.Page, filter.PageSize)
}

// Terminate ends a contract ahead of its natural expiry.
func (h *ContractHandler) Terminate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	contract, err := h.contracts.Terminate(c.Request.Context(), tenantID, contractID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, contract)
}
