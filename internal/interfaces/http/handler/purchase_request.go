package handler

import (
	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseRequestHandler handles purchase-request lifecycle endpoints.
type PurchaseRequestHandler struct {
	BaseHandler
	requests  *procurementapp.PurchaseRequestService
	approvals *procurementapp.ApprovalService
}

// NewPurchaseRequestHandler creates a new PurchaseRequestHandler.
func NewPurchaseRequestHandler(requests *procurementapp.PurchaseRequestService, approvals *procurementapp.ApprovalService) *PurchaseRequestHandler {
	return &PurchaseRequestHandler{requests: requests, approvals: approvals}
}

// CreatePurchaseRequestLine is a single requested line in the create body.
type CreatePurchaseRequestLine struct {
	Description    string `json:"description" binding:"required,min=1,max=500"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,gt=0"`
}

// CreatePurchaseRequestRequest is the request body for opening a PR.
type CreatePurchaseRequestRequest struct {
	DepartmentID string                      `json:"department_id" binding:"required,uuid"`
	Lines        []CreatePurchaseRequestLine `json:"lines" binding:"required,min=1,dive"`
}

// SubmitPurchaseRequestRequest is the request body for submitting a PR.
type SubmitPurchaseRequestRequest struct {
	FiscalYear int `json:"fiscal_year" binding:"required"`
	Quarter    int `json:"quarter" binding:"required,min=1,max=4"`
}

// DecidePurchaseRequestRequest is the request body for approving/rejecting a PR.
type DecidePurchaseRequestRequest struct {
	Comment string `json:"comment" binding:"max=1000"`
}

// Create opens a DRAFT purchase request.
func (h *PurchaseRequestHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	requesterID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}

	var req CreatePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		h.BadRequest(c, "Invalid department ID")
		return
	}

	lines := make([]procurementapp.PurchaseRequestLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = procurementapp.PurchaseRequestLineInput{
			Description:    l.Description,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		}
	}

	pr, err := h.requests.Create(c.Request.Context(), tenantID, requesterID, departmentID, lines)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, pr)
}

// GetByID returns a single purchase request.
func (h *PurchaseRequestHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	pr, err := h.requests.Get(c.Request.Context(), tenantID, prID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, pr)
}

// List returns a paginated purchase request list.
func (h *PurchaseRequestHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	prs, total, err := h.requests.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, prs, total, filter.Page, filter.PageSize)
}

// Approvals returns the approval chain attached to a purchase request.
func (h *PurchaseRequestHandler) Approvals(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	chain, err := h.approvals.ChainForEntity(c.Request.Context(), tenantID, procurement.ApprovableEntityPR, prID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, chain)
}

// Submit transitions DRAFT -> PENDING.
func (h *PurchaseRequestHandler) Submit(c *gin.Context) {
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
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	var req SubmitPurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	pr, err := h.requests.Submit(c.Request.Context(), tenantID, actorID, prID, req.FiscalYear, req.Quarter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, pr)
}

// Approve records an approval decision on the current step, guarding against
// self-approval before delegating to the approval engine.
func (h *PurchaseRequestHandler) Approve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	var req DecidePurchaseRequestRequest
	_ = c.ShouldBindJSON(&req)

	pr, err := h.requests.Approve(c.Request.Context(), tenantID, approverID, prID, req.Comment)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, pr)
}

// Reject records a rejection on the current approval step.
func (h *PurchaseRequestHandler) Reject(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	var req DecidePurchaseRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	pr, err := h.requests.Reject(c.Request.Context(), tenantID, approverID, prID, req.Comment)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, pr)
}

// Cancel withdraws a purchase request before it completes its chain.
func (h *PurchaseRequestHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	requesterID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "user identity required")
		return
	}
	prID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}

	pr, err := h.requests.Cancel(c.Request.Context(), tenantID, requesterID, prID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, pr)
}
