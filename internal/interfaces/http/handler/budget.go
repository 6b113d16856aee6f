package handler

import (
	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetHandler handles departmental budget endpoints. Reservation,
// release and commit are driven internally by the PR and invoice
// lifecycles, not exposed as standalone endpoints here.
type BudgetHandler struct {
	BaseHandler
	budgets *procurementapp.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgets *procurementapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets}
}

// CreateBudgetRequest is the request body for opening a departmental budget.
type CreateBudgetRequest struct {
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	FiscalYear   int    `json:"fiscal_year" binding:"required"`
	Quarter      int    `json:"quarter" binding:"required,min=1,max=4"`
	TotalCents   int64  `json:"total_cents" binding:"required,gt=0"`
}

// Create opens a new departmental quarterly budget.
func (h *BudgetHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	departmentID, err := uuid.Parse(req.DepartmentID)
	if err != nil {
		h.BadRequest(c, "Invalid department ID")
		return
	}

	budget, err := h.budgets.Create(c.Request.Context(), tenantID, departmentID, req.FiscalYear, req.Quarter, req.TotalCents)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, budget)
}

// GetByID returns a single budget.
func (h *BudgetHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID")
		return
	}

	budget, err := h.budgets.Get(c.Request.Context(), tenantID, budgetID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, budget)
}

// List returns a paginated budget list.
func (h *BudgetHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	budgets, total, err := h.budgets.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, budgets, total, filter.Page, filter.PageSize)
}
