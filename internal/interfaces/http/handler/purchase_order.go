package handler

import (
	"time"

	procurementapp "github.com/erp/backend/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderHandler handles purchase-order lifecycle endpoints.
type PurchaseOrderHandler struct {
	BaseHandler
	orders *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler.
func NewPurchaseOrderHandler(orders *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// CreatePurchaseOrderRequest is the request body for creating a PO from an
// approved purchase request.
type CreatePurchaseOrderRequest struct {
	PrID     string `json:"pr_id" binding:"required,uuid"`
	VendorID string `json:"vendor_id" binding:"required,uuid"`
}

// IssuePurchaseOrderRequest is the request body for issuing a PO.
type IssuePurchaseOrderRequest struct {
	ExpectedDelivery *time.Time `json:"expected_delivery"`
}

// CancelPurchaseOrderRequest is the request body for cancelling a PO.
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Create issues a new purchase order from an approved purchase request.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
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

	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	prID, err := uuid.Parse(req.PrID)
	if err != nil {
		h.BadRequest(c, "Invalid purchase request ID")
		return
	}
	vendorID, err := uuid.Parse(req.VendorID)
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	order, err := h.orders.CreateFromPr(c.Request.Context(), tenantID, actorID, prID, vendorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, order)
}

// GetByID returns a single purchase order.
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// List returns a paginated purchase order list.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	filter := parseListFilter(c)
	orders, total, err := h.orders.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Issue transitions DRAFT -> ISSUED.
func (h *PurchaseOrderHandler) Issue(c *gin.Context) {
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
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	var req IssuePurchaseOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orders.Issue(c.Request.Context(), tenantID, actorID, orderID, req.ExpectedDelivery)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// Acknowledge transitions ISSUED -> ACKNOWLEDGED.
func (h *PurchaseOrderHandler) Acknowledge(c *gin.Context) {
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
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	order, err := h.orders.Acknowledge(c.Request.Context(), tenantID, actorID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel cancels the order from any non-terminal status.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
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
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	var req CancelPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), tenantID, actorID, orderID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}

// Close transitions FULFILLED -> CLOSED.
func (h *PurchaseOrderHandler) Close(c *gin.Context) {
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
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	order, err := h.orders.Close(c.Request.Context(), tenantID, actorID, orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, order)
}
