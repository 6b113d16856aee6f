package handler

import (
	"github.com/erp/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ProcurementHandlers bundles every procurement-domain handler so the
// caller only has to construct and pass around one value when wiring routes.
type ProcurementHandlers struct {
	Vendors          *VendorHandler
	PurchaseRequests *PurchaseRequestHandler
	PurchaseOrders   *PurchaseOrderHandler
	Receipts         *ReceiptHandler
	Invoices         *InvoiceHandler
	Budgets          *BudgetHandler
	Rfqs             *RfqHandler
	Contracts        *ContractHandler
	Outbox           *OutboxHandler
}

// ProcurementRoutes builds the /procurement route tree: vendors,
// purchase-requests, purchase-orders, receipts, invoices, budgets, rfqs
// and contracts, each as a subgroup under a single auth-guarded group.
// idempotencyMiddleware is mounted only on the financially sensitive POST
// routes named by spec.md §4.3 (PR/PO/receipt/invoice creation, the PR
// approval decision and invoice payment approval).
func ProcurementRoutes(h *ProcurementHandlers, authMiddleware, rateLimitMiddleware, idempotencyMiddleware gin.HandlerFunc) *router.DomainGroup {
	root := router.NewDomainGroup("procurement", "/procurement")
	root.Use(authMiddleware, rateLimitMiddleware)

	vendors := root.Group("vendors", "/vendors")
	vendors.POST("", h.Vendors.Create)
	vendors.GET("", h.Vendors.List)
	vendors.GET("/:id", h.Vendors.GetByID)
	vendors.POST("/:id/submit-for-review", h.Vendors.SubmitForReview)
	vendors.POST("/:id/approve", h.Vendors.Approve)
	vendors.POST("/:id/reactivate", h.Vendors.Reactivate)
	vendors.POST("/:id/block", h.Vendors.Block)

	prs := root.Group("purchase_requests", "/purchase-requests")
	prs.POST("", idempotencyMiddleware, h.PurchaseRequests.Create)
	prs.GET("", h.PurchaseRequests.List)
	prs.GET("/:id", h.PurchaseRequests.GetByID)
	prs.GET("/:id/approvals", h.PurchaseRequests.Approvals)
	prs.POST("/:id/submit", h.PurchaseRequests.Submit)
	prs.POST("/:id/approve", idempotencyMiddleware, h.PurchaseRequests.Approve)
	prs.POST("/:id/reject", h.PurchaseRequests.Reject)
	prs.POST("/:id/cancel", h.PurchaseRequests.Cancel)

	pos := root.Group("purchase_orders", "/purchase-orders")
	pos.POST("", idempotencyMiddleware, h.PurchaseOrders.Create)
	pos.GET("", h.PurchaseOrders.List)
	pos.GET("/:id", h.PurchaseOrders.GetByID)
	pos.POST("/:id/issue", h.PurchaseOrders.Issue)
	pos.POST("/:id/acknowledge", h.PurchaseOrders.Acknowledge)
	pos.POST("/:id/cancel", h.PurchaseOrders.Cancel)
	pos.POST("/:id/close", h.PurchaseOrders.Close)

	receipts := root.Group("receipts", "/receipts")
	receipts.POST("", idempotencyMiddleware, h.Receipts.Create)
	receipts.GET("", h.Receipts.List)
	receipts.GET("/:id", h.Receipts.GetByID)
	receipts.POST("/:id/confirm", h.Receipts.Confirm)
	receipts.POST("/:id/cancel", h.Receipts.Cancel)

	invoices := root.Group("invoices", "/invoices")
	invoices.POST("", idempotencyMiddleware, h.Invoices.Upload)
	invoices.GET("", h.Invoices.List)
	invoices.GET("/:id", h.Invoices.GetByID)
	invoices.POST("/:id/dispute", h.Invoices.Dispute)
	invoices.POST("/:id/override", h.Invoices.Override)
	invoices.POST("/:id/approve-for-payment", idempotencyMiddleware, h.Invoices.ApproveForPayment)
	invoices.POST("/:id/mark-paid", h.Invoices.MarkPaid)
	invoices.POST("/:id/rematch", h.Invoices.Rematch)

	budgets := root.Group("budgets", "/budgets")
	budgets.POST("", h.Budgets.Create)
	budgets.GET("", h.Budgets.List)
	budgets.GET("/:id", h.Budgets.GetByID)

	rfqs := root.Group("rfqs", "/rfqs")
	rfqs.POST("", h.Rfqs.Create)
	rfqs.GET("", h.Rfqs.List)
	rfqs.GET("/:id", h.Rfqs.GetByID)
	rfqs.POST("/:id/invite", h.Rfqs.Invite)
	rfqs.POST("/:id/publish", h.Rfqs.Publish)
	rfqs.POST("/:id/bids", h.Rfqs.RecordBid)
	rfqs.POST("/:id/award", h.Rfqs.Award)
	rfqs.POST("/:id/close", h.Rfqs.Close)
	rfqs.POST("/:id/cancel", h.Rfqs.Cancel)

	contracts := root.Group("contracts", "/contracts")
	contracts.POST("", h.Contracts.Create)
	contracts.GET("", h.Contracts.List)
	contracts.GET("/:id", h.Contracts.GetByID)
	contracts.POST("/:id/terminate", h.Contracts.Terminate)

	// admin/outbox exposes the transactional outbox every procurement
	// aggregate writes domain events through, so stuck dead-letter
	// deliveries can be inspected and retried without direct DB access.
	outbox := root.Group("admin_outbox", "/admin/outbox")
	outbox.GET("/dead", h.Outbox.GetDeadLetterEntries)
	outbox.GET("/stats", h.Outbox.GetStats)
	outbox.GET("/:id", h.Outbox.GetEntry)
	outbox.POST("/:id/retry", h.Outbox.RetryDeadEntry)
	outbox.POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries)

	return root
}
