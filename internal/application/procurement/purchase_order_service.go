package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// PurchaseOrderLineInput is a single ordered line when creating a purchase
// order directly against a vendor (spec.md §4.7 PurchaseOrder).
type PurchaseOrderLineInput struct {
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

// PurchaseOrderService orchestrates the PurchaseOrder state machine
// (spec.md §4.7): creation (standalone or from an APPROVED PurchaseRequest,
// gated on the vendor being ACTIVE), issue/acknowledge/cancel/close, and
// every state-changing operation records one AuditLog entry.
type PurchaseOrderService struct {
	orders    trade.PurchaseOrderRepository
	requests  procurement.PurchaseRequestRepository
	vendors   procurement.VendorRepository
	budgets   *BudgetService
	auditLogs procurement.AuditLogRepository
}

// NewPurchaseOrderService creates a new PurchaseOrderService.
func NewPurchaseOrderService(orders trade.PurchaseOrderRepository, requests procurement.PurchaseRequestRepository, vendors procurement.VendorRepository, budgets *BudgetService, auditLogs procurement.AuditLogRepository) *PurchaseOrderService {
	return &PurchaseOrderService{orders: orders, requests: requests, vendors: vendors, budgets: budgets, auditLogs: auditLogs}
}

// CreateFromPr creates a purchase order against an APPROVED purchase
// request, copying its line items onto the new order. The vendor must be
// ACTIVE; the PR's approved budget reservation is left untouched here — it
// is committed to spent only when the resulting invoice is approved for
// payment (spec.md §4.5 "the budget reservation outlives PR approval,
// tracked against the PO/invoice that eventually spends it").
func (s *PurchaseOrderService) CreateFromPr(ctx context.Context, tenantID, actorID uuid.UUID, prID, vendorID uuid.UUID) (*trade.PurchaseOrder, error) {
	pr, err := s.requests.FindByIDForTenant(ctx, tenantID, prID)
	if err != nil {
		return nil, err
	}
	if pr.Status != procurement.PrStatusApproved {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "purchase order can only be created from an approved purchase request")
	}

	vendor, err := s.vendors.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status != procurement.VendorStatusActive {
		return nil, shared.NewDomainError(shared.CodeVendorNotActive, "vendor must be ACTIVE to receive a purchase order")
	}

	poNumber, err := s.orders.GeneratePoNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	order, err := trade.NewPurchaseOrder(tenantID, poNumber, vendorID, &pr.ID)
	if err != nil {
		return nil, err
	}
	for _, item := range pr.Items {
		if _, err := order.AddItem(item.Description, item.Quantity, item.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, order, "create_from_pr", map[string]interface{}{})
	return order, nil
}

// Issue transitions DRAFT -> ISSUED.
func (s *PurchaseOrderService) Issue(ctx context.Context, tenantID, actorID uuid.UUID, orderID uuid.UUID, expectedDelivery *time.Time) (*trade.PurchaseOrder, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(order.Status)}

	if err := order.Issue(expectedDelivery); err != nil {
		return nil, err
	}

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if err := s.orders.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, order, "issue", before)
	return order, nil
}

// Acknowledge transitions ISSUED -> ACKNOWLEDGED.
func (s *PurchaseOrderService) Acknowledge(ctx context.Context, tenantID, actorID uuid.UUID, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(order.Status)}

	if err := order.Acknowledge(); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, order, "acknowledge", before)
	return order, nil
}

// Cancel cancels the order from any non-terminal status, releasing the
// parent PR's budget reservation if one exists and has not yet been spent.
func (s *PurchaseOrderService) Cancel(ctx context.Context, tenantID, actorID uuid.UUID, orderID uuid.UUID, reason string) (*trade.PurchaseOrder, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(order.Status)}

	if err := order.Cancel(reason); err != nil {
		return nil, err
	}

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if err := s.orders.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}

	if order.PrID != nil {
		_ = s.budgets.Release(ctx, tenantID, procurement.ReservationEntityPR, *order.PrID)
	}

	s.recordAudit(ctx, tenantID, actorID, order, "cancel", before)
	return order, nil
}

// Close transitions FULFILLED -> CLOSED.
func (s *PurchaseOrderService) Close(ctx context.Context, tenantID, actorID uuid.UUID, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(order.Status)}

	if err := order.Close(); err != nil {
		return nil, err
	}
	if err := s.orders.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, order, "close", before)
	return order, nil
}

// Get loads a purchase order by id within its tenant.
func (s *PurchaseOrderService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	return s.orders.FindByIDForTenant(ctx, tenantID, orderID)
}

// List returns a filtered, paginated purchase order list for the tenant
// along with the total count of orders matching the filter.
func (s *PurchaseOrderService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, int64, error) {
	orders, err := s.orders.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orders.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *PurchaseOrderService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, order *trade.PurchaseOrder, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(order.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, order.ID, action, "PurchaseOrder", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
