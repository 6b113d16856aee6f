package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// ReceiptLineInput is a single received line when opening a draft receipt
// against a PO (spec.md §4.7 Receipt).
type ReceiptLineInput struct {
	PoLineItemID     uuid.UUID
	QuantityReceived int64
	Condition        procurement.LineCondition
}

// ReceiptService orchestrates goods-receipt confirmation (spec.md §4.7):
// confirming a Receipt applies each received line to the parent PO (driving
// its ReceivedQuantity/fulfillment-status), then re-runs the three-way
// match for every invoice still open against that PO, since newly-received
// quantity can turn a prior QTY_MISMATCH exception into a match.
type ReceiptService struct {
	receipts  procurement.ReceiptRepository
	orders    trade.PurchaseOrderRepository
	invoices  procurement.InvoiceRepository
	matcher   *MatcherService
	auditLogs procurement.AuditLogRepository
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(receipts procurement.ReceiptRepository, orders trade.PurchaseOrderRepository, invoices procurement.InvoiceRepository, matcher *MatcherService, auditLogs procurement.AuditLogRepository) *ReceiptService {
	return &ReceiptService{receipts: receipts, orders: orders, invoices: invoices, matcher: matcher, auditLogs: auditLogs}
}

// Create opens a DRAFT receipt against a PO, validating each line's
// quantity against the referenced PO line's remaining quantity.
func (s *ReceiptService) Create(ctx context.Context, tenantID, receiverID uuid.UUID, poID uuid.UUID, receiptDate time.Time, lines []ReceiptLineInput) (*procurement.Receipt, error) {
	order, err := s.orders.FindByIDForTenant(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}
	if !order.CanReceive() {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "purchase order is not in a receivable status")
	}

	receiptNumber, err := s.receipts.GenerateReceiptNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	receipt, err := procurement.NewReceipt(tenantID, receiptNumber, poID, receiverID, receiptDate)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		poLine := order.GetLine(line.PoLineItemID)
		if poLine == nil {
			return nil, shared.NewDomainError("ITEM_NOT_FOUND", "purchase order line not found")
		}
		if line.QuantityReceived > poLine.RemainingQuantity() {
			return nil, shared.NewDomainError("QUANTITY_EXCEEDED", "received quantity exceeds the line's remaining quantity")
		}
		if _, err := receipt.AddItem(line.PoLineItemID, line.QuantityReceived, line.Condition); err != nil {
			return nil, err
		}
	}

	if err := s.receipts.Save(ctx, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Confirm transitions DRAFT -> CONFIRMED, applies each line to the parent
// PO, and re-runs the three-way match for every invoice still open against
// that PO.
func (s *ReceiptService) Confirm(ctx context.Context, tenantID, actorID uuid.UUID, receiptID uuid.UUID) (*procurement.Receipt, error) {
	receipt, err := s.receipts.FindByIDForTenant(ctx, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(receipt.Status)}

	if err := receipt.Confirm(); err != nil {
		return nil, err
	}
	if err := s.receipts.SaveWithLock(ctx, receipt); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByIDForTenant(ctx, tenantID, receipt.PoID)
	if err != nil {
		return nil, err
	}
	for _, line := range receipt.Items {
		if err := order.ApplyReceiptLine(line.PoLineItemID, line.QuantityReceived); err != nil {
			return nil, err
		}
	}
	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	if err := s.orders.SaveWithLockAndEvents(ctx, order, events); err != nil {
		return nil, err
	}

	openInvoices, err := s.invoices.FindOpenByPo(ctx, tenantID, order.ID)
	if err != nil {
		return nil, err
	}
	for _, inv := range openInvoices {
		if _, err := s.matcher.MatchInvoice(ctx, tenantID, inv.ID, actorID); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, tenantID, actorID, receipt, "confirm", before)
	return receipt, nil
}

// Cancel cancels a receipt. Lines already applied to the PO are not
// reversed — cancellation is for correcting a receipt logged in error
// before its downstream effects are trusted, not for undoing a confirmed
// goods movement (spec.md §4.7 carries no Receipt -> PO reversal operation).
func (s *ReceiptService) Cancel(ctx context.Context, tenantID, actorID uuid.UUID, receiptID uuid.UUID) (*procurement.Receipt, error) {
	receipt, err := s.receipts.FindByIDForTenant(ctx, tenantID, receiptID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(receipt.Status)}

	if err := receipt.Cancel(); err != nil {
		return nil, err
	}
	if err := s.receipts.SaveWithLock(ctx, receipt); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, receipt, "cancel", before)
	return receipt, nil
}

// Get loads a receipt by id within its tenant.
func (s *ReceiptService) Get(ctx context.Context, tenantID, receiptID uuid.UUID) (*procurement.Receipt, error) {
	return s.receipts.FindByIDForTenant(ctx, tenantID, receiptID)
}

// List returns a filtered, paginated receipt list for the tenant along
// with the total count of receipts matching the filter.
func (s *ReceiptService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Receipt, int64, error) {
	receipts, err := s.receipts.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.receipts.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (s *ReceiptService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, receipt *procurement.Receipt, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(receipt.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, receipt.ID, action, "Receipt", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
