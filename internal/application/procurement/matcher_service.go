package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// MatcherService is the effectful caller around the pure
// procurement.ThreeWayMatch function (spec.md §4.8): it loads PO lines,
// aggregates received quantities, loads invoice lines, invokes the matcher,
// then persists the verdict into the Invoice and records one audit entry.
type MatcherService struct {
	invoices  procurement.InvoiceRepository
	orders    trade.PurchaseOrderRepository
	receipts  procurement.ReceiptRepository
	auditLogs procurement.AuditLogRepository
	tolerance procurement.MatchTolerance
}

// NewMatcherService creates a new MatcherService with the spec's default tolerance.
func NewMatcherService(invoices procurement.InvoiceRepository, orders trade.PurchaseOrderRepository, receipts procurement.ReceiptRepository, auditLogs procurement.AuditLogRepository) *MatcherService {
	return &MatcherService{
		invoices:  invoices,
		orders:    orders,
		receipts:  receipts,
		auditLogs: auditLogs,
		tolerance: procurement.DefaultMatchTolerance,
	}
}

// SetTolerance overrides the default {2.0%, 1000 cents} tolerance configuration.
func (s *MatcherService) SetTolerance(t procurement.MatchTolerance) {
	s.tolerance = t
}

// MatchInvoice runs the three-way match for an invoice against its linked
// PO and persists the result. Invoices with no linked PO are not
// three-way-match candidates (procurement.Invoice.HasPo).
func (s *MatcherService) MatchInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, actorID uuid.UUID) (*procurement.MatchResult, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.HasPo() {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "invoice has no linked purchase order to match against")
	}

	po, err := s.orders.FindByIDForTenant(ctx, tenantID, *inv.PoID)
	if err != nil {
		return nil, err
	}

	received, err := s.receipts.SumReceivedQuantityByPoLine(ctx, tenantID, po.ID)
	if err != nil {
		return nil, err
	}

	before := inv.Status
	result := procurement.ThreeWayMatch(po.Items, inv.Items, received, s.tolerance)

	if err := inv.RecordMatchResult(result.Status, result.Exceptions); err != nil {
		return nil, err
	}
	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}

	log, err := procurement.NewAuditLog(tenantID, actorID, inv.ID, "three_way_match", "Invoice",
		map[string]interface{}{"status": string(before)},
		map[string]interface{}{"status": string(inv.Status), "match_status": string(inv.MatchStatus)},
	)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}

	return &result, nil
}
