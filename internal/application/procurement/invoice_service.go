package procurement

import (
	"context"
	"strings"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// InvoiceLineInput is a single billed line when uploading an invoice
// (spec.md §4.7 Invoice).
type InvoiceLineInput struct {
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

// InvoiceService orchestrates the Invoice state machine (spec.md §4.7):
// upload, the dispute/override/approve-for-payment/mark-paid transitions,
// and the budget commit that happens at payment approval — the PR's budget
// reservation (held since PR submission, never touched by PO creation or
// issue) is finally converted from COMMITTED to SPENT here.
type InvoiceService struct {
	invoices  procurement.InvoiceRepository
	orders    trade.PurchaseOrderRepository
	budgets   *BudgetService
	auditLogs procurement.AuditLogRepository
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(invoices procurement.InvoiceRepository, orders trade.PurchaseOrderRepository, budgets *BudgetService, auditLogs procurement.AuditLogRepository) *InvoiceService {
	return &InvoiceService{invoices: invoices, orders: orders, budgets: budgets, auditLogs: auditLogs}
}

// Upload creates an invoice against a vendor, optionally linked to a PO.
// OCR extraction and the first three-way match attempt are driven by
// background jobs (spec.md §4.9), not synchronously here.
func (s *InvoiceService) Upload(ctx context.Context, tenantID uuid.UUID, invoiceNumber string, vendorID uuid.UUID, poID *uuid.UUID, currency, documentKey string, lines []InvoiceLineInput) (*procurement.Invoice, error) {
	exists, err := s.invoices.ExistsByVendorAndNumber(ctx, tenantID, vendorID, strings.TrimSpace(invoiceNumber))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeDuplicateInvoiceNo, "an invoice with this number already exists for this vendor")
	}

	inv, err := procurement.NewInvoice(tenantID, invoiceNumber, vendorID, poID, currency, documentKey)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		if _, err := inv.AddItem(line.Description, line.Quantity, line.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := s.invoices.Save(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Dispute transitions EXCEPTION -> DISPUTED.
func (s *InvoiceService) Dispute(ctx context.Context, tenantID, actorID uuid.UUID, invoiceID uuid.UUID, reason string) (*procurement.Invoice, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(inv.Status)}

	if err := inv.Dispute(reason); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, inv, "dispute", before)
	return inv, nil
}

// Override transitions EXCEPTION|DISPUTED -> MATCHED via a single-actor
// finance override (spec.md §9 Open Question, resolved single-actor).
func (s *InvoiceService) Override(ctx context.Context, tenantID, actorID uuid.UUID, invoiceID uuid.UUID) (*procurement.Invoice, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(inv.Status)}

	if err := inv.Override(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, inv, "override", before)
	return inv, nil
}

// ApproveForPayment transitions MATCHED -> APPROVED and commits the
// underlying PR's budget reservation to spent, when the invoice is linked
// to a PO created from a PR.
func (s *InvoiceService) ApproveForPayment(ctx context.Context, tenantID, actorID uuid.UUID, invoiceID uuid.UUID) (*procurement.Invoice, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(inv.Status)}

	if err := inv.ApproveForPayment(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	if inv.HasPo() {
		order, err := s.orders.FindByIDForTenant(ctx, tenantID, *inv.PoID)
		if err == nil && order.PrID != nil {
			_ = s.budgets.CommitSpent(ctx, tenantID, procurement.ReservationEntityPR, *order.PrID)
		}
	}

	s.recordAudit(ctx, tenantID, actorID, inv, "approve_for_payment", before)
	return inv, nil
}

// MarkPaid transitions APPROVED -> PAID.
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, actorID uuid.UUID, invoiceID uuid.UUID) (*procurement.Invoice, error) {
	inv, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(inv.Status)}

	if err := inv.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, inv, "mark_paid", before)
	return inv, nil
}

// Get loads an invoice by id within its tenant.
func (s *InvoiceService) Get(ctx context.Context, tenantID, invoiceID uuid.UUID) (*procurement.Invoice, error) {
	return s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
}

// List returns a filtered, paginated invoice list for the tenant along
// with the total count of invoices matching the filter.
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Invoice, int64, error) {
	invoices, err := s.invoices.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (s *InvoiceService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, inv *procurement.Invoice, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(inv.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, inv.ID, action, "Invoice", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
