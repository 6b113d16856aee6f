package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseRequestLineInput is a single requested line when opening a draft
// purchase request (spec.md §4.7 PurchaseRequest).
type PurchaseRequestLineInput struct {
	Description    string
	Quantity       int64
	UnitPriceCents int64
}

// PurchaseRequestService orchestrates the PurchaseRequest state machine
// (spec.md §4.7): submission gates on a successful budget reservation and
// approval-chain construction; approval of the final step advances the PR
// to APPROVED and leaves the reservation held; rejection (of any step) or
// cancellation releases the reservation.
type PurchaseRequestService struct {
	requests  procurement.PurchaseRequestRepository
	budgets   *BudgetService
	approvals *ApprovalService
	auditLogs procurement.AuditLogRepository
}

// NewPurchaseRequestService creates a new PurchaseRequestService.
func NewPurchaseRequestService(requests procurement.PurchaseRequestRepository, budgets *BudgetService, approvals *ApprovalService, auditLogs procurement.AuditLogRepository) *PurchaseRequestService {
	return &PurchaseRequestService{requests: requests, budgets: budgets, approvals: approvals, auditLogs: auditLogs}
}

// Create opens a DRAFT purchase request with the given line items.
func (s *PurchaseRequestService) Create(ctx context.Context, tenantID, requesterID, departmentID uuid.UUID, lines []PurchaseRequestLineInput) (*procurement.PurchaseRequest, error) {
	prNumber, err := s.requests.GeneratePrNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	pr, err := procurement.NewPurchaseRequest(tenantID, prNumber, requesterID, departmentID)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if _, err := pr.AddItem(line.Description, line.Quantity, line.UnitPriceCents); err != nil {
			return nil, err
		}
	}

	if err := s.requests.Save(ctx, pr); err != nil {
		return nil, err
	}
	return pr, nil
}

// Submit transitions DRAFT -> PENDING, gated on a successful budget
// reservation and approval-chain construction. If the approval chain fails
// to build (e.g. no department manager), the reservation is released so the
// budget is never left holding capacity for a PR that never entered review.
func (s *PurchaseRequestService) Submit(ctx context.Context, tenantID, actorID uuid.UUID, prID uuid.UUID, fiscalYear, quarter int) (*procurement.PurchaseRequest, error) {
	pr, err := s.requests.FindByIDForTenant(ctx, tenantID, prID)
	if err != nil {
		return nil, err
	}

	before := map[string]interface{}{"status": string(pr.Status)}

	if err := pr.Submit(); err != nil {
		return nil, err
	}

	if _, err := s.budgets.Reserve(ctx, tenantID, pr.DepartmentID, fiscalYear, quarter, procurement.ReservationEntityPR, pr.ID, pr.TotalCents); err != nil {
		return nil, err
	}

	if _, err := s.approvals.BuildChain(ctx, tenantID, procurement.ApprovableEntityPR, pr.ID, pr.DepartmentID, pr.TotalCents); err != nil {
		_ = s.budgets.Release(ctx, tenantID, procurement.ReservationEntityPR, pr.ID)
		return nil, err
	}

	events := pr.GetDomainEvents()
	pr.ClearDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, pr, events); err != nil {
		_ = s.budgets.Release(ctx, tenantID, procurement.ReservationEntityPR, pr.ID)
		return nil, err
	}

	s.recordAudit(ctx, tenantID, actorID, pr, "submit", before)
	return pr, nil
}

// Approve processes one approval step for the request. If this was the
// chain's final step, the PR transitions PENDING -> APPROVED; the budget
// reservation stays COMMITTED until an invoice against the resulting PO is
// approved for payment.
func (s *PurchaseRequestService) Approve(ctx context.Context, tenantID, approverID uuid.UUID, prID uuid.UUID, comment string) (*procurement.PurchaseRequest, error) {
	pr, err := s.requests.FindByIDForTenant(ctx, tenantID, prID)
	if err != nil {
		return nil, err
	}
	if err := s.approvals.GuardSelfApproval(approverID, pr.RequesterID); err != nil {
		return nil, err
	}

	before := map[string]interface{}{"status": string(pr.Status)}

	result, err := s.approvals.ProcessApproval(ctx, tenantID, procurement.ApprovableEntityPR, pr.ID, approverID, true, comment)
	if err != nil {
		return nil, err
	}

	if !result.IsFinal {
		s.recordAudit(ctx, tenantID, approverID, pr, "approval_step", before)
		return pr, nil
	}

	if err := pr.Approve(); err != nil {
		return nil, err
	}

	events := pr.GetDomainEvents()
	pr.ClearDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, pr, events); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, approverID, pr, "approve", before)
	return pr, nil
}

// Reject processes a rejecting approval step: the chain's remaining steps
// are cancelled, the budget reservation is released, and the PR transitions
// PENDING -> REJECTED.
func (s *PurchaseRequestService) Reject(ctx context.Context, tenantID, approverID uuid.UUID, prID uuid.UUID, reason string) (*procurement.PurchaseRequest, error) {
	pr, err := s.requests.FindByIDForTenant(ctx, tenantID, prID)
	if err != nil {
		return nil, err
	}
	if err := s.approvals.GuardSelfApproval(approverID, pr.RequesterID); err != nil {
		return nil, err
	}

	before := map[string]interface{}{"status": string(pr.Status)}

	if _, err := s.approvals.ProcessApproval(ctx, tenantID, procurement.ApprovableEntityPR, pr.ID, approverID, false, reason); err != nil {
		return nil, err
	}

	if err := s.budgets.Release(ctx, tenantID, procurement.ReservationEntityPR, pr.ID); err != nil {
		return nil, err
	}
	if err := pr.Reject(reason); err != nil {
		return nil, err
	}

	events := pr.GetDomainEvents()
	pr.ClearDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, pr, events); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, approverID, pr, "reject", before)
	return pr, nil
}

// Cancel lets the requester retract a PENDING request, releasing its budget
// reservation. Unlike Reject, it does not touch the approval chain's rows:
// any remaining pending steps become moot once the PR itself is CANCELLED.
func (s *PurchaseRequestService) Cancel(ctx context.Context, tenantID, requesterID uuid.UUID, prID uuid.UUID) (*procurement.PurchaseRequest, error) {
	pr, err := s.requests.FindByIDForTenant(ctx, tenantID, prID)
	if err != nil {
		return nil, err
	}
	if pr.RequesterID != requesterID {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "only the requester may cancel their own purchase request")
	}

	before := map[string]interface{}{"status": string(pr.Status)}

	if err := pr.Cancel(); err != nil {
		return nil, err
	}
	if err := s.budgets.Release(ctx, tenantID, procurement.ReservationEntityPR, pr.ID); err != nil {
		return nil, err
	}

	events := pr.GetDomainEvents()
	pr.ClearDomainEvents()
	if err := s.requests.SaveWithLockAndEvents(ctx, pr, events); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenantID, requesterID, pr, "cancel", before)
	return pr, nil
}

// Get loads a purchase request by id within its tenant.
func (s *PurchaseRequestService) Get(ctx context.Context, tenantID, prID uuid.UUID) (*procurement.PurchaseRequest, error) {
	return s.requests.FindByIDForTenant(ctx, tenantID, prID)
}

// List returns a filtered, paginated purchase request list for the tenant
// along with the total count of requests matching the filter.
func (s *PurchaseRequestService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequest, int64, error) {
	prs, err := s.requests.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.requests.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return prs, total, nil
}

func (s *PurchaseRequestService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, pr *procurement.PurchaseRequest, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(pr.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, pr.ID, action, "PurchaseRequest", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
