package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RfqService orchestrates the pre-PR sourcing round: invite vendors,
// publish, collect bids, award, and close (SPEC_FULL.md §3.1, supplemented
// from original_source since spec.md's distillation omits multi-vendor
// sourcing entirely).
type RfqService struct {
	rfqs      procurement.RfqRepository
	vendors   procurement.VendorRepository
	auditLogs procurement.AuditLogRepository
}

// NewRfqService creates a new RfqService.
func NewRfqService(rfqs procurement.RfqRepository, vendors procurement.VendorRepository, auditLogs procurement.AuditLogRepository) *RfqService {
	return &RfqService{rfqs: rfqs, vendors: vendors, auditLogs: auditLogs}
}

// Create opens a draft RFQ for a department's sourcing round.
func (s *RfqService) Create(ctx context.Context, tenantID uuid.UUID, rfqNumber string, departmentID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := procurement.NewRfq(tenantID, rfqNumber, departmentID)
	if err != nil {
		return nil, err
	}
	if err := s.rfqs.Save(ctx, rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

// Invite adds a vendor invite to a draft RFQ, verifying the vendor is active.
func (s *RfqService) Invite(ctx context.Context, tenantID uuid.UUID, rfqID, vendorID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	vendor, err := s.vendors.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor.Status != procurement.VendorStatusActive {
		return nil, shared.NewDomainError(shared.CodeVendorNotActive, "vendor must be active to invite to an rfq")
	}
	if rfq.Status != procurement.RfqStatusDraft {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "vendors can only be invited to a draft rfq")
	}
	rfq.Invites = append(rfq.Invites, procurement.RfqVendorInvite{
		ID:        uuid.New(),
		RfqID:     rfq.ID,
		VendorID:  vendorID,
		InvitedAt: time.Now(),
	})
	if err := s.rfqs.Save(ctx, rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

// Publish transitions DRAFT -> OPEN.
func (s *RfqService) Publish(ctx context.Context, tenantID, actorID uuid.UUID, rfqID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(rfq.Status)}

	if err := rfq.Publish(); err != nil {
		return nil, err
	}
	if err := s.rfqs.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, rfq, "publish", before)
	return rfq, nil
}

// RecordBid appends a vendor's total bid against an open RFQ.
func (s *RfqService) RecordBid(ctx context.Context, tenantID uuid.UUID, rfqID, vendorID uuid.UUID, totalCents int64, notes string) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != procurement.RfqStatusOpen {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "bids can only be recorded against an open rfq")
	}
	rfq.Bids = append(rfq.Bids, procurement.RfqBid{
		ID:          uuid.New(),
		RfqID:       rfq.ID,
		VendorID:    vendorID,
		TotalCents:  totalCents,
		Notes:       notes,
		SubmittedAt: time.Now(),
	})
	if err := s.rfqs.Save(ctx, rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

// Award transitions OPEN -> AWARDED, selecting the winning vendor's bid.
func (s *RfqService) Award(ctx context.Context, tenantID, actorID uuid.UUID, rfqID, vendorID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(rfq.Status)}

	if err := rfq.Award(vendorID); err != nil {
		return nil, err
	}
	if err := s.rfqs.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, rfq, "award", before)
	return rfq, nil
}

// LinkAwardedPo records the PO seeded from this RFQ's award, called once
// the caller has created that PO against the awarded vendor.
func (s *RfqService) LinkAwardedPo(ctx context.Context, tenantID uuid.UUID, rfqID, poID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	rfq.LinkAwardedPo(poID)
	if err := s.rfqs.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

// Close transitions AWARDED -> CLOSED.
func (s *RfqService) Close(ctx context.Context, tenantID, actorID uuid.UUID, rfqID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(rfq.Status)}

	if err := rfq.Close(); err != nil {
		return nil, err
	}
	if err := s.rfqs.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, rfq, "close", before)
	return rfq, nil
}

// Cancel transitions any non-terminal status to CANCELLED.
func (s *RfqService) Cancel(ctx context.Context, tenantID, actorID uuid.UUID, rfqID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(rfq.Status)}

	if err := rfq.Cancel(); err != nil {
		return nil, err
	}
	if err := s.rfqs.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, rfq, "cancel", before)
	return rfq, nil
}

// Get loads an RFQ by id within its tenant.
func (s *RfqService) Get(ctx context.Context, tenantID, rfqID uuid.UUID) (*procurement.Rfq, error) {
	return s.rfqs.FindByIDForTenant(ctx, tenantID, rfqID)
}

// List returns a filtered, paginated RFQ list for the tenant along with
// the total count of RFQs matching the filter.
func (s *RfqService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Rfq, int64, error) {
	rfqs, err := s.rfqs.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.rfqs.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return rfqs, total, nil
}

func (s *RfqService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, rfq *procurement.Rfq, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(rfq.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, rfq.ID, action, "Rfq", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
