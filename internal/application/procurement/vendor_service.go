package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorService manages vendor onboarding and lifecycle transitions
// (spec.md §3 Vendor: DRAFT -> PENDING_REVIEW -> ACTIVE, with BLOCKED
// reachable from any other status and reversible back to ACTIVE).
type VendorService struct {
	vendors   procurement.VendorRepository
	auditLogs procurement.AuditLogRepository
}

// NewVendorService creates a new VendorService.
func NewVendorService(vendors procurement.VendorRepository, auditLogs procurement.AuditLogRepository) *VendorService {
	return &VendorService{vendors: vendors, auditLogs: auditLogs}
}

// Create onboards a new vendor in DRAFT status, enforcing tenant-scoped
// tax-id and email uniqueness.
func (s *VendorService) Create(ctx context.Context, tenantID, actorID uuid.UUID, legalName, taxID, email string) (*procurement.Vendor, error) {
	if exists, err := s.vendors.ExistsByTaxID(ctx, tenantID, taxID); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("DUPLICATE_TAX_ID", "a vendor with this tax id already exists")
	}
	if exists, err := s.vendors.ExistsByEmail(ctx, tenantID, email); err != nil {
		return nil, err
	} else if exists {
		return nil, shared.NewDomainError("DUPLICATE_EMAIL", "a vendor with this email already exists")
	}

	vendor, err := procurement.NewVendor(tenantID, legalName, taxID, email)
	if err != nil {
		return nil, err
	}
	if err := s.vendors.Save(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, vendor, "create", nil)
	return vendor, nil
}

// Get loads a vendor by id within its tenant.
func (s *VendorService) Get(ctx context.Context, tenantID, vendorID uuid.UUID) (*procurement.Vendor, error) {
	return s.vendors.FindByIDForTenant(ctx, tenantID, vendorID)
}

// List returns a filtered, paginated vendor list for the tenant along with
// the total count of vendors matching the filter (ignoring pagination).
func (s *VendorService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Vendor, int64, error) {
	vendors, err := s.vendors.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.vendors.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

// SubmitForReview moves a DRAFT vendor to PENDING_REVIEW.
func (s *VendorService) SubmitForReview(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*procurement.Vendor, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "submit_for_review", (*procurement.Vendor).SubmitForReview)
}

// Approve moves a PENDING_REVIEW vendor to ACTIVE.
func (s *VendorService) Approve(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*procurement.Vendor, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "approve", (*procurement.Vendor).Approve)
}

// Reactivate moves a BLOCKED vendor back to ACTIVE.
func (s *VendorService) Reactivate(ctx context.Context, tenantID, actorID, vendorID uuid.UUID) (*procurement.Vendor, error) {
	return s.transition(ctx, tenantID, actorID, vendorID, "reactivate", (*procurement.Vendor).Reactivate)
}

// Block halts sourcing against a vendor (compliance hold, risk escalation).
func (s *VendorService) Block(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, reason string) (*procurement.Vendor, error) {
	vendor, err := s.vendors.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(vendor.Status)}
	if err := vendor.Block(reason); err != nil {
		return nil, err
	}
	if err := s.vendors.SaveWithLock(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, vendor, "block", before)
	return vendor, nil
}

func (s *VendorService) transition(ctx context.Context, tenantID, actorID, vendorID uuid.UUID, action string, fn func(*procurement.Vendor) error) (*procurement.Vendor, error) {
	vendor, err := s.vendors.FindByIDForTenant(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}
	before := map[string]interface{}{"status": string(vendor.Status)}
	if err := fn(vendor); err != nil {
		return nil, err
	}
	if err := s.vendors.SaveWithLock(ctx, vendor); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, tenantID, actorID, vendor, action, before)
	return vendor, nil
}

func (s *VendorService) recordAudit(ctx context.Context, tenantID, actorID uuid.UUID, vendor *procurement.Vendor, action string, before map[string]interface{}) {
	if s.auditLogs == nil {
		return
	}
	after := map[string]interface{}{"status": string(vendor.Status)}
	log, err := procurement.NewAuditLog(tenantID, actorID, vendor.ID, action, "Vendor", before, after)
	if err == nil {
		_ = s.auditLogs.Save(ctx, log)
	}
}
