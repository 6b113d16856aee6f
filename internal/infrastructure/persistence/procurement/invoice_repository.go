package procurement

import (
	"context"
	"errors"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements procurement.InvoiceRepository using GORM.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository.
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Invoice, error) {
	var inv procurement.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Invoice, error) {
	var invoices []procurement.Invoice
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *GormInvoiceRepository) FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Invoice, error) {
	var invoices []procurement.Invoice
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND po_id = ?", tenantID, poID).Find(&invoices).Error
	return invoices, err
}

// FindOpenByPo finds invoices linked to a PO that are still UPLOADED,
// EXCEPTION or DISPUTED — the set the three-way match
// re-runs against on every new Receipt confirmation (spec.md §4.7/§4.8).
func (r *GormInvoiceRepository) FindOpenByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Invoice, error) {
	var invoices []procurement.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND po_id = ? AND status IN ?", tenantID, poID, []procurement.InvoiceStatus{
			procurement.InvoiceStatusUploaded,
			procurement.InvoiceStatusException,
			procurement.InvoiceStatusDisputed,
		}).
		Find(&invoices).Error
	return invoices, err
}

func (r *GormInvoiceRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]procurement.Invoice, error) {
	var invoices []procurement.Invoice
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *GormInvoiceRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.InvoiceStatus, filter shared.Filter) ([]procurement.Invoice, error) {
	var invoices []procurement.Invoice
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND status = ?", tenantID, status)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *GormInvoiceRepository) Save(ctx context.Context, inv *procurement.Invoice) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(inv).Error
}

func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *procurement.Invoice) error {
	result := r.db.WithContext(ctx).
		Model(&procurement.Invoice{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version-1).
		Updates(map[string]interface{}{
			"status":              inv.Status,
			"ocr_status":          inv.OcrStatus,
			"match_status":        inv.MatchStatus,
			"match_exceptions":    inv.MatchExceptionsJSON,
			"dispute_reason":      inv.DisputeReason,
			"approved_payment_at": inv.ApprovedPaymentAt,
			"paid_at":             inv.PaidAt,
			"version":             inv.Version,
			"updated_at":          inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "invoice was modified by another transaction")
	}
	return nil
}

func (r *GormInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&procurement.Invoice{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Invoice{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (r *GormInvoiceRepository) ExistsByVendorAndNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Invoice{}).
		Where("tenant_id = ? AND vendor_id = ? AND invoice_number = ?", tenantID, vendorID, invoiceNumber).
		Count(&count).Error
	return count > 0, err
}

var _ procurement.InvoiceRepository = (*GormInvoiceRepository)(nil)
