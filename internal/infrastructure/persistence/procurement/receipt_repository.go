package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormReceiptRepository implements procurement.ReceiptRepository using GORM.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository.
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

func (r *GormReceiptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Receipt, error) {
	var receipt procurement.Receipt
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

func (r *GormReceiptRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Receipt, error) {
	var receipts []procurement.Receipt
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *GormReceiptRepository) FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Receipt, error) {
	var receipts []procurement.Receipt
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND po_id = ?", tenantID, poID).Find(&receipts).Error
	return receipts, err
}

func (r *GormReceiptRepository) Save(ctx context.Context, receipt *procurement.Receipt) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(receipt).Error
}

func (r *GormReceiptRepository) SaveWithLock(ctx context.Context, receipt *procurement.Receipt) error {
	result := r.db.WithContext(ctx).
		Model(&procurement.Receipt{}).
		Where("id = ? AND version = ?", receipt.ID, receipt.Version-1).
		Updates(map[string]interface{}{
			"status":       receipt.Status,
			"cancelled_at": receipt.CancelledAt,
			"version":      receipt.Version,
			"updated_at":   receipt.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "receipt was modified by another transaction")
	}
	return nil
}

func (r *GormReceiptRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&procurement.Receipt{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormReceiptRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Receipt{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (r *GormReceiptRepository) ExistsByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Receipt{}).
		Where("tenant_id = ? AND receipt_number = ?", tenantID, receiptNumber).
		Count(&count).Error
	return count > 0, err
}

// GenerateReceiptNumber generates a unique receipt number for a tenant.
// Format: GRN-YYYY-NNNNN (e.g., GRN-2026-00001).
func (r *GormReceiptRepository) GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("GRN-%d-", year)

	var last procurement.Receipt
	err := r.db.WithContext(ctx).
		Model(&procurement.Receipt{}).
		Where("tenant_id = ? AND receipt_number LIKE ?", tenantID, prefix+"%").
		Order("receipt_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.ReceiptNumber != "" {
		parts := strings.Split(last.ReceiptNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// SumReceivedQuantityByPoLine aggregates quantity_received across all
// ReceiptLineItems belonging to CONFIRMED receipts referencing the given PO,
// grouped by po_line_item_id, in a single query (spec.md §4.8 step 2 —
// avoids N+1 loading of every receipt line individually).
func (r *GormReceiptRepository) SumReceivedQuantityByPoLine(ctx context.Context, tenantID, poID uuid.UUID) (map[uuid.UUID]int64, error) {
	type row struct {
		PoLineItemID uuid.UUID
		Total        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Table("receipt_line_items").
		Select("receipt_line_items.po_line_item_id AS po_line_item_id, SUM(receipt_line_items.quantity_received) AS total").
		Joins("JOIN receipts ON receipts.id = receipt_line_items.receipt_id").
		Where("receipts.tenant_id = ? AND receipts.po_id = ? AND receipts.status = ?", tenantID, poID, procurement.ReceiptStatusConfirmed).
		Group("receipt_line_items.po_line_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]int64, len(rows))
	for _, rw := range rows {
		result[rw.PoLineItemID] = rw.Total
	}
	return result, nil
}

var _ procurement.ReceiptRepository = (*GormReceiptRepository)(nil)
