package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	infraevent "github.com/erp/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM.
// It lives alongside the other procurement-domain repositories because a PO
// is created from an approved PurchaseRequest and is read by the Three-Way
// Matcher and the Receipt confirmation flow, both procurement concerns.
type GormPurchaseOrderRepository struct {
	db         *gorm.DB
	serializer *infraevent.EventSerializer
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository.
func NewGormPurchaseOrderRepository(db *gorm.DB, serializer *infraevent.EventSerializer) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db, serializer: serializer}
}

func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var po trade.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *GormPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var po trade.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *GormPurchaseOrderRepository) FindByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*trade.PurchaseOrder, error) {
	var po trade.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND po_number = ?", tenantID, poNumber).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (r *GormPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormPurchaseOrderRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status trade.PurchaseOrderStatus, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND status = ?", tenantID, status)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormPurchaseOrderRepository) FindByPr(ctx context.Context, tenantID, prID uuid.UUID) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND pr_id = ?", tenantID, prID).Find(&orders).Error
	return orders, err
}

func (r *GormPurchaseOrderRepository) FindPendingReceipt(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Items").
		Where("tenant_id = ? AND status IN ?", tenantID, []trade.PurchaseOrderStatus{
			trade.PurchaseOrderStatusIssued,
			trade.PurchaseOrderStatusAcknowledged,
			trade.PurchaseOrderStatusPartiallyFulfilled,
		})
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(order).Error
}

func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	result := r.lockedUpdate(r.db.WithContext(ctx), order)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "purchase order was modified by another transaction")
	}
	return nil
}

// SaveWithLockAndEvents persists the optimistic-locked row update and the
// order's line items, then writes its accepted domain events to the
// transactional outbox in the same transaction (mirrors
// GormPurchaseRequestRepository.SaveWithLockAndEvents).
func (r *GormPurchaseOrderRepository) SaveWithLockAndEvents(ctx context.Context, order *trade.PurchaseOrder, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := r.lockedUpdate(tx, order)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "purchase order was modified by another transaction")
		}

		for i := range order.Items {
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}

		if len(events) == 0 {
			return nil
		}
		entries := make([]*shared.OutboxEntry, 0, len(events))
		for _, event := range events {
			payload, err := r.serializer.Serialize(event)
			if err != nil {
				return err
			}
			entries = append(entries, shared.NewOutboxEntry(order.TenantID, event, payload))
		}
		return infraevent.NewGormOutboxRepository(tx).Save(ctx, entries...)
	})
}

func (r *GormPurchaseOrderRepository) lockedUpdate(db *gorm.DB, order *trade.PurchaseOrder) *gorm.DB {
	return db.
		Model(&trade.PurchaseOrder{}).
		Where("id = ? AND version = ?", order.ID, order.Version-1).
		Updates(map[string]interface{}{
			"status":                 order.Status,
			"total_cents":            order.TotalCents,
			"issued_at":              order.IssuedAt,
			"expected_delivery_date": order.ExpectedDeliveryDate,
			"cancelled_at":           order.CancelledAt,
			"cancel_reason":          order.CancelReason,
			"version":                order.Version,
			"updated_at":             order.UpdatedAt,
		})
}

func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&trade.PurchaseOrder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&trade.PurchaseOrder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (r *GormPurchaseOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status trade.PurchaseOrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
		Where("tenant_id = ? AND status = ?", tenantID, status).
		Count(&count).Error
	return count, err
}

func (r *GormPurchaseOrderRepository) CountByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).
		Count(&count).Error
	return count, err
}

func (r *GormPurchaseOrderRepository) CountPendingReceipt(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
		Where("tenant_id = ? AND status IN ?", tenantID, []trade.PurchaseOrderStatus{
			trade.PurchaseOrderStatusIssued,
			trade.PurchaseOrderStatusAcknowledged,
			trade.PurchaseOrderStatusPartiallyFulfilled,
		}).
		Count(&count).Error
	return count, err
}

func (r *GormPurchaseOrderRepository) ExistsByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
		Where("tenant_id = ? AND po_number = ?", tenantID, poNumber).
		Count(&count).Error
	return count > 0, err
}

// GeneratePoNumber generates a unique PO number for a tenant.
// Format: PO-YYYY-NNNNN (e.g., PO-2026-00001).
func (r *GormPurchaseOrderRepository) GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("PO-%d-", year)

	var last trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("tenant_id = ? AND po_number LIKE ?", tenantID, prefix+"%").
		Order("po_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.PoNumber != "" {
		parts := strings.Split(last.PoNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
