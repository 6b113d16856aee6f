package procurement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	infraevent "github.com/erp/backend/internal/infrastructure/event"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseRequestRepository implements procurement.PurchaseRequestRepository using GORM.
type GormPurchaseRequestRepository struct {
	db         *gorm.DB
	serializer *infraevent.EventSerializer
}

// NewGormPurchaseRequestRepository creates a new GormPurchaseRequestRepository.
// The serializer is used to write accepted domain events to the transactional
// outbox alongside the aggregate's row update (SaveWithLockAndEvents).
func NewGormPurchaseRequestRepository(db *gorm.DB, serializer *infraevent.EventSerializer) *GormPurchaseRequestRepository {
	return &GormPurchaseRequestRepository{db: db, serializer: serializer}
}

func (r *GormPurchaseRequestRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND id = ?", tenantID, id).First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

func (r *GormPurchaseRequestRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	var prs []procurement.PurchaseRequest
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&prs).Error; err != nil {
		return nil, err
	}
	return prs, nil
}

func (r *GormPurchaseRequestRepository) FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	var prs []procurement.PurchaseRequest
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND requester_id = ?", tenantID, requesterID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&prs).Error; err != nil {
		return nil, err
	}
	return prs, nil
}

func (r *GormPurchaseRequestRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.PrStatus, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	var prs []procurement.PurchaseRequest
	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND status = ?", tenantID, status)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&prs).Error; err != nil {
		return nil, err
	}
	return prs, nil
}

func (r *GormPurchaseRequestRepository) FindByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*procurement.PurchaseRequest, error) {
	var pr procurement.PurchaseRequest
	err := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ? AND pr_number = ?", tenantID, prNumber).First(&pr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pr, nil
}

func (r *GormPurchaseRequestRepository) Save(ctx context.Context, pr *procurement.PurchaseRequest) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(pr).Error
}

func (r *GormPurchaseRequestRepository) SaveWithLock(ctx context.Context, pr *procurement.PurchaseRequest) error {
	result := r.db.WithContext(ctx).
		Model(&procurement.PurchaseRequest{}).
		Where("id = ? AND version = ?", pr.ID, pr.Version-1).
		Updates(map[string]interface{}{
			"status":        pr.Status,
			"total_cents":   pr.TotalCents,
			"submitted_at":  pr.SubmittedAt,
			"approved_at":   pr.ApprovedAt,
			"rejected_at":   pr.RejectedAt,
			"reject_reason": pr.RejectReason,
			"version":       pr.Version,
			"updated_at":    pr.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "purchase request was modified by another transaction")
	}
	return nil
}

// SaveWithLockAndEvents persists the optimistic-locked row update and writes
// the accepted domain events to the transactional outbox in the same
// transaction, so a crash between the two can never leave one without the
// other (spec.md §4.7 state machine transitions are event-carrying).
func (r *GormPurchaseRequestRepository) SaveWithLockAndEvents(ctx context.Context, pr *procurement.PurchaseRequest, events []shared.DomainEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&procurement.PurchaseRequest{}).
			Where("id = ? AND version = ?", pr.ID, pr.Version-1).
			Updates(map[string]interface{}{
				"status":        pr.Status,
				"total_cents":   pr.TotalCents,
				"submitted_at":  pr.SubmittedAt,
				"approved_at":   pr.ApprovedAt,
				"rejected_at":   pr.RejectedAt,
				"reject_reason": pr.RejectReason,
				"version":       pr.Version,
				"updated_at":    pr.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "purchase request was modified by another transaction")
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
			entries = append(entries, shared.NewOutboxEntry(pr.TenantID, event, payload))
		}
		return infraevent.NewGormOutboxRepository(tx).Save(ctx, entries...)
	})
}

func (r *GormPurchaseRequestRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&procurement.PurchaseRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormPurchaseRequestRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{}).Where("tenant_id = ?", tenantID)
	err := query.Count(&count).Error
	return count, err
}

func (r *GormPurchaseRequestRepository) ExistsByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.PurchaseRequest{}).
		Where("tenant_id = ? AND pr_number = ?", tenantID, prNumber).
		Count(&count).Error
	return count > 0, err
}

// GeneratePrNumber generates a unique PR number for a tenant.
// Format: PR-YYYY-NNNNN (e.g., PR-2026-00001).
func (r *GormPurchaseRequestRepository) GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("PR-%d-", year)

	var last procurement.PurchaseRequest
	err := r.db.WithContext(ctx).
		Model(&procurement.PurchaseRequest{}).
		Where("tenant_id = ? AND pr_number LIKE ?", tenantID, prefix+"%").
		Order("pr_number DESC").
		First(&last).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && last.PrNumber != "" {
		parts := strings.Split(last.PrNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}
