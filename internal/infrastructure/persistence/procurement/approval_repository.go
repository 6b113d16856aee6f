package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormApprovalRepository implements procurement.ApprovalRepository using GORM.
type GormApprovalRepository struct {
	db *gorm.DB
}

// NewGormApprovalRepository creates a new GormApprovalRepository.
func NewGormApprovalRepository(db *gorm.DB) *GormApprovalRepository {
	return &GormApprovalRepository{db: db}
}

func (r *GormApprovalRepository) FindChainForEntity(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityID uuid.UUID) (procurement.ApprovalChain, error) {
	var steps []procurement.Approval
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("approval_level ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return procurement.ApprovalChain(steps), nil
}

// FindChainsForEntities batch-loads approval chains for a list of entities in
// a single query, keyed by entity id (spec.md §4.2 "batch loaders").
func (r *GormApprovalRepository) FindChainsForEntities(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityIDs []uuid.UUID) (map[uuid.UUID]procurement.ApprovalChain, error) {
	result := make(map[uuid.UUID]procurement.ApprovalChain)
	if len(entityIDs) == 0 {
		return result, nil
	}

	var steps []procurement.Approval
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id IN ?", tenantID, entityType, entityIDs).
		Order("approval_level ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}

	for _, step := range steps {
		result[step.EntityID] = append(result[step.EntityID], step)
	}
	return result, nil
}

func (r *GormApprovalRepository) FindPendingOlderThan(ctx context.Context, tenantID uuid.UUID, age time.Duration) ([]procurement.Approval, error) {
	var steps []procurement.Approval
	cutoff := time.Now().Add(-age)
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND created_at < ?", tenantID, procurement.ApprovalStatusPending, cutoff).
		Find(&steps).Error
	return steps, err
}

// FindAllPendingOlderThan supports the cross-tenant approval-timeout sweep
// job (spec.md §4.9b), run by a background worker rather than a tenant
// request.
func (r *GormApprovalRepository) FindAllPendingOlderThan(ctx context.Context, age time.Duration) ([]procurement.Approval, error) {
	var steps []procurement.Approval
	cutoff := time.Now().Add(-age)
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", procurement.ApprovalStatusPending, cutoff).
		Find(&steps).Error
	return steps, err
}

func (r *GormApprovalRepository) SaveChain(ctx context.Context, chain []*procurement.Approval) error {
	if len(chain) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, step := range chain {
			if err := tx.Create(step).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormApprovalRepository) Save(ctx context.Context, a *procurement.Approval) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *GormApprovalRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Approval, error) {
	var a procurement.Approval
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
