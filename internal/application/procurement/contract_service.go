package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractService manages vendor master agreements. Expiry tracking itself
// is driven by a scheduled sweep over ContractRepository.FindExpiringWithin
// (spec.md §4.9a), not by this service.
type ContractService struct {
	contracts procurement.ContractRepository
	vendors   procurement.VendorRepository
}

// NewContractService creates a new ContractService.
func NewContractService(contracts procurement.ContractRepository, vendors procurement.VendorRepository) *ContractService {
	return &ContractService{contracts: contracts, vendors: vendors}
}

// Create records a new vendor master agreement.
func (s *ContractService) Create(ctx context.Context, tenantID, vendorID uuid.UUID, contractNumber string, effective, expiry time.Time, ceilingCents int64) (*procurement.Contract, error) {
	if _, err := s.vendors.FindByIDForTenant(ctx, tenantID, vendorID); err != nil {
		return nil, err
	}
	contract, err := procurement.NewContract(tenantID, vendorID, contractNumber, effective, expiry, ceilingCents)
	if err != nil {
		return nil, err
	}
	if err := s.contracts.Save(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

// Get loads a contract by id within its tenant.
func (s *ContractService) Get(ctx context.Context, tenantID, contractID uuid.UUID) (*procurement.Contract, error) {
	return s.contracts.FindByIDForTenant(ctx, tenantID, contractID)
}

// List returns a filtered, paginated contract list for the tenant along
// with the total count of contracts matching the filter.
func (s *ContractService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Contract, int64, error) {
	contracts, err := s.contracts.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.contracts.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}

// Terminate ends a contract ahead of its natural expiry.
func (s *ContractService) Terminate(ctx context.Context, tenantID, contractID uuid.UUID) (*procurement.Contract, error) {
	contract, err := s.contracts.FindByIDForTenant(ctx, tenantID, contractID)
	if err != nil {
		return nil, err
	}
	if err := contract.Terminate(); err != nil {
		return nil, err
	}
	if err := s.contracts.Save(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}
