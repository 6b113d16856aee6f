package procurement

import (
	"context"
	"testing"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockBudgetRepository struct {
	mock.Mock
}

func (m *mockBudgetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Budget, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Budget), args.Error(1)
}

func (m *mockBudgetRepository) FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*procurement.Budget, error) {
	args := m.Called(ctx, tenantID, departmentID, fiscalYear, quarter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Budget), args.Error(1)
}

func (m *mockBudgetRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Budget, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.Budget), args.Error(1)
}

func (m *mockBudgetRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBudgetRepository) Save(ctx context.Context, b *procurement.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBudgetRepository) CheckAndReserve(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int, entityType procurement.ReservationEntityType, entityID uuid.UUID, amountCents int64) (*procurement.BudgetReservation, int64, error) {
	args := m.Called(ctx, tenantID, departmentID, fiscalYear, quarter, entityType, entityID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*procurement.BudgetReservation), args.Get(1).(int64), args.Error(2)
}

func (m *mockBudgetRepository) ReleaseReservation(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	args := m.Called(ctx, tenantID, entityType, entityID)
	return args.Error(0)
}

func (m *mockBudgetRepository) CommitSpent(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	args := m.Called(ctx, tenantID, entityType, entityID)
	return args.Error(0)
}

type mockBudgetReservationRepository struct {
	mock.Mock
}

func (m *mockBudgetReservationRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) (*procurement.BudgetReservation, error) {
	args := m.Called(ctx, tenantID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.BudgetReservation), args.Error(1)
}

func (m *mockBudgetReservationRepository) FindByBudget(ctx context.Context, tenantID, budgetID uuid.UUID) ([]procurement.BudgetReservation, error) {
	args := m.Called(ctx, tenantID, budgetID)
	return args.Get(0).([]procurement.BudgetReservation), args.Error(1)
}

func TestBudgetService_Reserve_Success(t *testing.T) {
	budgets := new(mockBudgetRepository)
	reservations := new(mockBudgetReservationRepository)
	svc := NewBudgetService(budgets, reservations)

	tenantID := uuid.New()
	departmentID := uuid.New()
	prID := uuid.New()
	budgetID := uuid.New()

	reservation, err := procurement.NewBudgetReservation(tenantID, budgetID, procurement.ReservationEntityPR, prID, 50000)
	assert.NoError(t, err)

	budgets.On("CheckAndReserve", mock.Anything, tenantID, departmentID, 2026, 2, procurement.ReservationEntityPR, prID, int64(50000)).
		Return(reservation, int64(100000), nil)

	result, err := svc.Reserve(context.Background(), tenantID, departmentID, 2026, 2, procurement.ReservationEntityPR, prID, 50000)

	assert.NoError(t, err)
	assert.Equal(t, reservation.ID, result.ID)
	budgets.AssertExpectations(t)
}

func TestBudgetService_Reserve_ExceedsBudget_AttachesDetail(t *testing.T) {
	budgets := new(mockBudgetRepository)
	reservations := new(mockBudgetReservationRepository)
	svc := NewBudgetService(budgets, reservations)

	tenantID := uuid.New()
	departmentID := uuid.New()
	prID := uuid.New()

	domainErr := shared.NewDomainError(shared.CodeBudgetExceeded, "would exceed budget")
	budgets.On("CheckAndReserve", mock.Anything, tenantID, departmentID, 2026, 2, procurement.ReservationEntityPR, prID, int64(500000)).
		Return(nil, int64(10000), domainErr)

	_, err := svc.Reserve(context.Background(), tenantID, departmentID, 2026, 2, procurement.ReservationEntityPR, prID, 500000)

	assert.Error(t, err)
	de, ok := err.(*shared.DomainErrorWithDetail)
	assert.True(t, ok)
	assert.Equal(t, shared.CodeBudgetExceeded, de.Code)
	assert.Equal(t, int64(10000), de.Detail["available_cents"])
	assert.Equal(t, int64(500000), de.Detail["requested_cents"])
}

func TestBudgetService_Create_RejectsNonPositiveTotal(t *testing.T) {
	budgets := new(mockBudgetRepository)
	reservations := new(mockBudgetReservationRepository)
	svc := NewBudgetService(budgets, reservations)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), 2026, 1, 0)

	assert.Error(t, err)
	budgets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBudgetService_Release_PropagatesRepositoryError(t *testing.T) {
	budgets := new(mockBudgetRepository)
	reservations := new(mockBudgetReservationRepository)
	svc := NewBudgetService(budgets, reservations)

	tenantID := uuid.New()
	prID := uuid.New()
	notFound := shared.NewDomainError(shared.CodeBudgetNotFound, "no reservation")

	budgets.On("ReleaseReservation", mock.Anything, tenantID, procurement.ReservationEntityPR, prID).Return(notFound)

	err := svc.Release(context.Background(), tenantID, procurement.ReservationEntityPR, prID)

	assert.Error(t, err)
	budgets.AssertExpectations(t)
}
