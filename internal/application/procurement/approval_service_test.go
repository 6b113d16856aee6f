package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backend/internal/domain/identity"
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockApprovalRepository struct {
	mock.Mock
}

func (m *mockApprovalRepository) FindChainForEntity(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityID uuid.UUID) (procurement.ApprovalChain, error) {
	args := m.Called(ctx, tenantID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(procurement.ApprovalChain), args.Error(1)
}

func (m *mockApprovalRepository) FindChainsForEntities(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityIDs []uuid.UUID) (map[uuid.UUID]procurement.ApprovalChain, error) {
	args := m.Called(ctx, tenantID, entityType, entityIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]procurement.ApprovalChain), args.Error(1)
}

func (m *mockApprovalRepository) FindPendingOlderThan(ctx context.Context, tenantID uuid.UUID, age time.Duration) ([]procurement.Approval, error) {
	args := m.Called(ctx, tenantID, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Approval), args.Error(1)
}

func (m *mockApprovalRepository) FindAllPendingOlderThan(ctx context.Context, age time.Duration) ([]procurement.Approval, error) {
	args := m.Called(ctx, age)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Approval), args.Error(1)
}

func (m *mockApprovalRepository) SaveChain(ctx context.Context, chain []*procurement.Approval) error {
	args := m.Called(ctx, chain)
	return args.Error(0)
}

func (m *mockApprovalRepository) Save(ctx context.Context, a *procurement.Approval) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockApprovalRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Approval, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Approval), args.Error(1)
}

type mockDepartmentRepository struct {
	mock.Mock
}

func (m *mockDepartmentRepository) Create(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}
func (m *mockDepartmentRepository) Update(ctx context.Context, dept *identity.Department) error {
	args := m.Called(ctx, dept)
	return args.Error(0)
}
func (m *mockDepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *mockDepartmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*identity.Department, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindDescendants(ctx context.Context, dept *identity.Department) ([]*identity.Department, error) {
	args := m.Called(ctx, dept)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindRootDepartments(ctx context.Context, tenantID uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) FindByManagerID(ctx context.Context, managerID uuid.UUID) ([]*identity.Department, error) {
	args := m.Called(ctx, managerID)
	return args.Get(0).([]*identity.Department), args.Error(1)
}
func (m *mockDepartmentRepository) CountByTenantID(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockDepartmentRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}
func (m *mockDepartmentRepository) GetAllDepartmentIDsInSubtree(ctx context.Context, departmentID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, departmentID)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *mockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
func (m *mockUserRepository) FindByPhone(ctx context.Context, phone string) (*identity.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
func (m *mockUserRepository) FindAll(ctx context.Context, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}
func (m *mockUserRepository) FindByRole(ctx context.Context, role identity.UserRole) ([]*identity.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]*identity.User), args.Error(1)
}
func (m *mockUserRepository) FindActiveByRoleInDepartment(ctx context.Context, role identity.UserRole, departmentID uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, role, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}
func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}
func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestApprovalService_BuildChain_RejectsDepartmentWithNoManager(t *testing.T) {
	approvals := new(mockApprovalRepository)
	departments := new(mockDepartmentRepository)
	users := new(mockUserRepository)
	svc := NewApprovalService(approvals, departments, users)

	departmentID := uuid.New()
	dept := &identity.Department{ManagerID: nil}
	departments.On("FindByID", mock.Anything, departmentID).Return(dept, nil)

	_, err := svc.BuildChain(context.Background(), uuid.New(), procurement.ApprovableEntityPR, uuid.New(), departmentID, 100000)

	assert.Error(t, err)
	approvals.AssertNotCalled(t, "SaveChain", mock.Anything, mock.Anything)
}

func TestApprovalService_BuildChain_SingleLevelUnderThreshold(t *testing.T) {
	approvals := new(mockApprovalRepository)
	departments := new(mockDepartmentRepository)
	users := new(mockUserRepository)
	svc := NewApprovalService(approvals, departments, users)

	departmentID := uuid.New()
	managerID := uuid.New()
	dept := &identity.Department{ManagerID: &managerID}
	departments.On("FindByID", mock.Anything, departmentID).Return(dept, nil)
	approvals.On("SaveChain", mock.Anything, mock.Anything).Return(nil)

	chain, err := svc.BuildChain(context.Background(), uuid.New(), procurement.ApprovableEntityPR, uuid.New(), departmentID, 100000)

	assert.NoError(t, err)
	assert.Len(t, chain, 1)
	assert.Equal(t, managerID, chain[0].ApproverID)
}

func TestApprovalService_BuildChain_EscalatesToFinanceHeadAboveThreshold(t *testing.T) {
	approvals := new(mockApprovalRepository)
	departments := new(mockDepartmentRepository)
	users := new(mockUserRepository)
	svc := NewApprovalService(approvals, departments, users)

	departmentID := uuid.New()
	managerID := uuid.New()
	financeHeadID := uuid.New()
	dept := &identity.Department{ManagerID: &managerID}
	financeHead := &identity.User{Username: "finance-head"}
	financeHead.ID = financeHeadID

	departments.On("FindByID", mock.Anything, departmentID).Return(dept, nil)
	users.On("FindActiveByRoleInDepartment", mock.Anything, identity.RoleFinanceHead, departmentID).Return(financeHead, nil)
	approvals.On("SaveChain", mock.Anything, mock.Anything).Return(nil)

	chain, err := svc.BuildChain(context.Background(), uuid.New(), procurement.ApprovableEntityPR, uuid.New(), departmentID, procurement.ThresholdFinanceHead)

	assert.NoError(t, err)
	assert.Len(t, chain, 2)
	assert.Equal(t, financeHeadID, chain[1].ApproverID)
}

func TestApprovalService_GuardSelfApproval(t *testing.T) {
	svc := NewApprovalService(nil, nil, nil)
	callerID := uuid.New()

	assert.Error(t, svc.GuardSelfApproval(callerID, callerID))
	assert.NoError(t, svc.GuardSelfApproval(callerID, uuid.New()))
}

func TestApprovalService_ProcessApproval_RejectsWrongApprover(t *testing.T) {
	approvals := new(mockApprovalRepository)
	svc := NewApprovalService(approvals, nil, nil)

	tenantID := uuid.New()
	entityID := uuid.New()
	approverID := uuid.New()
	step, err := procurement.NewApproval(tenantID, procurement.ApprovableEntityPR, entityID, 1, approverID)
	assert.NoError(t, err)
	chain := procurement.ApprovalChain{*step}

	approvals.On("FindChainForEntity", mock.Anything, tenantID, procurement.ApprovableEntityPR, entityID).Return(chain, nil)

	_, err = svc.ProcessApproval(context.Background(), tenantID, procurement.ApprovableEntityPR, entityID, uuid.New(), true, "")

	assert.Error(t, err)
	approvals.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestApprovalService_ProcessApproval_ApproveFinalStep(t *testing.T) {
	approvals := new(mockApprovalRepository)
	svc := NewApprovalService(approvals, nil, nil)

	tenantID := uuid.New()
	entityID := uuid.New()
	approverID := uuid.New()
	step, err := procurement.NewApproval(tenantID, procurement.ApprovableEntityPR, entityID, 1, approverID)
	assert.NoError(t, err)
	chain := procurement.ApprovalChain{*step}

	approvals.On("FindChainForEntity", mock.Anything, tenantID, procurement.ApprovableEntityPR, entityID).Return(chain, nil)
	approvals.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Approval")).Return(nil)

	result, err := svc.ProcessApproval(context.Background(), tenantID, procurement.ApprovableEntityPR, entityID, approverID, true, "looks good")

	assert.NoError(t, err)
	assert.True(t, result.IsFinal)
	assert.Nil(t, result.NextApprover)
	approvals.AssertExpectations(t)
}

func TestApprovalService_ProcessApproval_RejectCancelsRemainingSteps(t *testing.T) {
	approvals := new(mockApprovalRepository)
	svc := NewApprovalService(approvals, nil, nil)

	tenantID := uuid.New()
	entityID := uuid.New()
	approverID := uuid.New()
	step1, err := procurement.NewApproval(tenantID, procurement.ApprovableEntityPR, entityID, 1, approverID)
	assert.NoError(t, err)
	step2, err := procurement.NewApproval(tenantID, procurement.ApprovableEntityPR, entityID, 2, uuid.New())
	assert.NoError(t, err)
	chain := procurement.ApprovalChain{*step1, *step2}

	approvals.On("FindChainForEntity", mock.Anything, tenantID, procurement.ApprovableEntityPR, entityID).Return(chain, nil)
	approvals.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Approval")).Return(nil)

	result, err := svc.ProcessApproval(context.Background(), tenantID, procurement.ApprovableEntityPR, entityID, approverID, false, "missing quote")

	assert.NoError(t, err)
	assert.True(t, result.IsRejected)
	approvals.AssertNumberOfCalls(t, "Save", 2)
}
