package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *mockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, vendorID, filter)
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status trade.PurchaseOrderStatus, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindByPr(ctx context.Context, tenantID, prID uuid.UUID) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, prID)
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) FindPendingReceipt(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *mockPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockPurchaseOrderRepository) SaveWithLockAndEvents(ctx context.Context, order *trade.PurchaseOrder, events []shared.DomainEvent) error {
	args := m.Called(ctx, order, events)
	return args.Error(0)
}

func (m *mockPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPurchaseOrderRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockPurchaseOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPurchaseOrderRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status trade.PurchaseOrderStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPurchaseOrderRepository) CountByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, vendorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPurchaseOrderRepository) CountPendingReceipt(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPurchaseOrderRepository) ExistsByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, poNumber)
	return args.Bool(0), args.Error(1)
}

func (m *mockPurchaseOrderRepository) GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type mockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *mockPurchaseRequestRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *mockPurchaseRequestRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *mockPurchaseRequestRepository) FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, requesterID, filter)
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *mockPurchaseRequestRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.PrStatus, filter shared.Filter) ([]procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]procurement.PurchaseRequest), args.Error(1)
}

func (m *mockPurchaseRequestRepository) FindByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*procurement.PurchaseRequest, error) {
	args := m.Called(ctx, tenantID, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.PurchaseRequest), args.Error(1)
}

func (m *mockPurchaseRequestRepository) Save(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPurchaseRequestRepository) SaveWithLock(ctx context.Context, pr *procurement.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *mockPurchaseRequestRepository) SaveWithLockAndEvents(ctx context.Context, pr *procurement.PurchaseRequest, events []shared.DomainEvent) error {
	args := m.Called(ctx, pr, events)
	return args.Error(0)
}

func (m *mockPurchaseRequestRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockPurchaseRequestRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPurchaseRequestRepository) ExistsByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, prNumber)
	return args.Bool(0), args.Error(1)
}

func (m *mockPurchaseRequestRepository) GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

type mockVendorRepository struct {
	mock.Mock
}

func (m *mockVendorRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Vendor, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Vendor), args.Error(1)
}

func (m *mockVendorRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Vendor, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.Vendor), args.Error(1)
}

func (m *mockVendorRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.VendorStatus, filter shared.Filter) ([]procurement.Vendor, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]procurement.Vendor), args.Error(1)
}

func (m *mockVendorRepository) Save(ctx context.Context, v *procurement.Vendor) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVendorRepository) SaveWithLock(ctx context.Context, v *procurement.Vendor) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVendorRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockVendorRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockVendorRepository) ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error) {
	args := m.Called(ctx, tenantID, taxID)
	return args.Bool(0), args.Error(1)
}

func (m *mockVendorRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tenantID, email)
	return args.Bool(0), args.Error(1)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Save(ctx context.Context, log *procurement.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *mockAuditLogRepository) FindForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter shared.Filter) ([]procurement.AuditLog, error) {
	args := m.Called(ctx, tenantID, entityType, entityID, filter)
	return args.Get(0).([]procurement.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.AuditLog, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.AuditLog), args.Error(1)
}

func approvedPr(t *testing.T, tenantID, departmentID uuid.UUID) *procurement.PurchaseRequest {
	pr, err := procurement.NewPurchaseRequest(tenantID, "PR-0001", uuid.New(), departmentID)
	assert.NoError(t, err)
	_, err = pr.AddItem("widget", 10, 500)
	assert.NoError(t, err)
	pr.Status = procurement.PrStatusApproved
	return pr
}

func activeVendor(t *testing.T, tenantID uuid.UUID) *procurement.Vendor {
	v, err := procurement.NewVendor(tenantID, "Acme Supply", "TAX-1", "ap@acme.test")
	assert.NoError(t, err)
	v.Status = procurement.VendorStatusActive
	return v
}

func newTestPurchaseOrderService() (*PurchaseOrderService, *mockPurchaseOrderRepository, *mockPurchaseRequestRepository, *mockVendorRepository, *mockAuditLogRepository, *mockBudgetRepository, *mockBudgetReservationRepository) {
	orders := new(mockPurchaseOrderRepository)
	requests := new(mockPurchaseRequestRepository)
	vendors := new(mockVendorRepository)
	auditLogs := new(mockAuditLogRepository)
	budgetRepo := new(mockBudgetRepository)
	reservationRepo := new(mockBudgetReservationRepository)
	budgets := NewBudgetService(budgetRepo, reservationRepo)
	svc := NewPurchaseOrderService(orders, requests, vendors, budgets, auditLogs)
	return svc, orders, requests, vendors, auditLogs, budgetRepo, reservationRepo
}

func TestPurchaseOrderService_CreateFromPr_Success(t *testing.T) {
	svc, orders, requests, vendors, auditLogs, _, _ := newTestPurchaseOrderService()

	tenantID := uuid.New()
	actorID := uuid.New()
	departmentID := uuid.New()
	vendorID := uuid.New()

	pr := approvedPr(t, tenantID, departmentID)
	vendor := activeVendor(t, tenantID)
	vendor.ID = vendorID

	requests.On("FindByIDForTenant", mock.Anything, tenantID, pr.ID).Return(pr, nil)
	vendors.On("FindByIDForTenant", mock.Anything, tenantID, vendorID).Return(vendor, nil)
	orders.On("GeneratePoNumber", mock.Anything, tenantID).Return("PO-0001", nil)
	orders.On("Save", mock.Anything, mock.AnythingOfType("*trade.PurchaseOrder")).Return(nil)
	auditLogs.On("Save", mock.Anything, mock.AnythingOfType("*procurement.AuditLog")).Return(nil)

	order, err := svc.CreateFromPr(context.Background(), tenantID, actorID, pr.ID, vendorID)

	assert.NoError(t, err)
	assert.Equal(t, "PO-0001", order.PoNumber)
	assert.Equal(t, vendorID, order.VendorID)
	assert.Len(t, order.Items, 1)
	orders.AssertExpectations(t)
}

func TestPurchaseOrderService_CreateFromPr_RejectsUnapprovedPr(t *testing.T) {
	svc, orders, requests, vendors, _, _, _ := newTestPurchaseOrderService()

	tenantID := uuid.New()
	departmentID := uuid.New()
	pr := approvedPr(t, tenantID, departmentID)
	pr.Status = procurement.PrStatusPending

	requests.On("FindByIDForTenant", mock.Anything, tenantID, pr.ID).Return(pr, nil)

	_, err := svc.CreateFromPr(context.Background(), tenantID, uuid.New(), pr.ID, uuid.New())

	assert.Error(t, err)
	de, ok := err.(*shared.DomainError)
	assert.True(t, ok)
	assert.Equal(t, shared.CodeStateMismatch, de.Code)
	vendors.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_CreateFromPr_RejectsInactiveVendor(t *testing.T) {
	svc, orders, requests, vendors, _, _, _ := newTestPurchaseOrderService()

	tenantID := uuid.New()
	departmentID := uuid.New()
	vendorID := uuid.New()
	pr := approvedPr(t, tenantID, departmentID)
	vendor := activeVendor(t, tenantID)
	vendor.ID = vendorID
	vendor.Status = procurement.VendorStatusBlocked

	requests.On("FindByIDForTenant", mock.Anything, tenantID, pr.ID).Return(pr, nil)
	vendors.On("FindByIDForTenant", mock.Anything, tenantID, vendorID).Return(vendor, nil)

	_, err := svc.CreateFromPr(context.Background(), tenantID, uuid.New(), pr.ID, vendorID)

	assert.Error(t, err)
	de, ok := err.(*shared.DomainError)
	assert.True(t, ok)
	assert.Equal(t, shared.CodeVendorNotActive, de.Code)
	orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPurchaseOrderService_Cancel_ReleasesBudgetReservationForPr(t *testing.T) {
	svc, orders, _, _, auditLogs, budgetRepo, _ := newTestPurchaseOrderService()

	tenantID := uuid.New()
	actorID := uuid.New()
	prID := uuid.New()

	order, err := trade.NewPurchaseOrder(tenantID, "PO-0002", uuid.New(), &prID)
	assert.NoError(t, err)
	_, err = order.AddItem("widget", 5, 1000)
	assert.NoError(t, err)
	order.Status = trade.PurchaseOrderStatusIssued

	orders.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)
	orders.On("SaveWithLockAndEvents", mock.Anything, mock.AnythingOfType("*trade.PurchaseOrder"), mock.Anything).Return(nil)
	budgetRepo.On("ReleaseReservation", mock.Anything, tenantID, procurement.ReservationEntityPR, prID).Return(nil)
	auditLogs.On("Save", mock.Anything, mock.AnythingOfType("*procurement.AuditLog")).Return(nil)

	result, err := svc.Cancel(context.Background(), tenantID, actorID, order.ID, "no longer needed")

	assert.NoError(t, err)
	assert.Equal(t, trade.PurchaseOrderStatusCancelled, result.Status)
	budgetRepo.AssertExpectations(t)
}

func TestPurchaseOrderService_Issue_RejectsFromNonDraft(t *testing.T) {
	svc, orders, _, _, _, _, _ := newTestPurchaseOrderService()

	tenantID := uuid.New()
	order, err := trade.NewPurchaseOrder(tenantID, "PO-0003", uuid.New(), nil)
	assert.NoError(t, err)
	order.Status = trade.PurchaseOrderStatusCancelled

	orders.On("FindByIDForTenant", mock.Anything, tenantID, order.ID).Return(order, nil)

	_, err = svc.Issue(context.Background(), tenantID, uuid.New(), order.ID, nil)

	assert.Error(t, err)
	orders.AssertNotCalled(t, "SaveWithLockAndEvents", mock.Anything, mock.Anything, mock.Anything)
}
