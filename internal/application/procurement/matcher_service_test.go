package procurement

import (
	"context"
	"testing"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).([]procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindOpenByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).([]procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, vendorID, filter)
	return args.Get(0).([]procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.InvoiceStatus, filter shared.Filter) ([]procurement.Invoice, error) {
	args := m.Called(ctx, tenantID, status, filter)
	return args.Get(0).([]procurement.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) Save(ctx context.Context, inv *procurement.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInvoiceRepository) SaveWithLock(ctx context.Context, inv *procurement.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInvoiceRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockInvoiceRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInvoiceRepository) ExistsByVendorAndNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, vendorID, invoiceNumber)
	return args.Bool(0), args.Error(1)
}

type mockReceiptRepository struct {
	mock.Mock
}

func (m *mockReceiptRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Receipt, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Receipt), args.Error(1)
}

func (m *mockReceiptRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Receipt, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]procurement.Receipt), args.Error(1)
}

func (m *mockReceiptRepository) FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]procurement.Receipt, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).([]procurement.Receipt), args.Error(1)
}

func (m *mockReceiptRepository) Save(ctx context.Context, r *procurement.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReceiptRepository) SaveWithLock(ctx context.Context, r *procurement.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockReceiptRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockReceiptRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReceiptRepository) ExistsByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, receiptNumber)
	return args.Bool(0), args.Error(1)
}

func (m *mockReceiptRepository) GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

func (m *mockReceiptRepository) SumReceivedQuantityByPoLine(ctx context.Context, tenantID, poID uuid.UUID) (map[uuid.UUID]int64, error) {
	args := m.Called(ctx, tenantID, poID)
	return args.Get(0).(map[uuid.UUID]int64), args.Error(1)
}

func newTestMatcherService() (*MatcherService, *mockInvoiceRepository, *mockPurchaseOrderRepository, *mockReceiptRepository, *mockAuditLogRepository) {
	invoices := new(mockInvoiceRepository)
	orders := new(mockPurchaseOrderRepository)
	receipts := new(mockReceiptRepository)
	auditLogs := new(mockAuditLogRepository)
	svc := NewMatcherService(invoices, orders, receipts, auditLogs)
	return svc, invoices, orders, receipts, auditLogs
}

func TestMatcherService_MatchInvoice_RejectsInvoiceWithNoPo(t *testing.T) {
	svc, invoices, orders, _, _ := newTestMatcherService()

	tenantID := uuid.New()
	invoiceID := uuid.New()
	inv, err := procurement.NewInvoice(tenantID, "INV-1", uuid.New(), nil, "USD", "")
	assert.NoError(t, err)
	inv.ID = invoiceID

	invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(inv, nil)

	_, err = svc.MatchInvoice(context.Background(), tenantID, invoiceID, uuid.New())

	assert.Error(t, err)
	orders.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatcherService_MatchInvoice_Pass(t *testing.T) {
	svc, invoices, orders, receipts, auditLogs := newTestMatcherService()

	tenantID := uuid.New()
	vendorID := uuid.New()
	invoiceID := uuid.New()
	poID := uuid.New()

	po, err := trade.NewPurchaseOrder(tenantID, "PO-1", vendorID, nil)
	assert.NoError(t, err)
	po.ID = poID
	line, err := po.AddItem("Widget", 10, 100_000)
	assert.NoError(t, err)

	inv, err := procurement.NewInvoice(tenantID, "INV-1", vendorID, &poID, "USD", "")
	assert.NoError(t, err)
	inv.ID = invoiceID
	_, err = inv.AddItem("Widget", 10, 100_000)
	assert.NoError(t, err)

	received := map[uuid.UUID]int64{line.ID: 10}

	invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(inv, nil)
	orders.On("FindByIDForTenant", mock.Anything, tenantID, poID).Return(po, nil)
	receipts.On("SumReceivedQuantityByPoLine", mock.Anything, tenantID, poID).Return(received, nil)
	invoices.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Invoice")).Return(nil)
	auditLogs.On("Save", mock.Anything, mock.AnythingOfType("*procurement.AuditLog")).Return(nil)

	result, err := svc.MatchInvoice(context.Background(), tenantID, invoiceID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, procurement.MatchStatusPass, result.Status)
	assert.Empty(t, result.Exceptions)
	assert.Equal(t, procurement.InvoiceStatusMatched, inv.Status)
	invoices.AssertExpectations(t)
	auditLogs.AssertExpectations(t)
}

func TestMatcherService_MatchInvoice_FailsOnMissingInvoiceLine(t *testing.T) {
	svc, invoices, orders, receipts, auditLogs := newTestMatcherService()

	tenantID := uuid.New()
	vendorID := uuid.New()
	invoiceID := uuid.New()
	poID := uuid.New()

	po, err := trade.NewPurchaseOrder(tenantID, "PO-1", vendorID, nil)
	assert.NoError(t, err)
	po.ID = poID
	line, err := po.AddItem("Widget", 10, 100_000)
	assert.NoError(t, err)

	inv, err := procurement.NewInvoice(tenantID, "INV-1", vendorID, &poID, "USD", "")
	assert.NoError(t, err)
	inv.ID = invoiceID

	received := map[uuid.UUID]int64{line.ID: 10}

	invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(inv, nil)
	orders.On("FindByIDForTenant", mock.Anything, tenantID, poID).Return(po, nil)
	receipts.On("SumReceivedQuantityByPoLine", mock.Anything, tenantID, poID).Return(received, nil)
	invoices.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Invoice")).Return(nil)
	auditLogs.On("Save", mock.Anything, mock.AnythingOfType("*procurement.AuditLog")).Return(nil)

	result, err := svc.MatchInvoice(context.Background(), tenantID, invoiceID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, procurement.MatchStatusFail, result.Status)
	assert.Len(t, result.Exceptions, 1)
	assert.Equal(t, shared.CodeMissingInvoiceLine, result.Exceptions[0].Code)
	assert.Equal(t, procurement.InvoiceStatusException, inv.Status)
}

func TestMatcherService_MatchInvoice_FailsOnQtyMismatch(t *testing.T) {
	svc, invoices, orders, receipts, _ := newTestMatcherService()

	tenantID := uuid.New()
	vendorID := uuid.New()
	invoiceID := uuid.New()
	poID := uuid.New()

	po, err := trade.NewPurchaseOrder(tenantID, "PO-1", vendorID, nil)
	assert.NoError(t, err)
	po.ID = poID
	line, err := po.AddItem("Widget", 10, 100_000)
	assert.NoError(t, err)

	inv, err := procurement.NewInvoice(tenantID, "INV-1", vendorID, &poID, "USD", "")
	assert.NoError(t, err)
	inv.ID = invoiceID
	_, err = inv.AddItem("Widget", 8, 100_000)
	assert.NoError(t, err)

	received := map[uuid.UUID]int64{line.ID: 10}

	invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(inv, nil)
	orders.On("FindByIDForTenant", mock.Anything, tenantID, poID).Return(po, nil)
	receipts.On("SumReceivedQuantityByPoLine", mock.Anything, tenantID, poID).Return(received, nil)
	invoices.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Invoice")).Return(nil)

	result, err := svc.MatchInvoice(context.Background(), tenantID, invoiceID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, procurement.MatchStatusFail, result.Status)
	assert.Len(t, result.Exceptions, 1)
	assert.Equal(t, shared.CodeQtyMismatch, result.Exceptions[0].Code)
}

func TestMatcherService_MatchInvoice_FailsOnPriceVarianceBeyondTolerance(t *testing.T) {
	svc, invoices, orders, receipts, _ := newTestMatcherService()

	tenantID := uuid.New()
	vendorID := uuid.New()
	invoiceID := uuid.New()
	poID := uuid.New()

	po, err := trade.NewPurchaseOrder(tenantID, "PO-1", vendorID, nil)
	assert.NoError(t, err)
	po.ID = poID
	line, err := po.AddItem("Widget", 10, 100_000)
	assert.NoError(t, err)

	inv, err := procurement.NewInvoice(tenantID, "INV-1", vendorID, &poID, "USD", "")
	assert.NoError(t, err)
	inv.ID = invoiceID
	_, err = inv.AddItem("Widget", 10, 110_000)
	assert.NoError(t, err)

	received := map[uuid.UUID]int64{line.ID: 10}

	invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(inv, nil)
	orders.On("FindByIDForTenant", mock.Anything, tenantID, poID).Return(po, nil)
	receipts.On("SumReceivedQuantityByPoLine", mock.Anything, tenantID, poID).Return(received, nil)
	invoices.On("Save", mock.Anything, mock.AnythingOfType("*procurement.Invoice")).Return(nil)

	result, err := svc.MatchInvoice(context.Background(), tenantID, invoiceID, uuid.New())

	assert.NoError(t, err)
	assert.Equal(t, procurement.MatchStatusFail, result.Status)
	assert.Len(t, result.Exceptions, 1)
	assert.Equal(t, shared.CodePriceVariance, result.Exceptions[0].Code)
}
