package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPatient(ctx context.Context, patientID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, patientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindActiveServiceItem(ctx context.Context, ref billing.ServiceRef) (*billing.InvoiceItem, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.InvoiceItem), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, billingType billing.BillingType) (string, error) {
	args := m.Called(ctx, billingType)
	return args.String(0), args.Error(1)
}

// MockAdvanceRepository is a mock implementation of advance.AdvanceRepository
type MockAdvanceRepository struct {
	mock.Mock
}

func (m *MockAdvanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.AdvanceDeposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*advance.AdvanceDeposit), args.Error(1)
}

func (m *MockAdvanceRepository) FindByPatient(ctx context.Context, patientID uuid.UUID, filter advance.AdvanceFilter) ([]advance.AdvanceDeposit, error) {
	args := m.Called(ctx, patientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]advance.AdvanceDeposit), args.Error(1)
}

func (m *MockAdvanceRepository) FindAvailableByPatientForUpdate(ctx context.Context, patientID uuid.UUID) ([]advance.AdvanceDeposit, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]advance.AdvanceDeposit), args.Error(1)
}

func (m *MockAdvanceRepository) Save(ctx context.Context, deposit *advance.AdvanceDeposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockAdvanceRepository) SaveWithLock(ctx context.Context, deposit *advance.AdvanceDeposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockAdvanceRepository) SumAvailableByPatient(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAdvanceRepository) Count(ctx context.Context, filter advance.AdvanceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockAdjustmentRepository is a mock implementation of advance.AdvanceAdjustmentRepository
type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.AdvanceAdjustment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*advance.AdvanceAdjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]advance.AdvanceAdjustment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]advance.AdvanceAdjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindByAdvance(ctx context.Context, advanceID uuid.UUID) ([]advance.AdvanceAdjustment, error) {
	args := m.Called(ctx, advanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]advance.AdvanceAdjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) Save(ctx context.Context, adjustment *advance.AdvanceAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func (m *MockAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Test helpers
var (
	testPatientID     = uuid.New()
	testInvoiceID     = uuid.New()
	testInvoiceNumber = "INV-OP-202609-00001"
)

func newTestService(invoiceRepo *MockInvoiceRepository, advanceRepo *MockAdvanceRepository, adjustmentRepo *MockAdjustmentRepository) *InvoiceService {
	scope := NewNoOpTransactionScope(invoiceRepo, advanceRepo, adjustmentRepo)
	return NewInvoiceService(invoiceRepo, new(MockPriceResolver), scope)
}

func newTestServiceWithResolver(invoiceRepo *MockInvoiceRepository, resolver *MockPriceResolver) *InvoiceService {
	scope := NewNoOpTransactionScope(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
	return NewInvoiceService(invoiceRepo, resolver, scope)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func createTestInvoice() *billing.Invoice {
	invoice, _ := billing.NewInvoice(testInvoiceNumber, testPatientID, billing.BillingTypeOP, "", nil)
	return invoice
}

func createTestInvoiceWithItem() *billing.Invoice {
	invoice := createTestInvoice()
	invoice.AddManualItem("Consultation", 1, valueobject.NewMoneyINRFromFloat(1000.00), decimal.NewFromInt(18))
	return invoice
}

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, code, domainErr.Code)
}

// Tests for Create

func TestInvoiceService_Create(t *testing.T) {
	t.Run("create invoice with items", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()

		invoiceRepo.On("GenerateInvoiceNumber", ctx, billing.BillingTypeOP).Return(testInvoiceNumber, nil)
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil)

		req := CreateInvoiceRequest{
			PatientID:   testPatientID,
			BillingType: billing.BillingTypeOP,
			Items: []CreateInvoiceItemInput{
				{Description: "Consultation", Quantity: 1, UnitPrice: decimal.NewFromInt(1000), TaxRate: decimal.NewFromInt(18)},
			},
		}

		result, err := service.Create(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, testInvoiceNumber, result.InvoiceNumber)
		assert.Equal(t, "draft", result.Status)
		assert.Len(t, result.Items, 1)
		assert.True(t, result.NetTotal.Equal(decimal.RequireFromString("1180.00")))
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("create invoice with invalid item rolls back", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()

		invoiceRepo.On("GenerateInvoiceNumber", ctx, billing.BillingTypeOP).Return(testInvoiceNumber, nil)

		req := CreateInvoiceRequest{
			PatientID:   testPatientID,
			BillingType: billing.BillingTypeOP,
			Items: []CreateInvoiceItemInput{
				{Description: "Consultation", Quantity: 0, UnitPrice: decimal.NewFromInt(1000)},
			},
		}

		_, err := service.Create(ctx, req)

		assertErrorCode(t, err, "INVALID_ITEM_INPUT")
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("retries on invoice number collision", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()

		invoiceRepo.On("GenerateInvoiceNumber", ctx, billing.BillingTypeOP).Return(testInvoiceNumber, nil).Once()
		invoiceRepo.On("GenerateInvoiceNumber", ctx, billing.BillingTypeOP).Return("INV-OP-202609-00002", nil).Once()
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(billing.ErrDuplicateInvoiceNumber).Once()
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(nil).Once()

		result, err := service.Create(ctx, CreateInvoiceRequest{
			PatientID:   testPatientID,
			BillingType: billing.BillingTypeOP,
		})

		require.NoError(t, err)
		assert.Equal(t, "INV-OP-202609-00002", result.InvoiceNumber)
		invoiceRepo.AssertNumberOfCalls(t, "GenerateInvoiceNumber", 2)
	})

	t.Run("gives up after repeated number collisions", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()

		invoiceRepo.On("GenerateInvoiceNumber", ctx, billing.BillingTypeOP).Return(testInvoiceNumber, nil)
		invoiceRepo.On("Save", ctx, mock.AnythingOfType("*billing.Invoice")).Return(billing.ErrDuplicateInvoiceNumber)

		_, err := service.Create(ctx, CreateInvoiceRequest{
			PatientID:   testPatientID,
			BillingType: billing.BillingTypeOP,
		})

		assertErrorCode(t, err, "DUPLICATE_INVOICE_NUMBER")
		invoiceRepo.AssertNumberOfCalls(t, "Save", 3)
	})
}

// Tests for AddItem

func TestInvoiceService_AddItem(t *testing.T) {
	t.Run("add manual item", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoice()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Description: "Dressing",
			Quantity:    2,
			UnitPrice:   decimalPtr(decimal.NewFromInt(100)),
		})

		require.NoError(t, err)
		assert.Len(t, result.Items, 1)
		assert.True(t, result.NetTotal.Equal(decimal.RequireFromString("200.00")))
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("add service item checks ledger for duplicate ref", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoice()
		refID := uuid.New()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, billing.ServiceRef{ServiceType: "lab_order", ServiceRefID: refID}).Return(nil, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Description:  "Lab - CBC",
			Quantity:     1,
			UnitPrice:    decimalPtr(decimal.NewFromInt(350)),
			ServiceType:  "lab_order",
			ServiceRefID: &refID,
		})

		require.NoError(t, err)
		assert.Equal(t, "lab_order", result.Items[0].ServiceType)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("service ref already billed elsewhere is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoice()
		refID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "lab_order", ServiceRefID: refID}
		existing, _ := billing.NewServiceInvoiceItem(uuid.New(), ref, "Lab - CBC", 1, valueobject.NewMoneyINRFromFloat(350), decimal.Zero)

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, ref).Return(existing, nil)

		_, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Description:  "Lab - CBC",
			Quantity:     1,
			UnitPrice:    decimalPtr(decimal.NewFromInt(350)),
			ServiceType:  "lab_order",
			ServiceRefID: &refID,
		})

		assertErrorCode(t, err, "SERVICE_ALREADY_BILLED")
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("incomplete service ref is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoice()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		_, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Description: "Lab - CBC",
			Quantity:    1,
			UnitPrice:   decimalPtr(decimal.NewFromInt(350)),
			ServiceType: "lab_order",
		})

		assertErrorCode(t, err, "INVALID_ITEM_INPUT")
	})

	t.Run("resolves unit price from the price master", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		resolver := new(MockPriceResolver)
		service := newTestServiceWithResolver(invoiceRepo, resolver)
		ctx := context.Background()
		invoice := createTestInvoice()
		refID := uuid.New()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, billing.ServiceRef{ServiceType: "lab_order", ServiceRefID: refID}).Return(nil, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)
		resolver.On("ResolvePrice", ctx, "LAB-CBC").Return(acl.ServicePrice{
			ServiceCode: "LAB-CBC",
			DisplayName: "Complete Blood Count",
			UnitPrice:   valueobject.NewMoneyINRFromFloat(350.00),
			TaxRate:     decimal.NewFromInt(12),
		}, nil)

		result, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Quantity:     1,
			ServiceCode:  "LAB-CBC",
			ServiceType:  "lab_order",
			ServiceRefID: &refID,
		})

		require.NoError(t, err)
		item := result.Items[0]
		assert.Equal(t, "Complete Blood Count", item.Description)
		assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("350.00")))
		assert.True(t, item.TaxRate.Equal(decimal.NewFromInt(12)))
		resolver.AssertExpectations(t)
	})

	t.Run("service item without price needs a service code", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		resolver := new(MockPriceResolver)
		service := newTestServiceWithResolver(invoiceRepo, resolver)
		ctx := context.Background()
		refID := uuid.New()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(createTestInvoice(), nil)

		_, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Quantity:     1,
			ServiceType:  "lab_order",
			ServiceRefID: &refID,
		})

		assertErrorCode(t, err, "INVALID_ITEM_INPUT")
		resolver.AssertNotCalled(t, "ResolvePrice", mock.Anything, mock.Anything)
	})

	t.Run("manual item without price is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(createTestInvoice(), nil)

		_, err := service.AddItem(ctx, testInvoiceID, AddInvoiceItemRequest{
			Description: "Dressing",
			Quantity:    1,
		})

		assertErrorCode(t, err, "INVALID_ITEM_INPUT")
	})
}

// Tests for payments

func TestInvoiceService_AddPayment(t *testing.T) {
	t.Run("record payment on draft invoice", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoiceWithItem()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.AddPayment(ctx, testInvoiceID, AddPaymentRequest{
			Amount: decimal.NewFromInt(500),
			Mode:   "cash",
		})

		require.NoError(t, err)
		assert.True(t, result.AmountPaid.Equal(decimal.RequireFromString("500.00")))
		assert.True(t, result.BalanceDue.Equal(decimal.RequireFromString("680.00")))
	})

	t.Run("payment on finalized invoice is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoiceWithItem()
		require.NoError(t, invoice.Finalize())

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		_, err := service.AddPayment(ctx, testInvoiceID, AddPaymentRequest{
			Amount: decimal.NewFromInt(500),
			Mode:   "cash",
		})

		assertErrorCode(t, err, "INVOICE_LOCKED")
	})
}

// Tests for Finalize

func TestInvoiceService_Finalize(t *testing.T) {
	t.Run("finalize invoice with items", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoiceWithItem()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.Finalize(ctx, testInvoiceID)

		require.NoError(t, err)
		assert.Equal(t, "finalized", result.Status)
		assert.NotNil(t, result.FinalizedAt)
	})

	t.Run("finalize empty invoice is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoice()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		_, err := service.Finalize(ctx, testInvoiceID)

		assertErrorCode(t, err, "EMPTY_INVOICE")
	})
}

// Tests for Cancel

func TestInvoiceService_Cancel(t *testing.T) {
	t.Run("cancel finalized invoice reverses its adjustments", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		advanceRepo := new(MockAdvanceRepository)
		adjustmentRepo := new(MockAdjustmentRepository)
		service := newTestService(invoiceRepo, advanceRepo, adjustmentRepo)
		ctx := context.Background()

		deposit, err := advance.NewAdvanceDeposit(testPatientID, valueobject.NewMoneyINRFromFloat(5000.00), valueobject.PaymentModeCash, "", "", "", nil, time.Now())
		require.NoError(t, err)
		require.NoError(t, deposit.Apply(valueobject.NewMoneyINRFromFloat(1180.00)))

		invoice := createTestInvoiceWithItem()
		require.NoError(t, invoice.ApplyAdvanceAdjustment(valueobject.NewMoneyINRFromFloat(1180.00)))
		require.NoError(t, invoice.Finalize())

		adjustment, err := advance.NewAdvanceAdjustment(deposit.ID, invoice.ID, valueobject.NewMoneyINRFromFloat(1180.00))
		require.NoError(t, err)

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		adjustmentRepo.On("FindByInvoice", ctx, invoice.ID).Return([]advance.AdvanceAdjustment{*adjustment}, nil)
		advanceRepo.On("FindByID", ctx, deposit.ID).Return(deposit, nil)
		advanceRepo.On("SaveWithLock", ctx, deposit).Return(nil)
		adjustmentRepo.On("Delete", ctx, adjustment.ID).Return(nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.Cancel(ctx, testInvoiceID, CancelInvoiceRequest{Reason: "billed to wrong admission"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Status)
		assert.True(t, result.AdvanceAdjusted.IsZero())
		assert.True(t, deposit.BalanceRemaining.Equal(deposit.Amount))
		invoiceRepo.AssertExpectations(t)
		advanceRepo.AssertExpectations(t)
		adjustmentRepo.AssertExpectations(t)
	})

	t.Run("cancel draft invoice without adjustments", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		adjustmentRepo := new(MockAdjustmentRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), adjustmentRepo)
		ctx := context.Background()
		invoice := createTestInvoiceWithItem()

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		adjustmentRepo.On("FindByInvoice", ctx, invoice.ID).Return([]advance.AdvanceAdjustment{}, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.Cancel(ctx, testInvoiceID, CancelInvoiceRequest{Reason: "duplicate"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", result.Status)
	})

	t.Run("cancel already cancelled invoice is rejected", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
		ctx := context.Background()
		invoice := createTestInvoiceWithItem()
		require.NoError(t, invoice.Cancel("duplicate"))

		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		_, err := service.Cancel(ctx, testInvoiceID, CancelInvoiceRequest{Reason: "again"})

		assertErrorCode(t, err, "INVOICE_LOCKED")
	})
}

// Tests for List

func TestInvoiceService_List(t *testing.T) {
	invoiceRepo := new(MockInvoiceRepository)
	service := newTestService(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
	ctx := context.Background()
	invoice := createTestInvoiceWithItem()

	invoiceRepo.On("FindAll", ctx, mock.AnythingOfType("billing.InvoiceFilter")).Return([]billing.Invoice{*invoice}, nil)
	invoiceRepo.On("Count", ctx, mock.AnythingOfType("billing.InvoiceFilter")).Return(int64(1), nil)

	items, total, err := service.List(ctx, InvoiceListFilter{})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, testInvoiceNumber, items[0].InvoiceNumber)
}
