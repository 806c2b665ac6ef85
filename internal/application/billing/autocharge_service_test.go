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
	"go.uber.org/zap"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// MockPriceResolver is a mock implementation of acl.PriceResolver
type MockPriceResolver struct {
	mock.Mock
}

func (m *MockPriceResolver) ResolvePrice(ctx context.Context, serviceCode string) (acl.ServicePrice, error) {
	args := m.Called(ctx, serviceCode)
	return args.Get(0).(acl.ServicePrice), args.Error(1)
}

// MockBedStaySource is a mock implementation of acl.BedStayUsageSource
type MockBedStaySource struct {
	mock.Mock
}

func (m *MockBedStaySource) GetStaySegments(ctx context.Context, admissionID uuid.UUID) ([]acl.BedStaySegment, error) {
	args := m.Called(ctx, admissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]acl.BedStaySegment), args.Error(1)
}

// MockOTCaseSource is a mock implementation of acl.OTCaseSource
type MockOTCaseSource struct {
	mock.Mock
}

func (m *MockOTCaseSource) GetCase(ctx context.Context, caseID uuid.UUID) (acl.OTCase, error) {
	args := m.Called(ctx, caseID)
	return args.Get(0).(acl.OTCase), args.Error(1)
}

func newTestAutoChargeService(invoiceRepo *MockInvoiceRepository, prices *MockPriceResolver, beds *MockBedStaySource, cases *MockOTCaseSource) *AutoChargeService {
	scope := NewNoOpTransactionScope(invoiceRepo, new(MockAdvanceRepository), new(MockAdjustmentRepository))
	return NewAutoChargeService(scope, prices, beds, cases, zap.NewNop())
}

func bedPrice() acl.ServicePrice {
	return acl.ServicePrice{
		ServiceCode: "BED-GEN",
		DisplayName: "General Ward Bed",
		UnitPrice:   valueobject.NewMoneyINRFromFloat(2000.00),
		TaxRate:     decimal.Zero,
	}
}

func TestAutoChargeService_SyncBedCharges(t *testing.T) {
	t.Run("bills each stay segment once", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		started := time.Now().Add(-48 * time.Hour)
		ended := time.Now()
		segment := acl.BedStaySegment{
			SegmentID:      uuid.New(),
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "General Ward",
			BedNumber:      "GW-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      started,
			EndedAt:        &ended,
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{segment}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: segment.SegmentID}).Return(nil, nil)
		prices.On("ResolvePrice", ctx, "BED-GEN").Return(bedPrice(), nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{AdmissionID: admissionID, InvoiceID: testInvoiceID})

		require.NoError(t, err)
		require.Len(t, result.ChargedItems, 1)
		assert.Empty(t, result.SkippedRefs)
		assert.Equal(t, int64(3), result.ChargedItems[0].Quantity)
		assert.True(t, result.Invoice.NetTotal.Equal(decimal.RequireFromString("6000.00")))
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("second run skips billed segments", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		segmentID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: segmentID}
		_, err := invoice.AddServiceItem(ref, "Bed charges - General Ward (GW-12)", 2, valueobject.NewMoneyINRFromFloat(2000.00), decimal.Zero)
		require.NoError(t, err)

		segment := acl.BedStaySegment{
			SegmentID:      segmentID,
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "General Ward",
			BedNumber:      "GW-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      time.Now().Add(-24 * time.Hour),
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{segment}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		result, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{AdmissionID: admissionID, InvoiceID: testInvoiceID, SkipIfAlreadyBilled: true})

		require.NoError(t, err)
		assert.Empty(t, result.ChargedItems)
		require.Len(t, result.SkippedRefs, 1)
		assert.Equal(t, segmentID, result.SkippedRefs[0].ServiceRefID)
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		prices.AssertNotCalled(t, "ResolvePrice", mock.Anything, mock.Anything)
	})

	t.Run("segment billed on another invoice is skipped when requested", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		segmentID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: segmentID}
		other, _ := billing.NewServiceInvoiceItem(uuid.New(), ref, "Bed charges", 1, valueobject.NewMoneyINRFromFloat(2000.00), decimal.Zero)

		segment := acl.BedStaySegment{
			SegmentID:      segmentID,
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "General Ward",
			BedNumber:      "GW-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      time.Now(),
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{segment}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, ref).Return(other, nil)

		result, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{AdmissionID: admissionID, InvoiceID: testInvoiceID, SkipIfAlreadyBilled: true})

		require.NoError(t, err)
		assert.Empty(t, result.ChargedItems)
		assert.Len(t, result.SkippedRefs, 1)
	})

	t.Run("conflict surfaces when skipping is off", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		segmentID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: segmentID}
		other, _ := billing.NewServiceInvoiceItem(uuid.New(), ref, "Bed charges", 1, valueobject.NewMoneyINRFromFloat(2000.00), decimal.Zero)

		segment := acl.BedStaySegment{
			SegmentID:      segmentID,
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "General Ward",
			BedNumber:      "GW-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      time.Now(),
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{segment}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, ref).Return(other, nil)

		_, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{AdmissionID: admissionID, InvoiceID: testInvoiceID})

		assertErrorCode(t, err, "SERVICE_ALREADY_BILLED")
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("hourly mode bills whole hours", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		started := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
		ended := started.Add(5*time.Hour + 30*time.Minute)
		segment := acl.BedStaySegment{
			SegmentID:      uuid.New(),
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "Day Care",
			BedNumber:      "DC-3",
			BedServiceCode: "BED-DAYCARE",
			StartedAt:      started,
			EndedAt:        &ended,
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{segment}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, mock.AnythingOfType("billing.ServiceRef")).Return(nil, nil)
		prices.On("ResolvePrice", ctx, "BED-DAYCARE").Return(acl.ServicePrice{
			ServiceCode: "BED-DAYCARE",
			DisplayName: "Day Care Bed",
			UnitPrice:   valueobject.NewMoneyINRFromFloat(300.00),
			TaxRate:     decimal.Zero,
		}, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{
			AdmissionID: admissionID,
			InvoiceID:   testInvoiceID,
			Mode:        BedChargeModeHourly,
		})

		require.NoError(t, err)
		require.Len(t, result.ChargedItems, 1)
		// 5h30m rounds up to 6 chargeable hours
		assert.Equal(t, int64(6), result.ChargedItems[0].Quantity)
	})

	t.Run("upto timestamp caps the billed days", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		beds := new(MockBedStaySource)
		service := newTestAutoChargeService(invoiceRepo, prices, beds, new(MockOTCaseSource))
		ctx := context.Background()

		admissionID := uuid.New()
		invoice := createTestInvoice()
		started := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
		upto := started.Add(36 * time.Hour)
		open := acl.BedStaySegment{
			SegmentID:      uuid.New(),
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "General Ward",
			BedNumber:      "GW-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      started,
		}
		// transfer after the cutoff is not yet chargeable
		future := acl.BedStaySegment{
			SegmentID:      uuid.New(),
			AdmissionID:    admissionID,
			PatientID:      testPatientID,
			WardName:       "ICU",
			BedNumber:      "ICU-1",
			BedServiceCode: "BED-ICU",
			StartedAt:      upto.Add(2 * time.Hour),
		}

		beds.On("GetStaySegments", ctx, admissionID).Return([]acl.BedStaySegment{open, future}, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: open.SegmentID}).Return(nil, nil)
		prices.On("ResolvePrice", ctx, "BED-GEN").Return(bedPrice(), nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.SyncBedCharges(ctx, SyncBedChargesRequest{
			AdmissionID: admissionID,
			InvoiceID:   testInvoiceID,
			UptoTS:      &upto,
		})

		require.NoError(t, err)
		require.Len(t, result.ChargedItems, 1)
		assert.Equal(t, int64(2), result.ChargedItems[0].Quantity)
		prices.AssertNotCalled(t, "ResolvePrice", ctx, "BED-ICU")
	})
}

func TestAutoChargeService_SyncOTCharges(t *testing.T) {
	t.Run("bills performed procedures", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		cases := new(MockOTCaseSource)
		service := newTestAutoChargeService(invoiceRepo, prices, new(MockBedStaySource), cases)
		ctx := context.Background()

		caseID := uuid.New()
		invoice := createTestInvoice()
		procedure := acl.OTProcedure{
			ProcedureID: uuid.New(),
			ServiceCode: "OT-APPEND",
			Name:        "Appendectomy",
			Quantity:    1,
		}
		otCase := acl.OTCase{
			CaseID:      caseID,
			PatientID:   testPatientID,
			TheatreName: "OT-1",
			PerformedAt: time.Now(),
			Procedures:  []acl.OTProcedure{procedure},
		}

		cases.On("GetCase", ctx, caseID).Return(otCase, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, billing.ServiceRef{ServiceType: "ot_procedure", ServiceRefID: procedure.ProcedureID}).Return(nil, nil)
		prices.On("ResolvePrice", ctx, "OT-APPEND").Return(acl.ServicePrice{
			ServiceCode: "OT-APPEND",
			DisplayName: "Appendectomy",
			UnitPrice:   valueobject.NewMoneyINRFromFloat(25000.00),
			TaxRate:     decimal.NewFromInt(5),
		}, nil)
		invoiceRepo.On("SaveWithLock", ctx, invoice).Return(nil)

		result, err := service.SyncOTCharges(ctx, SyncOTChargesRequest{CaseID: caseID, InvoiceID: testInvoiceID})

		require.NoError(t, err)
		require.Len(t, result.ChargedItems, 1)
		assert.Equal(t, "ot_procedure", result.ChargedItems[0].ServiceType)
		assert.True(t, result.Invoice.NetTotal.Equal(decimal.RequireFromString("26250.00")))
	})

	t.Run("rerun is idempotent", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		cases := new(MockOTCaseSource)
		service := newTestAutoChargeService(invoiceRepo, prices, new(MockBedStaySource), cases)
		ctx := context.Background()

		caseID := uuid.New()
		invoice := createTestInvoice()
		procedureID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "ot_procedure", ServiceRefID: procedureID}
		_, err := invoice.AddServiceItem(ref, "OT charges - Appendectomy", 1, valueobject.NewMoneyINRFromFloat(25000.00), decimal.NewFromInt(5))
		require.NoError(t, err)

		otCase := acl.OTCase{
			CaseID:      caseID,
			PatientID:   testPatientID,
			TheatreName: "OT-1",
			PerformedAt: time.Now(),
			Procedures:  []acl.OTProcedure{{ProcedureID: procedureID, ServiceCode: "OT-APPEND", Name: "Appendectomy", Quantity: 1}},
		}

		cases.On("GetCase", ctx, caseID).Return(otCase, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)

		result, err := service.SyncOTCharges(ctx, SyncOTChargesRequest{CaseID: caseID, InvoiceID: testInvoiceID, SkipIfAlreadyBilled: true})

		require.NoError(t, err)
		assert.Empty(t, result.ChargedItems)
		assert.Len(t, result.SkippedRefs, 1)
		assert.Len(t, result.Invoice.Items, 1)
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("billed procedure fails the run when skipping is off", func(t *testing.T) {
		invoiceRepo := new(MockInvoiceRepository)
		prices := new(MockPriceResolver)
		cases := new(MockOTCaseSource)
		service := newTestAutoChargeService(invoiceRepo, prices, new(MockBedStaySource), cases)
		ctx := context.Background()

		caseID := uuid.New()
		invoice := createTestInvoice()
		procedureID := uuid.New()
		ref := billing.ServiceRef{ServiceType: "ot_procedure", ServiceRefID: procedureID}
		other, _ := billing.NewServiceInvoiceItem(uuid.New(), ref, "OT charges - Appendectomy", 1, valueobject.NewMoneyINRFromFloat(25000.00), decimal.Zero)

		otCase := acl.OTCase{
			CaseID:      caseID,
			PatientID:   testPatientID,
			TheatreName: "OT-1",
			PerformedAt: time.Now(),
			Procedures:  []acl.OTProcedure{{ProcedureID: procedureID, ServiceCode: "OT-APPEND", Name: "Appendectomy", Quantity: 1}},
		}

		cases.On("GetCase", ctx, caseID).Return(otCase, nil)
		invoiceRepo.On("FindByID", ctx, testInvoiceID).Return(invoice, nil)
		invoiceRepo.On("FindActiveServiceItem", ctx, ref).Return(other, nil)

		_, err := service.SyncOTCharges(ctx, SyncOTChargesRequest{CaseID: caseID, InvoiceID: testInvoiceID})

		assertErrorCode(t, err, "SERVICE_ALREADY_BILLED")
		invoiceRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}
