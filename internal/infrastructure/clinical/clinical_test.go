package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

func TestInMemoryPriceCatalog(t *testing.T) {
	t.Run("resolves registered price", func(t *testing.T) {
		catalog := NewInMemoryPriceCatalog()
		catalog.Register(acl.ServicePrice{
			ServiceCode: "BED-GEN",
			DisplayName: "General Ward Bed",
			UnitPrice:   valueobject.NewMoneyINRFromFloat(2000),
			TaxRate:     decimal.Zero,
		})

		price, err := catalog.ResolvePrice(context.Background(), "BED-GEN")
		require.NoError(t, err)
		assert.Equal(t, "General Ward Bed", price.DisplayName)
		assert.True(t, price.UnitPrice.Amount().Equal(decimal.NewFromInt(2000)))
	})

	t.Run("returns domain error for unknown code", func(t *testing.T) {
		catalog := NewInMemoryPriceCatalog()

		_, err := catalog.ResolvePrice(context.Background(), "UNKNOWN")
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "SERVICE_PRICE_NOT_FOUND", domainErr.Code)
	})
}

func TestInMemoryBedStaySource(t *testing.T) {
	t.Run("returns segments for an admission", func(t *testing.T) {
		source := NewInMemoryBedStaySource()
		admissionID := uuid.New()
		source.AddSegment(acl.BedStaySegment{
			SegmentID:      uuid.New(),
			AdmissionID:    admissionID,
			PatientID:      uuid.New(),
			WardName:       "General Ward",
			BedNumber:      "G-12",
			BedServiceCode: "BED-GEN",
			StartedAt:      time.Now().Add(-24 * time.Hour),
		})

		segments, err := source.GetStaySegments(context.Background(), admissionID)
		require.NoError(t, err)
		require.Len(t, segments, 1)
		assert.Equal(t, "G-12", segments[0].BedNumber)
	})

	t.Run("returns empty slice for unknown admission", func(t *testing.T) {
		source := NewInMemoryBedStaySource()

		segments, err := source.GetStaySegments(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, segments)
	})
}

func TestInMemoryOTCaseSource(t *testing.T) {
	t.Run("returns recorded case", func(t *testing.T) {
		source := NewInMemoryOTCaseSource()
		caseID := uuid.New()
		source.AddCase(acl.OTCase{
			CaseID:      caseID,
			PatientID:   uuid.New(),
			TheatreName: "OT-1",
			PerformedAt: time.Now(),
			Procedures: []acl.OTProcedure{
				{ProcedureID: uuid.New(), ServiceCode: "OT-APPEND", Name: "Appendectomy", Quantity: 1},
			},
		})

		otCase, err := source.GetCase(context.Background(), caseID)
		require.NoError(t, err)
		assert.Equal(t, "OT-1", otCase.TheatreName)
		require.Len(t, otCase.Procedures, 1)
	})

	t.Run("returns ErrNotFound for unknown case", func(t *testing.T) {
		source := NewInMemoryOTCaseSource()

		_, err := source.GetCase(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
