package acl

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// BedStaySegment is the Billing-local view of one continuous occupancy of
// a bed during an admission. A transfer closes one segment and opens the
// next; each segment is billed as its own line item keyed by SegmentID.
type BedStaySegment struct {
	SegmentID      uuid.UUID
	AdmissionID    uuid.UUID
	PatientID      uuid.UUID
	WardName       string
	BedNumber      string
	BedServiceCode string
	StartedAt      time.Time
	EndedAt        *time.Time
}

// Days returns the number of chargeable bed days for the segment up to
// asOf, counting a started day as a full day and never returning less
// than one. An open segment is billed to asOf; a closed one to whichever
// of its end and asOf comes first.
func (s BedStaySegment) Days(asOf time.Time) int64 {
	end := s.chargeableEnd(asOf)
	if end.Before(s.StartedAt) {
		return 1
	}
	days := int64(end.Sub(s.StartedAt).Hours()/24) + 1
	return days
}

// Hours returns the number of chargeable bed hours for the segment up
// to asOf, counting a started hour as a full hour and never returning
// less than one.
func (s BedStaySegment) Hours(asOf time.Time) int64 {
	end := s.chargeableEnd(asOf)
	if end.Before(s.StartedAt) {
		return 1
	}
	hours := int64(math.Ceil(end.Sub(s.StartedAt).Hours()))
	if hours < 1 {
		hours = 1
	}
	return hours
}

func (s BedStaySegment) chargeableEnd(asOf time.Time) time.Time {
	if s.EndedAt != nil && s.EndedAt.Before(asOf) {
		return *s.EndedAt
	}
	return asOf
}

// BedStayUsageSource exposes the ADT context's occupancy records to the
// bed-charge integrator
type BedStayUsageSource interface {
	// GetStaySegments returns the bed stay segments of an admission in
	// chronological order
	GetStaySegments(ctx context.Context, admissionID uuid.UUID) ([]BedStaySegment, error)
}
