package acl

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OTProcedure is one billable procedure performed during an OT case
type OTProcedure struct {
	ProcedureID uuid.UUID
	ServiceCode string
	Name        string
	Quantity    int64
}

// OTCase is the Billing-local view of a completed operation theatre case
type OTCase struct {
	CaseID      uuid.UUID
	PatientID   uuid.UUID
	AdmissionID *uuid.UUID
	SurgeonID   *uuid.UUID
	TheatreName string
	PerformedAt time.Time
	Procedures  []OTProcedure
}

// OTCaseSource exposes the OT scheduling context's completed cases to the
// OT-charge integrator
type OTCaseSource interface {
	// GetCase returns a completed OT case with its performed procedures.
	// Returns an error when the case does not exist or is not yet completed.
	GetCase(ctx context.Context, caseID uuid.UUID) (OTCase, error)
}
