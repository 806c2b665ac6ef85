package clinical

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
)

// InMemoryOTCaseSource is an in-memory implementation of OTCaseSource.
// Cases are recorded by the theatre workflow or by tests.
type InMemoryOTCaseSource struct {
	mu    sync.RWMutex
	cases map[uuid.UUID]acl.OTCase
}

// NewInMemoryOTCaseSource creates an empty OT case source
func NewInMemoryOTCaseSource() *InMemoryOTCaseSource {
	return &InMemoryOTCaseSource{
		cases: make(map[uuid.UUID]acl.OTCase),
	}
}

// AddCase records a completed theatre case
func (s *InMemoryOTCaseSource) AddCase(otCase acl.OTCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[otCase.CaseID] = otCase
}

// GetCase returns a theatre case by ID
func (s *InMemoryOTCaseSource) GetCase(_ context.Context, caseID uuid.UUID) (acl.OTCase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	otCase, ok := s.cases[caseID]
	if !ok {
		return acl.OTCase{}, shared.ErrNotFound
	}
	return otCase, nil
}

// Ensure InMemoryOTCaseSource implements OTCaseSource
var _ acl.OTCaseSource = (*InMemoryOTCaseSource)(nil)
