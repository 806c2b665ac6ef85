package clinical

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hims/backend/internal/domain/billing/acl"
)

// InMemoryBedStaySource is an in-memory implementation of BedStayUsageSource.
// Segments are recorded by the admission workflow or by tests.
type InMemoryBedStaySource struct {
	mu       sync.RWMutex
	segments map[uuid.UUID][]acl.BedStaySegment
}

// NewInMemoryBedStaySource creates an empty bed stay source
func NewInMemoryBedStaySource() *InMemoryBedStaySource {
	return &InMemoryBedStaySource{
		segments: make(map[uuid.UUID][]acl.BedStaySegment),
	}
}

// AddSegment records a stay segment for an admission
func (s *InMemoryBedStaySource) AddSegment(segment acl.BedStaySegment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments[segment.AdmissionID] = append(s.segments[segment.AdmissionID], segment)
}

// GetStaySegments returns the stay segments recorded for an admission.
// An unknown admission yields an empty slice, not an error.
func (s *InMemoryBedStaySource) GetStaySegments(_ context.Context, admissionID uuid.UUID) ([]acl.BedStaySegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := s.segments[admissionID]
	out := make([]acl.BedStaySegment, len(segments))
	copy(out, segments)
	return out, nil
}

// Ensure InMemoryBedStaySource implements BedStayUsageSource
var _ acl.BedStayUsageSource = (*InMemoryBedStaySource)(nil)
