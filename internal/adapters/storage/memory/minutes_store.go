package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// MinutesStore is an in-memory implementation of domain.MinutesStore.
// It is NOT persistent and is only suitable for development / local mode.
type MinutesStore struct {
	mu        sync.RWMutex
	entries   map[domain.MinutesID]*domain.MeetingMinutes
	byProject map[domain.ProjectID][]domain.MinutesID
}

func NewMinutesStore() *MinutesStore {
	return &MinutesStore{
		entries:   make(map[domain.MinutesID]*domain.MeetingMinutes),
		byProject: make(map[domain.ProjectID][]domain.MinutesID),
	}
}

// AppendMinutes saves new minutes. Minutes without a project are listed under "".
func (s *MinutesStore) AppendMinutes(ctx context.Context, minutes *domain.MeetingMinutes) error {
	if minutes == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if minutes.ID == "" {
		minutes.ID = domain.MinutesID(domain.NewID())
	}

	cp := *minutes
	cp.Participants = append([]domain.EmployeeID(nil), minutes.Participants...)
	s.entries[cp.ID] = &cp
	s.byProject[cp.ProjectID] = append(s.byProject[cp.ProjectID], cp.ID)

	return nil
}

// ListMinutes returns the last `limit` minutes for a project, oldest first.
// If limit <= 0, returns all.
func (s *MinutesStore) ListMinutes(ctx context.Context, projectID domain.ProjectID, limit int) ([]*domain.MeetingMinutes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byProject[projectID]
	if len(ids) == 0 {
		return []*domain.MeetingMinutes{}, nil
	}

	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}
	selected := ids[len(ids)-limit:]

	out := make([]*domain.MeetingMinutes, 0, len(selected))
	for _, id := range selected {
		if e, ok := s.entries[id]; ok {
			cp := *e
			out = append(out, &cp)
		}
	}

	return out, nil
}
