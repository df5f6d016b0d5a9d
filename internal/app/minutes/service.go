package minutes

import (
	"context"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

const defaultLimit = 20

// Service holds the logic of reading meeting minutes
type Service struct {
	store domain.MinutesStore
}

// NewService creates a minutes service from a MinutesStore
func NewService(store domain.MinutesStore) *Service {
	return &Service{
		store: store,
	}
}

// ProjectMinutes returns the last `limit` minutes recorded for a project,
// oldest first. The empty project id lists minutes of general sessions.
// If limit <= 0, a reasonable default value is used.
func (s *Service) ProjectMinutes(
	ctx context.Context,
	projectID domain.ProjectID,
	limit int,
) ([]*domain.MeetingMinutes, error) {

	if s.store == nil {
		return []*domain.MeetingMinutes{}, nil
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	return s.store.ListMinutes(ctx, projectID, limit)
}
