package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuskit/eventdesk/internal/dto"
	"github.com/campuskit/eventdesk/internal/models"
	appErrors "github.com/campuskit/eventdesk/pkg/errors"
)

type conflictFinder interface {
	FindConflicts(ctx context.Context, venue string, dateFrom, dateTo time.Time) ([]models.VenueConflict, error)
}

// VenueService answers availability queries for the constrained venues.
// Venues outside the constrained set are always reported available; the
// overlap test treats date ranges as closed intervals, so bookings touching
// on a boundary day do conflict.
type VenueService struct {
	repo        conflictFinder
	constrained map[string]struct{}
	logger      *zap.Logger
}

// NewVenueService constructs the service from the configured venue list.
func NewVenueService(repo conflictFinder, constrained []string, logger *zap.Logger) *VenueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	set := make(map[string]struct{}, len(constrained))
	for _, v := range constrained {
		name := strings.TrimSpace(v)
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return &VenueService{repo: repo, constrained: set, logger: logger}
}

// CheckAvailability reports whether the venue is free for the requested
// range and lists the approved bookings that overlap it. The answer is a
// point-in-time snapshot, not a reservation.
func (s *VenueService) CheckAvailability(ctx context.Context, req dto.VenueCheckRequest) (*dto.VenueCheckResponse, error) {
	venue := strings.TrimSpace(req.Venue)
	if venue == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "venue is required")
	}
	dateFrom, dateTo, err := parseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	if _, ok := s.constrained[venue]; !ok {
		return &dto.VenueCheckResponse{Available: true, Conflicts: []models.VenueConflict{}}, nil
	}

	conflicts, err := s.repo.FindConflicts(ctx, venue, dateFrom, dateTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check venue availability")
	}
	if conflicts == nil {
		conflicts = []models.VenueConflict{}
	}
	return &dto.VenueCheckResponse{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}
