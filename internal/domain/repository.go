package domain

import (
	"context"
	"time"

	"example.com/gymcheckins/internal/geo"
)

// GymRepository captures gym persistence. Lookups return nil, nil when nothing matches.
type GymRepository interface {
	FindByID(ctx context.Context, id string) (*Gym, error)
	// SearchMany matches title substrings case-insensitively. Pages start at 1.
	SearchMany(ctx context.Context, query string, page int) ([]Gym, error)
	// FetchNearby returns gyms within the configured radius of point.
	FetchNearby(ctx context.Context, point geo.Coordinate) ([]Gym, error)
	Create(ctx context.Context, params CreateGymParams) (*Gym, error)
}

// CheckInRepository captures check-in persistence. Implementations must reject a second
// check-in for the same user and calendar day with ErrMaxNumberOfCheckIns, even under
// concurrent calls.
type CheckInRepository interface {
	FindByID(ctx context.Context, id string) (*CheckIn, error)
	// FindByUserIDOnDate returns the check-in created on the calendar day of date,
	// evaluated in date's location.
	FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*CheckIn, error)
	// FindManyByUserID lists a user's check-ins newest first. Pages start at 1.
	FindManyByUserID(ctx context.Context, userID string, page int) ([]CheckIn, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, params CreateCheckInParams) (*CheckIn, error)
	// Save persists ValidatedAt. It fails with ErrCheckInAlreadyValidated when the stored
	// check-in is no longer pending.
	Save(ctx context.Context, checkIn CheckIn) (*CheckIn, error)
}
