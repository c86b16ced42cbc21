package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/persistence"
)

// CheckInRepository stores check-ins and enforces one check-in per user and day under its lock.
type CheckInRepository struct {
	mu       sync.RWMutex
	checkIns []domain.CheckIn
	byID     map[string]int
	limits   domain.QueryLimits
}

// NewCheckInRepository constructs an empty repository. Zero limits fall back to defaults.
func NewCheckInRepository(limits domain.QueryLimits) *CheckInRepository {
	return &CheckInRepository{
		byID:   make(map[string]int),
		limits: limits.WithDefaults(),
	}
}

// FindByID implements domain.CheckInRepository.
func (r *CheckInRepository) FindByID(ctx context.Context, id string) (*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneCheckIn(r.checkIns[idx]), nil
}

// FindByUserIDOnDate returns the user's check-in created on the calendar day of date.
func (r *CheckInRepository) FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*domain.CheckIn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if existing := r.findOnDay(userID, date); existing != nil {
		return cloneCheckIn(*existing), nil
	}
	return nil, nil
}

func (r *CheckInRepository) findOnDay(userID string, date time.Time) *domain.CheckIn {
	start, end := persistence.DayBounds(date)
	for i := range r.checkIns {
		ci := &r.checkIns[i]
		if ci.UserID != userID {
			continue
		}
		if !ci.CreatedAt.Before(start) && ci.CreatedAt.Before(end) {
			return ci
		}
	}
	return nil
}

// FindManyByUserID lists the user's check-ins newest first.
func (r *CheckInRepository) FindManyByUserID(ctx context.Context, userID string, page int) ([]domain.CheckIn, error) {
	r.mu.RLock()
	owned := make([]domain.CheckIn, 0)
	for _, ci := range r.checkIns {
		if ci.UserID == userID {
			owned = append(owned, *cloneCheckIn(ci))
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(owned, func(a, b domain.CheckIn) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	start, end := persistence.Window(page, r.limits.PageSize, len(owned))
	return owned[start:end], nil
}

// CountByUserID returns how many check-ins the user has.
func (r *CheckInRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, ci := range r.checkIns {
		if ci.UserID == userID {
			count++
		}
	}
	return count, nil
}

// Create stores a pending check-in unless the user already has one on the same day.
func (r *CheckInRepository) Create(ctx context.Context, params domain.CreateCheckInParams) (*domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findOnDay(params.UserID, params.CreatedAt); existing != nil {
		return nil, fmt.Errorf("user %s on %s: %w", params.UserID, persistence.DayKey(params.CreatedAt), domain.ErrMaxNumberOfCheckIns)
	}

	checkIn := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		GymID:     params.GymID,
		CreatedAt: params.CreatedAt,
	}
	r.byID[checkIn.ID] = len(r.checkIns)
	r.checkIns = append(r.checkIns, checkIn)
	return cloneCheckIn(checkIn), nil
}

// Save records the validation timestamp of a pending check-in.
func (r *CheckInRepository) Save(ctx context.Context, checkIn domain.CheckIn) (*domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[checkIn.ID]
	if !ok {
		return nil, fmt.Errorf("check-in %s: %w", checkIn.ID, domain.ErrResourceNotFound)
	}
	stored := &r.checkIns[idx]
	if stored.ValidatedAt != nil {
		return nil, domain.ErrCheckInAlreadyValidated
	}
	if checkIn.ValidatedAt != nil {
		validatedAt := *checkIn.ValidatedAt
		stored.ValidatedAt = &validatedAt
	}
	return cloneCheckIn(*stored), nil
}

func cloneCheckIn(ci domain.CheckIn) *domain.CheckIn {
	out := ci
	if ci.ValidatedAt != nil {
		validatedAt := *ci.ValidatedAt
		out.ValidatedAt = &validatedAt
	}
	return &out
}
