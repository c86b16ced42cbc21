// Package domain defines the business rules of the gym check-in service.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/gymcheckins/internal/geo"
	"example.com/gymcheckins/internal/observability"
)

// Service orchestrates gym and check-in workflows. It holds no per-call state and is safe
// for concurrent use.
type Service struct {
	gyms     GymRepository
	checkIns CheckInRepository
	clock    Clock
	location *time.Location
	rules    Rules
}

// Option configures optional Service behaviour.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithRules overrides the check-in thresholds. Unset fields keep their defaults.
func WithRules(rules Rules) Option {
	return func(s *Service) {
		s.rules = rules.WithDefaults()
	}
}

// NewService constructs a Service.
func NewService(gyms GymRepository, checkIns CheckInRepository, opts ...Option) *Service {
	s := &Service{
		gyms:     gyms,
		checkIns: checkIns,
		clock:    SystemClock{},
		location: time.UTC,
		rules:    DefaultRules(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the thresholds in effect.
func (s *Service) Rules() Rules {
	return s.rules
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.location)
}

// CreateGymInput is the payload for registering a gym.
type CreateGymInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	Phone       *string `json:"phone"`
	Latitude    float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// CreateGym validates the input and persists a new gym.
func (s *Service) CreateGym(ctx context.Context, input CreateGymInput) (*Gym, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	gym, err := s.gyms.Create(ctx, CreateGymParams{
		Title:       input.Title,
		Description: input.Description,
		Phone:       input.Phone,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	observability.RecordGymCreated()
	return gym, nil
}

// CheckInInput is the payload for checking a user in at a gym.
type CheckInInput struct {
	UserID        string  `json:"user_id" validate:"required"`
	GymID         string  `json:"gym_id" validate:"required"`
	UserLatitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	UserLongitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// CheckIn registers a pending check-in after the distance and once-per-day gates pass.
// It performs exactly one repository write on success and none on failure.
func (s *Service) CheckIn(ctx context.Context, input CheckInInput) (*CheckIn, error) {
	input.UserID = strings.TrimSpace(input.UserID)
	input.GymID = strings.TrimSpace(input.GymID)
	if err := validateInput(input); err != nil {
		observability.RecordCheckIn(observability.OutcomeInvalid)
		return nil, err
	}

	now := s.now()

	gym, err := s.gyms.FindByID(ctx, input.GymID)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		observability.RecordCheckIn(observability.OutcomeNotFound)
		return nil, fmt.Errorf("gym %s: %w", input.GymID, ErrResourceNotFound)
	}

	user := geo.Coordinate{Latitude: input.UserLatitude, Longitude: input.UserLongitude}
	if distance := geo.Distance(user, gym.Coordinate()); distance > s.rules.MaxDistanceKm {
		observability.RecordCheckIn(observability.OutcomeMaxDistance)
		return nil, fmt.Errorf("%w: %.3f km from gym %s", ErrMaxDistance, distance, gym.ID)
	}

	existing, err := s.checkIns.FindByUserIDOnDate(ctx, input.UserID, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.RecordCheckIn(observability.OutcomeDuplicate)
		return nil, ErrMaxNumberOfCheckIns
	}

	checkIn, err := s.checkIns.Create(ctx, CreateCheckInParams{
		UserID:    input.UserID,
		GymID:     gym.ID,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrMaxNumberOfCheckIns) {
			observability.RecordCheckIn(observability.OutcomeDuplicate)
		}
		return nil, err
	}

	observability.RecordCheckIn(observability.OutcomeCreated)
	return checkIn, nil
}

// ValidateCheckInInput identifies the check-in to validate.
type ValidateCheckInInput struct {
	CheckInID string `json:"check_in_id" validate:"required"`
}

// ValidateCheckIn marks a pending check-in as validated if it is still inside the window.
func (s *Service) ValidateCheckIn(ctx context.Context, input ValidateCheckInInput) (*CheckIn, error) {
	input.CheckInID = strings.TrimSpace(input.CheckInID)
	if err := validateInput(input); err != nil {
		observability.RecordValidation(observability.OutcomeInvalid)
		return nil, err
	}

	now := s.now()

	checkIn, err := s.checkIns.FindByID(ctx, input.CheckInID)
	if err != nil {
		return nil, err
	}
	if checkIn == nil {
		observability.RecordValidation(observability.OutcomeNotFound)
		return nil, fmt.Errorf("check-in %s: %w", input.CheckInID, ErrResourceNotFound)
	}
	if checkIn.ValidatedAt != nil {
		observability.RecordValidation(observability.OutcomeAlreadyValidated)
		return nil, ErrCheckInAlreadyValidated
	}

	if elapsed := now.Sub(checkIn.CreatedAt); elapsed >= s.rules.ValidationWindow {
		observability.RecordValidation(observability.OutcomeLate)
		return nil, fmt.Errorf("%w: created %s ago", ErrLateCheckInValidation, elapsed.Truncate(time.Second))
	}

	validated := *checkIn
	validated.ValidatedAt = &now

	saved, err := s.checkIns.Save(ctx, validated)
	if err != nil {
		if errors.Is(err, ErrCheckInAlreadyValidated) {
			observability.RecordValidation(observability.OutcomeAlreadyValidated)
		}
		return nil, err
	}

	observability.RecordValidation(observability.OutcomeValidated)
	return saved, nil
}

// SearchGyms returns one page of gyms whose title contains query.
func (s *Service) SearchGyms(ctx context.Context, query string, page int) ([]Gym, error) {
	return s.gyms.SearchMany(ctx, strings.TrimSpace(query), page)
}

// NearbyGymsInput is the user position for a proximity query.
type NearbyGymsInput struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// FetchNearbyGyms lists gyms close to the user.
func (s *Service) FetchNearbyGyms(ctx context.Context, input NearbyGymsInput) ([]Gym, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.gyms.FetchNearby(ctx, geo.Coordinate{Latitude: input.Latitude, Longitude: input.Longitude})
}

// CheckInHistory lists a user's check-ins newest first.
func (s *Service) CheckInHistory(ctx context.Context, userID string, page int) ([]CheckIn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	return s.checkIns.FindManyByUserID(ctx, userID, page)
}

// UserMetrics summarises a user's check-ins.
func (s *Service) UserMetrics(ctx context.Context, userID string) (UserMetrics, error) {
	if strings.TrimSpace(userID) == "" {
		return UserMetrics{}, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	count, err := s.checkIns.CountByUserID(ctx, userID)
	if err != nil {
		return UserMetrics{}, err
	}
	return UserMetrics{CheckInsCount: count}, nil
}
