package api

import (
	"errors"
	"time"

	"example.com/gymcheckins/internal/domain"
)

// CreateGymRequest is the payload for POST /v1/gyms.
type CreateGymRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Phone       *string  `json:"phone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Validate ensures the coordinates are present; ranges are checked by the service.
func (r CreateGymRequest) Validate() error {
	if r.Latitude == nil {
		return errors.New("latitude is required")
	}
	if r.Longitude == nil {
		return errors.New("longitude is required")
	}
	return nil
}

// CheckInRequest carries the user's position for POST /v1/gyms/{gymID}/check-ins.
type CheckInRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Validate ensures the coordinates are present.
func (r CheckInRequest) Validate() error {
	if r.Latitude == nil {
		return errors.New("latitude is required")
	}
	if r.Longitude == nil {
		return errors.New("longitude is required")
	}
	return nil
}

// GymView is the public representation of a gym.
type GymView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Phone       *string   `json:"phone"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// GymListResponse packages search and nearby results.
type GymListResponse struct {
	Gyms []GymView `json:"gyms"`
	Page int       `json:"page"`
}

// CheckInView is the public representation of a check-in.
type CheckInView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	GymID       string     `json:"gym_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ValidatedAt *time.Time `json:"validated_at"`
}

// CheckInListResponse packages a page of check-in history.
type CheckInListResponse struct {
	CheckIns []CheckInView `json:"check_ins"`
	Page     int           `json:"page"`
}

// UserMetricsResponse summarises a user's check-ins.
type UserMetricsResponse struct {
	CheckInsCount int `json:"check_ins_count"`
}

func toGymView(g domain.Gym) GymView {
	return GymView{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Phone:       g.Phone,
		Latitude:    g.Latitude,
		Longitude:   g.Longitude,
		CreatedAt:   g.CreatedAt,
	}
}

func toGymViews(gyms []domain.Gym) []GymView {
	out := make([]GymView, 0, len(gyms))
	for _, g := range gyms {
		out = append(out, toGymView(g))
	}
	return out
}

func toCheckInView(ci domain.CheckIn) CheckInView {
	return CheckInView{
		ID:          ci.ID,
		UserID:      ci.UserID,
		GymID:       ci.GymID,
		Status:      string(ci.Status()),
		CreatedAt:   ci.CreatedAt,
		ValidatedAt: ci.ValidatedAt,
	}
}
