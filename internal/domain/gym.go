package domain

import (
	"time"

	"example.com/gymcheckins/internal/geo"
)

// Gym is a physical location where members check in. Gyms are immutable once created.
type Gym struct {
	ID          string
	Title       string
	Description *string
	Phone       *string
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time
}

// Coordinate returns the gym position.
func (g Gym) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: g.Latitude, Longitude: g.Longitude}
}

// CreateGymParams carries the fields a repository needs to persist a new gym.
type CreateGymParams struct {
	Title       string
	Description *string
	Phone       *string
	Latitude    float64
	Longitude   float64
	CreatedAt   time.Time
}
