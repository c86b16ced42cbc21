// Package events defines the payloads published for gym and check-in changes.
package events

import "time"

// Event types written to the outbox.
const (
	TypeGymCreated       = "gym.created"
	TypeCheckInCreated   = "checkin.created"
	TypeCheckInValidated = "checkin.validated"
)

// Topics the outbox dispatcher publishes to.
const (
	TopicGymEvents     = "gym_events"
	TopicCheckInEvents = "checkin_events"
)

// GymCreated is emitted when a gym is registered.
type GymCreated struct {
	GymID       string    `json:"gym_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// CheckInCreated is emitted when a pending check-in is accepted.
type CheckInCreated struct {
	CheckInID string    `json:"check_in_id"`
	UserID    string    `json:"user_id"`
	GymID     string    `json:"gym_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckInValidated is emitted when a pending check-in is validated.
type CheckInValidated struct {
	CheckInID   string    `json:"check_in_id"`
	UserID      string    `json:"user_id"`
	GymID       string    `json:"gym_id"`
	CreatedAt   time.Time `json:"created_at"`
	ValidatedAt time.Time `json:"validated_at"`
}
