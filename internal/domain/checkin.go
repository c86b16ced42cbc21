package domain

import "time"

// CheckInStatus is the lifecycle state of a check-in.
type CheckInStatus string

const (
	CheckInStatusPending   CheckInStatus = "pending"
	CheckInStatusValidated CheckInStatus = "validated"
)

// CheckIn records a user's presence at a gym. A user holds at most one check-in
// per calendar day, and ValidatedAt is set at most once.
type CheckIn struct {
	ID          string
	UserID      string
	GymID       string
	CreatedAt   time.Time
	ValidatedAt *time.Time
}

// Status reports whether the check-in is still pending validation.
func (c CheckIn) Status() CheckInStatus {
	if c.ValidatedAt != nil {
		return CheckInStatusValidated
	}
	return CheckInStatusPending
}

// CreateCheckInParams carries the fields a repository needs to persist a new check-in.
type CreateCheckInParams struct {
	UserID    string
	GymID     string
	CreatedAt time.Time
}

// UserMetrics summarises a member's check-in activity.
type UserMetrics struct {
	CheckInsCount int
}
