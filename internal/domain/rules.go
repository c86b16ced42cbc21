package domain

import "time"

const (
	// DefaultMaxDistanceKm is how close a user must be to a gym to check in.
	DefaultMaxDistanceKm = 0.1
	// DefaultValidationWindow is how long a pending check-in stays validatable.
	DefaultValidationWindow = 20 * time.Minute
	// DefaultPageSize is the number of items returned per page by list queries.
	DefaultPageSize = 20
	// DefaultNearbyRadiusKm bounds the nearby-gyms query.
	DefaultNearbyRadiusKm = 10.0
)

// Rules holds the check-in business thresholds.
type Rules struct {
	MaxDistanceKm    float64
	ValidationWindow time.Duration
}

// DefaultRules returns the standard check-in thresholds.
func DefaultRules() Rules {
	return Rules{
		MaxDistanceKm:    DefaultMaxDistanceKm,
		ValidationWindow: DefaultValidationWindow,
	}
}

// WithDefaults fills unset thresholds.
func (r Rules) WithDefaults() Rules {
	if r.MaxDistanceKm <= 0 {
		r.MaxDistanceKm = DefaultMaxDistanceKm
	}
	if r.ValidationWindow <= 0 {
		r.ValidationWindow = DefaultValidationWindow
	}
	return r
}

// QueryLimits configures repository paging and proximity queries.
type QueryLimits struct {
	PageSize       int
	NearbyRadiusKm float64
}

// DefaultQueryLimits returns the standard query limits.
func DefaultQueryLimits() QueryLimits {
	return QueryLimits{
		PageSize:       DefaultPageSize,
		NearbyRadiusKm: DefaultNearbyRadiusKm,
	}
}

// WithDefaults fills unset limits.
func (q QueryLimits) WithDefaults() QueryLimits {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.NearbyRadiusKm <= 0 {
		q.NearbyRadiusKm = DefaultNearbyRadiusKm
	}
	return q
}
