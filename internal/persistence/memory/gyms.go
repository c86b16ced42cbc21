// Package memory provides in-process repositories for tests and local development.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/geo"
	"example.com/gymcheckins/internal/persistence"
)

// GymRepository stores gyms in insertion order.
type GymRepository struct {
	mu     sync.RWMutex
	gyms   []domain.Gym
	byID   map[string]int
	limits domain.QueryLimits
}

// NewGymRepository constructs an empty repository. Zero limits fall back to defaults.
func NewGymRepository(limits domain.QueryLimits) *GymRepository {
	return &GymRepository{
		byID:   make(map[string]int),
		limits: limits.WithDefaults(),
	}
}

// FindByID implements domain.GymRepository.
func (r *GymRepository) FindByID(ctx context.Context, id string) (*domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneGym(r.gyms[idx]), nil
}

// SearchMany performs a case-insensitive substring match on titles.
func (r *GymRepository) SearchMany(ctx context.Context, query string, page int) ([]domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]domain.Gym, 0)
	for _, gym := range r.gyms {
		if strings.Contains(strings.ToLower(gym.Title), needle) {
			matches = append(matches, *cloneGym(gym))
		}
	}

	start, end := persistence.Window(page, r.limits.PageSize, len(matches))
	return matches[start:end], nil
}

// FetchNearby returns gyms within the configured radius.
func (r *GymRepository) FetchNearby(ctx context.Context, point geo.Coordinate) ([]domain.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]domain.Gym, 0)
	for _, gym := range r.gyms {
		if geo.Distance(point, gym.Coordinate()) <= r.limits.NearbyRadiusKm {
			results = append(results, *cloneGym(gym))
		}
	}
	return results, nil
}

// Create assigns an ID and stores the gym.
func (r *GymRepository) Create(ctx context.Context, params domain.CreateGymParams) (*domain.Gym, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	gym := domain.Gym{
		ID:          uuid.NewString(),
		Title:       params.Title,
		Description: params.Description,
		Phone:       params.Phone,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
		CreatedAt:   params.CreatedAt,
	}
	r.byID[gym.ID] = len(r.gyms)
	r.gyms = append(r.gyms, *cloneGym(gym))
	return cloneGym(gym), nil
}

// Add stores a gym with a caller-chosen ID, replacing any gym with the same ID.
func (r *GymRepository) Add(gym domain.Gym) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gym = *cloneGym(gym)

	if idx, ok := r.byID[gym.ID]; ok {
		r.gyms[idx] = gym
		return
	}
	r.byID[gym.ID] = len(r.gyms)
	r.gyms = append(r.gyms, gym)
}

func cloneGym(gym domain.Gym) *domain.Gym {
	out := gym
	if gym.Description != nil {
		description := *gym.Description
		out.Description = &description
	}
	if gym.Phone != nil {
		phone := *gym.Phone
		out.Phone = &phone
	}
	return &out
}
