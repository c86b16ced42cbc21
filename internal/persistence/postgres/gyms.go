package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/events"
	"example.com/gymcheckins/internal/geo"
	"example.com/gymcheckins/internal/persistence"
)

const gymColumns = `id, title, description, phone, latitude, longitude, created_at`

// GymRepository persists gyms in Postgres.
type GymRepository struct {
	pool   *pgxpool.Pool
	limits domain.QueryLimits
}

// NewGymRepository constructs a GymRepository. Zero limits fall back to defaults.
func NewGymRepository(pool *pgxpool.Pool, limits domain.QueryLimits) *GymRepository {
	return &GymRepository{pool: pool, limits: limits.WithDefaults()}
}

// FindByID implements domain.GymRepository.
func (r *GymRepository) FindByID(ctx context.Context, id string) (*domain.Gym, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id)
	gym, err := scanGym(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &gym, nil
}

// SearchMany matches the query against titles case-insensitively, ordered by creation.
func (r *GymRepository) SearchMany(ctx context.Context, query string, page int) ([]domain.Gym, error) {
	const stmt = `SELECT ` + gymColumns + `
        FROM gyms
        WHERE title ILIKE '%' || $1 || '%' ESCAPE '\'
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, stmt, persistence.EscapeLike(query), r.limits.PageSize, persistence.Offset(page, r.limits.PageSize))
	if err != nil {
		return nil, err
	}
	return collectGyms(rows)
}

// FetchNearby returns gyms within the configured radius using the haversine formula.
func (r *GymRepository) FetchNearby(ctx context.Context, point geo.Coordinate) ([]domain.Gym, error) {
	const stmt = `SELECT ` + gymColumns + `
        FROM (
            SELECT ` + gymColumns + `,
                2 * $3::float8 * asin(sqrt(LEAST(1.0,
                    power(sin(radians(latitude - $1::float8) / 2), 2) +
                    cos(radians($1::float8)) * cos(radians(latitude)) *
                    power(sin(radians(longitude - $2::float8) / 2), 2)
                ))) AS distance_km
            FROM gyms
        ) candidates
        WHERE distance_km <= $4
        ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, stmt, point.Latitude, point.Longitude, geo.EarthRadiusKm, r.limits.NearbyRadiusKm)
	if err != nil {
		return nil, err
	}
	return collectGyms(rows)
}

// Create inserts the gym and its gym.created outbox event in one transaction.
func (r *GymRepository) Create(ctx context.Context, params domain.CreateGymParams) (*domain.Gym, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, &domain.ValidationError{Field: "title", Reason: "is required"}
	}

	gym := domain.Gym{
		ID:          uuid.NewString(),
		Title:       params.Title,
		Description: params.Description,
		Phone:       params.Phone,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
		CreatedAt:   params.CreatedAt,
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertGym = `INSERT INTO gyms (` + gymColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.Exec(ctx, insertGym,
		gym.ID,
		gym.Title,
		gym.Description,
		gym.Phone,
		gym.Latitude,
		gym.Longitude,
		gym.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := insertOutbox(ctx, tx, outboxEvent{
		AggregateType: "gym",
		AggregateID:   gym.ID,
		EventType:     events.TypeGymCreated,
		PartitionKey:  gym.ID,
		Payload: events.GymCreated{
			GymID:       gym.ID,
			Title:       gym.Title,
			Description: gym.Description,
			Phone:       gym.Phone,
			Latitude:    gym.Latitude,
			Longitude:   gym.Longitude,
			CreatedAt:   gym.CreatedAt,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &gym, nil
}

func scanGym(row scanner) (domain.Gym, error) {
	var gym domain.Gym
	if err := row.Scan(&gym.ID, &gym.Title, &gym.Description, &gym.Phone, &gym.Latitude, &gym.Longitude, &gym.CreatedAt); err != nil {
		return domain.Gym{}, err
	}
	gym.CreatedAt = gym.CreatedAt.UTC()
	return gym, nil
}

func collectGyms(rows pgx.Rows) ([]domain.Gym, error) {
	defer rows.Close()

	gyms := make([]domain.Gym, 0)
	for rows.Next() {
		gym, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		gyms = append(gyms, gym)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return gyms, nil
}
