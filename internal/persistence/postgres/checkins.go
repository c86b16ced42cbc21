package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/events"
	"example.com/gymcheckins/internal/observability"
	"example.com/gymcheckins/internal/persistence"
)

const (
	checkInColumns       = `id, user_id, gym_id, created_at, validated_at`
	checkInDayConstraint = "check_ins_user_day_key"
)

// CheckInRepository persists check-ins in Postgres. The (user_id, check_in_day) unique
// constraint serialises concurrent check-ins by the same user.
type CheckInRepository struct {
	pool   *pgxpool.Pool
	limits domain.QueryLimits
}

// NewCheckInRepository constructs a CheckInRepository. Zero limits fall back to defaults.
func NewCheckInRepository(pool *pgxpool.Pool, limits domain.QueryLimits) *CheckInRepository {
	return &CheckInRepository{pool: pool, limits: limits.WithDefaults()}
}

// FindByID implements domain.CheckInRepository.
func (r *CheckInRepository) FindByID(ctx context.Context, id string) (*domain.CheckIn, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+checkInColumns+` FROM check_ins WHERE id = $1`, id)
	return scanOptionalCheckIn(row)
}

// FindByUserIDOnDate returns the check-in created within the calendar day of date.
func (r *CheckInRepository) FindByUserIDOnDate(ctx context.Context, userID string, date time.Time) (*domain.CheckIn, error) {
	start, end := persistence.DayBounds(date)

	const stmt = `SELECT ` + checkInColumns + `
        FROM check_ins
        WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
        ORDER BY created_at
        LIMIT 1`

	return scanOptionalCheckIn(r.pool.QueryRow(ctx, stmt, userID, start, end))
}

// FindManyByUserID lists the user's check-ins newest first.
func (r *CheckInRepository) FindManyByUserID(ctx context.Context, userID string, page int) ([]domain.CheckIn, error) {
	const stmt = `SELECT ` + checkInColumns + `
        FROM check_ins
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, stmt, userID, r.limits.PageSize, persistence.Offset(page, r.limits.PageSize))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.CheckIn, 0, r.limits.PageSize)
	for rows.Next() {
		ci, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountByUserID returns the number of check-ins the user has made.
func (r *CheckInRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM check_ins WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a pending check-in and its checkin.created outbox event. A second
// check-in for the same user and day fails with domain.ErrMaxNumberOfCheckIns.
func (r *CheckInRepository) Create(ctx context.Context, params domain.CreateCheckInParams) (*domain.CheckIn, error) {
	checkIn := domain.CheckIn{
		ID:        uuid.NewString(),
		UserID:    params.UserID,
		GymID:     params.GymID,
		CreatedAt: params.CreatedAt,
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertCheckIn = `INSERT INTO check_ins (id, user_id, gym_id, created_at, check_in_day)
        VALUES ($1,$2,$3,$4,$5::date)`

	if _, err := tx.Exec(ctx, insertCheckIn,
		checkIn.ID,
		checkIn.UserID,
		checkIn.GymID,
		checkIn.CreatedAt,
		persistence.DayKey(checkIn.CreatedAt),
	); err != nil {
		if isUniqueViolation(err, checkInDayConstraint) {
			return nil, fmt.Errorf("user %s on %s: %w", checkIn.UserID, persistence.DayKey(checkIn.CreatedAt), domain.ErrMaxNumberOfCheckIns)
		}
		return nil, err
	}

	if err := insertOutbox(ctx, tx, outboxEvent{
		AggregateType: "check_in",
		AggregateID:   checkIn.ID,
		EventType:     events.TypeCheckInCreated,
		PartitionKey:  checkIn.UserID,
		Payload: events.CheckInCreated{
			CheckInID: checkIn.ID,
			UserID:    checkIn.UserID,
			GymID:     checkIn.GymID,
			CreatedAt: checkIn.CreatedAt,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordCheckInPersisted(checkIn.CreatedAt)
	return &checkIn, nil
}

// Save records the validation timestamp if the stored check-in is still pending.
func (r *CheckInRepository) Save(ctx context.Context, checkIn domain.CheckIn) (*domain.CheckIn, error) {
	if checkIn.ValidatedAt == nil {
		return nil, &domain.ValidationError{Field: "validated_at", Reason: "is required"}
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const update = `UPDATE check_ins SET validated_at = $2
        WHERE id = $1 AND validated_at IS NULL
        RETURNING ` + checkInColumns

	saved, err := scanCheckIn(tx.QueryRow(ctx, update, checkIn.ID, *checkIn.ValidatedAt))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM check_ins WHERE id = $1)`, checkIn.ID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("check-in %s: %w", checkIn.ID, domain.ErrResourceNotFound)
		}
		return nil, domain.ErrCheckInAlreadyValidated
	}

	if err := insertOutbox(ctx, tx, outboxEvent{
		AggregateType: "check_in",
		AggregateID:   saved.ID,
		EventType:     events.TypeCheckInValidated,
		PartitionKey:  saved.UserID,
		Payload: events.CheckInValidated{
			CheckInID:   saved.ID,
			UserID:      saved.UserID,
			GymID:       saved.GymID,
			CreatedAt:   saved.CreatedAt,
			ValidatedAt: *saved.ValidatedAt,
		},
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &saved, nil
}

func scanCheckIn(row scanner) (domain.CheckIn, error) {
	var ci domain.CheckIn
	if err := row.Scan(&ci.ID, &ci.UserID, &ci.GymID, &ci.CreatedAt, &ci.ValidatedAt); err != nil {
		return domain.CheckIn{}, err
	}
	ci.CreatedAt = ci.CreatedAt.UTC()
	if ci.ValidatedAt != nil {
		validatedAt := ci.ValidatedAt.UTC()
		ci.ValidatedAt = &validatedAt
	}
	return ci, nil
}

func scanOptionalCheckIn(row pgx.Row) (*domain.CheckIn, error) {
	ci, err := scanCheckIn(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ci, nil
}
