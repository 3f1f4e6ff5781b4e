package repository

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/pkg/cleanup"
	"github.com/marwo/buddyfit/pkg/entity"
)

type WorkoutsRepository struct {
	conn PgConnection
}

func NewWorkoutsRepo(cfg DBConfig) *WorkoutsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for workoutsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for workoutsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &WorkoutsRepository{
		conn: pool,
	}
}

func NewWorkoutsRepoWithConn(conn PgConnection) *WorkoutsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for workoutsRepo: " + err.Error())
	}
	return &WorkoutsRepository{
		conn: conn,
	}
}

// Create inserts the record and bumps the owner's counters in the same
// transaction, so a workout can never exist without its counter contribution.
func (wr *WorkoutsRepository) Create(ctx context.Context, w *entity.WorkoutRecord) (uuid.UUID, error) {
	if w == nil {
		return uuid.UUID{}, errors.New("workout is nil")
	}
	tx, err := wr.conn.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, errors.New("beginning workout tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	var id uuid.UUID
	row := tx.QueryRow(ctx,
		`INSERT INTO workouts (owner_id, type, duration_min, calories, date, public)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`,
		w.OwnerID, string(w.Type), w.DurationMin, w.Calories, w.Date, w.Public,
	)
	if err = row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrUserNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating workout db error: " + err.Error())
	}
	ct, err := tx.Exec(ctx,
		`UPDATE users SET total_workouts = total_workouts + 1, total_duration_min = total_duration_min + $2,
		total_calories = total_calories + $3,
		last_activity_at = GREATEST(COALESCE(last_activity_at, $4), $4), updated_at = NOW() WHERE id = $1;`,
		w.OwnerID, w.DurationMin, w.Calories, w.Date,
	)
	if err != nil {
		return uuid.UUID{}, errors.New("applying workout counters error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return uuid.UUID{}, errorvalues.ErrUserNotFound
	}
	if err = tx.Commit(ctx); err != nil {
		return uuid.UUID{}, errors.New("committing workout tx error: " + err.Error())
	}
	return id, nil
}

func (wr *WorkoutsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutRecord, error) {
	var w entity.WorkoutRecord
	w.ID = id
	var wType string
	row := wr.conn.QueryRow(ctx,
		`SELECT owner_id, type, duration_min, calories, date, public, created_at FROM workouts WHERE id = $1;`, id)
	if err := row.Scan(&w.OwnerID, &wType, &w.DurationMin, &w.Calories, &w.Date, &w.Public, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrWorkoutNotFound
		}
		return nil, errors.New("getting workout by id error: " + err.Error())
	}
	w.Type = entity.WorkoutType(wType)
	return &w, nil
}

func (wr *WorkoutsRepository) GetByOwnerAndDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.WorkoutRecord, error) {
	rows, err := wr.conn.Query(ctx,
		`SELECT id, owner_id, type, duration_min, calories, date, public, created_at
		FROM workouts WHERE owner_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC;`,
		ownerID, from, to,
	)
	if err != nil {
		return nil, errors.New("getting workouts for period error: " + err.Error())
	}
	defer rows.Close()
	result := make([]entity.WorkoutRecord, 0)
	for rows.Next() {
		var w entity.WorkoutRecord
		var wType string
		err = rows.Scan(&w.ID, &w.OwnerID, &wType, &w.DurationMin, &w.Calories, &w.Date, &w.Public, &w.CreatedAt)
		if err != nil {
			return nil, errors.New("workout row parsing error: " + err.Error())
		}
		w.Type = entity.WorkoutType(wType)
		result = append(result, w)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected workout rows error: " + rows.Err().Error())
	}
	return result, nil
}

// Delete reverses the counter contribution in the same transaction
// (compensating update). Goal progress attributed earlier stays untouched.
func (wr *WorkoutsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := wr.conn.Begin(ctx)
	if err != nil {
		return errors.New("beginning workout deletion tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	var (
		ownerID  uuid.UUID
		duration int
		calories int
	)
	row := tx.QueryRow(ctx, `SELECT owner_id, duration_min, calories FROM workouts WHERE id = $1 FOR UPDATE;`, id)
	if err = row.Scan(&ownerID, &duration, &calories); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorvalues.ErrWorkoutNotFound
		}
		return errors.New("loading workout for deletion error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `DELETE FROM workouts WHERE id = $1;`, id)
	if err != nil {
		return errors.New("deleting workout error: " + err.Error())
	}
	_, err = tx.Exec(ctx,
		`UPDATE users SET total_workouts = total_workouts - 1, total_duration_min = total_duration_min - $2,
		total_calories = total_calories - $3, updated_at = NOW() WHERE id = $1;`,
		ownerID, duration, calories,
	)
	if err != nil {
		return errors.New("reversing workout counters error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("committing workout deletion error: " + err.Error())
	}
	return nil
}
