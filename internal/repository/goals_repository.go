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

type GoalsRepository struct {
	conn PgConnection
}

func NewGoalsRepo(cfg DBConfig) *GoalsRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for goalsRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for goalsRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &GoalsRepository{
		conn: pool,
	}
}

func NewGoalsRepoWithConn(conn PgConnection) *GoalsRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for goalsRepo: " + err.Error())
	}
	return &GoalsRepository{
		conn: conn,
	}
}

func (gr *GoalsRepository) Create(ctx context.Context, goal *entity.Goal) (uuid.UUID, error) {
	if goal == nil {
		return uuid.UUID{}, errors.New("goal is nil")
	}
	var id uuid.UUID
	row := gr.conn.QueryRow(ctx,
		`INSERT INTO goals (owner_id, category, target_value, target_unit, deadline)
		VALUES ($1, $2, $3, $4, $5) RETURNING id;`,
		goal.OwnerID, goal.Category, goal.TargetValue, goal.TargetUnit, goal.Deadline,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// FK violation
			case "23503":
				return uuid.UUID{}, errorvalues.ErrUserNotFound
			}
		}
		return uuid.UUID{}, errors.New("creating goal db error: " + err.Error())
	}
	return id, nil
}

func (gr *GoalsRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Goal, error) {
	row := gr.conn.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1;`, id)
	goal, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrGoalNotFound
		}
		return nil, errors.New("getting goal by id error: " + err.Error())
	}
	return goal, nil
}

func (gr *GoalsRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID, status *entity.GoalStatus) ([]*entity.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = $1`
	args := []any{ownerID}
	if status != nil {
		args = append(args, string(*status))
		query += ` AND status = $2`
	}
	query += ` ORDER BY created_at DESC;`
	rows, err := gr.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.New("listing goals error: " + err.Error())
	}
	defer rows.Close()
	goals := make([]*entity.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, errors.New("goal row parsing error: " + err.Error())
		}
		goals = append(goals, goal)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected goal rows error: " + rows.Err().Error())
	}
	return goals, nil
}

// IncrementProgress is a single UPDATE .. RETURNING, so two concurrent
// workouts can never read the same stale progress.
func (gr *GoalsRepository) IncrementProgress(ctx context.Context, id uuid.UUID, delta float64) (*entity.Goal, error) {
	row := gr.conn.QueryRow(ctx,
		`UPDATE goals SET progress = progress + $2, updated_at = NOW() WHERE id = $1 RETURNING `+goalColumns+`;`,
		id, delta,
	)
	goal, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrGoalNotFound
		}
		return nil, errors.New("incrementing goal progress error: " + err.Error())
	}
	return goal, nil
}

// MarkCompleted only fires while the goal is still active, which keeps the
// completed status monotonic and the milestone event single-shot.
func (gr *GoalsRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := gr.conn.Exec(ctx,
		`UPDATE goals SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND progress >= target_value;`, id)
	if err != nil {
		return false, errors.New("marking goal completed error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

func (gr *GoalsRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.GoalStatus) (bool, error) {
	ct, err := gr.conn.Exec(ctx,
		`UPDATE goals SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2;`,
		id, string(expected), string(next),
	)
	if err != nil {
		return false, errors.New("updating goal status error: " + err.Error())
	}
	return ct.RowsAffected() > 0, nil
}

const goalColumns = `id, owner_id, category, target_value, target_unit, progress, deadline, status, created_at, updated_at`

func scanGoal(row rowScanner) (*entity.Goal, error) {
	var (
		goal     entity.Goal
		status   string
		deadline *time.Time
	)
	err := row.Scan(&goal.ID, &goal.OwnerID, &goal.Category, &goal.TargetValue, &goal.TargetUnit,
		&goal.Progress, &deadline, &status, &goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return nil, err
	}
	goal.Deadline = deadline
	goal.Status = entity.GoalStatus(status)
	return &goal, nil
}
