package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marwo/buddyfit/pkg/entity"
)

// NearFilter narrows a proximity query. Nil fields are not applied.
type NearFilter struct {
	WorkoutType  *entity.WorkoutType
	FitnessLevel *entity.FitnessLevel
}

type UsersRepositoryI interface {
	// Creates a new profile. ID is store-generated
	Create(ctx context.Context, profile *entity.UserProfile) (uuid.UUID, error)
	// Loads a profile with its buddy set
	GetByID(ctx context.Context, uid uuid.UUID) (*entity.UserProfile, error)
	// Updates name, preferences and location
	Update(ctx context.Context, profile *entity.UserProfile) error
	// Profiles within radiusM of point, excluding exclude, capped at limit
	FindNear(ctx context.Context, point entity.GeoPoint, radiusM float64, exclude uuid.UUID, filter NearFilter, limit int) ([]*entity.UserProfile, error)
	// Profiles of everyone in uid's buddy set
	GetBuddies(ctx context.Context, uid uuid.UUID) ([]*entity.UserProfile, error)
	// Inserts both directions of a buddy relation in one transaction.
	// Set semantics: repeating an insertion is a no-op
	AddBuddyPair(ctx context.Context, a, b uuid.UUID) error
}

type EdgesRepositoryI interface {
	// Creates a pending edge. The store keys edges by the sorted user pair,
	// so a second edge for the same pair fails regardless of direction
	Create(ctx context.Context, requester, recipient uuid.UUID) (*entity.BuddyEdge, error)
	// Loads an edge by id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.BuddyEdge, error)
	// Conditionally moves an edge from expected to next state in one
	// indivisible statement. False means the edge was not in expected state
	UpdateState(ctx context.Context, id uuid.UUID, expected, next entity.EdgeState) (bool, error)
	// Edges touching uid, optionally restricted to one state
	ListForUser(ctx context.Context, uid uuid.UUID, state *entity.EdgeState) ([]*entity.BuddyEdge, error)
}

type WorkoutsRepositoryI interface {
	// Inserts the workout and bumps the owner's counters in one transaction
	Create(ctx context.Context, w *entity.WorkoutRecord) (uuid.UUID, error)
	// Loads a workout by id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutRecord, error)
	// Owner's workouts with occurrence date in [from, to]
	GetByOwnerAndDateRange(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]entity.WorkoutRecord, error)
	// Deletes the workout and reverses its counter contribution in one
	// transaction
	Delete(ctx context.Context, id uuid.UUID) error
}

type GoalsRepositoryI interface {
	// Creates a goal in active status
	Create(ctx context.Context, goal *entity.Goal) (uuid.UUID, error)
	// Loads a goal by id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Goal, error)
	// Owner's goals, optionally restricted to one status
	GetByOwner(ctx context.Context, ownerID uuid.UUID, status *entity.GoalStatus) ([]*entity.Goal, error)
	// Atomically adds delta to progress and returns the updated row
	IncrementProgress(ctx context.Context, id uuid.UUID, delta float64) (*entity.Goal, error)
	// Moves the goal to completed only if it is still active and the target
	// is reached. True means this caller won the transition
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
	// Conditional status change used for pause/cancel/resume
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next entity.GoalStatus) (bool, error)
}

type DBConfig interface {
	ConnString() string
}

type PgConnection interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGCfg struct {
	Address  string
	Username string
	Password string
	DB       string
}

func (pgcfg *PGCfg) ConnString() string {
	return fmt.Sprintf("postgresql://%s:%s@%s/%s", pgcfg.Username, pgcfg.Password, pgcfg.Address, pgcfg.DB)
}
