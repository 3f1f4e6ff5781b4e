package repository

import (
	"context"
	"errors"
	"fmt"
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

const profileColumns = `id, name, location_lon, location_lat, workout_types, fitness_level, time_slots,
		total_workouts, total_duration_min, total_calories, last_activity_at, created_at, updated_at`

type UsersRepository struct {
	conn PgConnection
}

func NewUsersRepo(cfg DBConfig) *UsersRepository {
	pool, err := pgxpool.New(context.Background(), cfg.ConnString())
	if err != nil {
		log.Fatal("creating connection for usersRepo error: " + err.Error())
	}
	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	cleanup.Register(&cleanup.Job{
		Name: "closing pgxpool",
		F: func() error {
			pool.Close()
			return nil
		},
	})
	return &UsersRepository{
		conn: pool,
	}
}

func NewUsersRepoWithConn(conn PgConnection) *UsersRepository {
	err := conn.Ping(context.Background())
	if err != nil {
		log.Fatal("error while pinging connection for usersRepo: " + err.Error())
	}
	return &UsersRepository{
		conn: conn,
	}
}

func (ur *UsersRepository) Create(ctx context.Context, profile *entity.UserProfile) (uuid.UUID, error) {
	if profile == nil {
		return uuid.UUID{}, errors.New("profile is nil")
	}
	var lon, lat *float64
	if profile.Location != nil {
		lon, lat = &profile.Location.Longitude, &profile.Location.Latitude
	}
	var id uuid.UUID
	row := ur.conn.QueryRow(ctx,
		`INSERT INTO users (name, location_lon, location_lat, workout_types, fitness_level, time_slots)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id;`,
		profile.Name, lon, lat, typesToStrings(profile.WorkoutTypes), string(profile.FitnessLevel), profile.TimeSlots,
	)
	if err := row.Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			// Unique violation
			case "23505":
				return uuid.UUID{}, errorvalues.ErrUserExists
			}
		}
		return uuid.UUID{}, errors.New("creating profile db error: " + err.Error())
	}
	return id, nil
}

func (ur *UsersRepository) GetByID(ctx context.Context, uid uuid.UUID) (*entity.UserProfile, error) {
	row := ur.conn.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1;`, uid)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorvalues.ErrUserNotFound
		}
		return nil, errors.New("searching profile by id error: " + err.Error())
	}
	buddies, err := ur.buddyIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	profile.Buddies = buddies
	return profile, nil
}

func (ur *UsersRepository) Update(ctx context.Context, profile *entity.UserProfile) error {
	var lon, lat *float64
	if profile.Location != nil {
		lon, lat = &profile.Location.Longitude, &profile.Location.Latitude
	}
	ct, err := ur.conn.Exec(ctx,
		`UPDATE users SET name = $1, location_lon = $2, location_lat = $3, workout_types = $4,
		fitness_level = $5, time_slots = $6, updated_at = NOW() WHERE id = $7;`,
		profile.Name, lon, lat, typesToStrings(profile.WorkoutTypes),
		string(profile.FitnessLevel), profile.TimeSlots, profile.ID,
	)
	if err != nil {
		return errors.New("updating profile error: " + err.Error())
	}
	if ct.RowsAffected() == 0 {
		return errorvalues.ErrUserNotFound
	}
	return nil
}

// FindNear filters by haversine distance in SQL so the scan stays bounded by
// radius and limit. The (0,0) sentinel rows never qualify.
func (ur *UsersRepository) FindNear(ctx context.Context, point entity.GeoPoint, radiusM float64, exclude uuid.UUID, filter NearFilter, limit int) ([]*entity.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM (
		SELECT ` + profileColumns + `,
			(6371000 * acos(least(1.0,
				cos(radians($1)) * cos(radians(location_lat)) * cos(radians(location_lon) - radians($2))
				+ sin(radians($1)) * sin(radians(location_lat))))) AS distance_m
		FROM users
		WHERE id <> $3 AND location_lat IS NOT NULL
			AND NOT (location_lon = 0 AND location_lat = 0)
	) candidates
	WHERE distance_m <= $4`
	args := []any{point.Latitude, point.Longitude, exclude, radiusM}
	if filter.WorkoutType != nil {
		args = append(args, string(*filter.WorkoutType))
		query += fmt.Sprintf(" AND $%d = ANY(workout_types)", len(args))
	}
	if filter.FitnessLevel != nil {
		args = append(args, string(*filter.FitnessLevel))
		query += fmt.Sprintf(" AND fitness_level = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY distance_m ASC LIMIT $%d;", len(args))

	rows, err := ur.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.New("searching nearby profiles error: " + err.Error())
	}
	defer rows.Close()
	profiles := make([]*entity.UserProfile, 0, limit)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.New("nearby profile row parsing error: " + err.Error())
		}
		profiles = append(profiles, p)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected nearby rows error: " + rows.Err().Error())
	}
	return profiles, nil
}

func (ur *UsersRepository) GetBuddies(ctx context.Context, uid uuid.UUID) ([]*entity.UserProfile, error) {
	rows, err := ur.conn.Query(ctx,
		`SELECT u.id, u.name, u.location_lon, u.location_lat, u.workout_types, u.fitness_level, u.time_slots,
		u.total_workouts, u.total_duration_min, u.total_calories, u.last_activity_at, u.created_at, u.updated_at
		FROM users u JOIN buddies b ON u.id = b.buddy_id WHERE b.user_id = $1;`, uid)
	if err != nil {
		return nil, errors.New("getting buddies error: " + err.Error())
	}
	defer rows.Close()
	buddies := make([]*entity.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, errors.New("buddy row parsing error: " + err.Error())
		}
		buddies = append(buddies, p)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected buddy rows error: " + rows.Err().Error())
	}
	return buddies, nil
}

// AddBuddyPair keeps buddy sets symmetric: both directions go in inside one
// transaction, and ON CONFLICT DO NOTHING gives the insert set semantics.
func (ur *UsersRepository) AddBuddyPair(ctx context.Context, a, b uuid.UUID) error {
	tx, err := ur.conn.Begin(ctx)
	if err != nil {
		return errors.New("beginning buddy pair tx error: " + err.Error())
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, `INSERT INTO buddies (user_id, buddy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`, a, b)
	if err != nil {
		return errors.New("inserting buddy relation error: " + err.Error())
	}
	_, err = tx.Exec(ctx, `INSERT INTO buddies (user_id, buddy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`, b, a)
	if err != nil {
		return errors.New("inserting reverse buddy relation error: " + err.Error())
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.New("committing buddy pair error: " + err.Error())
	}
	return nil
}

func (ur *UsersRepository) buddyIDs(ctx context.Context, uid uuid.UUID) ([]uuid.UUID, error) {
	rows, err := ur.conn.Query(ctx, `SELECT buddy_id FROM buddies WHERE user_id = $1;`, uid)
	if err != nil {
		return nil, errors.New("getting buddy ids error: " + err.Error())
	}
	defer rows.Close()
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, errors.New("buddy id parsing error: " + err.Error())
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, errors.New("unexpected buddy id rows error: " + rows.Err().Error())
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*entity.UserProfile, error) {
	var (
		p     entity.UserProfile
		lon   *float64
		lat   *float64
		types []string
		level string
		last  *time.Time
	)
	err := row.Scan(&p.ID, &p.Name, &lon, &lat, &types, &level, &p.TimeSlots,
		&p.TotalWorkouts, &p.TotalDurationMin, &p.TotalCalories, &last, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lon != nil && lat != nil {
		p.Location = &entity.GeoPoint{Longitude: *lon, Latitude: *lat}
	}
	p.WorkoutTypes = stringsToTypes(types)
	p.FitnessLevel = entity.FitnessLevel(level)
	p.LastActivityAt = last
	return &p, nil
}

func typesToStrings(types []entity.WorkoutType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func stringsToTypes(raw []string) []entity.WorkoutType {
	out := make([]entity.WorkoutType, len(raw))
	for i, s := range raw {
		out[i] = entity.WorkoutType(s)
	}
	return out
}
