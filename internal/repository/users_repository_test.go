package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/pkg/entity"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
)

var profileTestColumns = []string{"id", "name", "location_lon", "location_lat", "workout_types", "fitness_level",
	"time_slots", "total_workouts", "total_duration_min", "total_calories", "last_activity_at", "created_at", "updated_at"}

func testProfile() *entity.UserProfile {
	now := time.Now()
	return &entity.UserProfile{
		ID:           uuid.New(),
		Name:         "test_user",
		Location:     &entity.GeoPoint{Longitude: 37.6173, Latitude: 55.7558},
		WorkoutTypes: []entity.WorkoutType{entity.WorkoutRunning},
		FitnessLevel: entity.LevelBeginner,
		TimeSlots:    []string{"weekday_morning"},
		Buddies:      []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func profileRow(p *entity.UserProfile) *pgxmock.Rows {
	var lon, lat *float64
	if p.Location != nil {
		lon, lat = &p.Location.Longitude, &p.Location.Latitude
	}
	return pgxmock.NewRows(profileTestColumns).AddRow(p.ID, p.Name, lon, lat, []string{"running"}, string(p.FitnessLevel),
		p.TimeSlots, p.TotalWorkouts, p.TotalDurationMin, p.TotalCalories, p.LastActivityAt, p.CreatedAt, p.UpdatedAt)
}

func TestCreateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	p := testProfile()
	query := regexp.QuoteMeta(`INSERT INTO users (name, location_lon, location_lat, workout_types, fitness_level, time_slots)`)
	t.Run("successfully created", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(p.ID))
		id, err := repo.Create(ctx, p)
		assert.NoError(t, err)
		assert.Equal(t, p.ID, id)
	})
	t.Run("name duplication", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		_, err := repo.Create(ctx, p)
		assert.ErrorIs(t, err, errorvalues.ErrUserExists)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots).
			WillReturnError(errors.New("db error"))
		_, err := repo.Create(ctx, p)
		assert.Error(t, err)
	})
}

func TestGetProfileByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	p := testProfile()
	buddyID := uuid.New()
	query := regexp.QuoteMeta(`FROM users WHERE id = $1;`)
	buddiesQuery := regexp.QuoteMeta(`SELECT buddy_id FROM buddies WHERE user_id = $1;`)
	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(p.ID).WillReturnRows(profileRow(p))
		mock.ExpectQuery(buddiesQuery).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"buddy_id"}).AddRow(buddyID))
		result, err := repo.GetByID(ctx, p.ID)
		assert.NoError(t, err)
		assert.Equal(t, p.Name, result.Name)
		assert.Equal(t, *p.Location, *result.Location)
		assert.Equal(t, []uuid.UUID{buddyID}, result.Buddies)
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(p.ID).WillReturnError(pgx.ErrNoRows)
		_, err := repo.GetByID(ctx, p.ID)
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(p.ID).WillReturnError(errors.New("db error"))
		_, err := repo.GetByID(ctx, p.ID)
		assert.Error(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	p := testProfile()
	query := regexp.QuoteMeta(`UPDATE users SET name = $1, location_lon = $2, location_lat = $3, workout_types = $4,`)
	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots, p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		err := repo.Update(ctx, p)
		assert.NoError(t, err)
	})
	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots, p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		err := repo.Update(ctx, p)
		assert.ErrorIs(t, err, errorvalues.ErrUserNotFound)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(p.Name, &p.Location.Longitude, &p.Location.Latitude, []string{"running"}, "beginner", p.TimeSlots, p.ID).
			WillReturnError(errors.New("db error"))
		err := repo.Update(ctx, p)
		assert.Error(t, err)
	})
}

func TestFindNear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	p := testProfile()
	exclude := uuid.New()
	point := entity.GeoPoint{Longitude: 37.62, Latitude: 55.75}
	t.Run("no filters", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE distance_m <= $4`)).
			WithArgs(point.Latitude, point.Longitude, exclude, 50000.0, 20).
			WillReturnRows(profileRow(p))
		result, err := repo.FindNear(ctx, point, 50000.0, exclude, repository.NearFilter{}, 20)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(result))
		assert.Equal(t, p.Name, result[0].Name)
	})
	t.Run("workout type and level filters", func(t *testing.T) {
		wType := entity.WorkoutRunning
		level := entity.LevelBeginner
		mock.ExpectQuery(regexp.QuoteMeta(`AND fitness_level = $6`)).
			WithArgs(point.Latitude, point.Longitude, exclude, 50000.0, "running", "beginner", 20).
			WillReturnRows(profileRow(p))
		result, err := repo.FindNear(ctx, point, 50000.0, exclude, repository.NearFilter{
			WorkoutType:  &wType,
			FitnessLevel: &level,
		}, 20)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(result))
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`WHERE distance_m <= $4`)).
			WithArgs(point.Latitude, point.Longitude, exclude, 50000.0, 20).
			WillReturnError(errors.New("db error"))
		_, err := repo.FindNear(ctx, point, 50000.0, exclude, repository.NearFilter{}, 20)
		assert.Error(t, err)
	})
}

func TestGetBuddies(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	p := testProfile()
	uid := uuid.New()
	query := regexp.QuoteMeta(`JOIN buddies b ON u.id = b.buddy_id WHERE b.user_id = $1;`)
	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uid).WillReturnRows(profileRow(p))
		buddies, err := repo.GetBuddies(ctx, uid)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(buddies))
		assert.Equal(t, p.Name, buddies[0].Name)
	})
	t.Run("no buddies", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uid).WillReturnRows(pgxmock.NewRows(profileTestColumns))
		buddies, err := repo.GetBuddies(ctx, uid)
		assert.NoError(t, err)
		assert.Equal(t, 0, len(buddies))
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(uid).WillReturnError(errors.New("db error"))
		_, err := repo.GetBuddies(ctx, uid)
		assert.Error(t, err)
	})
}

func TestAddBuddyPair(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	repo := repository.NewUsersRepoWithConn(mock)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	query := regexp.QuoteMeta(`INSERT INTO buddies (user_id, buddy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`)
	t.Run("both directions inserted", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(query).WithArgs(a, b).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(query).WithArgs(b, a).WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
		err := repo.AddBuddyPair(ctx, a, b)
		assert.NoError(t, err)
	})
	t.Run("idempotent on replay", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(query).WithArgs(a, b).WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectExec(query).WithArgs(b, a).WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectCommit()
		err := repo.AddBuddyPair(ctx, a, b)
		assert.NoError(t, err)
	})
	t.Run("db error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(query).WithArgs(a, b).WillReturnError(errors.New("db error"))
		mock.ExpectRollback()
		err := repo.AddBuddyPair(ctx, a, b)
		assert.Error(t, err)
	})
}
