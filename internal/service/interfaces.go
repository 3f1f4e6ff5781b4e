package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/marwo/buddyfit/pkg/entity"
)

// Notifier is the notification sink contract. Emit hands an event over for
// delivery; the services never wait for a delivery result and treat sink
// failures as non-fatal.
type Notifier interface {
	Emit(ctx context.Context, event entity.NotificationEvent) error
}

// MatchFilters narrows candidate discovery. Zero MaxDistanceKm falls back to
// the default radius.
type MatchFilters struct {
	WorkoutType   *entity.WorkoutType
	FitnessLevel  *entity.FitnessLevel
	MaxDistanceKm float64
}

type MatchingServiceI interface {
	// Ranks prospective buddies for a user. Read-only; a second call
	// re-queries the store
	FindCandidates(ctx context.Context, userID uuid.UUID, filters MatchFilters) ([]entity.Candidate, error)
}

type RespondAction string

const (
	ActionAccept RespondAction = "accept"
	ActionReject RespondAction = "reject"
)

type BuddiesServiceI interface {
	// Creates a pending edge and notifies the recipient
	SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*entity.BuddyEdge, error)
	// Accepts or rejects a pending edge. Accept materializes the symmetric
	// buddy relation and notifies the requester; reject is silent
	RespondToRequest(ctx context.Context, edgeID, responderID uuid.UUID, action RespondAction) (*entity.BuddyEdge, error)
	// Profiles in the user's buddy set
	ListBuddies(ctx context.Context, userID uuid.UUID) ([]*entity.UserProfile, error)
	// Pending edges addressed to the user
	ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*entity.BuddyEdge, error)
}

type LogWorkoutRequest struct {
	Type        entity.WorkoutType `validate:"required,workout_type"`
	DurationMin int                `validate:"required,gt=0"`
	Calories    int                `validate:"gte=0"`
	Date        time.Time          `validate:"required"`
	Public      bool
}

type AnalyticsServiceI interface {
	// Stores the workout, bumps owner counters and attributes progress to
	// the owner's active goals, emitting milestone events on completion
	LogWorkout(ctx context.Context, ownerID uuid.UUID, req *LogWorkoutRequest) (*entity.WorkoutRecord, error)
	// Removes a workout and reverses its counter contribution. Attributed
	// goal progress stays
	DeleteWorkout(ctx context.Context, workoutID, ownerID uuid.UUID) error
	// Recomputes the on-demand snapshot for the trailing periodDays
	GetUserAnalytics(ctx context.Context, userID uuid.UUID, periodDays int) (*entity.AnalyticsSnapshot, error)
}

type CreateGoalRequest struct {
	Category    string  `validate:"required,min=2,max=100"`
	TargetValue float64 `validate:"required,gt=0"`
	TargetUnit  string  `validate:"required,min=1,max=30"`
	Deadline    *time.Time
}

type GoalsServiceI interface {
	CreateGoal(ctx context.Context, ownerID uuid.UUID, req *CreateGoalRequest) (*entity.Goal, error)
	GetGoals(ctx context.Context, ownerID uuid.UUID, status *entity.GoalStatus) ([]*entity.Goal, error)
	// Pause/cancel/resume. Completion is owned by the analytics engine and
	// completed goals never leave that status
	SetGoalStatus(ctx context.Context, goalID, ownerID uuid.UUID, next entity.GoalStatus) (*entity.Goal, error)
}

type ProfileRequest struct {
	Name         string `validate:"required,alphanum_underscore,min=3,max=100"`
	Location     *entity.GeoPoint
	WorkoutTypes []entity.WorkoutType `validate:"dive,workout_type"`
	FitnessLevel entity.FitnessLevel  `validate:"required,fitness_level"`
	TimeSlots    []string             `validate:"dive,min=2,max=40"`
}

type ProfileServiceI interface {
	CreateProfile(ctx context.Context, req *ProfileRequest) (*entity.UserProfile, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *ProfileRequest) (*entity.UserProfile, error)
}
