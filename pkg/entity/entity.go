package entity

import (
	"time"

	"github.com/google/uuid"
)

type WorkoutType string

const (
	WorkoutRunning  WorkoutType = "running"
	WorkoutCycling  WorkoutType = "cycling"
	WorkoutSwimming WorkoutType = "swimming"
	WorkoutStrength WorkoutType = "strength"
	WorkoutYoga     WorkoutType = "yoga"
	WorkoutHIIT     WorkoutType = "hiit"
	WorkoutWalking  WorkoutType = "walking"
	WorkoutOther    WorkoutType = "other"
)

func KnownWorkoutType(t WorkoutType) bool {
	switch t {
	case WorkoutRunning, WorkoutCycling, WorkoutSwimming, WorkoutStrength,
		WorkoutYoga, WorkoutHIIT, WorkoutWalking, WorkoutOther:
		return true
	}
	return false
}

type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

func KnownFitnessLevel(l FitnessLevel) bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// GeoPoint is a WGS84 coordinate. The origin (0,0) is treated as "no
// location" everywhere, never as a real place.
type GeoPoint struct {
	Longitude float64 `json:"lon"`
	Latitude  float64 `json:"lat"`
}

func (p GeoPoint) IsOrigin() bool {
	return p.Longitude == 0 && p.Latitude == 0
}

type UserProfile struct {
	ID               uuid.UUID     `json:"id"`
	Name             string        `json:"name"`
	Location         *GeoPoint     `json:"location,omitempty"`
	WorkoutTypes     []WorkoutType `json:"workout_types"`
	FitnessLevel     FitnessLevel  `json:"fitness_level"`
	TimeSlots        []string      `json:"time_slots"`
	Buddies          []uuid.UUID   `json:"buddies"`
	TotalWorkouts    int           `json:"total_workouts"`
	TotalDurationMin int           `json:"total_duration_min"`
	TotalCalories    int           `json:"total_calories"`
	LastActivityAt   *time.Time    `json:"last_activity_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

type EdgeState string

const (
	EdgePending  EdgeState = "pending"
	EdgeAccepted EdgeState = "accepted"
	EdgeRejected EdgeState = "rejected"
)

// BuddyEdge is the single relationship record for an unordered user pair.
// The store keys it by the sorted pair, so A→B and B→A cannot coexist.
type BuddyEdge struct {
	ID          uuid.UUID `json:"id"`
	RequesterID uuid.UUID `json:"requester_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	State       EdgeState `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type WorkoutRecord struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Type        WorkoutType `json:"type"`
	DurationMin int         `json:"duration_min"`
	Calories    int         `json:"calories"`
	Date        time.Time   `json:"date"`
	Public      bool        `json:"public"`
	CreatedAt   time.Time   `json:"created_at"`
}

type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

type Goal struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Category    string     `json:"category"`
	TargetValue float64    `json:"target_value"`
	TargetUnit  string     `json:"target_unit"`
	Progress    float64    `json:"progress"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      GoalStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Candidate is a scored prospective buddy produced by the matching service.
type Candidate struct {
	Profile    *UserProfile `json:"profile"`
	Score      float64      `json:"score"`
	DistanceKm float64      `json:"distance_km"`
}

type NotificationKind string

const (
	NotifBuddyRequest       NotificationKind = "buddy_request"
	NotifBuddyAccepted      NotificationKind = "buddy_accepted"
	NotifMilestoneAchieved  NotificationKind = "milestone_achieved"
	NotifChallengeCompleted NotificationKind = "challenge_completed"
)

// NotificationEvent is handed to the notification sink for delivery.
// The core never waits for the delivery result.
type NotificationEvent struct {
	UserID  uuid.UUID        `json:"user_id"`
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Data    map[string]any   `json:"data,omitempty"`
}

type StreakInfo struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

type PeriodRollup struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Workouts    int       `json:"workouts"`
	DurationMin int       `json:"duration_min"`
	Calories    int       `json:"calories"`
}

type WorkoutStats struct {
	Total       int                 `json:"total"`
	DurationMin int                 `json:"duration_min"`
	Calories    int                 `json:"calories"`
	ByType      map[WorkoutType]int `json:"by_type"`
}

type GoalStats struct {
	Total          int     `json:"total"`
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// AnalyticsSnapshot is recomputed on demand; nothing here is persisted.
type AnalyticsSnapshot struct {
	UserID     uuid.UUID      `json:"user_id"`
	PeriodDays int            `json:"period_days"`
	Workouts   WorkoutStats   `json:"workouts"`
	Goals      GoalStats      `json:"goals"`
	Streak     StreakInfo     `json:"streak"`
	Rollups    []PeriodRollup `json:"rollups"`
}
