package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/observability"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/pkg/entity"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 365
)

type AnalyticsService struct {
	workouts repository.WorkoutsRepositoryI
	goals    repository.GoalsRepositoryI
	notifier Notifier
}

func NewAnalyticsService(workoutsRepo repository.WorkoutsRepositoryI, goalsRepo repository.GoalsRepositoryI, notifier Notifier) *AnalyticsService {
	if workoutsRepo == nil || goalsRepo == nil || notifier == nil {
		log.Fatal("on analytics service provided nil dependencies")
	}
	return &AnalyticsService{
		workouts: workoutsRepo,
		goals:    goalsRepo,
		notifier: notifier,
	}
}

// LogWorkout stores the record (counters move in the same store transaction)
// and then attributes progress to the owner's active goals.
func (as *AnalyticsService) LogWorkout(ctx context.Context, ownerID uuid.UUID, req *LogWorkoutRequest) (*entity.WorkoutRecord, error) {
	if err := validate.Struct(*req); err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errorvalues.ErrValidation
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return nil, err
		}
		return nil, errors.New("validation unexpected error: " + err.Error())
	}
	w := entity.WorkoutRecord{
		OwnerID:     ownerID,
		Type:        req.Type,
		DurationMin: req.DurationMin,
		Calories:    req.Calories,
		Date:        req.Date,
		Public:      req.Public,
	}
	id, err := as.workouts.Create(ctx, &w)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("workouts repository error: " + err.Error())
	}
	w.ID = id
	observability.RecordWorkoutIngested(string(w.Type))
	if err = as.attributeToGoals(ctx, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// attributeToGoals adds a unit-based increment to every active goal of the
// workout's owner. The increment and the completion check are both single
// conditional store statements, so concurrent workouts cannot double-count a
// goal and the milestone event fires exactly once.
func (as *AnalyticsService) attributeToGoals(ctx context.Context, w *entity.WorkoutRecord) error {
	active := entity.GoalActive
	goals, err := as.goals.GetByOwner(ctx, w.OwnerID, &active)
	if err != nil {
		return errors.New("goals repository error: " + err.Error())
	}
	for _, goal := range goals {
		delta := progressIncrement(goal.TargetUnit, w)
		if delta <= 0 {
			continue
		}
		updated, err := as.goals.IncrementProgress(ctx, goal.ID, delta)
		if err != nil {
			if errors.Is(err, errorvalues.ErrGoalNotFound) {
				continue // deleted meanwhile, nothing to attribute
			}
			return errors.New("goals repository error: " + err.Error())
		}
		if updated.Progress < updated.TargetValue {
			continue
		}
		won, err := as.goals.MarkCompleted(ctx, goal.ID)
		if err != nil {
			return errors.New("goals repository error: " + err.Error())
		}
		if !won {
			continue // someone else already completed it
		}
		observability.RecordMilestone()
		as.emit(ctx, entity.NotificationEvent{
			UserID:  w.OwnerID,
			Kind:    entity.NotifMilestoneAchieved,
			Title:   "Goal completed",
			Message: fmt.Sprintf("You reached your %s goal", goal.Category),
			Data: map[string]any{
				"goal_id":  goal.ID.String(),
				"category": goal.Category,
			},
		})
	}
	return nil
}

// progressIncrement maps a workout onto a goal's unit. Unknown units do not
// move progress.
func progressIncrement(unit string, w *entity.WorkoutRecord) float64 {
	switch strings.ToLower(unit) {
	case "minutes":
		return float64(w.DurationMin)
	case "hours":
		return float64(w.DurationMin) / 60
	case "workouts":
		return 1
	default:
		return 0
	}
}

// DeleteWorkout reverses the counter contribution but never claws back goal
// progress attributed at ingestion time. That asymmetry is intentional.
func (as *AnalyticsService) DeleteWorkout(ctx context.Context, workoutID, ownerID uuid.UUID) error {
	w, err := as.workouts.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrWorkoutNotFound) {
			return err
		}
		return errors.New("workouts repository error: " + err.Error())
	}
	if w.OwnerID != ownerID {
		return errorvalues.ErrWrongOwner
	}
	if err = as.workouts.Delete(ctx, workoutID); err != nil {
		if errors.Is(err, errorvalues.ErrWorkoutNotFound) {
			return err
		}
		return errors.New("workouts repository error: " + err.Error())
	}
	return nil
}

func (as *AnalyticsService) GetUserAnalytics(ctx context.Context, userID uuid.UUID, periodDays int) (*entity.AnalyticsSnapshot, error) {
	if periodDays < 1 {
		periodDays = defaultPeriodDays
	}
	if periodDays > maxPeriodDays {
		periodDays = maxPeriodDays
	}
	now := time.Now()
	today := dayOf(now)

	// One year of history serves the streak, the rollups and any period
	periodFrom := today.AddDate(0, 0, -periodDays+1)
	yearWorkouts, err := as.workouts.GetByOwnerAndDateRange(ctx, userID, today.AddDate(0, 0, -streakLookbackDays+1), now)
	if err != nil {
		return nil, errors.New("workouts repository error: " + err.Error())
	}

	stats := entity.WorkoutStats{ByType: make(map[entity.WorkoutType]int)}
	for _, w := range yearWorkouts {
		if dayOf(w.Date).Before(periodFrom) {
			continue
		}
		stats.Total++
		stats.DurationMin += w.DurationMin
		stats.Calories += w.Calories
		stats.ByType[w.Type]++
	}

	goals, err := as.goals.GetByOwner(ctx, userID, nil)
	if err != nil {
		return nil, errors.New("goals repository error: " + err.Error())
	}
	goalStats := entity.GoalStats{Total: len(goals)}
	for _, g := range goals {
		switch g.Status {
		case entity.GoalActive:
			goalStats.Active++
		case entity.GoalCompleted:
			goalStats.Completed++
		}
	}
	if goalStats.Total > 0 {
		goalStats.CompletionRate = float64(goalStats.Completed) / float64(goalStats.Total)
	}

	return &entity.AnalyticsSnapshot{
		UserID:     userID,
		PeriodDays: periodDays,
		Workouts:   stats,
		Goals:      goalStats,
		Streak:     computeStreak(workoutDaySet(yearWorkouts), today),
		Rollups:    buildRollups(yearWorkouts, today, rollupWidthDays, rollupPeriods),
	}, nil
}

func (as *AnalyticsService) emit(ctx context.Context, event entity.NotificationEvent) {
	if err := as.notifier.Emit(ctx, event); err != nil {
		slog.Error("emitting notification failed",
			slog.String("kind", string(event.Kind)), slog.String("error", err.Error()))
	}
}
