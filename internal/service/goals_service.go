package service

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/pkg/entity"
)

type GoalsService struct {
	repo repository.GoalsRepositoryI
}

func NewGoalsService(goalsRepo repository.GoalsRepositoryI) *GoalsService {
	if goalsRepo == nil {
		log.Fatal("provided nil goalsRepo")
	}
	return &GoalsService{
		repo: goalsRepo,
	}
}

func (gs *GoalsService) CreateGoal(ctx context.Context, ownerID uuid.UUID, req *CreateGoalRequest) (*entity.Goal, error) {
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
	goal := entity.Goal{
		OwnerID:     ownerID,
		Category:    req.Category,
		TargetValue: req.TargetValue,
		TargetUnit:  req.TargetUnit,
		Deadline:    req.Deadline,
	}
	id, err := gs.repo.Create(ctx, &goal)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("goals repository error: " + err.Error())
	}
	created, err := gs.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("goals repository error: " + err.Error())
	}
	return created, nil
}

func (gs *GoalsService) GetGoals(ctx context.Context, ownerID uuid.UUID, status *entity.GoalStatus) ([]*entity.Goal, error) {
	goals, err := gs.repo.GetByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, errors.New("goals repository error: " + err.Error())
	}
	return goals, nil
}

// SetGoalStatus handles the owner-driven transitions: active↔paused and
// either of those → cancelled. Completion belongs to the analytics engine
// and a completed goal never leaves that status.
func (gs *GoalsService) SetGoalStatus(ctx context.Context, goalID, ownerID uuid.UUID, next entity.GoalStatus) (*entity.Goal, error) {
	goal, err := gs.repo.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrGoalNotFound) {
			return nil, err
		}
		return nil, errors.New("goals repository error: " + err.Error())
	}
	if goal.OwnerID != ownerID {
		return nil, errorvalues.ErrWrongOwner
	}
	if !allowedTransition(goal.Status, next) {
		return nil, errorvalues.ErrGoalStateConflict
	}
	ok, err := gs.repo.UpdateStatus(ctx, goalID, goal.Status, next)
	if err != nil {
		return nil, errors.New("goals repository error: " + err.Error())
	}
	if !ok {
		// Lost the race against a concurrent transition
		return nil, errorvalues.ErrGoalStateConflict
	}
	goal.Status = next
	return goal, nil
}

func allowedTransition(from, to entity.GoalStatus) bool {
	switch from {
	case entity.GoalActive:
		return to == entity.GoalPaused || to == entity.GoalCancelled
	case entity.GoalPaused:
		return to == entity.GoalActive || to == entity.GoalCancelled
	default:
		// completed and cancelled are terminal for the owner
		return false
	}
}
