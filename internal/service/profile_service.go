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
	"github.com/marwo/buddyfit/pkg/geo"
)

type ProfileService struct {
	repo repository.UsersRepositoryI
}

func NewProfileService(usersRepo repository.UsersRepositoryI) *ProfileService {
	if usersRepo == nil {
		log.Fatal("provided nil usersRepo")
	}
	return &ProfileService{
		repo: usersRepo,
	}
}

func (ps *ProfileService) CreateProfile(ctx context.Context, req *ProfileRequest) (*entity.UserProfile, error) {
	if err := ps.checkRequest(req); err != nil {
		return nil, err
	}
	id, err := ps.repo.Create(ctx, &entity.UserProfile{
		Name:         req.Name,
		Location:     req.Location,
		WorkoutTypes: req.WorkoutTypes,
		FitnessLevel: req.FitnessLevel,
		TimeSlots:    req.TimeSlots,
	})
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	profile, err := ps.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("users repository error: " + err.Error())
	}
	return profile, nil
}

func (ps *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error) {
	profile, err := ps.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	return profile, nil
}

func (ps *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *ProfileRequest) (*entity.UserProfile, error) {
	if err := ps.checkRequest(req); err != nil {
		return nil, err
	}
	profile, err := ps.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	profile.Name = req.Name
	profile.Location = req.Location
	profile.WorkoutTypes = req.WorkoutTypes
	profile.FitnessLevel = req.FitnessLevel
	profile.TimeSlots = req.TimeSlots
	if err = ps.repo.Update(ctx, profile); err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	return profile, nil
}

func (ps *ProfileService) checkRequest(req *ProfileRequest) error {
	if err := validate.Struct(*req); err != nil {
		if validationError, ok := err.(validator.ValidationErrors); ok {
			err = errorvalues.ErrValidation
			for _, fieldErr := range validationError {
				err = errors.Join(err, fieldErr)
			}
			return err
		}
		return errors.New("validation unexpected error: " + err.Error())
	}
	// Origin is the "no location" sentinel, so it cannot be set explicitly
	if req.Location != nil && !geo.Valid(*req.Location) {
		return errorvalues.ErrBadCoordinates
	}
	return nil
}
