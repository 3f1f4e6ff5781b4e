package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/observability"
	"github.com/marwo/buddyfit/internal/repository"
	"github.com/marwo/buddyfit/pkg/entity"
	"github.com/marwo/buddyfit/pkg/geo"
)

// One canonical weighting scheme. Shared workout types are capped so a long
// preference list cannot drown out proximity.
const (
	sharedTypeWeight = 10.0
	sharedTypeCap    = 30.0
	levelMatchBonus  = 20.0
	proximityWeight  = 50.0

	defaultRadiusKm = 50.0
	maxRadiusKm     = 100.0
	maxCandidates   = 20
)

type MatchingService struct {
	users repository.UsersRepositoryI
}

func NewMatchingService(usersRepo repository.UsersRepositoryI) *MatchingService {
	if usersRepo == nil {
		log.Fatal("on matching service provided nil users repo")
	}
	return &MatchingService{
		users: usersRepo,
	}
}

func (ms *MatchingService) FindCandidates(ctx context.Context, userID uuid.UUID, filters MatchFilters) ([]entity.Candidate, error) {
	started := time.Now()
	user, err := ms.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("users repository error: " + err.Error())
	}
	if user.Location == nil || !geo.Valid(*user.Location) {
		return nil, errorvalues.ErrNoLocation
	}
	radiusKm := filters.MaxDistanceKm
	if radiusKm <= 0 {
		radiusKm = defaultRadiusKm
	}
	if radiusKm > maxRadiusKm {
		radiusKm = maxRadiusKm
	}
	radiusM := radiusKm * 1000

	nearby, err := ms.users.FindNear(ctx, *user.Location, radiusM, userID, repository.NearFilter{
		WorkoutType:  filters.WorkoutType,
		FitnessLevel: filters.FitnessLevel,
	}, maxCandidates)
	if err != nil {
		return nil, errors.New("users repository error: " + err.Error())
	}

	candidates := make([]entity.Candidate, 0, len(nearby))
	for _, c := range nearby {
		if c.Location == nil {
			continue
		}
		distM := geo.DistanceMeters(*user.Location, *c.Location)
		candidates = append(candidates, entity.Candidate{
			Profile:    c,
			Score:      scoreCandidate(user, c, distM, radiusM),
			DistanceKm: distM / 1000,
		})
	}
	// Ties: closer first, then candidate id for a stable order
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Profile.ID.String() < b.Profile.ID.String()
	})
	observability.ObserveCandidateQuery(time.Since(started))
	return candidates, nil
}

func scoreCandidate(user, candidate *entity.UserProfile, distM, radiusM float64) float64 {
	shared := float64(countSharedTypes(user.WorkoutTypes, candidate.WorkoutTypes)) * sharedTypeWeight
	if shared > sharedTypeCap {
		shared = sharedTypeCap
	}
	score := shared
	if user.FitnessLevel != "" && user.FitnessLevel == candidate.FitnessLevel {
		score += levelMatchBonus
	}
	if distM < radiusM {
		score += (radiusM - distM) / radiusM * proximityWeight
	}
	return score
}

func countSharedTypes(a, b []entity.WorkoutType) int {
	set := make(map[entity.WorkoutType]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	for _, t := range b {
		if _, ok := set[t]; ok {
			shared++
			delete(set, t)
		}
	}
	return shared
}
