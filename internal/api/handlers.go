package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/service"
	"github.com/marwo/buddyfit/pkg/entity"
	"github.com/marwo/buddyfit/pkg/httputil"
)

type ProfileRequest struct {
	Name         string               `json:"name"`
	Location     *entity.GeoPoint     `json:"location"`
	WorkoutTypes []entity.WorkoutType `json:"workout_types"`
	FitnessLevel entity.FitnessLevel  `json:"fitness_level"`
	TimeSlots    []string             `json:"time_slots"`
}

type SendBuddyRequestBody struct {
	RecipientID string `json:"recipient_id"`
}

type RespondBuddyRequestBody struct {
	Action string `json:"action"`
}

type LogWorkoutRequestBody struct {
	Type        string    `json:"type"`
	DurationMin int       `json:"duration_min"`
	Calories    int       `json:"calories"`
	Date        time.Time `json:"date"`
	Public      bool      `json:"public"`
}

type CreateGoalRequestBody struct {
	Category    string     `json:"category"`
	TargetValue float64    `json:"target_value"`
	TargetUnit  string     `json:"target_unit"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

type SetGoalStatusBody struct {
	Status string `json:"status"`
}

type GetMatchesResponse struct {
	UserID     string             `json:"uid"`
	Candidates []entity.Candidate `json:"candidates"`
}

func (s *Server) CreateProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req ProfileRequest
	defer r.Body.Close()
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create profile error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	profile, err := s.profiles.CreateProfile(ctx, &service.ProfileRequest{
		Name:         req.Name,
		Location:     req.Location,
		WorkoutTypes: req.WorkoutTypes,
		FitnessLevel: req.FitnessLevel,
		TimeSlots:    req.TimeSlots,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation), errors.Is(err, errorvalues.ErrBadCoordinates):
			logger.Error("create profile error: invalid fields")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid profile fields", err)
		case errors.Is(err, errorvalues.ErrUserExists):
			logger.Error("create profile error: existed user")
			httputil.WriteErrorResponse(w, http.StatusConflict, "profile with such name already exists", nil)
		default:
			logger.Error("create profile error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating profile", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, profile)
	logger.Info("profile created")
}

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get profile error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	profile, err := s.profiles.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			logger.Error("get profile error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile doesn't exist", nil)
			return
		}
		logger.Error("get profile error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while getting profile", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
	logger.Info("profile provided")
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("update profile error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req ProfileRequest
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("update profile error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	profile, err := s.profiles.UpdateProfile(ctx, uid, &service.ProfileRequest{
		Name:         req.Name,
		Location:     req.Location,
		WorkoutTypes: req.WorkoutTypes,
		FitnessLevel: req.FitnessLevel,
		TimeSlots:    req.TimeSlots,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation), errors.Is(err, errorvalues.ErrBadCoordinates):
			logger.Error("update profile error: invalid fields")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid profile fields", err)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("update profile error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile doesn't exist", nil)
		default:
			logger.Error("update profile error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while updating profile", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, profile)
	logger.Info("profile updated")
}

func (s *Server) GetMatches(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get matches error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	filters := service.MatchFilters{}
	if raw := r.URL.Query().Get("workout_type"); raw != "" {
		t := entity.WorkoutType(raw)
		filters.WorkoutType = &t
	}
	if raw := r.URL.Query().Get("fitness_level"); raw != "" {
		l := entity.FitnessLevel(raw)
		filters.FitnessLevel = &l
	}
	if raw := r.URL.Query().Get("max_distance_km"); raw != "" {
		km, err := strconv.ParseFloat(raw, 64)
		if err != nil || km <= 0 {
			logger.Error("get matches error: invalid max_distance_km")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid max_distance_km", nil)
			return
		}
		filters.MaxDistanceKm = km
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	candidates, err := s.matching.FindCandidates(ctx, uid, filters)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrNoLocation):
			logger.Error("get matches error: user has no location")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "set your location before searching for buddies", nil)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("get matches error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile doesn't exist", nil)
		default:
			logger.Error("get matches error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while searching candidates", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, GetMatchesResponse{
		UserID:     uid.String(),
		Candidates: candidates,
	})
	logger.Info("candidates provided")
}

func (s *Server) SendBuddyRequest(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("send buddy request error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req SendBuddyRequestBody
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("send buddy request error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		logger.Error("send buddy request error: invalid recipient id")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid recipient id", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	edge, err := s.buddies.SendRequest(ctx, uid, recipientID)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrSelfRequest):
			logger.Error("send buddy request error: self request")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "cannot send request to yourself", nil)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("send buddy request error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "recipient doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrEdgePairExists):
			logger.Error("send buddy request error: duplicate pair")
			httputil.WriteErrorResponse(w, http.StatusConflict, "request between these users already exists", nil)
		default:
			logger.Error("send buddy request error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while sending request", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, edge)
	logger.Info("buddy request sent")
}

func (s *Server) RespondBuddyRequest(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("respond buddy request error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	edgeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("respond buddy request error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request id in path value", nil)
		return
	}
	var req RespondBuddyRequestBody
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("respond buddy request error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	edge, err := s.buddies.RespondToRequest(ctx, edgeID, uid, service.RespondAction(req.Action))
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUnknownAction):
			logger.Error("respond buddy request error: unknown action")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "action must be accept or reject", nil)
		case errors.Is(err, errorvalues.ErrEdgeNotFound):
			logger.Error("respond buddy request error: unexist edge")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "request doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrNotRecipient):
			logger.Error("respond buddy request error: responder is not the recipient")
			httputil.WriteErrorResponse(w, http.StatusForbidden, "only the recipient can answer a request", nil)
		case errors.Is(err, errorvalues.ErrEdgeNotPending):
			logger.Error("respond buddy request error: request already answered")
			httputil.WriteErrorResponse(w, http.StatusConflict, "request is already answered", nil)
		default:
			logger.Error("respond buddy request error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while answering request", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, edge)
	logger.Info("buddy request answered")
}

func (s *Server) ListBuddyRequests(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("list buddy requests error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	edges, err := s.buddies.ListPendingRequests(ctx, uid)
	if err != nil {
		logger.Error("list buddy requests error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing requests", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"requests": edges})
	logger.Info("buddy requests provided")
}

func (s *Server) ListBuddies(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("list buddies error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	buddies, err := s.buddies.ListBuddies(ctx, uid)
	if err != nil {
		logger.Error("list buddies error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing buddies", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"buddies": buddies})
	logger.Info("buddies provided")
}

func (s *Server) LogWorkout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("log workout error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req LogWorkoutRequestBody
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("log workout error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	workout, err := s.analytics.LogWorkout(ctx, uid, &service.LogWorkoutRequest{
		Type:        entity.WorkoutType(req.Type),
		DurationMin: req.DurationMin,
		Calories:    req.Calories,
		Date:        req.Date,
		Public:      req.Public,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("log workout error: invalid fields")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid workout fields", err)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("log workout error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile doesn't exist", nil)
		default:
			logger.Error("log workout error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while logging workout", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, workout)
	logger.Info("workout logged")
}

func (s *Server) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("workout deletion error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("workout deletion error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid workout id in path value", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err = s.analytics.DeleteWorkout(ctx, id, uid)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrWorkoutNotFound):
			logger.Error("workout deletion error: unexist workout")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "workout doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner):
			logger.Error("workout deletion error: workout has different owner")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "workout doesn't exist", nil)
		default:
			logger.Error("workout deletion error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while deleting workout", nil)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
	logger.Info("workout deleted")
}

func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("get analytics error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	periodDays, err := strconv.Atoi(r.URL.Query().Get("period_days"))
	if err != nil || periodDays < 1 {
		periodDays = 0 // service falls back to the default window
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	snapshot, err := s.analytics.GetUserAnalytics(ctx, uid, periodDays)
	if err != nil {
		logger.Error("get analytics error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while computing analytics", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, snapshot)
	logger.Info("analytics provided")
}

func (s *Server) CreateGoal(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("create goal error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req CreateGoalRequestBody
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("create goal error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	goal, err := s.goals.CreateGoal(ctx, uid, &service.CreateGoalRequest{
		Category:    req.Category,
		TargetValue: req.TargetValue,
		TargetUnit:  req.TargetUnit,
		Deadline:    req.Deadline,
	})
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("create goal error: invalid fields")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid goal fields", err)
		case errors.Is(err, errorvalues.ErrUserNotFound):
			logger.Error("create goal error: unexist user")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "profile doesn't exist", nil)
		default:
			logger.Error("create goal error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while creating goal", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, goal)
	logger.Info("goal created")
}

func (s *Server) ListGoals(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("list goals error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var status *entity.GoalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := entity.GoalStatus(raw)
		status = &st
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	goals, err := s.goals.GetGoals(ctx, uid, status)
	if err != nil {
		logger.Error("list goals error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while listing goals", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{"goals": goals})
	logger.Info("goals provided")
}

func (s *Server) SetGoalStatus(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("set goal status error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Error("set goal status error: invalid id in path value")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid goal id in path value", nil)
		return
	}
	var req SetGoalStatusBody
	defer r.Body.Close()
	err = sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		logger.Error("set goal status error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	goal, err := s.goals.SetGoalStatus(ctx, id, uid, entity.GoalStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrGoalNotFound):
			logger.Error("set goal status error: unexist goal")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "goal doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrWrongOwner):
			logger.Error("set goal status error: goal has different owner")
			httputil.WriteErrorResponse(w, http.StatusNotFound, "goal doesn't exist", nil)
		case errors.Is(err, errorvalues.ErrGoalStateConflict):
			logger.Error("set goal status error: transition not allowed")
			httputil.WriteErrorResponse(w, http.StatusConflict, "goal status change not allowed", nil)
		default:
			logger.Error("set goal status error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error while changing goal status", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, goal)
	logger.Info("goal status changed")
}
