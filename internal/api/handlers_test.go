package api_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marwo/buddyfit/internal/api"
	errorvalues "github.com/marwo/buddyfit/internal/error_values"
	"github.com/marwo/buddyfit/internal/service"
	"github.com/marwo/buddyfit/pkg/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	service.InitValidator()
	m.Run()
}

const testSecret = "test_secret"

var testUID = uuid.New()

// Every mock returns its configured err, or a canned success value when nil.
type matchingServiceMock struct {
	err error
}

func (m *matchingServiceMock) FindCandidates(ctx context.Context, userID uuid.UUID, filters service.MatchFilters) ([]entity.Candidate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []entity.Candidate{{
		Profile:    &entity.UserProfile{ID: uuid.New(), Name: "candidate"},
		Score:      90,
		DistanceKm: 1.2,
	}}, nil
}

type buddiesServiceMock struct {
	err error
}

func (m *buddiesServiceMock) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*entity.BuddyEdge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.BuddyEdge{ID: uuid.New(), RequesterID: requesterID, RecipientID: recipientID, State: entity.EdgePending}, nil
}

func (m *buddiesServiceMock) RespondToRequest(ctx context.Context, edgeID, responderID uuid.UUID, action service.RespondAction) (*entity.BuddyEdge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.BuddyEdge{ID: edgeID, RecipientID: responderID, State: entity.EdgeAccepted}, nil
}

func (m *buddiesServiceMock) ListBuddies(ctx context.Context, userID uuid.UUID) ([]*entity.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*entity.UserProfile{{ID: uuid.New(), Name: "buddy"}}, nil
}

func (m *buddiesServiceMock) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]*entity.BuddyEdge, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*entity.BuddyEdge{{ID: uuid.New(), RecipientID: userID, State: entity.EdgePending}}, nil
}

type analyticsServiceMock struct {
	err error
}

func (m *analyticsServiceMock) LogWorkout(ctx context.Context, ownerID uuid.UUID, req *service.LogWorkoutRequest) (*entity.WorkoutRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.WorkoutRecord{ID: uuid.New(), OwnerID: ownerID, Type: req.Type, DurationMin: req.DurationMin}, nil
}

func (m *analyticsServiceMock) DeleteWorkout(ctx context.Context, workoutID, ownerID uuid.UUID) error {
	return m.err
}

func (m *analyticsServiceMock) GetUserAnalytics(ctx context.Context, userID uuid.UUID, periodDays int) (*entity.AnalyticsSnapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.AnalyticsSnapshot{UserID: userID, PeriodDays: 30, Rollups: make([]entity.PeriodRollup, 4)}, nil
}

type goalsServiceMock struct {
	err error
}

func (m *goalsServiceMock) CreateGoal(ctx context.Context, ownerID uuid.UUID, req *service.CreateGoalRequest) (*entity.Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.Goal{ID: uuid.New(), OwnerID: ownerID, Category: req.Category, Status: entity.GoalActive}, nil
}

func (m *goalsServiceMock) GetGoals(ctx context.Context, ownerID uuid.UUID, status *entity.GoalStatus) ([]*entity.Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []*entity.Goal{{ID: uuid.New(), OwnerID: ownerID, Status: entity.GoalActive}}, nil
}

func (m *goalsServiceMock) SetGoalStatus(ctx context.Context, goalID, ownerID uuid.UUID, next entity.GoalStatus) (*entity.Goal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.Goal{ID: goalID, OwnerID: ownerID, Status: next}, nil
}

type profileServiceMock struct {
	err error
}

func (m *profileServiceMock) CreateProfile(ctx context.Context, req *service.ProfileRequest) (*entity.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.UserProfile{ID: uuid.New(), Name: req.Name}, nil
}

func (m *profileServiceMock) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.UserProfile{ID: userID, Name: "test_user"}, nil
}

func (m *profileServiceMock) UpdateProfile(ctx context.Context, userID uuid.UUID, req *service.ProfileRequest) (*entity.UserProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &entity.UserProfile{ID: userID, Name: req.Name}, nil
}

type serviceMocks struct {
	matching  *matchingServiceMock
	buddies   *buddiesServiceMock
	analytics *analyticsServiceMock
	goals     *goalsServiceMock
	profiles  *profileServiceMock
}

func newTestServer() (http.Handler, *serviceMocks) {
	mocks := &serviceMocks{
		matching:  &matchingServiceMock{},
		buddies:   &buddiesServiceMock{},
		analytics: &analyticsServiceMock{},
		goals:     &goalsServiceMock{},
		profiles:  &profileServiceMock{},
	}
	serv := api.New(&api.ServicesList{
		Verifier:         api.NewIdentityVerifier(testSecret),
		MatchingService:  mocks.matching,
		BuddiesService:   mocks.buddies,
		AnalyticsService: mocks.analytics,
		GoalsService:     mocks.goals,
		ProfileService:   mocks.profiles,
	})
	return serv.Routes(), mocks
}

func mintToken(t *testing.T, uid uuid.UUID, ttl time.Duration) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &api.IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: uid.String(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(serv http.Handler, method, target, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	serv.ServeHTTP(rr, req)
	return rr
}

func TestIdentityMiddleware(t *testing.T) {
	serv, _ := newTestServer()
	t.Run("no token", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/profile", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
		req.Header.Set("Authorization", "not-a-bearer")
		rr := httptest.NewRecorder()
		serv.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
	t.Run("expired token", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/profile", mintToken(t, testUID, -time.Minute), nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
	t.Run("live token passes", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/profile", mintToken(t, testUID, time.Minute), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestCreateProfileHandler(t *testing.T) {
	serv, mocks := newTestServer()
	body, err := sonic.ConfigDefault.Marshal(api.ProfileRequest{
		Name:         "test_user",
		FitnessLevel: entity.LevelBeginner,
	})
	require.NoError(t, err)
	t.Run("created", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, "/api/v1/profiles", "", body)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
	t.Run("invalid body", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, "/api/v1/profiles", "", []byte("{broken"))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("invalid fields", func(t *testing.T) {
		mocks.profiles.err = errorvalues.ErrValidation
		rr := doRequest(serv, http.MethodPost, "/api/v1/profiles", "", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("existed name", func(t *testing.T) {
		mocks.profiles.err = errorvalues.ErrUserExists
		rr := doRequest(serv, http.MethodPost, "/api/v1/profiles", "", body)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestGetProfileHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	t.Run("provided", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/profile", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		var profile entity.UserProfile
		require.NoError(t, sonic.ConfigDefault.Unmarshal(rr.Body.Bytes(), &profile))
		assert.Equal(t, testUID, profile.ID)
	})
	t.Run("unexist user", func(t *testing.T) {
		mocks.profiles.err = errorvalues.ErrUserNotFound
		rr := doRequest(serv, http.MethodGet, "/api/v1/profile", token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetMatchesHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	t.Run("provided", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/matches?max_distance_km=25", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		var resp api.GetMatchesResponse
		require.NoError(t, sonic.ConfigDefault.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, 1, len(resp.Candidates))
	})
	t.Run("bad distance", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/matches?max_distance_km=-5", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("no location", func(t *testing.T) {
		mocks.matching.err = errorvalues.ErrNoLocation
		rr := doRequest(serv, http.MethodGet, "/api/v1/matches", token, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSendBuddyRequestHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	body, err := sonic.ConfigDefault.Marshal(api.SendBuddyRequestBody{RecipientID: uuid.New().String()})
	require.NoError(t, err)
	t.Run("sent", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests", token, body)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
	t.Run("invalid recipient id", func(t *testing.T) {
		badBody, _ := sonic.ConfigDefault.Marshal(api.SendBuddyRequestBody{RecipientID: "not-a-uuid"})
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests", token, badBody)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("self request", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrSelfRequest
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("pair duplication", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrEdgePairExists
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests", token, body)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
	t.Run("unexist recipient", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrUserNotFound
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests", token, body)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRespondBuddyRequestHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	target := "/api/v1/buddies/requests/" + uuid.New().String()
	body, err := sonic.ConfigDefault.Marshal(api.RespondBuddyRequestBody{Action: "accept"})
	require.NoError(t, err)
	t.Run("answered", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, target, token, body)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("bad id in path", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, "/api/v1/buddies/requests/abc", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("unknown action", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrUnknownAction
		rr := doRequest(serv, http.MethodPost, target, token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
	t.Run("not the recipient", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrNotRecipient
		rr := doRequest(serv, http.MethodPost, target, token, body)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
	t.Run("already answered", func(t *testing.T) {
		mocks.buddies.err = errorvalues.ErrEdgeNotPending
		rr := doRequest(serv, http.MethodPost, target, token, body)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestLogWorkoutHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	body, err := sonic.ConfigDefault.Marshal(api.LogWorkoutRequestBody{
		Type:        "running",
		DurationMin: 45,
		Calories:    400,
		Date:        time.Now(),
	})
	require.NoError(t, err)
	t.Run("logged", func(t *testing.T) {
		rr := doRequest(serv, http.MethodPost, "/api/v1/workouts", token, body)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
	t.Run("invalid fields", func(t *testing.T) {
		mocks.analytics.err = errorvalues.ErrValidation
		rr := doRequest(serv, http.MethodPost, "/api/v1/workouts", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteWorkoutHandler(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	target := "/api/v1/workouts/" + uuid.New().String()
	t.Run("deleted", func(t *testing.T) {
		rr := doRequest(serv, http.MethodDelete, target, token, nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
	t.Run("unexist workout", func(t *testing.T) {
		mocks.analytics.err = errorvalues.ErrWorkoutNotFound
		rr := doRequest(serv, http.MethodDelete, target, token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
	t.Run("foreign workout looks unexist", func(t *testing.T) {
		mocks.analytics.err = errorvalues.ErrWrongOwner
		rr := doRequest(serv, http.MethodDelete, target, token, nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGetAnalyticsHandler(t *testing.T) {
	serv, _ := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	rr := doRequest(serv, http.MethodGet, "/api/v1/analytics?period_days=30", token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	var snapshot entity.AnalyticsSnapshot
	require.NoError(t, sonic.ConfigDefault.Unmarshal(rr.Body.Bytes(), &snapshot))
	assert.Equal(t, testUID, snapshot.UserID)
	assert.Equal(t, 4, len(snapshot.Rollups))
}

func TestGoalHandlers(t *testing.T) {
	serv, mocks := newTestServer()
	token := mintToken(t, testUID, time.Minute)
	t.Run("created", func(t *testing.T) {
		body, err := sonic.ConfigDefault.Marshal(api.CreateGoalRequestBody{
			Category:    "monthly cardio",
			TargetValue: 600,
			TargetUnit:  "minutes",
		})
		require.NoError(t, err)
		rr := doRequest(serv, http.MethodPost, "/api/v1/goals", token, body)
		assert.Equal(t, http.StatusCreated, rr.Code)
	})
	t.Run("listed", func(t *testing.T) {
		rr := doRequest(serv, http.MethodGet, "/api/v1/goals?status=active", token, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("status changed", func(t *testing.T) {
		body, err := sonic.ConfigDefault.Marshal(api.SetGoalStatusBody{Status: "paused"})
		require.NoError(t, err)
		rr := doRequest(serv, http.MethodPost, "/api/v1/goals/"+uuid.New().String()+"/status", token, body)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
	t.Run("transition conflict", func(t *testing.T) {
		mocks.goals.err = errorvalues.ErrGoalStateConflict
		body, _ := sonic.ConfigDefault.Marshal(api.SetGoalStatusBody{Status: "active"})
		rr := doRequest(serv, http.MethodPost, "/api/v1/goals/"+uuid.New().String()+"/status", token, body)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
