package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"example.com/gymcheckins/internal/auth"
	"example.com/gymcheckins/internal/domain"
	"example.com/gymcheckins/internal/geo"
	"example.com/gymcheckins/internal/persistence/memory"
)

var authConfig = auth.Config{Secret: "api-test-secret", Issuer: "gymcheckins-tests"}

type apiFixture struct {
	t       *testing.T
	gyms    *memory.GymRepository
	clock   *testClock
	handler http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	gyms := memory.NewGymRepository(domain.DefaultQueryLimits())
	checkIns := memory.NewCheckInRepository(domain.DefaultQueryLimits())
	clock := &testClock{now: time.Date(2026, time.January, 13, 8, 0, 0, 0, time.UTC)}
	service := domain.NewService(gyms, checkIns, domain.WithClock(clock))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &apiFixture{
		t:     t,
		gyms:  gyms,
		clock: clock,
		handler: NewRouter(NewHandler(service, logger), RouterConfig{
			Auth:   auth.NewMiddleware(authConfig),
			Logger: logger,
		}),
	}
}

func (f *apiFixture) addGym(id string, lat, lng float64) {
	f.gyms.Add(domain.Gym{ID: id, Title: "Gym " + id, Latitude: lat, Longitude: lng, CreatedAt: f.clock.Now()})
}

func (f *apiFixture) do(method, path, subject string, body any, scopes ...string) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+token(f.t, subject, scopes...))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, subject string, scopes ...string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    subject,
		"iss":    authConfig.Issuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": scopes,
	}).SignedString([]byte(authConfig.Secret))
	require.NoError(t, err)
	return signed
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorType(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["type"]
}

func TestHealthzIsPublic(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	rec = f.do(http.MethodGet, "/v1/check-ins/metrics", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "unauthorized", errorType(t, rec))
}

func TestRequestLogCoversRejectedAndAuthenticatedRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	service := domain.NewService(memory.NewGymRepository(domain.QueryLimits{}), memory.NewCheckInRepository(domain.QueryLimits{}))
	handler := NewRouter(NewHandler(service, logger), RouterConfig{Auth: auth.NewMiddleware(authConfig), Logger: logger})

	serve := func(subject string) map[string]any {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/v1/check-ins/metrics", nil)
		if subject != "" {
			req.Header.Set("Authorization", "Bearer "+token(t, subject))
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
		return entry
	}

	rejected := serve("")
	require.Equal(t, "http_request", rejected["msg"])
	require.Equal(t, float64(http.StatusUnauthorized), rejected["status"])
	require.NotContains(t, rejected, "user_id")

	accepted := serve("user-7")
	require.Equal(t, float64(http.StatusOK), accepted["status"])
	require.Equal(t, "user-7", accepted["user_id"])
}

func TestCreateGym(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]any{"title": "JavaScript Gym", "latitude": -27.2092052, "longitude": -49.6401091}

	rec := f.do(http.MethodPost, "/v1/gyms", "member", body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", errorType(t, rec))

	rec = f.do(http.MethodPost, "/v1/gyms", "admin", body, auth.ScopeGymsWrite)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	gym := decode[GymView](t, rec)
	require.NotEmpty(t, gym.ID)
	require.Equal(t, "JavaScript Gym", gym.Title)
	require.Nil(t, gym.Phone)
	require.True(t, f.clock.Now().Equal(gym.CreatedAt))
}

func TestCreateGymRejectsBadInput(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body any
		kind string
	}{
		{name: "malformed json", body: `{"title":`, kind: "invalid_request"},
		{name: "missing latitude", body: map[string]any{"title": "Gym", "longitude": 1}, kind: "validation_failed"},
		{name: "latitude out of range", body: map[string]any{"title": "Gym", "latitude": 91, "longitude": 1}, kind: "validation_failed"},
		{name: "blank title", body: map[string]any{"title": "  ", "latitude": 1, "longitude": 1}, kind: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/v1/gyms", "admin", tt.body, auth.ScopeGymsWrite)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, tt.kind, errorType(t, rec))
		})
	}
}

func TestCheckInFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.addGym("gym-01", -27.2092052, -49.6401091)
	here := map[string]float64{"latitude": -27.2092052, "longitude": -49.6401091}

	rec := f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-1", here)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[CheckInView](t, rec)
	require.Equal(t, "user-1", created.UserID)
	require.Equal(t, "gym-01", created.GymID)
	require.Equal(t, string(domain.CheckInStatusPending), created.Status)
	require.Nil(t, created.ValidatedAt)

	rec = f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-1", here)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "max_check_ins", errorType(t, rec))

	rec = f.do(http.MethodPost, "/v1/gyms/gym-99/check-ins", "user-2", here)
	require.Equal(t, http.StatusNotFound, rec.Code)

	far := map[string]float64{"latitude": -27.0610928, "longitude": -49.5229501}
	rec = f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-2", far)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "max_distance", errorType(t, rec))

	rec = f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-2", map[string]float64{"latitude": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	path := "/v1/check-ins/" + created.ID + "/validate"
	rec = f.do(http.MethodPatch, path, "user-1", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	f.clock.Advance(5 * time.Minute)
	rec = f.do(http.MethodPatch, path, "gym-admin", nil, auth.ScopeCheckInsValidate)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	validated := decode[CheckInView](t, rec)
	require.Equal(t, string(domain.CheckInStatusValidated), validated.Status)
	require.NotNil(t, validated.ValidatedAt)

	rec = f.do(http.MethodPatch, path, "gym-admin", nil, auth.ScopeCheckInsValidate)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "already_validated", errorType(t, rec))

	rec = f.do(http.MethodPatch, "/v1/check-ins/missing/validate", "gym-admin", nil, auth.ScopeCheckInsValidate)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateCheckInTooLate(t *testing.T) {
	f := newAPIFixture(t)
	f.addGym("gym-01", -27.2092052, -49.6401091)

	rec := f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-1", map[string]float64{"latitude": -27.2092052, "longitude": -49.6401091})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[CheckInView](t, rec)

	f.clock.Advance(21 * time.Minute)
	rec = f.do(http.MethodPatch, "/v1/check-ins/"+created.ID+"/validate", "gym-admin", nil, auth.ScopeCheckInsValidate)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "late_validation", errorType(t, rec))
}

func TestSearchAndNearbyGyms(t *testing.T) {
	f := newAPIFixture(t)
	for i := 1; i <= 22; i++ {
		f.gyms.Add(domain.Gym{ID: "js-" + string(rune('a'+i)), Title: "JavaScript Gym", Latitude: -27.2092052, Longitude: -49.6401091})
	}
	f.gyms.Add(domain.Gym{ID: "far", Title: "TypeScript Gym", Latitude: -27.0610928, Longitude: -49.5229501})

	rec := f.do(http.MethodGet, "/v1/gyms/search?q=javascript&page=2", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[GymListResponse](t, rec)
	require.Equal(t, 2, page.Page)
	require.Len(t, page.Gyms, 2)

	rec = f.do(http.MethodGet, "/v1/gyms/search?q=javascript&page=0", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[GymListResponse](t, rec)
	require.Equal(t, 1, page.Page)
	require.Len(t, page.Gyms, 20)

	rec = f.do(http.MethodGet, "/v1/gyms/search?q=javascript&page=two", "user-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/v1/gyms/nearby?latitude=-27.2092052&longitude=-49.6401091", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[GymListResponse](t, rec).Gyms, 22)

	rec = f.do(http.MethodGet, "/v1/gyms/nearby?longitude=-49.6401091", "user-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/v1/gyms/nearby?latitude=120&longitude=0", "user-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryAndMetrics(t *testing.T) {
	f := newAPIFixture(t)
	f.addGym("gym-01", 0, 0)

	for day := 0; day < 3; day++ {
		rec := f.do(http.MethodPost, "/v1/gyms/gym-01/check-ins", "user-1", map[string]float64{"latitude": 0, "longitude": 0})
		require.Equal(t, http.StatusCreated, rec.Code)
		f.clock.Advance(24 * time.Hour)
	}

	rec := f.do(http.MethodGet, "/v1/check-ins/history", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[CheckInListResponse](t, rec)
	require.Len(t, history.CheckIns, 3)
	require.True(t, history.CheckIns[0].CreatedAt.After(history.CheckIns[2].CreatedAt))

	rec = f.do(http.MethodGet, "/v1/check-ins/metrics", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 3, decode[UserMetricsResponse](t, rec).CheckInsCount)

	rec = f.do(http.MethodGet, "/v1/check-ins/metrics", "user-2", nil)
	require.Equal(t, 0, decode[UserMetricsResponse](t, rec).CheckInsCount)
}

func TestInfrastructureErrorsAreHidden(t *testing.T) {
	service := domain.NewService(failingGyms{}, memory.NewCheckInRepository(domain.QueryLimits{}))
	handler := NewRouter(NewHandler(service, slog.New(slog.NewTextHandler(io.Discard, nil))), RouterConfig{Auth: auth.NewMiddleware(authConfig)})

	req := httptest.NewRequest(http.MethodGet, "/v1/gyms/search?q=x", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "user-1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[map[string]string](t, rec)
	require.Equal(t, "server_error", body["type"])
	require.NotContains(t, body["detail"], "connection refused")
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errConnRefused = errors.New("dial tcp: connection refused")

type failingGyms struct{}

func (failingGyms) FindByID(context.Context, string) (*domain.Gym, error) { return nil, errConnRefused }
func (failingGyms) SearchMany(context.Context, string, int) ([]domain.Gym, error) {
	return nil, errConnRefused
}
func (failingGyms) FetchNearby(context.Context, geo.Coordinate) ([]domain.Gym, error) {
	return nil, errConnRefused
}
func (failingGyms) Create(context.Context, domain.CreateGymParams) (*domain.Gym, error) {
	return nil, errConnRefused
}
