package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Dynag1/VocaNote/internal/config"
	apierrors "github.com/Dynag1/VocaNote/internal/errors"
	"github.com/Dynag1/VocaNote/internal/license"
	"github.com/Dynag1/VocaNote/internal/middleware"
	"github.com/Dynag1/VocaNote/internal/shared/testutil"
)

type testServer struct {
	router   chi.Router
	manager  *license.Manager
	fixtures *testutil.LicenseTestFixtures
	logs     *testutil.BufferedSlogHandler
}

func newTestServer(t *testing.T, ratePerMinute, burst int) *testServer {
	t.Helper()

	fixtures := testutil.NewLicenseTestFixtures(t)
	clock := testutil.NewClock(time.Date(2025, 10, 19, 14, 0, 0, 0, time.Local))
	mgr, _ := fixtures.NewManager(t, clock)
	mgr.Load(context.Background())

	logger, logs := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	router := NewRouter(RouterDeps{
		License: NewLicenseHandler(mgr, middleware.NewValidator(logger), errorHandler,
			middleware.NewRateLimiter(ratePerMinute, burst, errorHandler, logger), logger),
		Health:       NewHealthHandler(mgr.IsLicensed, clock.Now, logger),
		ErrorHandler: errorHandler,
		Logger:       logger,
	})

	return &testServer{router: router, manager: mgr, fixtures: fixtures, logs: logs}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func activateBody(key string) string {
	raw, _ := json.Marshal(LicenseActivationRequest{LicenseKey: key})
	return string(raw)
}

func TestLicenseAPI_Unlicensed(t *testing.T) {
	s := newTestServer(t, 60, 5)

	rec := s.do(t, http.MethodGet, "/api/license/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[license.Status](t, rec)
	assert.False(t, status.IsValid)
	require.NotNil(t, status.LimitSeconds)
	assert.Equal(t, config.TranscriptionLimit, *status.LimitSeconds)
	assert.Nil(t, status.KeyMasked)

	rec = s.do(t, http.MethodGet, "/api/license/limit", "")
	limit := decode[TranscriptionLimitResponse](t, rec)
	assert.True(t, limit.Limited)
	require.NotNil(t, limit.LimitSeconds)
	assert.Equal(t, config.TranscriptionLimit, *limit.LimitSeconds)

	rec = s.do(t, http.MethodGet, "/api/license/activation-code", "")
	code := decode[ActivationCodeResponse](t, rec)
	assert.Equal(t, s.manager.ActivationCode(), code.ActivationCode)
	assert.True(t, strings.HasPrefix(code.ActivationCode, config.ActivationCodePrefix))
}

func TestLicenseAPI_ActivateAndDeactivate(t *testing.T) {
	s := newTestServer(t, 60, 5)
	key := s.fixtures.BoundLicense(t, testutil.Date(2026, 1, 1))

	rec := s.do(t, http.MethodPost, "/api/license/activate", activateBody(key))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LicenseActionResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, resp.Status.IsValid)
	require.NotNil(t, resp.Status.ExpiryDate)
	assert.Equal(t, "2026-01-01", *resp.Status.ExpiryDate)
	assert.Nil(t, resp.Status.LimitSeconds)

	limit := decode[TranscriptionLimitResponse](t, s.do(t, http.MethodGet, "/api/license/limit", ""))
	assert.False(t, limit.Limited)
	assert.Nil(t, limit.LimitSeconds)

	health := decode[HealthResponse](t, s.do(t, http.MethodGet, "/healthz", ""))
	assert.True(t, health.Licensed)

	rec = s.do(t, http.MethodPost, "/api/license/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[LicenseActionResponse](t, rec)
	assert.True(t, resp.Success)
	assert.False(t, resp.Status.IsValid)
	assert.False(t, s.manager.IsLicensed())
}

func TestLicenseAPI_RejectedKeyCarriesNoReason(t *testing.T) {
	s := newTestServer(t, 60, 5)
	foreign := s.fixtures.Seal(t, license.Record{
		HardwareID: "SomeOtherMachineFingerprint00000",
		Software:   config.ProductID,
	})

	for _, key := range []string{"ABCDEF", foreign} {
		rec := s.do(t, http.MethodPost, "/api/license/activate", activateBody(key))
		require.Equal(t, http.StatusOK, rec.Code)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
		assert.ElementsMatch(t, []string{"success", "status"}, mapKeys(raw))
		assert.JSONEq(t, "false", string(raw["success"]))
	}
	assert.False(t, s.manager.IsLicensed())
}

func mapKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestLicenseAPI_ActivateValidation(t *testing.T) {
	s := newTestServer(t, 60, 10)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{"empty key", `{"license_key":""}`, http.StatusBadRequest, apierrors.TypeValidation},
		{"missing key", `{}`, http.StatusBadRequest, apierrors.TypeValidation},
		{"malformed JSON", `{"license_key":`, http.StatusBadRequest, apierrors.TypeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/license/activate", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))
			problem := decode[map[string]interface{}](t, rec)
			assert.Equal(t, tt.wantType, problem["type"])
			assert.NotEmpty(t, problem["trace_id"])
		})
	}
}

func TestLicenseAPI_ActivationRateLimited(t *testing.T) {
	s := newTestServer(t, 1, 2)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodPost, "/api/license/activate", activateBody("WRONG-KEY"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/license/activate", activateBody("WRONG-KEY"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are never throttled
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/license/status", "").Code)
}

func TestLicenseAPI_NotFoundAndMethod(t *testing.T) {
	s := newTestServer(t, 60, 5)

	rec := s.do(t, http.MethodGet, "/api/license/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decode[map[string]interface{}](t, rec)["type"])

	rec = s.do(t, http.MethodDelete, "/api/license/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, apierrors.TypeMethodNotAllowed, decode[map[string]interface{}](t, rec)["type"])
}

func TestLicenseAPI_KeysNeverLogged(t *testing.T) {
	s := newTestServer(t, 60, 5)
	key := s.fixtures.BoundLicense(t, nil)

	s.do(t, http.MethodPost, "/api/license/activate", activateBody(key))
	testutil.AssertNeverLogged(t, s.logs, key)
}

type mockLicenseService struct {
	mock.Mock
}

func (m *mockLicenseService) Activate(ctx context.Context, key string) bool {
	return m.Called(ctx, key).Bool(0)
}

func (m *mockLicenseService) Deactivate(ctx context.Context) {
	m.Called(ctx)
}

func (m *mockLicenseService) Status(ctx context.Context) license.Status {
	return m.Called(ctx).Get(0).(license.Status)
}

func (m *mockLicenseService) TranscriptionLimit() (int, bool) {
	args := m.Called()
	return args.Int(0), args.Bool(1)
}

func (m *mockLicenseService) ActivationCode() string {
	return m.Called().String(0)
}

func TestLicenseHandler_PassesKeyVerbatim(t *testing.T) {
	svc := &mockLicenseService{}
	svc.On("Activate", mock.Anything, "  KEY-WITH-SPACES \n").Return(true).Once()
	svc.On("Status", mock.Anything).Return(license.Status{IsValid: true, DaysRemainingText: "Perpetual", IsPerpetual: true}).Once()

	logger, _ := testutil.NewTestLogger(t)
	h := NewLicenseHandler(svc, middleware.NewValidator(logger), apierrors.NewErrorHandler(logger, false), nil, logger)

	req := httptest.NewRequest(http.MethodPost, "/activate", strings.NewReader(`{"license_key":"  KEY-WITH-SPACES \n"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LicenseActionResponse](t, rec)
	assert.True(t, resp.Success)
	assert.True(t, resp.Status.IsPerpetual)
	svc.AssertExpectations(t)
}
