package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartguard-api/internal/auth"
	"github.com/heartguard-api/internal/classifier"
	"github.com/heartguard-api/internal/domain"
	"github.com/heartguard-api/internal/service"
	"github.com/heartguard-api/internal/store"
)

type stubAdvisory struct {
	calls int
}

func (a *stubAdvisory) Ask(_ context.Context, query string) *domain.AdvisoryResponse {
	a.calls++
	return &domain.AdvisoryResponse{Response: "stub answer to " + query, Type: "text"}
}

func testConfig() *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{Host: "127.0.0.1", Port: 0},
		Advisory: domain.AdvisoryConfig{
			RequestsPerMinute: 600,
			Burst:             100,
		},
		Auth: domain.AuthConfig{
			JWTSecret: "handler-test-secret",
			TokenTTL:  time.Hour,
			Issuer:    "heartguard-test",
		},
		Logging: domain.LoggingConfig{Level: "error"},
	}
}

func newTestServer(t *testing.T) (*Server, *stubAdvisory) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fallback := classifier.NewRuleBasedFallback(classifier.DefaultRules(), classifier.DefaultRiskThreshold, logger)
	assessment := service.NewAssessmentService(fallback, st, logger)

	cfg := testConfig()
	advisory := &stubAdvisory{}
	tokens := auth.NewTokenService(cfg.Auth)

	return NewServer(cfg, assessment, st, st, advisory, tokens, logger), advisory
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func doForm(t *testing.T, srv *Server, path, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, srv *Server, username string) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func assessmentForm() url.Values {
	return url.Values{
		"age":           {"45"},
		"totChol":       {"250"},
		"sysBP":         {"150"},
		"diaBP":         {"95"},
		"BMI":           {"32"},
		"heartRate":     {"80"},
		"glucose":       {"110"},
		"currentSmoker": {"yes"},
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "rule-based", resp["classifier"])
}

func TestFirstRegisteredUserIsAdmin(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "first",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var first struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.User.IsAdmin)

	w = doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "second",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var second struct {
		User domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.False(t, second.User.IsAdmin)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice")

	w := doJSON(t, srv, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	registerAndLogin(t, srv, "alice")

	w := doJSON(t, srv, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssessmentsRequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doForm(t, srv, "/api/v1/assessments", "", assessmentForm())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitAssessmentAndHistory(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	w := doForm(t, srv, "/api/v1/assessments", token, assessmentForm())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var submitted struct {
		RecordID string             `json:"record_id"`
		Verdict  string             `json:"verdict"`
		Label    string             `json:"label"`
		Chart    domain.ChartSeries `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	assert.Equal(t, "high-risk", submitted.Verdict)
	assert.Equal(t, domain.VerdictHighRisk.Label(), submitted.Label)
	assert.NotEmpty(t, submitted.RecordID)
	assert.Len(t, submitted.Chart.Systolic, 1)
	assert.Equal(t, 150.0, submitted.Chart.Systolic[0])

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		Records []domain.RiskRecord `json:"records"`
		Chart   domain.ChartSeries  `json:"chart"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Records, 1)
	assert.Equal(t, 250.0, history.Records[0].Features.TotChol)
	assert.Len(t, history.Chart.Dates, 1)
}

func TestSubmitAssessmentValidationFailure(t *testing.T) {
	srv, _ := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	form := assessmentForm()
	form.Set("sysBP", "not-a-number")

	w := doForm(t, srv, "/api/v1/assessments", token, form)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sysBP", resp["field"])
	assert.Equal(t, domain.ErrCodeValidation, resp["code"])

	// Nothing may be persisted for a rejected submission.
	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Records []domain.RiskRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history.Records)
}

func TestHistoryIsScopedToUser(t *testing.T) {
	srv, _ := newTestServer(t)
	aliceToken := registerAndLogin(t, srv, "alice")
	bobToken := registerAndLogin(t, srv, "bob")

	w := doForm(t, srv, "/api/v1/assessments", aliceToken, assessmentForm())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/assessments", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		Records []domain.RiskRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history.Records)
}

func TestAdvisoryEndpoint(t *testing.T) {
	srv, advisory := newTestServer(t)
	token := registerAndLogin(t, srv, "alice")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/advisory", token, map[string]string{
		"query": "how is my heart?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.AdvisoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Response, "how is my heart?")
	assert.Equal(t, 1, advisory.calls)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/advisory", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminOverviewAccess(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := registerAndLogin(t, srv, "admin-user")
	memberToken := registerAndLogin(t, srv, "member")

	w := doForm(t, srv, "/api/v1/assessments", memberToken, assessmentForm())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/admin/overview", memberToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/v1/admin/overview", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var overview struct {
		TotalUsers       int `json:"total_users"`
		TotalAssessments int `json:"total_assessments"`
		HighRiskCount    int `json:"high_risk_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, 2, overview.TotalUsers)
	assert.Equal(t, 1, overview.TotalAssessments)
	assert.Equal(t, 1, overview.HighRiskCount)
}
