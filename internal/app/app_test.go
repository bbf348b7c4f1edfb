package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"milguard_backend/internal/config"
	"milguard_backend/internal/detection"
	"milguard_backend/internal/model"
	"milguard_backend/internal/repository"
	"milguard_backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type staticDetector struct {
	results map[string]model.ProviderResult
}

func (d staticDetector) Detect(_ context.Context, _ detection.Content) (*detection.Outcome, error) {
	out := &detection.Outcome{Results: d.results}
	for name := range d.results {
		out.Queried = append(out.Queried, name)
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:       config.ServerConfig{Port: "0", Mode: "test"},
		JWT:          config.JWTConfig{Secret: "test-secret-test-secret-test-secret", ExpireTime: time.Hour},
		Learning:     config.LearningConfig{EnforceUnlock: true},
		Achievements: config.AchievementsConfig{StreakDays: 3},
	}
}

type testServer struct {
	t       *testing.T
	app     *App
	modules []model.LearningModule
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	curriculum := make([]model.LearningModule, 0, 3)
	for i := 1; i <= 3; i++ {
		curriculum = append(curriculum, model.LearningModule{
			Title: "Module",
			Content: datatypes.NewJSONType(model.ModuleContent{Sections: []model.Section{
				{Title: "Intro", Type: model.SectionText, Content: "..."},
			}}),
			Order:    i,
			IsActive: true,
		})
	}
	_, err := service.SeedCurriculum(context.Background(), store.Modules, curriculum)
	require.NoError(t, err)
	modules, err := store.Modules.ListActive(context.Background())
	require.NoError(t, err)

	a := New(testConfig(), Deps{
		Store: store,
		Detector: staticDetector{results: map[string]model.ProviderResult{
			"openai":  {Confidence: 0.9, IsAIGenerated: true},
			"gptZero": {Confidence: 0.3},
		}},
		Providers: []string{"gptZero", "openai"},
	})
	return &testServer{t: t, app: a, modules: modules}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "hunter22", "name": "Tester"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp service.AuthResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/learning/progress", "/api/user/dashboard", "/api/achievements", "/api/analyses"} {
		rec := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"error"`, path)
	}

	rec := s.do(http.MethodGet, "/api/user/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompletingModuleUnlocksNextOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.register("learner@example.com")

	rec := s.do(http.MethodPost, "/api/learning/progress", token, gin.H{"moduleId": s.modules[1].ID, "progress": 0.5})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/learning/progress", token, gin.H{"moduleId": s.modules[0].ID, "progress": 1.0, "completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var progress service.ProgressUpdateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.True(t, progress.Completed)
	assert.Equal(t, 1.0, progress.Progress)

	rec = s.do(http.MethodGet, "/api/learning/modules", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []service.ModuleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 3)
	assert.Equal(t, service.StatusCompleted, views[0].Status)
	assert.True(t, views[1].Unlocked)
	assert.False(t, views[2].Unlocked)
	assert.Equal(t, 1, views[0].Order)

	rec = s.do(http.MethodGet, "/api/learning/progress", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []model.UserProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestModulesAreListedAnonymously(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/learning/modules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var modules []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &modules))
	require.Len(t, modules, 3)
	assert.EqualValues(t, 1, modules[0]["order"])
	assert.NotContains(t, modules[0], "status")
}

func TestAnalyzeTextOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.register("analyst@example.com")

	rec := s.do(http.MethodPost, "/api/analyze/text", token, gin.H{"text": "Suspiciously polished paragraph."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	var results map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(body["results"], &results))
	assert.Contains(t, results, "openai")
	assert.Contains(t, results, "gptZero")
	assert.InDelta(t, 0.6, results["overall"]["confidence"], 1e-9)
	assert.Equal(t, true, results["overall"]["isAiGenerated"])

	var id string
	require.NoError(t, json.Unmarshal(body["analysisId"], &id))

	rec = s.do(http.MethodGet, "/api/analyses/"+id, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := s.register("someone@example.com")
	rec = s.do(http.MethodGet, "/api/analyses/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/achievements", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var achievements []model.Achievement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &achievements))
	require.Len(t, achievements, 1)
	assert.Equal(t, model.AchievementFirstAnalysis, achievements[0].Type)

	rec = s.do(http.MethodPost, "/api/analyze/text", token, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register("dup@example.com")

	rec := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "DUP@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "dup@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "dup@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndDocs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"memory"`)

	rec = s.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/analyze/text")
}

func TestConfigCallbacksApplyReloadedSettings(t *testing.T) {
	s := newTestServer(t)

	cfg := testConfig()
	cfg.Learning.EnforceUnlock = false
	cfg.Achievements.StreakDays = 5
	s.app.applyConfig(cfg)

	assert.Equal(t, 5, s.app.services.achievement.StreakThreshold())

	token := s.register("free@example.com")
	rec := s.do(http.MethodPost, "/api/learning/progress", token, gin.H{"moduleId": s.modules[2].ID, "progress": 0.5})
	assert.Equal(t, http.StatusOK, rec.Code)
}
