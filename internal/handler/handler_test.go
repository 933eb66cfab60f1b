package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carepulse/internal/ai"
	"carepulse/internal/audit"
	"carepulse/internal/kvstore"
	"carepulse/internal/notify"
	"carepulse/internal/pdf"
	"carepulse/internal/service"
	"carepulse/internal/session"
	"carepulse/pkg/model"
)

type memMedicationStore struct{}

func (memMedicationStore) LoadAll(ctx context.Context) ([]model.Medication, error) { return nil, nil }
func (memMedicationStore) Save(ctx context.Context, med *model.Medication) error   { return nil }
func (memMedicationStore) Delete(ctx context.Context, medicationID int) error      { return nil }

type memCheckInStore struct {
	saved []model.CheckIn
}

func (m *memCheckInStore) Save(ctx context.Context, checkIn *model.CheckIn) error {
	m.saved = append(m.saved, *checkIn)
	return nil
}

func (m *memCheckInStore) FindByUserID(ctx context.Context, userID string, since time.Time) ([]model.CheckIn, error) {
	var out []model.CheckIn
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].UserID == userID {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

func (m *memCheckInStore) MoodDistribution(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	distribution := make(map[string]int)
	for _, checkIn := range m.saved {
		if checkIn.UserID == userID {
			distribution[string(checkIn.Mood)]++
		}
	}
	return distribution, nil
}

type memReportStore struct {
	saved map[string]model.Report
}

func (m *memReportStore) Save(ctx context.Context, report *model.Report) error {
	m.saved[report.ID] = *report
	return nil
}

func (m *memReportStore) FindByID(ctx context.Context, reportID string) (*model.Report, error) {
	report, ok := m.saved[reportID]
	if !ok {
		return nil, assert.AnError
	}
	return &report, nil
}

type testAuditor struct{}

func (testAuditor) Log(ctx context.Context, entry audit.Entry) error { return nil }

type testEnv struct {
	router *gin.Engine
	token  string
	toasts *notify.Center
	gate   *notify.Gate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	ctx := context.Background()

	kv, err := kvstore.New(afero.NewMemMapFs(), "/data", nil, logger)
	require.NoError(t, err)
	sessions := session.NewStore(session.NewStubAuthenticator(0, 0), kv, testAuditor{}, logger)

	toasts := notify.NewCenter()
	gate := notify.NewGate(notify.NewStubPlatform(notify.PermissionGranted), toasts, logger)

	medications, err := service.NewMedicationService(ctx, memMedicationStore{}, toasts, testAuditor{}, logger)
	require.NoError(t, err)
	sources := service.NewHealthSourceService(0, toasts, testAuditor{}, logger)
	metrics := service.NewMetricsService(logger)
	checkIns := service.NewCheckInService(&memCheckInStore{}, ai.NewSupportResponder(), testAuditor{}, logger)
	reports := service.NewReportService(
		&memReportStore{saved: map[string]model.Report{}},
		medications, checkIns, sources, metrics,
		pdf.NewGenerator(logger),
		afero.NewMemMapFs(), "/reports",
		testAuditor{}, logger,
	)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Auth:          NewAuthHandler(sessions, gate, logger),
		Medications:   NewMedicationHandler(medications, logger),
		Sources:       NewSourceHandler(sources, logger),
		Dashboard:     NewDashboardHandler(medications, sources, metrics, checkIns, gate, logger),
		Chat:          NewChatHandler(ai.NewMedicalResponder(), checkIns, logger),
		Notifications: NewNotificationHandler(toasts, gate, logger),
		Reports:       NewReportHandler(reports, logger),
	}, sessions)

	_, token, err := sessions.Login(ctx, "demo@example.com", "password123")
	require.NoError(t, err)
	toasts.Drain()

	return &testEnv{router: router, token: token, toasts: toasts, gate: gate}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"jane@example.com","password":"secret123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	decode(t, rec, &resp)
	require.NotNil(t, resp.User)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, "jane", resp.User.Name)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"jane@example.com","password":"short"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/summary", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardSummary_PromptedOnce(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var first SummaryResponse
	decode(t, rec, &first)
	assert.Contains(t, first.Greeting, "Welcome back")
	assert.Equal(t, "local", first.Source.ID)
	assert.Equal(t, 72, first.Snapshot.HeartRate)
	assert.Len(t, first.Medications, 2)
	// Seeded alarms exist and permission is undecided, so the first
	// mount asks once.
	assert.True(t, first.PromptPermission)

	var second SummaryResponse
	decode(t, env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil), &second)
	assert.False(t, second.PromptPermission)
}

func TestDashboardSummary_LoginRearmsPrompt(t *testing.T) {
	env := newTestEnv(t)

	var first SummaryResponse
	decode(t, env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil), &first)
	require.True(t, first.PromptPermission)

	// A fresh login starts a new mount, so the nudge fires again.
	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "demo@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var sess SessionResponse
	decode(t, rec, &sess)
	env.token = sess.Token

	var again SummaryResponse
	decode(t, env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil), &again)
	assert.True(t, again.PromptPermission)
}

func TestMedicationLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/medications", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var med model.Medication
	decode(t, rec, &med)
	assert.Equal(t, 3, med.ID)
	assert.Equal(t, "New Medication", med.Name)

	rec = env.do(t, http.MethodPatch, "/api/v1/medications/3", map[string]string{"name": "Metformin", "dosage": "500mg"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &med)
	assert.Equal(t, "Metformin", med.Name)
	assert.Equal(t, "500mg", med.Dosage)

	rec = env.do(t, http.MethodPost, "/api/v1/medications/3/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &med)
	assert.True(t, med.Taken)

	rec = env.do(t, http.MethodDelete, "/api/v1/medications/3", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/medications/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggleTakenEmitsToast(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/medications/1/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Medication taken")

	// Drained, so a second read is empty.
	rec = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	assert.NotContains(t, rec.Body.String(), "Medication taken")
}

func TestAlarmEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/medications/1/alarms", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var alarm model.Alarm
	decode(t, rec, &alarm)
	assert.Equal(t, 2, alarm.ID)
	assert.Equal(t, "08:00", alarm.Time)

	rec = env.do(t, http.MethodPatch, "/api/v1/medications/1/alarms/2", map[string]string{"time": "21:15"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &alarm)
	assert.Equal(t, "21:15", alarm.Time)

	rec = env.do(t, http.MethodPatch, "/api/v1/medications/1/alarms/2", map[string]string{"time": "9pm"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/medications/1/alarms/2/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &alarm)
	assert.False(t, alarm.Active)

	rec = env.do(t, http.MethodDelete, "/api/v1/medications/1/alarms/2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/medications/1/alarms/2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSourceConnectChangesSnapshot(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sources/google-fit/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var conn model.HealthDataConnection
	decode(t, rec, &conn)
	assert.True(t, conn.Connected)
	require.NotNil(t, conn.LastSync)

	var summary SummaryResponse
	decode(t, env.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil), &summary)
	assert.Equal(t, "google-fit", summary.Source.ID)
	assert.Equal(t, 75, summary.Snapshot.HeartRate)
	assert.Equal(t, "126/84", summary.Snapshot.BloodPressure)
}

func TestSourceConnect_Unknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sources/garmin/connect", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONNECTION_FAILED")
}

func TestSeriesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health/series?metric=steps", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Metric string              `json:"metric"`
		Points []model.SeriesPoint `json:"points"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "steps", resp.Metric)
	assert.Len(t, resp.Points, 7)

	// 2026-03-01 is a Sunday, so the week runs Mon through Sun.
	rec = env.do(t, http.MethodGet, "/api/v1/health/series?metric=steps&end=2026-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	require.Len(t, resp.Points, 7)
	assert.Equal(t, "Mon", resp.Points[0].Label)
	assert.Equal(t, "Sun", resp.Points[6].Label)

	rec = env.do(t, http.MethodGet, "/api/v1/health/series?metric=steps&end=march", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/health/series?metric=bodyTemperature", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/health/series", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/checkins", map[string]string{"mood": "Not Great", "note": "long day"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		CheckIn  model.CheckIn       `json:"check_in"`
		Messages []model.ChatMessage `json:"messages"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, model.MoodNotGreat, resp.CheckIn.Mood)
	require.Len(t, resp.Messages, 3)
	assert.Contains(t, resp.Messages[2].Content, "I'm sorry you're not feeling great")

	rec = env.do(t, http.MethodPost, "/api/v1/checkins", map[string]string{"mood": "Ecstatic"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/checkins", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Great")
}

func TestMedicalChat(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/chat/greeting", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Medical AI assistant")

	rec = env.do(t, http.MethodPost, "/api/v1/chat", map[string]any{
		"messages": []model.ChatMessage{
			{ID: 1, Role: model.MessageRoleUser, Content: "I have a persistent cough."},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply model.ChatMessage
	decode(t, rec, &reply)
	assert.Equal(t, 2, reply.ID)
	assert.Equal(t, model.MessageRoleAssistant, reply.Role)
	assert.Contains(t, reply.Content, "I understand your concern")
}

func TestNotificationPermissionEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/notifications/permission", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"default"`)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/permission", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"granted"`)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	assert.Contains(t, rec.Body.String(), "Notifications enabled")
}

func TestReportFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/reports/generate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var report model.Report
	decode(t, rec, &report)
	require.NotEmpty(t, report.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/reports/"+report.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", rec.Body.String()[:4])

	rec = env.do(t, http.MethodGet, "/api/v1/reports/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The old token no longer authorizes requests.
	rec = env.do(t, http.MethodGet, "/api/v1/medications", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp SessionResponse
	sessionRec := httptest.NewRecorder()
	env.router.ServeHTTP(sessionRec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil))
	decode(t, sessionRec, &resp)
	assert.Nil(t, resp.User)
	assert.True(t, resp.Ready)
}
