package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hud203/leadengine/internal/api"
	"github.com/hud203/leadengine/internal/attribution"
	"github.com/hud203/leadengine/internal/crm"
	"github.com/hud203/leadengine/internal/dispatch"
	"github.com/hud203/leadengine/internal/models"
	"github.com/hud203/leadengine/internal/repository"
	"github.com/hud203/leadengine/internal/services"
)

// stubEventRepo satisfies repository.EventRepository without a database.
type stubEventRepo struct {
	names []string
}

func (r *stubEventRepo) CreateEvent(event *models.EventRecord) error { return nil }
func (r *stubEventRepo) CountEvents() (int64, error)                 { return 0, nil }
func (r *stubEventRepo) CountByCategory() ([]repository.CategoryCount, error) {
	return nil, nil
}
func (r *stubEventRepo) CountByName() ([]repository.NameCount, error) { return nil, nil }
func (r *stubEventRepo) EventNamesByVisitor(visitorID string) ([]string, error) {
	return r.names, nil
}

func newTestRouter(t *testing.T, crmClient *crm.Client, repo repository.EventRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	dispatcher := dispatch.New(64, 0, false, log)

	router := gin.New()
	api.SetupRoutes(router, api.Deps{
		Leads:        services.NewLeadService(crmClient, dispatcher, log),
		Dispatcher:   dispatcher,
		Stores:       attribution.NewMemoryStores(),
		Events:       repo,
		DownloadsDir: t.TempDir(),
		Log:          log,
	})
	return router
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func validSubmission() map[string]any {
	return map[string]any{
		"firstName":        "Jane",
		"email":            "jane@example.com",
		"leadMagnetId":     "subject-to-complete-guide",
		"leadMagnetTitle":  "Complete Subject-To Real Estate Guide",
		"source":           "resources-page",
		"consent":          true,
		"marketingConsent": false,
	}
}

func TestLeadCaptureMissingFields(t *testing.T) {
	var crmCalls int32
	crmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&crmCalls, 1)
	}))
	defer crmServer.Close()

	router := newTestRouter(t, crm.NewClient(crmServer.URL, "key"), &stubEventRepo{})

	for _, field := range []string{"firstName", "email", "consent"} {
		submission := validSubmission()
		delete(submission, field)

		rec := postJSON(router, "/api/lead-capture", submission)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "without %s", field)
		assert.JSONEq(t, `{"error":"Missing required fields"}`, rec.Body.String())
	}
	// Rejected submissions never reach the CRM
	assert.Zero(t, atomic.LoadInt32(&crmCalls))
}

func TestLeadCaptureInvalidEmail(t *testing.T) {
	router := newTestRouter(t, nil, &stubEventRepo{})

	for _, email := range []string{"foo", "foo@", "foo@bar"} {
		submission := validSubmission()
		submission["email"] = email

		rec := postJSON(router, "/api/lead-capture", submission)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "email %q", email)
		assert.JSONEq(t, `{"error":"Invalid email format"}`, rec.Body.String())
	}
}

func TestLeadCaptureSuccessWithoutCRM(t *testing.T) {
	router := newTestRouter(t, nil, &stubEventRepo{})

	rec := postJSON(router, "/api/lead-capture", validSubmission())

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Lead captured successfully", body["message"])
	assert.Equal(t, "/downloads/subject-to-complete-guide", body["downloadUrl"])
}

func TestLeadCaptureSuccessDespiteCRMOutage(t *testing.T) {
	crmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "partner outage", http.StatusBadGateway)
	}))
	defer crmServer.Close()

	router := newTestRouter(t, crm.NewClient(crmServer.URL, "key"), &stubEventRepo{})

	rec := postJSON(router, "/api/lead-capture", validSubmission())

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/downloads/subject-to-complete-guide", body["downloadUrl"])
}

func TestLeadCaptureMalformedBody(t *testing.T) {
	router := newTestRouter(t, nil, &stubEventRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/lead-capture", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// An unparseable body reports as a generic failure, not a validation error
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestPageViewAccepted(t *testing.T) {
	router := newTestRouter(t, nil, &stubEventRepo{})

	rec := postJSON(router, "/api/page-view", map[string]any{
		"path":     "/guides/subject-to?utm_source=google",
		"title":    "Subject-To Guide",
		"referrer": "https://www.google.com/",
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	// A visitor cookie is minted on first contact
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "le_vid", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
}

func TestEventIntakeValidation(t *testing.T) {
	router := newTestRouter(t, nil, &stubEventRepo{})

	rec := postJSON(router, "/api/events", map[string]any{
		"event":    "funnel_step",
		"category": "made_up_category",
		"action":   "advance_funnel",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(router, "/api/events", map[string]any{
		"event":    "funnel_step",
		"category": "conversion",
		"action":   "advance_funnel",
		"value":    2,
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLeadScore(t *testing.T) {
	repo := &stubEventRepo{names: []string{"page_view", "lead_magnet_downloaded", "form_completed"}}
	router := newTestRouter(t, nil, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/score", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(36), body["lead_score"])
	assert.Equal(t, float64(3), body["events"])
}

func TestDownloadHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subject-to-complete-guide.pdf"), []byte("%PDF-1.4"), 0o644))

	log := zerolog.Nop()
	dispatcher := dispatch.New(8, 0, false, log)
	router := gin.New()
	api.SetupRoutes(router, api.Deps{
		Leads:        services.NewLeadService(nil, dispatcher, log),
		Dispatcher:   dispatcher,
		Stores:       attribution.NewMemoryStores(),
		Events:       &stubEventRepo{},
		DownloadsDir: dir,
		Log:          log,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/downloads/subject-to-complete-guide", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "subject-to-complete-guide.pdf")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/downloads/no-such-magnet", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
