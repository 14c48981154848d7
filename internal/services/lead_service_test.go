package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hud203/leadengine/internal/crm"
	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
	"github.com/hud203/leadengine/internal/services"
)

type recordingPublisher struct {
	events []models.Event
}

func (p *recordingPublisher) Track(event models.Event) {
	p.events = append(p.events, event)
}

func validLead() models.Lead {
	return models.Lead{
		FirstName:       "Jane",
		Email:           "jane@example.com",
		LeadMagnetID:    "subject-to-complete-guide",
		LeadMagnetTitle: "Complete Subject-To Real Estate Guide",
		Source:          "resources-page",
		Consent:         true,
	}
}

func TestValidateMissingFields(t *testing.T) {
	service := services.NewLeadService(nil, &recordingPublisher{}, zerolog.Nop())

	tests := []struct {
		name   string
		mutate func(*models.Lead)
	}{
		{"missing first name", func(l *models.Lead) { l.FirstName = "" }},
		{"missing email", func(l *models.Lead) { l.Email = "" }},
		{"consent not given", func(l *models.Lead) { l.Consent = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := validLead()
			tt.mutate(&lead)
			assert.ErrorIs(t, service.Validate(lead), apperrors.ErrMissingFields)
		})
	}
}

func TestValidateEmailFormat(t *testing.T) {
	service := services.NewLeadService(nil, &recordingPublisher{}, zerolog.Nop())

	for _, email := range []string{"foo", "foo@", "foo@bar", "foo bar@baz.com", "foo@@bar.com"} {
		lead := validLead()
		lead.Email = email
		assert.ErrorIs(t, service.Validate(lead), apperrors.ErrInvalidEmail, "email %q", email)
	}

	for _, email := range []string{"jane@example.com", "j.doe+tag@sub.example.co"} {
		lead := validLead()
		lead.Email = email
		assert.NoError(t, service.Validate(lead), "email %q", email)
	}
}

func TestCaptureWithoutCRM(t *testing.T) {
	publisher := &recordingPublisher{}
	service := services.NewLeadService(nil, publisher, zerolog.Nop())

	result, err := service.Capture(context.Background(), validLead(), "visitor-1")

	require.NoError(t, err)
	assert.Equal(t, "Lead captured successfully", result.Message)
	assert.Equal(t, "/downloads/subject-to-complete-guide", result.DownloadURL)

	// The conversion event carries the visitor
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "lead_magnet_downloaded", publisher.events[0].Name)
	assert.Equal(t, "visitor-1", publisher.events[0].VisitorID)
}

func TestCaptureForwardsToCRM(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	service := services.NewLeadService(crm.NewClient(server.URL, "key"), &recordingPublisher{}, zerolog.Nop())

	_, err := service.Capture(context.Background(), validLead(), "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCaptureSurvivesCRMFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "partner outage", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	service := services.NewLeadService(crm.NewClient(server.URL, "key"), &recordingPublisher{}, zerolog.Nop())

	// Downstream failure must not propagate: the user still gets the download
	result, err := service.Capture(context.Background(), validLead(), "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, "/downloads/subject-to-complete-guide", result.DownloadURL)
}

func TestCaptureRejectsBeforeSideEffects(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	publisher := &recordingPublisher{}
	service := services.NewLeadService(crm.NewClient(server.URL, "key"), publisher, zerolog.Nop())

	lead := validLead()
	lead.Email = "not-an-email"
	_, err := service.Capture(context.Background(), lead, "visitor-1")

	assert.ErrorIs(t, err, apperrors.ErrInvalidEmail)
	// No CRM call and no analytics event for a rejected submission
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Empty(t, publisher.events)
}
