package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hud203/leadengine/internal/models"
)

func TestMapEventFixedTable(t *testing.T) {
	tests := []struct {
		name      string
		event     models.Event
		wantName  string
		wantValue any
	}{
		{
			name: "lead magnet download maps to Lead",
			event: models.Event{
				Name:       "lead_magnet_downloaded",
				Properties: map[string]any{"magnet_title": "Subject-To Guide"},
			},
			wantName:  "Lead",
			wantValue: 1,
		},
		{
			name:      "form completion maps to CompleteRegistration",
			event:     models.Event{Name: "form_completed", Label: "lead-magnet-form", Value: 36},
			wantName:  "CompleteRegistration",
			wantValue: float64(36),
		},
		{
			name:      "newsletter signup maps to Subscribe",
			event:     models.Event{Name: "newsletter_signup"},
			wantName:  "Subscribe",
			wantValue: 1,
		},
		{
			name:      "contact request maps to Lead",
			event:     models.Event{Name: "contact_request"},
			wantName:  "Lead",
			wantValue: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapEvent(tt.event)
			require.NotNil(t, mapped)
			assert.Equal(t, tt.wantName, mapped.Name)
			assert.Equal(t, tt.wantValue, mapped.CustomData["value"])
			// Currency is fixed across the whole table
			assert.Equal(t, "USD", mapped.CustomData["currency"])
		})
	}
}

func TestMapEventUnmappedEventsSkipped(t *testing.T) {
	for _, name := range []string{"page_view", "scroll_depth", "funnel_step", "conversion_attributed"} {
		assert.Nil(t, mapEvent(models.Event{Name: name}), "event %q must not reach the pixel", name)
	}
}

func TestPixelDeliverSkipsUnmappedWithoutRequest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	sink := NewPixelSink("12345", "token", server.URL)
	err := sink.Deliver(context.Background(), models.Event{Name: "page_view", Timestamp: time.Now()})

	assert.NoError(t, err)
	assert.Zero(t, calls)
}

func TestPixelDeliverSendsMappedEvent(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := NewPixelSink("12345", "token", server.URL)
	event := models.Event{
		Name:       "newsletter_signup",
		Category:   "conversion",
		Timestamp:  time.Now(),
		Properties: map[string]any{"signup_source": "footer"},
	}

	require.NoError(t, sink.Deliver(context.Background(), event))
	assert.Equal(t, "/12345/events", gotPath)

	data := gotBody["data"].([]any)
	require.Len(t, data, 1)
	entry := data[0].(map[string]any)
	assert.Equal(t, "Subscribe", entry["event_name"])
	assert.Equal(t, "website", entry["action_source"])
}
