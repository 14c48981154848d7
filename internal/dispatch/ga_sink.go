package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// DefaultGAEndpoint is the public measurement protocol collection host.
const DefaultGAEndpoint = "https://www.google-analytics.com"

// GASink forwards events to a web-analytics property via the measurement
// protocol. The event's action becomes the analytics event name, matching
// how the site's frontend tags reported the same actions.
type GASink struct {
	measurementID string
	apiSecret     string
	endpoint      string
	client        *http.Client
}

// NewGASink builds the sink, or returns nil when the property is not
// configured so the dispatcher simply never registers it.
func NewGASink(measurementID, apiSecret, endpoint string) *GASink {
	if measurementID == "" || apiSecret == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = DefaultGAEndpoint
	}
	return &GASink{
		measurementID: measurementID,
		apiSecret:     apiSecret,
		endpoint:      endpoint,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *GASink) Name() string { return "google-analytics" }

func (s *GASink) Deliver(ctx context.Context, event models.Event) error {
	clientID := event.VisitorID
	if clientID == "" {
		clientID = "anonymous"
	}

	params := map[string]any{
		"event_category": event.Category,
	}
	if event.Label != "" {
		params["event_label"] = event.Label
	}
	if event.Value != 0 {
		params["value"] = event.Value
	}
	if len(event.Properties) > 0 {
		params["custom_parameters"] = event.Properties
	}

	payload := map[string]any{
		"client_id": clientID,
		"events": []map[string]any{
			{"name": event.Action, "params": params},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}

	collectURL := fmt.Sprintf("%s/mp/collect?measurement_id=%s&api_secret=%s",
		s.endpoint, url.QueryEscape(s.measurementID), url.QueryEscape(s.apiSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, collectURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	return nil
}
