package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// WebhookSink forwards events to a custom analytics service over plain HTTP.
// Page views go to the service's page endpoint, everything else to track,
// mirroring the track/page split such services expose.
type WebhookSink struct {
	baseURL string
	client  *http.Client
}

// NewWebhookSink builds the sink, or returns nil when no URL is configured.
func NewWebhookSink(baseURL string) *WebhookSink {
	if baseURL == "" {
		return nil
	}
	return &WebhookSink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Name() string { return "custom-analytics" }

func (s *WebhookSink) Deliver(ctx context.Context, event models.Event) error {
	properties := map[string]any{
		"category": event.Category,
		"action":   event.Action,
	}
	if event.Label != "" {
		properties["label"] = event.Label
	}
	if event.Value != 0 {
		properties["value"] = event.Value
	}
	for k, v := range event.Properties {
		properties[k] = v
	}

	path := "/track"
	payload := map[string]any{
		"event":      event.Name,
		"properties": properties,
	}
	if event.Name == "page_view" {
		path = "/page"
		payload = map[string]any{
			"page":       event.Label,
			"properties": properties,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
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
