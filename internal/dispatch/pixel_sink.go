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

// DefaultPixelEndpoint is the social ad platform's conversions API host.
const DefaultPixelEndpoint = "https://graph.facebook.com/v18.0"

// PixelSink forwards a fixed subset of conversion events to a social ad
// pixel. Only the events in the mapping table are forwarded; everything else
// is silently skipped for this sink.
type PixelSink struct {
	pixelID     string
	accessToken string
	endpoint    string
	client      *http.Client
}

// pixelEvent is the platform-specific rendition of one mapped event.
type pixelEvent struct {
	Name       string
	CustomData map[string]any
}

// NewPixelSink builds the sink, or returns nil when no pixel is configured.
func NewPixelSink(pixelID, accessToken, endpoint string) *PixelSink {
	if pixelID == "" || accessToken == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = DefaultPixelEndpoint
	}
	return &PixelSink{
		pixelID:     pixelID,
		accessToken: accessToken,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *PixelSink) Name() string { return "ad-pixel" }

// mapEvent translates a taxonomy event into the pixel's event vocabulary.
// Returns nil for events the pixel does not receive. Currency is fixed to
// USD across all mapped events.
func mapEvent(event models.Event) *pixelEvent {
	switch event.Name {
	case "lead_magnet_downloaded":
		return &pixelEvent{
			Name: "Lead",
			CustomData: map[string]any{
				"content_name":     event.Properties["magnet_title"],
				"content_category": "Lead Magnet",
				"value":            1,
				"currency":         "USD",
			},
		}
	case "form_completed":
		value := event.Value
		if value == 0 {
			value = 1
		}
		return &pixelEvent{
			Name: "CompleteRegistration",
			CustomData: map[string]any{
				"content_name": event.Label,
				"value":        value,
				"currency":     "USD",
			},
		}
	case "newsletter_signup":
		return &pixelEvent{
			Name: "Subscribe",
			CustomData: map[string]any{
				"value":    1,
				"currency": "USD",
			},
		}
	case "contact_request":
		return &pixelEvent{
			Name: "Lead",
			CustomData: map[string]any{
				"content_name": "Contact Request",
				"value":        2,
				"currency":     "USD",
			},
		}
	}
	return nil
}

func (s *PixelSink) Deliver(ctx context.Context, event models.Event) error {
	mapped := mapEvent(event)
	if mapped == nil {
		// Not an error: this event simply is not part of the pixel taxonomy
		return nil
	}

	payload := map[string]any{
		"data": []map[string]any{
			{
				"event_name":    mapped.Name,
				"event_time":    event.Timestamp.Unix(),
				"action_source": "website",
				"custom_data":   mapped.CustomData,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}

	eventsURL := fmt.Sprintf("%s/%s/events?access_token=%s",
		s.endpoint, url.PathEscape(s.pixelID), url.QueryEscape(s.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, eventsURL, bytes.NewReader(body))
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
