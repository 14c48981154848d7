// Package crm shapes captured leads into the CRM's webhook payload and
// forwards them with bearer-token authorization.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// CustomField is the nested contact metadata object the CRM expects.
type CustomField struct {
	ExperienceLevel  string `json:"experience_level"`
	LeadMagnetID     string `json:"lead_magnet_id"`
	LeadMagnetTitle  string `json:"lead_magnet_title"`
	LeadSource       string `json:"lead_source"`
	ConsentGiven     bool   `json:"consent_given"`
	MarketingConsent bool   `json:"marketing_consent"`
	CapturedAt       string `json:"captured_at"`
}

// Payload is the full webhook body forwarded for one lead.
type Payload struct {
	FirstName   string      `json:"firstName"`
	Email       string      `json:"email"`
	CustomField CustomField `json:"customField"`
	Tags        []string    `json:"tags"`
}

// Client forwards leads to the CRM webhook.
type Client struct {
	webhookURL string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a CRM client, or returns nil when no webhook URL is
// configured so the pipeline silently skips forwarding.
func NewClient(webhookURL, apiKey string) *Client {
	if webhookURL == "" {
		return nil
	}
	return &Client{
		webhookURL: webhookURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// BuildPayload shapes a validated lead into the CRM webhook body. now is the
// capture instant recorded in the payload.
func BuildPayload(lead models.Lead, now time.Time) Payload {
	experience := lead.Experience
	if experience == "" {
		experience = "not_specified"
	}
	return Payload{
		FirstName: lead.FirstName,
		Email:     lead.Email,
		CustomField: CustomField{
			ExperienceLevel:  experience,
			LeadMagnetID:     lead.LeadMagnetID,
			LeadMagnetTitle:  lead.LeadMagnetTitle,
			LeadSource:       lead.Source,
			ConsentGiven:     lead.Consent,
			MarketingConsent: lead.MarketingConsent,
			CapturedAt:       now.UTC().Format(time.RFC3339),
		},
		Tags: BuildTags(lead),
	}
}

// BuildTags derives the CRM tag list for a lead: the fixed download tag, a
// per-magnet tag, an experience tag (defaulted when unstated) and, when the
// visitor opted in, the marketing consent tag.
func BuildTags(lead models.Lead) []string {
	tags := []string{
		"lead-magnet-download",
		"magnet-" + lead.LeadMagnetID,
	}
	if lead.Experience != "" {
		tags = append(tags, "experience-"+lead.Experience)
	} else {
		tags = append(tags, "experience-not-specified")
	}
	if lead.MarketingConsent {
		tags = append(tags, "marketing-consent")
	}
	return tags
}

// Forward POSTs the lead's payload to the webhook. A non-2xx response or a
// transport error yields an ErrCRMDeliveryFailed; the caller decides whether
// that is fatal (the lead pipeline deliberately treats it as not).
func (c *Client) Forward(ctx context.Context, lead models.Lead, now time.Time) error {
	body, err := json.Marshal(BuildPayload(lead, now))
	if err != nil {
		return apperrors.ErrCRMDeliveryFailed{Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.ErrCRMDeliveryFailed{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.ErrCRMDeliveryFailed{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded slice of the response so the failure log carries
		// the CRM's own explanation
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.ErrCRMDeliveryFailed{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("webhook rejected lead: %s", string(detail)),
		}
	}
	return nil
}

// WebhookURL exposes the configured endpoint for health monitoring.
func (c *Client) WebhookURL() string {
	return c.webhookURL
}
