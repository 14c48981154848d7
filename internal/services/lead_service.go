// Package services contains the business logic layer for lead capture.
package services

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/hud203/leadengine/internal/analytics"
	"github.com/hud203/leadengine/internal/attribution"
	"github.com/hud203/leadengine/internal/crm"
	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// emailPattern accepts local@domain.tld shapes: no whitespace, no second @,
// at least one dot in the domain part.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CaptureResult is the outcome returned to the HTTP layer for a processed
// lead. It exists so user-facing behavior is driven by an explicit result
// value, never by propagating downstream errors.
type CaptureResult struct {
	Message     string
	DownloadURL string
}

// LeadService validates, forwards and instruments lead submissions.
type LeadService struct {
	crmClient *crm.Client // nil when no CRM webhook is configured
	publisher attribution.Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewLeadService creates the service. crmClient may be nil: forwarding is
// then skipped and capture still succeeds.
func NewLeadService(crmClient *crm.Client, publisher attribution.Publisher, log zerolog.Logger) *LeadService {
	return &LeadService{
		crmClient: crmClient,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Validate rejects a submission before any side effect occurs. firstName,
// email and an affirmative consent flag are required; the email must pass
// the format check.
func (s *LeadService) Validate(lead models.Lead) error {
	if lead.FirstName == "" || lead.Email == "" || !lead.Consent {
		return apperrors.ErrMissingFields
	}
	if !emailPattern.MatchString(lead.Email) {
		return apperrors.ErrInvalidEmail
	}
	return nil
}

// Capture runs the full pipeline for one submission: validate, forward to
// the CRM when configured, log the capture and emit the conversion event.
//
// CRM delivery failure is logged and swallowed: a downstream partner outage
// must never block the user from getting their download. Validation errors
// are returned before any side effect.
func (s *LeadService) Capture(ctx context.Context, lead models.Lead, visitorID string) (CaptureResult, error) {
	if err := s.Validate(lead); err != nil {
		return CaptureResult{}, err
	}

	if s.crmClient != nil {
		if err := s.crmClient.Forward(ctx, lead, s.now()); err != nil {
			s.log.Error().Err(err).Str("email", lead.Email).Msg("CRM forwarding failed, continuing with success response")
		}
	}

	// Operational log of every processed lead, independent of CRM outcome
	s.log.Info().
		Str("email", lead.Email).
		Str("lead_magnet", lead.LeadMagnetID).
		Time("timestamp", s.now()).
		Msg("lead captured")

	event := analytics.LeadMagnetDownload(lead.LeadMagnetID, lead.LeadMagnetTitle, lead.Experience)
	event.VisitorID = visitorID
	s.publisher.Track(event)

	return CaptureResult{
		Message:     "Lead captured successfully",
		DownloadURL: "/downloads/" + lead.LeadMagnetID,
	}, nil
}
