// Package analytics defines the event taxonomy shared by the HTTP intake,
// the attribution tracker and the dispatch sinks, plus the lead scoring and
// UTM parsing helpers that operate on it.
package analytics

import (
	"time"

	"github.com/hud203/leadengine/internal/models"
)

// Event categories. Every dispatched event carries exactly one of these.
const (
	CategoryLeadGeneration = "lead_generation"
	CategoryEngagement     = "engagement"
	CategoryConversion     = "conversion"
	CategoryDownload       = "download"
)

// ValidCategory reports whether s is one of the known event categories.
// Used by the generic event intake endpoint to reject made-up categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryLeadGeneration, CategoryEngagement, CategoryConversion, CategoryDownload:
		return true
	}
	return false
}

// --- Lead generation events ---

// LeadMagnetView records a visitor opening a lead magnet offer.
func LeadMagnetView(magnetID, magnetTitle string) models.Event {
	return models.Event{
		Name:     "lead_magnet_viewed",
		Category: CategoryLeadGeneration,
		Action:   "view_lead_magnet",
		Label:    magnetID,
		Properties: map[string]any{
			"magnet_id":    magnetID,
			"magnet_title": magnetTitle,
		},
		Timestamp: time.Now(),
	}
}

// LeadMagnetDownload records a completed lead magnet download. userType may
// be empty when the visitor did not state an experience level.
func LeadMagnetDownload(magnetID, magnetTitle, userType string) models.Event {
	return models.Event{
		Name:     "lead_magnet_downloaded",
		Category: CategoryConversion,
		Action:   "download_lead_magnet",
		Label:    magnetID,
		Value:    1,
		Properties: map[string]any{
			"magnet_id":    magnetID,
			"magnet_title": magnetTitle,
			"user_type":    userType,
		},
		Timestamp: time.Now(),
	}
}

// FormStart records a visitor beginning to fill in a form.
func FormStart(formType string) models.Event {
	return models.Event{
		Name:       "form_started",
		Category:   CategoryEngagement,
		Action:     "start_form",
		Label:      formType,
		Properties: map[string]any{"form_type": formType},
		Timestamp:  time.Now(),
	}
}

// FormComplete records a submitted form. leadScore of 0 is reported as
// value 1 so downstream conversion values stay non-zero.
func FormComplete(formType string, leadScore int) models.Event {
	value := float64(leadScore)
	if value == 0 {
		value = 1
	}
	return models.Event{
		Name:     "form_completed",
		Category: CategoryConversion,
		Action:   "complete_form",
		Label:    formType,
		Value:    value,
		Properties: map[string]any{
			"form_type":  formType,
			"lead_score": leadScore,
		},
		Timestamp: time.Now(),
	}
}

// NewsletterSignup records a newsletter subscription from the given surface.
func NewsletterSignup(source string) models.Event {
	return models.Event{
		Name:       "newsletter_signup",
		Category:   CategoryConversion,
		Action:     "signup_newsletter",
		Label:      source,
		Value:      1,
		Properties: map[string]any{"signup_source": source},
		Timestamp:  time.Now(),
	}
}

// ContactRequest records an explicit request to be contacted.
func ContactRequest(method string) models.Event {
	return models.Event{
		Name:       "contact_request",
		Category:   CategoryLeadGeneration,
		Action:     "request_contact",
		Label:      method,
		Value:      2,
		Properties: map[string]any{"contact_method": method},
		Timestamp:  time.Now(),
	}
}

// --- Engagement events ---

// ResourceView records a visitor viewing an educational resource.
func ResourceView(resourceType, resourceID string) models.Event {
	return models.Event{
		Name:     "resource_viewed",
		Category: CategoryEngagement,
		Action:   "view_resource",
		Label:    resourceType,
		Properties: map[string]any{
			"resource_type": resourceType,
			"resource_id":   resourceID,
		},
		Timestamp: time.Now(),
	}
}

// VideoPlay records a video playback start. durationSeconds may be 0 when unknown.
func VideoPlay(videoTitle string, durationSeconds int) models.Event {
	return models.Event{
		Name:     "video_played",
		Category: CategoryEngagement,
		Action:   "play_video",
		Label:    videoTitle,
		Properties: map[string]any{
			"video_title":    videoTitle,
			"video_duration": durationSeconds,
		},
		Timestamp: time.Now(),
	}
}

// ScrollDepth records how far down a page the visitor scrolled.
func ScrollDepth(page string, depthPercent int) models.Event {
	return models.Event{
		Name:     "scroll_depth",
		Category: CategoryEngagement,
		Action:   "scroll",
		Label:    page,
		Value:    float64(depthPercent),
		Properties: map[string]any{
			"page_path":    page,
			"scroll_depth": depthPercent,
		},
		Timestamp: time.Now(),
	}
}

// TimeOnPage records accumulated time spent on a page.
func TimeOnPage(page string, seconds int) models.Event {
	return models.Event{
		Name:     "time_on_page",
		Category: CategoryEngagement,
		Action:   "time_spent",
		Label:    page,
		Value:    float64(seconds),
		Properties: map[string]any{
			"page_path":    page,
			"time_seconds": seconds,
		},
		Timestamp: time.Now(),
	}
}

// OutboundClick records a click on a link leaving the site.
func OutboundClick(url, linkText string) models.Event {
	return models.Event{
		Name:     "outbound_click",
		Category: CategoryEngagement,
		Action:   "click_outbound",
		Label:    url,
		Properties: map[string]any{
			"outbound_url": url,
			"link_text":    linkText,
		},
		Timestamp: time.Now(),
	}
}

// --- Conversion funnel events ---

// FunnelEnter records a visitor entering a named funnel at a step.
func FunnelEnter(funnelName, step string) models.Event {
	return models.Event{
		Name:     "funnel_entered",
		Category: CategoryConversion,
		Action:   "enter_funnel",
		Label:    funnelName,
		Properties: map[string]any{
			"funnel_name": funnelName,
			"funnel_step": step,
		},
		Timestamp: time.Now(),
	}
}

// FunnelStep records progress to a numbered step inside a funnel.
func FunnelStep(funnelName, step string, stepNumber int) models.Event {
	return models.Event{
		Name:     "funnel_step",
		Category: CategoryConversion,
		Action:   "advance_funnel",
		Label:    funnelName,
		Value:    float64(stepNumber),
		Properties: map[string]any{
			"funnel_name": funnelName,
			"funnel_step": step,
			"step_number": stepNumber,
		},
		Timestamp: time.Now(),
	}
}

// FunnelComplete records a finished funnel. conversionValue of 0 reports 1.
func FunnelComplete(funnelName string, conversionValue float64) models.Event {
	if conversionValue == 0 {
		conversionValue = 1
	}
	return models.Event{
		Name:     "funnel_completed",
		Category: CategoryConversion,
		Action:   "complete_funnel",
		Label:    funnelName,
		Value:    conversionValue,
		Properties: map[string]any{
			"funnel_name":      funnelName,
			"conversion_value": conversionValue,
		},
		Timestamp: time.Now(),
	}
}

// FunnelExit records a visitor abandoning a funnel at a step.
func FunnelExit(funnelName, exitStep string) models.Event {
	return models.Event{
		Name:     "funnel_exited",
		Category: CategoryEngagement,
		Action:   "exit_funnel",
		Label:    funnelName,
		Properties: map[string]any{
			"funnel_name": funnelName,
			"exit_step":   exitStep,
		},
		Timestamp: time.Now(),
	}
}

// PageView records a server-tracked page view for a visitor.
func PageView(page, title, referrer string) models.Event {
	return models.Event{
		Name:     "page_view",
		Category: CategoryEngagement,
		Action:   "view_page",
		Label:    page,
		Properties: map[string]any{
			"page_path":  page,
			"page_title": title,
			"referrer":   referrer,
		},
		Timestamp: time.Now(),
	}
}
