package analytics

// actionWeights maps user action names to their lead score contribution.
// The weights are fixed product values: heavier actions signal a visitor
// closer to becoming a customer.
var actionWeights = map[string]int{
	"page_view":            1,
	"resource_view":        2,
	"video_play":           3,
	"form_start":           5,
	"lead_magnet_view":     7,
	"newsletter_signup":    10,
	"lead_magnet_download": 15,
	"form_complete":        20,
	"contact_request":      25,
}

// CalculateLeadScore sums the per-action weights over an ordered sequence of
// action names. Unknown actions contribute zero; duplicates count each time
// they appear. The result is purely derived from the input sequence.
func CalculateLeadScore(actions []string) int {
	total := 0
	for _, action := range actions {
		total += actionWeights[action]
	}
	return total
}

// scoringActions maps taxonomy event names to the scoring action vocabulary.
// Events without an entry do not contribute to the score.
var scoringActions = map[string]string{
	"page_view":              "page_view",
	"resource_viewed":        "resource_view",
	"video_played":           "video_play",
	"form_started":           "form_start",
	"lead_magnet_viewed":     "lead_magnet_view",
	"newsletter_signup":      "newsletter_signup",
	"lead_magnet_downloaded": "lead_magnet_download",
	"form_completed":         "form_complete",
	"contact_request":        "contact_request",
}

// ScoreEventNames computes a lead score from a recorded event name sequence
// by translating each name into its scoring action first.
func ScoreEventNames(names []string) int {
	actions := make([]string, 0, len(names))
	for _, name := range names {
		if action, ok := scoringActions[name]; ok {
			actions = append(actions, action)
		}
	}
	return CalculateLeadScore(actions)
}
