package analytics

import "net/url"

// UTMParams holds the five standard campaign tagging query parameters.
// Zero-valued fields mean the parameter was absent from the URL.
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// ParseUTM extracts the standard UTM parameters from a query string.
// A nil query (no URL available, e.g. an intake request without a page
// context) yields the empty UTMParams.
func ParseUTM(query url.Values) UTMParams {
	if query == nil {
		return UTMParams{}
	}
	return UTMParams{
		Source:   query.Get("utm_source"),
		Medium:   query.Get("utm_medium"),
		Campaign: query.Get("utm_campaign"),
		Term:     query.Get("utm_term"),
		Content:  query.Get("utm_content"),
	}
}

// IsZero reports whether no UTM parameter was present at all.
func (u UTMParams) IsZero() bool {
	return u == UTMParams{}
}

// Merge copies the non-empty UTM parameters into an event property bag.
func (u UTMParams) Merge(props map[string]any) {
	if u.Source != "" {
		props["utm_source"] = u.Source
	}
	if u.Medium != "" {
		props["utm_medium"] = u.Medium
	}
	if u.Campaign != "" {
		props["utm_campaign"] = u.Campaign
	}
	if u.Term != "" {
		props["utm_term"] = u.Term
	}
	if u.Content != "" {
		props["utm_content"] = u.Content
	}
}
