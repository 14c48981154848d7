package models

// Lead represents one prospective-customer form submission as received from
// the lead-capture endpoint. It is validated and forwarded to the CRM but
// never persisted: the submission lives only for the duration of the request.
type Lead struct {
	FirstName        string `json:"firstName"`
	Email            string `json:"email"`
	Experience       string `json:"experience,omitempty"`
	LeadMagnetID     string `json:"leadMagnetId"`
	LeadMagnetTitle  string `json:"leadMagnetTitle"`
	Source           string `json:"source"`
	Consent          bool   `json:"consent"`
	MarketingConsent bool   `json:"marketingConsent"`
}
