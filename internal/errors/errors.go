package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the lead capture and analytics service

// ErrMissingFields is returned when a lead submission lacks firstName, email
// or an affirmative consent flag
var ErrMissingFields = errors.New("missing required fields")

// ErrInvalidEmail is returned when the submitted email fails the format check
var ErrInvalidEmail = errors.New("invalid email format")

// ErrKeyNotFound is returned by attribution stores when a key has never been set
var ErrKeyNotFound = errors.New("attribution key not found")

// ErrEventDropped is returned when the dispatch buffer is full and an event
// had to be discarded rather than block the caller
var ErrEventDropped = errors.New("event dropped: dispatch buffer full")

// ErrCRMDeliveryFailed is returned when the CRM webhook rejects or never
// receives a forwarded lead. The pipeline logs it and swallows it; it must
// never surface to the submitting user.
type ErrCRMDeliveryFailed struct {
	StatusCode int
	Reason     string
}

func (e ErrCRMDeliveryFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("CRM delivery failed with status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("CRM delivery failed: %s", e.Reason)
}

// ErrSinkDelivery is returned when a single analytics sink fails to accept
// an event. Other sinks are unaffected.
type ErrSinkDelivery struct {
	Sink   string
	Reason string
}

func (e ErrSinkDelivery) Error() string {
	return fmt.Sprintf("sink %s failed to deliver event: %s", e.Sink, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}
