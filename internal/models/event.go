package models

import "time"

// Event represents a single trackable user action intended to be passed
// through channels to the dispatch workers. It is the lightweight in-flight
// shape; sinks translate it into whatever their integration expects.
type Event struct {
	Name       string         // Event identifier, e.g. "lead_magnet_downloaded"
	Category   string         // One of the analytics categories (lead_generation, engagement, ...)
	Action     string         // Verb describing the action, e.g. "download_lead_magnet"
	Label      string         // Optional human-readable label
	Value      float64        // Optional numeric weight (0 when unset)
	VisitorID  string         // Cookie-minted visitor identifier, may be empty
	Properties map[string]any // Open bag of contextual data
	Timestamp  time.Time      // When the action occurred
}

// EventRecord is the database shape of an Event, written by the store sink.
// Properties are serialized to JSON because SQLite has no native map type.
type EventRecord struct {
	// ID is the primary key with auto-increment functionality
	ID uint `gorm:"primaryKey"`

	// EventID is a unique identifier assigned at persistence time
	EventID string `gorm:"uniqueIndex;size:36"`

	// VisitorID is indexed so per-visitor action sequences (lead scoring)
	// stay cheap to query
	VisitorID string `gorm:"index;size:36"`

	Name     string `gorm:"index;size:64"`
	Category string `gorm:"index;size:32"`
	Action   string `gorm:"size:64"`
	Label    string `gorm:"size:255"`
	Value    float64

	// Properties holds the JSON-serialized property bag
	Properties string

	Timestamp time.Time
}
