package attribution

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/hud203/leadengine/internal/analytics"
	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
)

// Publisher is the capability the tracker needs to emit events. The dispatch
// package's Dispatcher satisfies it; tests substitute a recording stub.
type Publisher interface {
	Track(event models.Event)
}

// PageContext carries what is known about the page load being attributed:
// the query string of the visited URL (for UTM parameters) and the referrer.
// The zero value means "no page context available".
type PageContext struct {
	Query    url.Values
	Referrer string
}

// Snapshot combines the visitor's attribution state at the moment of a
// conversion. It is what gets attached to conversion_attributed events and
// returned to callers for optional further use.
type Snapshot struct {
	ConversionType  string              `json:"conversion_type"`
	ConversionValue float64             `json:"conversion_value,omitempty"`
	FirstTouch      string              `json:"first_touch"`
	LastTouch       string              `json:"last_touch"`
	SessionStart    string              `json:"session_start"`
	PageViews       int                 `json:"page_views"`
	UTM             analytics.UTMParams `json:"utm,omitempty"`
}

// Tracker records acquisition and session state for one visitor. It is
// constructed per request from the visitor's durable and volatile stores.
//
// Every store access degrades gracefully: a throwing store (redis down,
// misconfigured) is treated as if no record existed, never propagated.
type Tracker struct {
	durable   Store
	volatile  Store
	publisher Publisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewTracker wires a tracker for one visitor's stores.
func NewTracker(durable, volatile Store, publisher Publisher, log zerolog.Logger) *Tracker {
	return &Tracker{
		durable:   durable,
		volatile:  volatile,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Initialize records one page load. Idempotent for first-touch state:
//   - first touch source and timestamp are written once per visitor, ever
//   - last touch source is recomputed and overwritten on every call (the
//     most recent page load counts as the last touch, by product decision)
//   - a session start marker and a zeroed page-view counter are created when
//     no session exists; the counter is incremented on every call regardless
func (t *Tracker) Initialize(ctx context.Context, page PageContext) {
	utm := analytics.ParseUTM(page.Query)
	source := deriveSource(utm, page.Referrer)

	// First-touch attribution: write once, never overwrite
	if t.get(ctx, t.durable, KeyFirstTouchSource) == "" {
		t.set(ctx, t.durable, KeyFirstTouchSource, source)
		t.set(ctx, t.durable, KeyFirstTouchTimestamp, strconv.FormatInt(t.now().UnixMilli(), 10))
	}

	// Last-touch attribution: always overwrite
	t.set(ctx, t.durable, KeyLastTouchSource, source)

	// Session tracking
	if t.get(ctx, t.volatile, KeySessionStart) == "" {
		t.set(ctx, t.volatile, KeySessionStart, strconv.FormatInt(t.now().UnixMilli(), 10))
		t.set(ctx, t.volatile, KeyPageViews, "0")
	}

	// Increment page views
	views, _ := strconv.Atoi(t.get(ctx, t.volatile, KeyPageViews))
	t.set(ctx, t.volatile, KeyPageViews, strconv.Itoa(views+1))
}

// TrackConversion assembles the visitor's attribution snapshot for a
// conversion, dispatches it as a conversion_attributed event and returns it.
func (t *Tracker) TrackConversion(ctx context.Context, conversionType string, value float64, page PageContext) Snapshot {
	utm := analytics.ParseUTM(page.Query)
	views, _ := strconv.Atoi(t.get(ctx, t.volatile, KeyPageViews))

	snapshot := Snapshot{
		ConversionType:  conversionType,
		ConversionValue: value,
		FirstTouch:      t.get(ctx, t.durable, KeyFirstTouchSource),
		LastTouch:       t.get(ctx, t.durable, KeyLastTouchSource),
		SessionStart:    t.get(ctx, t.volatile, KeySessionStart),
		PageViews:       views,
		UTM:             utm,
	}

	properties := map[string]any{
		"conversion_type":  snapshot.ConversionType,
		"conversion_value": snapshot.ConversionValue,
		"first_touch":      snapshot.FirstTouch,
		"last_touch":       snapshot.LastTouch,
		"session_start":    snapshot.SessionStart,
		"page_views":       snapshot.PageViews,
	}
	utm.Merge(properties)

	t.publisher.Track(models.Event{
		Name:       "conversion_attributed",
		Category:   analytics.CategoryConversion,
		Action:     "attribute_conversion",
		Label:      conversionType,
		Value:      value,
		Properties: properties,
		Timestamp:  t.now(),
	})

	return snapshot
}

// deriveSource picks the acquisition source for a page load: the utm_source
// parameter wins, then the referrer, then the literal "direct".
func deriveSource(utm analytics.UTMParams, referrer string) string {
	if utm.Source != "" {
		return utm.Source
	}
	if referrer != "" {
		return referrer
	}
	return "direct"
}

// get reads a key, treating both missing keys and store failures as empty.
// Store failures are logged; they must not reach the caller.
func (t *Tracker) get(ctx context.Context, store Store, key string) string {
	value, err := store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrKeyNotFound) {
			t.log.Warn().Err(err).Str("key", key).Msg("attribution store read failed, degrading to empty state")
		}
		return ""
	}
	return value
}

// set writes a key, logging and swallowing store failures.
func (t *Tracker) set(ctx context.Context, store Store, key, value string) {
	if err := store.Set(ctx, key, value); err != nil {
		t.log.Warn().Err(err).Str("key", key).Msg("attribution store write failed, dropping update")
	}
}
