// Package dispatch fans abstract analytics events out to whichever
// third-party integrations are configured, without coupling callers to any
// of them. Delivery is at-most-once: no retries, no persistence of the
// in-flight event, and a failing sink never blocks the others.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hud203/leadengine/internal/models"
)

// Sink is the capability interface every analytics integration implements.
// Deliver translates the abstract event into the integration's shape and
// attempts delivery. Returning an error marks this one delivery as failed;
// the dispatcher logs it and moves on.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event models.Event) error
}

// Dispatcher owns the sink registry and a worker pool that drains the event
// channel. Registration happens once at startup, before Start.
type Dispatcher struct {
	sinks   []Sink
	events  chan models.Event
	workers int
	debug   bool
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// New creates a dispatcher with the given channel buffer and worker count.
// debug enables per-event diagnostic logging and must stay off in production.
func New(bufferSize, workerCount int, debug bool, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		events:  make(chan models.Event, bufferSize),
		workers: workerCount,
		debug:   debug,
		log:     log,
	}
}

// Register adds a sink to the registry.
func (d *Dispatcher) Register(sink Sink) {
	d.sinks = append(d.sinks, sink)
	d.log.Info().Str("sink", sink.Name()).Msg("analytics sink registered")
}

// Sinks returns the names of the registered sinks, for startup logging.
func (d *Dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, sink := range d.sinks {
		names = append(names, sink.Name())
	}
	return names
}

// Start launches the worker pool. Each worker ranges over the shared channel
// and exits when Close is called and the channel drains.
func (d *Dispatcher) Start() {
	d.log.Info().Int("workers", d.workers).Int("buffer", cap(d.events)).Msg("starting dispatch workers")
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Track enqueues an event for asynchronous delivery using a non-blocking
// send. When the buffer is full the event is dropped and logged: analytics
// must never delay the request that produced the event.
func (d *Dispatcher) Track(event models.Event) {
	select {
	case d.events <- event:
	default:
		d.log.Warn().Str("event", event.Name).Msg("dispatch buffer full, dropping event")
	}
}

// Close stops accepting events and waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() {
	close(d.events)
	d.wg.Wait()
}

// worker drains the event channel until it is closed.
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for event := range d.events {
		// Each delivery gets its own deadline so one slow integration
		// cannot back the whole pool up indefinitely.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		d.Dispatch(ctx, event)
		cancel()
	}
}

// Dispatch delivers one event to every registered sink synchronously.
// Failures are isolated per sink: each is logged and the loop continues.
// Exposed so tests and in-request callers can deliver without the pool.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.Event) {
	if d.debug {
		d.log.Debug().
			Str("event", event.Name).
			Str("category", event.Category).
			Str("action", event.Action).
			Str("label", event.Label).
			Float64("value", event.Value).
			Interface("properties", event.Properties).
			Msg("event tracked")
	}

	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, event); err != nil {
			d.log.Warn().Err(err).Str("sink", sink.Name()).Str("event", event.Name).Msg("sink delivery failed")
		}
	}
}
