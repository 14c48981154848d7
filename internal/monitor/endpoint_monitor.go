package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Target is one partner endpoint the monitor watches: the CRM webhook and
// any configured HTTP analytics sinks.
type Target struct {
	Name string
	URL  string
}

// EndpointMonitor periodically checks the reachability of partner endpoints
// and logs state transitions. Lead capture deliberately survives partner
// outages, so this is the only place an outage becomes visible to operators
// before leads silently stop reaching the CRM.
type EndpointMonitor struct {
	targets     []Target
	interval    time.Duration
	knownStates map[string]bool // Target name -> last observed reachability
	mu          sync.Mutex
	httpClient  *http.Client
	log         zerolog.Logger
}

// NewEndpointMonitor creates a monitor for the given targets.
func NewEndpointMonitor(targets []Target, interval time.Duration, log zerolog.Logger) *EndpointMonitor {
	return &EndpointMonitor{
		targets:     targets,
		interval:    interval,
		knownStates: make(map[string]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Start launches the periodic check loop. Blocking; run it in a goroutine.
func (m *EndpointMonitor) Start() {
	m.log.Info().Dur("interval", m.interval).Int("targets", len(m.targets)).Msg("starting endpoint monitor")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Immediate check on startup before the first tick
	m.checkTargets()

	for range ticker.C {
		m.checkTargets()
	}
}

// checkTargets probes every target and logs reachability transitions.
func (m *EndpointMonitor) checkTargets() {
	for _, target := range m.targets {
		currentState := m.isReachable(target.URL)

		m.mu.Lock()
		previousState, seen := m.knownStates[target.Name]
		m.knownStates[target.Name] = currentState
		m.mu.Unlock()

		if !seen {
			m.log.Info().Str("target", target.Name).Bool("reachable", currentState).Msg("initial endpoint state")
			continue
		}
		if currentState != previousState {
			event := m.log.Warn()
			if currentState {
				event = m.log.Info()
			}
			event.Str("target", target.Name).Bool("reachable", currentState).Msg("endpoint state changed")
		}
	}
}

// isReachable performs an HTTP HEAD request against the endpoint. Partner
// webhooks routinely reject HEADs with 4xx while still being up, so only
// transport-level failures and 5xx responses count as unreachable.
func (m *EndpointMonitor) isReachable(url string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		m.log.Warn().Err(err).Str("url", url).Msg("failed to build health check request")
		return false
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode < 500
}
