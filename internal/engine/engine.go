package engine

import (
	"sort"
	"sync"

	"alert-desk/internal/models"

	"github.com/rs/zerolog"
)

// EventKind is the kind of a reconciliation transition.
type EventKind int

const (
	// Arrived means a previously unseen alert entered the set.
	Arrived EventKind = iota
	// Updated means an existing alert was replaced in place.
	Updated
	// Resolved means an alert left the set.
	Resolved
)

func (k EventKind) String() string {
	switch k {
	case Arrived:
		return "arrived"
	case Updated:
		return "updated"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Event is one transition emitted by the engine.
type Event struct {
	Kind  EventKind
	Alert models.Alert
}

// Engine is the single source of truth for the active alert set. Alerts are
// keyed by backend id; a resolved alert never remains in the set. All
// mutations go through ApplySingle and ApplySnapshot.
type Engine struct {
	mu          sync.RWMutex
	alerts      map[string]models.Alert
	subscribers []func(Event)
	logger      zerolog.Logger
}

func New(logger zerolog.Logger) *Engine {
	return &Engine{
		alerts: make(map[string]models.Alert),
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Subscribe registers a transition listener. Listeners are invoked
// synchronously, after the set mutation completed, in registration order.
// Subscribe is not safe to call concurrently with Apply*; wire listeners at
// startup.
func (e *Engine) Subscribe(fn func(Event)) {
	e.subscribers = append(e.subscribers, fn)
}

// ApplySingle merges one alert observation into the set and emits the
// resulting transition:
//
//	known id, resolved  -> remove, Resolved
//	known id, firing    -> replace, Updated
//	unknown id, firing  -> insert, Arrived
//	unknown id, resolved -> no-op, no event
func (e *Engine) ApplySingle(alert models.Alert) {
	e.mu.Lock()
	_, exists := e.alerts[alert.ID]

	var emit bool
	var kind EventKind
	switch {
	case exists && !alert.Firing():
		delete(e.alerts, alert.ID)
		emit, kind = true, Resolved
	case exists:
		e.alerts[alert.ID] = alert
		emit, kind = true, Updated
	case alert.Firing():
		e.alerts[alert.ID] = alert
		emit, kind = true, Arrived
	default:
		// Resolution for an alert we never saw. Nothing to do.
	}
	e.mu.Unlock()

	if !emit {
		return
	}

	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("name", alert.Name).
		Str("severity", alert.Severity).
		Str("transition", kind.String()).
		Msg("Alert transition")

	e.emit(Event{Kind: kind, Alert: alert})
}

// ApplySnapshot replaces the whole set with the given alerts. No transition
// events are emitted: a snapshot is a resync, and replaying it as individual
// changes would fire a storm of sounds after every reconnect. Resolved
// entries inside the snapshot are discarded.
func (e *Engine) ApplySnapshot(alerts []models.Alert) {
	next := make(map[string]models.Alert, len(alerts))
	for _, a := range alerts {
		if a.ID == "" || !a.Firing() {
			continue
		}
		next[a.ID] = a
	}

	e.mu.Lock()
	e.alerts = next
	e.mu.Unlock()

	e.logger.Info().Int("count", len(next)).Msg("Alert set replaced from snapshot")
}

// Alerts returns the live set, optionally restricted to one severity.
// Empty string or "all" is the identity filter. The result is ordered by
// start time descending; ordering is display-only and plays no part in
// reconciliation.
func (e *Engine) Alerts(severity string) []models.Alert {
	e.mu.RLock()
	out := make([]models.Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if severity != "" && severity != "all" && a.Severity != severity {
			continue
		}
		out = append(out, a)
	}
	e.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.After(out[j].StartsAt)
	})
	return out
}

// Count returns the number of active alerts.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.alerts)
}

// CountBySeverity returns active alert counts keyed by severity.
func (e *Engine) CountBySeverity() map[string]int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	counts := make(map[string]int)
	for _, a := range e.alerts {
		counts[a.Severity]++
	}
	return counts
}

func (e *Engine) emit(ev Event) {
	for _, fn := range e.subscribers {
		fn(ev)
	}
}
