// Package analytics records product events such as lead_started and
// lead_submitted. The default tracker only logs; a real vendor can be
// plugged in behind Tracker.
package analytics

import (
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event names emitted by the intake flow.
const (
	EventLeadStarted   = "lead_started"
	EventLeadSubmitted = "lead_submitted"
	EventPageView      = "page_view"
)

// Properties are flat event attributes.
type Properties map[string]any

// Tracker receives events.
type Tracker interface {
	Track(event string, props Properties)
}

// Discard drops every event.
var Discard Tracker = discard{}

type discard struct{}

func (discard) Track(string, Properties) {}

// LogTracker writes events to a zap logger.
type LogTracker struct {
	logger *zap.Logger
	url    string
	now    func() time.Time
}

// NewLogTracker creates a tracker that logs to logger. url is the page the
// events originate from, if known.
func NewLogTracker(logger *zap.Logger, url string) *LogTracker {
	return &LogTracker{logger: logger, url: url, now: time.Now}
}

// Track logs one event.
func (t *LogTracker) Track(event string, props Properties) {
	if props == nil {
		props = Properties{}
	}
	t.logger.Info("event tracked",
		zap.String("event", event),
		zap.Time("timestamp", t.now().UTC()),
		zap.Any("properties", props),
		zap.String("url", t.url),
	)
}

// PageView tracks a page_view event for pageName. Extra properties are merged in.
func PageView(t Tracker, pageName string, extra Properties) {
	props := Properties{"page_name": pageName}
	maps.Copy(props, extra)
	t.Track(EventPageView, props)
}

// Event is one recorded call.
type Event struct {
	Name  string
	Props Properties
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Track records the event.
func (r *Recorder) Track(event string, props Properties) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: event, Props: maps.Clone(props)})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Named returns the recorded events called name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
