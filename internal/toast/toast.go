// Package toast holds the transient user notifications shown by the intake
// flow. A Queue keeps each toast for a bounded lifetime.
package toast

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hoclconnect/leads/internal/infra/cache"
)

// DefaultLifetime is how long a toast stays active unless it sets Duration.
const DefaultLifetime = 5 * time.Second

// Kind selects the toast styling.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// Toast is one notification. ID is assigned by the Service.
type Toast struct {
	ID       string        `json:"id"`
	Kind     Kind          `json:"type"`
	Title    string        `json:"title"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`

	seq uint64
}

// Service shows toasts. Notify returns the toast id.
type Service interface {
	Notify(t Toast) string
}

// Discard drops every toast.
var Discard Service = discard{}

type discard struct{}

func (discard) Notify(Toast) string { return "" }

// Queue is an in-memory toast stack. Toasts expire after their lifetime or
// when dismissed.
type Queue struct {
	items *cache.InMemory[Toast]
	seq   atomic.Uint64
}

// NewQueue creates an empty queue. Call Close to stop its janitor.
func NewQueue() *Queue {
	return &Queue{items: cache.New[Toast](DefaultLifetime)}
}

// Notify enqueues t and returns its id.
func (q *Queue) Notify(t Toast) string {
	t.ID = uuid.NewString()
	t.seq = q.seq.Add(1)

	lifetime := t.Duration
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	q.items.SetWithTTL(t.ID, t, lifetime)
	return t.ID
}

// Active returns live toasts, oldest first.
func (q *Queue) Active() []Toast {
	out := q.items.Values()
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Dismiss removes a toast before it expires. It reports whether the toast was live.
func (q *Queue) Dismiss(id string) bool {
	_, ok := q.items.Take(id)
	return ok
}

// Close stops the expiry janitor.
func (q *Queue) Close() {
	q.items.Close()
}
