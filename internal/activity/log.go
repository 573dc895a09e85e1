// Package activity keeps the bounded recent-activity feed shared by the
// upload and query use cases.
package activity

import (
	"sync"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
	"github.com/google/uuid"
)

// DefaultCapacity is the number of events kept by the feed
const DefaultCapacity = 10

// Log is a fixed-size ring of events, read newest-first.
// Appends from concurrent completions are serialized by mu, and the event
// time is taken under the same lock so order always matches time.
type Log struct {
	mu     sync.Mutex
	events []entity.ActivityEvent
	head   int // index of the newest event
	size   int
	now    func() time.Time
}

type Option func(*Log)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// WithCapacity overrides DefaultCapacity
func WithCapacity(capacity int) Option {
	return func(l *Log) {
		if capacity > 0 {
			l.events = make([]entity.ActivityEvent, capacity)
		}
	}
}

// NewLog creates an empty feed
func NewLog(opts ...Option) *Log {
	l := &Log{
		events: make([]entity.ActivityEvent, DefaultCapacity),
		head:   -1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Record stamps and prepends a new event, evicting the oldest one when full
func (l *Log) Record(kind entity.EventKind, message string) entity.ActivityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := entity.ActivityEvent{
		ID:      uuid.New().String(),
		Kind:    kind,
		Message: message,
		Time:    l.now(),
	}

	l.head = (l.head + 1) % len(l.events)
	l.events[l.head] = event
	if l.size < len(l.events) {
		l.size++
	}

	return event
}

// Events returns a newest-first copy of the feed
func (l *Log) Events() []entity.ActivityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]entity.ActivityEvent, 0, l.size)
	for i := 0; i < l.size; i++ {
		idx := (l.head - i + len(l.events)) % len(l.events)
		out = append(out, l.events[idx])
	}

	return out
}

// Len returns the number of stored events
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.size
}

// Capacity returns the maximum number of stored events
func (l *Log) Capacity() int {
	return len(l.events)
}
