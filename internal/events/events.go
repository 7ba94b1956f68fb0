// Package events carries the lifecycle events the core emits and a
// small in-process dispatcher feeding the notification sinks. Delivery
// is fire-and-forget; sinks own their retry behavior.
package events

import (
	"log"
	"sync"
)

const (
	FeedbackCreated      = "feedback.created"
	FeedbackStatusChange = "feedback.status_changed"
	FeedbackMerged       = "feedback.merged"
	VoteCast             = "vote.cast"
	VoteRemoved          = "vote.removed"
)

type Event struct {
	Name       string
	ProjectID  uint
	FeedbackID uint

	// Status-change payload.
	OldStatus string
	NewStatus string

	// Merge payload.
	SecondaryIDs []uint

	// Vote payload.
	UserID string
}

type Handler func(Event)

type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	sync     bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// NewSyncDispatcher delivers events on the emitting goroutine; tests
// use it to observe emissions deterministically.
func NewSyncDispatcher() *Dispatcher {
	return &Dispatcher{sync: true}
}

func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Emit(event Event) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, h := range handlers {
		if d.sync {
			h(event)
			continue
		}
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("event handler panicked on %s: %v", event.Name, r)
				}
			}()
			h(event)
		}(h)
	}
}

// Default is the process-wide dispatcher, wired up in main the same way
// the database handle is.
var Default = NewDispatcher()

func Emit(event Event) {
	Default.Emit(event)
}

func Subscribe(h Handler) {
	Default.Subscribe(h)
}
