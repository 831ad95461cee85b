// Package events distributes processed updates to registered listeners.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgard/tgbotsdk/internal/entity"
)

// EventUpdateReceived is emitted once for every processed update.
const EventUpdateReceived = "update.received"

// Listener observes an update.
type Listener func(ctx context.Context, update *entity.Update) error

// Emitter holds listeners per event name.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]Listener)}
}

// On adds listener for event. Listeners run in registration order.
func (e *Emitter) On(event string, listener Listener) {
	if listener == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Listeners returns the number of listeners registered for event.
func (e *Emitter) Listeners(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// Emit calls the listeners of event in order. The first failing listener
// stops the emission and its error is returned.
func (e *Emitter) Emit(ctx context.Context, event string, update *entity.Update) error {
	e.mu.RLock()
	listeners := append([]Listener(nil), e.listeners[event]...)
	e.mu.RUnlock()

	for i, listener := range listeners {
		if err := listener(ctx, update); err != nil {
			return fmt.Errorf("%s listener %d: %w", event, i, err)
		}
	}
	return nil
}
