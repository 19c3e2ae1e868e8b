// Package events dispatches domain events to in-process handlers
package events

import (
	"context"
	"sync"

	"github.com/alchemorsel/recipes/internal/domain/shared"
	"github.com/alchemorsel/recipes/internal/ports/outbound"
	"go.uber.org/zap"
)

// Dispatcher delivers events synchronously to the handlers registered for
// their name. Handler errors are logged and do not stop delivery.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      *zap.Logger
}

var _ outbound.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		log:      log.Named("events"),
	}
}

// Register registers an event handler
func (d *Dispatcher) Register(event string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[event] = append(d.handlers[event], handler)
	d.log.Debug("Registered event handler", zap.String("event", event))
}

// Publish dispatches an event to registered handlers
func (d *Dispatcher) Publish(ctx context.Context, event shared.DomainEvent) {
	d.mu.RLock()
	handlers := d.handlers[event.EventName()]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
		return
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			d.log.Error("Failed to handle event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
}
