// internal/event/manager.go
package event

import (
	"sync"

	"github.com/bethropolis/blockpatch/internal/logger"
)

// Handler defines the function signature for event subscribers.
// Returning true stops delivery to the handlers subscribed after it.
type Handler func(e Event) bool

// Manager handles event subscriptions and dispatching.
type Manager struct {
	mu       sync.RWMutex
	runID    string
	handlers map[Type][]Handler // Map event types to a list of handlers
}

// NewManager creates a new event manager. Every dispatched event carries runID.
func NewManager(runID string) *Manager {
	return &Manager{
		runID:    runID,
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe adds a handler function for a specific event type.
func (m *Manager) Subscribe(eventType Type, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers[eventType] = append(m.handlers[eventType], handler)
	logger.DebugTagf("event", "Handler subscribed to %v", eventType)
}

// Dispatch sends an event to all registered handlers for its type,
// synchronously and in subscription order.
func (m *Manager) Dispatch(eventType Type, data interface{}) {
	event := Event{
		Type:  eventType,
		RunID: m.runID,
		Data:  data,
	}

	m.mu.RLock() // Use read lock while iterating handlers
	handlers, exists := m.handlers[eventType]
	m.mu.RUnlock() // Unlock after getting the slice

	if !exists || len(handlers) == 0 {
		return
	}

	logger.DebugTagf("event", "Dispatching %v to %d handler(s)", eventType, len(handlers))

	// A handler may subscribe while we iterate.
	handlersCopy := make([]Handler, len(handlers))
	copy(handlersCopy, handlers)

	for _, handler := range handlersCopy {
		if handler(event) {
			break
		}
	}
}
