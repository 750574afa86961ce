package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"collection-tracker/internal/shared/logger"

	"github.com/cenkalti/backoff/v5"
)

// Event types published by the collection module
const (
	EventTypeCardChanged         = "collection.card_changed"
	EventTypeCompensationFailed  = "collection.compensation_failed"
	EventTypeSetAggregateRebuilt = "collection.aggregate_rebuilt"
	EventTypeSubgroupToggled     = "collection.subgroup_toggled"
)

// Event is something that happened to a user's collection
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler reacts to one event. A returned error is retried.
type Handler func(ctx context.Context, event Event) error

// EventBusInterface defines the contract for event bus implementations
type EventBusInterface interface {
	Subscribe(eventType string, handler Handler)
	Publish(ctx context.Context, event Event) error
	PublishAndForget(ctx context.Context, event Event)
	Unsubscribe(eventType string)
	GetEventTypes() []string
}

// BusConfig bounds handler retries
type BusConfig struct {
	MaxRetries uint
	RetryDelay time.Duration
}

// DefaultBusConfig returns default configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	}
}

// EventBus delivers events in-process to the handlers subscribed to their
// type, in subscription order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
	config   BusConfig
}

// NewEventBus creates a bus with the default retry settings
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a bus with custom retry settings
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = &noopLogger{}
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Handler subscribed", "eventType", eventType)
}

// Publish hands event to every handler of its type. A failing handler does
// not stop the others; their errors are joined.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := append([]Handler(nil), eb.handlers[event.Type()]...)
	eb.mu.RUnlock()

	var errs []error
	for i, handler := range handlers {
		if err := eb.deliver(ctx, event, handler); err != nil {
			eb.logger.Error("Event handler failed", "eventType", event.Type(), "handler", i, "error", err)
			errs = append(errs, fmt.Errorf("handler %d for %s: %w", i, event.Type(), err))
		}
	}
	return errors.Join(errs...)
}

func (eb *EventBus) deliver(ctx context.Context, event Event, handler Handler) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, handler(ctx, event)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(eb.config.RetryDelay)),
		backoff.WithMaxTries(eb.config.MaxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			eb.logger.Warn("Retrying event handler", "eventType", event.Type(), "error", err, "wait", wait.String())
		}),
	)
	return err
}

// PublishAndForget publishes on a separate goroutine and only logs failures
func (eb *EventBus) PublishAndForget(ctx context.Context, event Event) {
	go func() {
		_ = eb.Publish(ctx, event)
	}()
}

// Unsubscribe removes all handlers for a specific event type
func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.handlers, eventType)
}

// GetEventTypes returns the event types that have handlers
func (eb *EventBus) GetEventTypes() []string {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	types := make([]string, 0, len(eb.handlers))
	for eventType := range eb.handlers {
		types = append(types, eventType)
	}
	return types
}

type collectionEvent struct {
	eventType string
	source    string
	data      interface{}
	timestamp time.Time
}

// NewEvent builds an event of eventType emitted by source
func NewEvent(eventType, source string, data interface{}) Event {
	return &collectionEvent{
		eventType: eventType,
		source:    source,
		data:      data,
		timestamp: time.Now().UTC(),
	}
}

func (e *collectionEvent) Type() string         { return e.eventType }
func (e *collectionEvent) Data() interface{}    { return e.data }
func (e *collectionEvent) Timestamp() time.Time { return e.timestamp }
func (e *collectionEvent) Source() string       { return e.source }

// noopLogger is used when the bus is built without a logger
type noopLogger struct{}

func (n *noopLogger) Debug(args ...interface{})                 {}
func (n *noopLogger) Info(args ...interface{})                  {}
func (n *noopLogger) Warn(args ...interface{})                  {}
func (n *noopLogger) Error(args ...interface{})                 {}
func (n *noopLogger) Fatal(args ...interface{})                 {}
func (n *noopLogger) Debugf(format string, args ...interface{}) {}
func (n *noopLogger) Infof(format string, args ...interface{})  {}
func (n *noopLogger) Warnf(format string, args ...interface{})  {}
func (n *noopLogger) Errorf(format string, args ...interface{}) {}
func (n *noopLogger) Fatalf(format string, args ...interface{}) {}
func (n *noopLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return n
}
func (n *noopLogger) WithContext(ctx context.Context) logger.Logger {
	return n
}
func (n *noopLogger) WithComponent(component string) logger.Logger {
	return n
}
