package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/invoice-ledger/internal/domain/event"
)

// Dispatcher fans committed invoice events out to subscribed handlers
type Dispatcher interface {
	// Subscribe registers a named handler for the given event types.
	// With no types the handler receives every event.
	Subscribe(name string, handler Handler, types ...event.Type)

	// Unsubscribe removes every registration with the given name
	Unsubscribe(name string)

	// Publish delivers events to their handlers in registration order.
	// All handlers run; their errors are joined.
	Publish(ctx context.Context, evts ...*event.Event) error

	// PublishAsync delivers events in background goroutines
	PublishAsync(ctx context.Context, evts ...*event.Event)

	// Handlers lists the handlers that would receive an event type
	Handlers(eventType event.Type) []HandlerInfo

	// Close rejects further events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers []HandlerInfo
	logger   Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(name string, handler Handler, types ...event.Type) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("handler-%d", len(d.handlers))
	}

	d.handlers = append(d.handlers, HandlerInfo{
		Name:       name,
		EventTypes: append([]event.Type(nil), types...),
		Handler:    handler,
	})

	if d.logger != nil {
		d.logger.Info("Handler registered",
			"handler_name", name,
			"event_types", types,
		)
	}
}

func (d *eventDispatcher) Unsubscribe(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := d.handlers[:0:0]
	for _, h := range d.handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers = filtered
}

func (d *eventDispatcher) matching(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []HandlerInfo
	for _, h := range d.handlers {
		if h.Accepts(eventType) {
			out = append(out, h)
		}
	}
	return out
}

func (d *eventDispatcher) Publish(ctx context.Context, evts ...*event.Event) error {
	if d.closed.Load() {
		return errors.New("dispatcher is closed")
	}

	var errs []error
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		for _, info := range d.matching(evt.Type) {
			if err := d.safeExecute(ctx, evt, info); err != nil {
				if d.logger != nil {
					d.logger.Error("Handler error",
						"event_type", evt.Type,
						"event_id", evt.ID,
						"handler_name", info.Name,
						"error", err,
					)
				}
				errs = append(errs, fmt.Errorf("handler %s failed: %w", info.Name, err))
			}
		}
	}

	return errors.Join(errs...)
}

func (d *eventDispatcher) PublishAsync(ctx context.Context, evts ...*event.Event) {
	if d.closed.Load() {
		if d.logger != nil {
			d.logger.Error("Cannot publish async events, dispatcher is closed", "count", len(evts))
		}
		return
	}

	for _, evt := range evts {
		if evt == nil {
			continue
		}
		for _, info := range d.matching(evt.Type) {
			d.wg.Add(1)
			go func(evt *event.Event, h HandlerInfo) {
				defer d.wg.Done()

				if err := d.safeExecute(ctx, evt, h); err != nil && d.logger != nil {
					d.logger.Error("Async handler error",
						"event_type", evt.Type,
						"event_id", evt.ID,
						"handler_name", h.Name,
						"error", err,
					)
				}
			}(evt, info)
		}
	}
}

func (d *eventDispatcher) Handlers(eventType event.Type) []HandlerInfo {
	matched := d.matching(eventType)
	result := make([]HandlerInfo, len(matched))
	for i, h := range matched {
		result[i] = HandlerInfo{
			Name:        h.Name,
			EventTypes:  h.EventTypes,
			Description: h.Description,
		}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return errors.New("dispatcher already closed")
	}

	d.wg.Wait()

	if d.logger != nil {
		d.logger.Info("Dispatcher closed")
	}
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			if d.logger != nil {
				d.logger.Error("Handler panic recovered",
					"event_type", evt.Type,
					"event_id", evt.ID,
					"handler_name", info.Name,
					"panic", r,
				)
			}
		}
	}()

	return info.Handler(ctx, evt)
}
