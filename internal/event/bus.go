package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler is the interface for event handlers.
type Handler interface {
	// Handle processes an event.
	// The event parameter is type-erased; handlers should type-assert.
	Handle(ctx context.Context, event any) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// TypedHandlerFunc handles events with a known payload type.
type TypedHandlerFunc[T any] func(ctx context.Context, event Event[T]) error

// AsHandler converts a TypedHandlerFunc to a generic Handler.
// Events with a different payload type are skipped.
func AsHandler[T any](fn TypedHandlerFunc[T]) Handler {
	return HandlerFunc(func(ctx context.Context, event any) error {
		if e, ok := event.(Event[T]); ok {
			return fn(ctx, e)
		}
		return nil
	})
}

// Subscription is a handle returned by Subscribe.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Pattern returns the topic pattern the subscription matches.
	Pattern() Topic
}

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the total number of events published.
	EventsPublished uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// ActiveSubscribers is the current number of subscriptions.
	ActiveSubscribers int
}

// Bus delivers events to subscribers.
//
// Delivery is synchronous: Publish returns after every matching handler has
// run in the publisher's goroutine, in subscription order. Handler errors
// are joined and returned to the publisher.
type Bus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(pattern Topic, handler Handler) (Subscription, error)
	SubscribeFunc(pattern Topic, fn HandlerFunc) (Subscription, error)
	Unsubscribe(sub Subscription) error
	Stats() Stats
}

type subscription struct {
	id      string
	pattern Topic
	handler Handler
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Pattern() Topic { return s.pattern }

// bus is the default Bus implementation.
type bus struct {
	mu   sync.RWMutex
	subs []*subscription

	eventsPublished  atomic.Uint64
	handlersExecuted atomic.Uint64
	handlerErrors    atomic.Uint64
	handlerPanics    atomic.Uint64
}

// NewBus creates a new synchronous event bus.
func NewBus() Bus {
	return &bus{}
}

// Publish delivers event to every subscription whose pattern matches its topic.
func (b *bus) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()
	if !t.IsValid() {
		return ErrInvalidTopic
	}

	// Snapshot the matching subscriptions so handlers may subscribe or
	// unsubscribe while the event is being delivered.
	b.mu.RLock()
	var matched []*subscription
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range matched {
		if err := b.dispatch(ctx, sub, event); err != nil {
			errs = append(errs, &HandlerError{SubscriptionID: sub.id, Topic: t, Err: err})
		}
	}
	return errors.Join(errs...)
}

// dispatch runs one handler, converting a panic into a PanicError.
func (b *bus) dispatch(ctx context.Context, sub *subscription, event any) (err error) {
	b.handlersExecuted.Add(1)
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = &PanicError{Value: r}
		}
	}()

	if err = sub.handler.Handle(ctx, event); err != nil {
		b.handlerErrors.Add(1)
	}
	return err
}

// Subscribe creates a new subscription for the given topic pattern.
func (b *bus) Subscribe(pattern Topic, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	sub := &subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: handler,
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *bus) SubscribeFunc(pattern Topic, fn HandlerFunc) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn)
}

// Unsubscribe removes a subscription.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.ID() {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		HandlersExecuted:  b.handlersExecuted.Load(),
		HandlerErrors:     b.handlerErrors.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}
