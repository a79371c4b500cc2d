// Package event provides the synchronous event bus that carries structural
// change notifications between the canvas engine and its observers.
//
// Events are typed with generics and routed by hierarchical topics:
//
//	bus := event.NewBus()
//
//	sub, err := bus.Subscribe("scene.object.*", event.AsHandler[events.ObjectChanged](
//	    func(ctx context.Context, ev event.Event[events.ObjectChanged]) error {
//	        fmt.Println(ev.Payload.ObjectID)
//	        return nil
//	    }))
//
//	err = bus.Publish(ctx, event.NewEvent(events.TopicObjectAdded, payload, "scene"))
//
// # Topic Patterns
//
//   - Exact match: "scene.object.added"
//   - Single wildcard: "scene.object.*" matches one segment
//   - Multi wildcard: "scene.**" matches any number of trailing segments
//
// # Delivery
//
// Publish runs every matching handler in the caller's goroutine before
// returning. Handler panics are recovered and reported as *PanicError;
// handler errors are wrapped in *HandlerError and joined.
package event
