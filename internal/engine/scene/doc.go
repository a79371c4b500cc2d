// Package scene is the in-memory canvas engine: an ordered set of drawable
// objects (circles, editable text, barcode images, freehand paths) with a
// selection, JSON serialization, and full-scene reload.
//
// Structural changes are published on the event bus:
//
//	canvas := scene.New(scene.WithBus(bus))
//	canvas.Add(ctx, scene.NewCircle("", props, 40)) // scene.object.added
//	canvas.Modify(ctx, id, moveBy(10, 0))           // scene.object.modified
//	canvas.Remove(ctx, id)                          // scene.object.removed
//
// Canvas satisfies history.Engine. Serialize writes the built-in render
// properties of every object plus the whitelisted custom fields; Load
// replaces the whole scene, publishing a removal for every old object and an
// addition for every new one, and then runs the completion callback. With a
// Scheduler, a reload containing images completes on a later tick.
package scene
