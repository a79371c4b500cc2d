package scene

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/canvasforge/internal/engine/history"
	"github.com/dshills/canvasforge/internal/event"
	"github.com/dshills/canvasforge/internal/event/events"
)

// Source identifies the canvas in event metadata.
const Source = "scene"

// Scheduler runs work later on the editor's event loop.
type Scheduler interface {
	Defer(fn func())
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithBus sets the bus change notifications are published on.
func WithBus(bus event.Bus) Option {
	return func(c *Canvas) {
		c.bus = bus
	}
}

// WithScheduler makes Load complete asynchronously when the snapshot holds
// images, the way decoding bitmaps finishes on a later tick.
func WithScheduler(s Scheduler) Option {
	return func(c *Canvas) {
		c.scheduler = s
	}
}

// WithSize sets the canvas dimensions.
func WithSize(width, height int) Option {
	return func(c *Canvas) {
		c.width = width
		c.height = height
	}
}

// WithBackground sets the background color.
func WithBackground(color string) Option {
	return func(c *Canvas) {
		c.background = color
	}
}

// WithRenderFunc sets a function called on every render request.
func WithRenderFunc(fn func()) Option {
	return func(c *Canvas) {
		c.onRender = fn
	}
}

// Canvas is an ordered in-memory scene of drawable objects.
//
// Every structural change is published on the bus as an
// events.ObjectChanged. Canvas is not safe for concurrent use.
type Canvas struct {
	bus       event.Bus
	scheduler Scheduler

	width      int
	height     int
	background string

	objects []Object
	active  []string

	renders  int
	onRender func()
}

// New creates an empty canvas.
func New(opts ...Option) *Canvas {
	c := &Canvas{
		width:      800,
		height:     600,
		background: "#ffffff",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Background returns the background color.
func (c *Canvas) Background() string {
	return c.background
}

// Add appends obj to the scene. An object without identity gets one.
func (c *Canvas) Add(ctx context.Context, obj Object) error {
	if obj == nil {
		return ErrNilObject
	}
	if obj.ID() == "" {
		obj.setID(uuid.NewString())
	}
	if c.indexOf(obj.ID()) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateID, obj.ID())
	}

	c.objects = append(c.objects, obj)
	return c.publish(ctx, events.TopicObjectAdded, obj)
}

// AddPath adds a freehand path. It publishes TopicPathCreated in addition to
// TopicObjectAdded.
func (c *Canvas) AddPath(ctx context.Context, p *Path) error {
	if err := c.Add(ctx, p); err != nil {
		return err
	}
	return c.publish(ctx, events.TopicPathCreated, p)
}

// Remove removes the objects with the given identities. Unknown identities
// are reported after the known ones are removed.
func (c *Canvas) Remove(ctx context.Context, ids ...string) error {
	var missing []string
	for _, id := range ids {
		i := c.indexOf(id)
		if i < 0 {
			missing = append(missing, id)
			continue
		}
		obj := c.objects[i]
		c.objects = append(c.objects[:i], c.objects[i+1:]...)
		c.deselect(id)
		if err := c.publish(ctx, events.TopicObjectRemoved, obj); err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %q", ErrObjectNotFound, missing)
	}
	return nil
}

// Modify applies fn to the object and publishes TopicObjectModified.
// Nothing is published if fn fails.
func (c *Canvas) Modify(ctx context.Context, id string, fn func(obj Object) error) error {
	obj, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrObjectNotFound, id)
	}
	if err := fn(obj); err != nil {
		return err
	}
	return c.publish(ctx, events.TopicObjectModified, obj)
}

// Replace swaps the object oldID for obj at the same stacking position.
// The swap is reported as a single modification of the new object.
func (c *Canvas) Replace(ctx context.Context, oldID string, obj Object) error {
	if obj == nil {
		return ErrNilObject
	}
	i := c.indexOf(oldID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrObjectNotFound, oldID)
	}
	if obj.ID() == "" {
		obj.setID(uuid.NewString())
	}
	if j := c.indexOf(obj.ID()); j >= 0 && j != i {
		return fmt.Errorf("%w: %q", ErrDuplicateID, obj.ID())
	}

	c.objects[i] = obj
	for k, id := range c.active {
		if id == oldID {
			c.active[k] = obj.ID()
		}
	}
	return c.publish(ctx, events.TopicObjectModified, obj)
}

// Get returns the object with the given identity.
func (c *Canvas) Get(id string) (Object, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.objects[i], true
	}
	return nil, false
}

// Objects returns the objects in stacking order.
func (c *Canvas) Objects() []Object {
	out := make([]Object, len(c.objects))
	copy(out, c.objects)
	return out
}

// Len returns the number of objects.
func (c *Canvas) Len() int {
	return len(c.objects)
}

// ForEachObject visits the objects in stacking order.
func (c *Canvas) ForEachObject(fn func(obj history.Object)) {
	for _, obj := range c.Objects() {
		fn(obj)
	}
}

// SetActive replaces the selection. Repeated ids are selected once.
func (c *Canvas) SetActive(ids ...string) error {
	active := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if c.indexOf(id) < 0 {
			return fmt.Errorf("%w: %q", ErrObjectNotFound, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		active = append(active, id)
	}
	c.active = active
	return nil
}

// Active returns the selected objects.
func (c *Canvas) Active() []Object {
	out := make([]Object, 0, len(c.active))
	for _, id := range c.active {
		if obj, ok := c.Get(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// DiscardActive clears the selection.
func (c *Canvas) DiscardActive() {
	c.active = nil
}

// RequestRender schedules a redraw.
func (c *Canvas) RequestRender() {
	c.renders++
	if c.onRender != nil {
		c.onRender()
	}
}

// RenderRequests returns how many redraws were requested.
func (c *Canvas) RenderRequests() int {
	return c.renders
}

// Serialize captures the scene. Built-in properties are always written;
// custom fields only when named in extra.
func (c *Canvas) Serialize(extra []string) (history.Snapshot, error) {
	doc := document{
		Version:    FormatVersion,
		Background: c.background,
		Objects:    make([]json.RawMessage, 0, len(c.objects)),
	}
	for _, obj := range c.objects {
		raw, err := encodeObject(obj, extra)
		if err != nil {
			return history.Snapshot{}, err
		}
		doc.Objects = append(doc.Objects, raw)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return history.Snapshot{}, err
	}
	return history.NewSnapshot(data), nil
}

// Load replaces the scene with the snapshot's content.
//
// The snapshot is decoded before the scene is touched, so a decode error
// leaves the scene as it was. Every current object is removed and every
// decoded object added, each with its notification, then onComplete runs.
// When a scheduler is set and the snapshot holds images, the adding half
// runs on a later tick.
func (c *Canvas) Load(snap history.Snapshot, onComplete func()) error {
	var doc document
	if err := json.Unmarshal(snap.Bytes(), &doc); err != nil {
		return &DecodeError{Err: err}
	}

	objs := make([]Object, 0, len(doc.Objects))
	seen := make(map[string]bool, len(doc.Objects))
	for _, raw := range doc.Objects {
		obj, err := decodeObject(raw)
		if err != nil {
			return &DecodeError{Err: err}
		}
		if seen[obj.ID()] {
			return &DecodeError{Err: fmt.Errorf("%w: %q", ErrDuplicateID, obj.ID())}
		}
		seen[obj.ID()] = true
		objs = append(objs, obj)
	}

	ctx := context.Background()
	c.clear(ctx)
	if doc.Background != "" {
		c.background = doc.Background
	}

	finish := func() {
		for _, obj := range objs {
			c.objects = append(c.objects, obj)
			_ = c.publish(ctx, events.TopicObjectAdded, obj)
		}
		if c.bus != nil {
			_ = c.bus.Publish(ctx, event.NewEvent(events.TopicSceneLoaded,
				events.SceneLoaded{Objects: len(c.objects)}, Source))
		}
		if onComplete != nil {
			onComplete()
		}
	}

	if c.scheduler != nil && hasImages(objs) {
		c.scheduler.Defer(finish)
		return nil
	}
	finish()
	return nil
}

// clear removes every object, publishing a removal for each.
// Notifications during a reload are best effort.
func (c *Canvas) clear(ctx context.Context) {
	old := c.objects
	c.objects = nil
	c.active = nil
	for _, obj := range old {
		_ = c.publish(ctx, events.TopicObjectRemoved, obj)
	}
}

func hasImages(objs []Object) bool {
	for _, obj := range objs {
		if obj.Type() == TypeImage {
			return true
		}
	}
	return false
}

func (c *Canvas) publish(ctx context.Context, topic event.Topic, obj Object) error {
	if c.bus == nil {
		return nil
	}
	payload := events.ObjectChanged{ObjectID: obj.ID(), Type: obj.Type()}
	return c.bus.Publish(ctx, event.NewEvent(topic, payload, Source))
}

func (c *Canvas) indexOf(id string) int {
	for i, obj := range c.objects {
		if obj.ID() == id {
			return i
		}
	}
	return -1
}

func (c *Canvas) deselect(id string) {
	for i, a := range c.active {
		if a == id {
			c.active = append(c.active[:i], c.active[i+1:]...)
			return
		}
	}
}
