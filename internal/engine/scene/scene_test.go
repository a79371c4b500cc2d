package scene

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/canvasforge/internal/barcode"
	"github.com/dshills/canvasforge/internal/engine/history"
	"github.com/dshills/canvasforge/internal/event"
	"github.com/dshills/canvasforge/internal/event/events"
)

type recorder struct {
	topics []event.Topic
	ids    []string
}

func newRecordedCanvas(t *testing.T, opts ...Option) (*Canvas, *recorder) {
	t.Helper()
	bus := event.NewBus()
	rec := &recorder{}
	_, err := bus.SubscribeFunc("scene.**", func(ctx context.Context, ev any) error {
		if tp, ok := ev.(event.TopicProvider); ok {
			rec.topics = append(rec.topics, tp.EventTopic())
		}
		if e, ok := ev.(event.Event[events.ObjectChanged]); ok {
			rec.ids = append(rec.ids, e.Payload.ObjectID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return New(append([]Option{WithBus(bus)}, opts...)...), rec
}

type queue struct {
	fns []func()
}

func (q *queue) Defer(fn func()) { q.fns = append(q.fns, fn) }

func (q *queue) run() {
	fns := q.fns
	q.fns = nil
	for _, fn := range fns {
		fn()
	}
}

func circle(id string) *Circle {
	p := DefaultProps()
	p.Left, p.Top = 200, 200
	p.Fill, p.Stroke, p.StrokeWidth = "lightpink", "red", 2
	return NewCircle(id, p, 40)
}

func TestAddPublishes(t *testing.T) {
	c, rec := newRecordedCanvas(t)
	ctx := context.Background()

	if err := c.Add(ctx, circle("c1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if len(rec.topics) != 1 || rec.topics[0] != events.TopicObjectAdded {
		t.Errorf("topics = %v", rec.topics)
	}
	if rec.ids[0] != "c1" {
		t.Errorf("id = %q, want c1", rec.ids[0])
	}
}

func TestAddDuplicateAndGeneratedID(t *testing.T) {
	c := New()
	ctx := context.Background()

	if err := c.Add(ctx, circle("c1")); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(ctx, circle("c1")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate add = %v, want ErrDuplicateID", err)
	}
	if err := c.Add(ctx, nil); !errors.Is(err, ErrNilObject) {
		t.Errorf("nil add = %v, want ErrNilObject", err)
	}

	anon := circle("")
	if err := c.Add(ctx, anon); err != nil {
		t.Fatal(err)
	}
	if anon.ID() == "" {
		t.Error("object without id should get one")
	}
}

func TestAddPathPublishesCreated(t *testing.T) {
	c, rec := newRecordedCanvas(t)
	p := NewPath("p1", DefaultProps(), []Point{{0, 0}, {10, 10}})

	if err := c.AddPath(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	want := []event.Topic{events.TopicObjectAdded, events.TopicPathCreated}
	if len(rec.topics) != 2 || rec.topics[0] != want[0] || rec.topics[1] != want[1] {
		t.Errorf("topics = %v, want %v", rec.topics, want)
	}
}

func TestRemoveAndModify(t *testing.T) {
	c, rec := newRecordedCanvas(t)
	ctx := context.Background()
	_ = c.Add(ctx, circle("c1"))
	_ = c.Add(ctx, circle("c2"))
	_ = c.SetActive("c1")

	err := c.Modify(ctx, "c2", func(obj Object) error {
		obj.Properties().Left += 10
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, _ := c.Get("c2")
	if obj.Properties().Left != 210 {
		t.Errorf("Left = %v, want 210", obj.Properties().Left)
	}

	failing := errors.New("nope")
	if err := c.Modify(ctx, "c2", func(Object) error { return failing }); !errors.Is(err, failing) {
		t.Errorf("Modify error = %v", err)
	}
	if err := c.Modify(ctx, "zz", func(Object) error { return nil }); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Modify unknown = %v", err)
	}

	if err := c.Remove(ctx, "c1", "zz"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Remove unknown = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if len(c.Active()) != 0 {
		t.Error("removed object should leave the selection")
	}

	want := []event.Topic{
		events.TopicObjectAdded, events.TopicObjectAdded,
		events.TopicObjectModified, events.TopicObjectRemoved,
	}
	if len(rec.topics) != len(want) {
		t.Fatalf("topics = %v, want %v", rec.topics, want)
	}
	for i := range want {
		if rec.topics[i] != want[i] {
			t.Errorf("topics[%d] = %s, want %s", i, rec.topics[i], want[i])
		}
	}
}

func TestReplaceKeepsPosition(t *testing.T) {
	c := New()
	ctx := context.Background()
	_ = c.Add(ctx, circle("c1"))
	_ = c.Add(ctx, NewImage("b1", DefaultProps(), barcode.State{Type: barcode.TypeCode128, Value: "A"}))
	_ = c.Add(ctx, circle("c2"))
	_ = c.SetActive("b1")

	next := NewImage("b2", DefaultProps(), barcode.State{Type: barcode.TypeCode128, Value: "B"})
	if err := c.Replace(ctx, "b1", next); err != nil {
		t.Fatal(err)
	}

	objs := c.Objects()
	if objs[1].ID() != "b2" {
		t.Errorf("objects[1] = %q, want b2", objs[1].ID())
	}
	if a := c.Active(); len(a) != 1 || a[0].ID() != "b2" {
		t.Errorf("selection should follow the replacement, got %v", a)
	}
	if err := c.Replace(ctx, "b1", circle("x")); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("Replace unknown = %v", err)
	}
	if err := c.Replace(ctx, "b2", circle("c1")); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Replace with taken id = %v", err)
	}
}

func TestSetActiveUnknown(t *testing.T) {
	c := New()
	if err := c.SetActive("nope"); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("SetActive = %v, want ErrObjectNotFound", err)
	}
	_ = c.Add(context.Background(), circle("c1"))
	_ = c.SetActive("c1")
	c.DiscardActive()
	if len(c.Active()) != 0 {
		t.Error("DiscardActive should clear the selection")
	}
}

func TestSetActiveRepeatedIDs(t *testing.T) {
	ctx := context.Background()
	c := New()
	_ = c.Add(ctx, circle("c1"))
	_ = c.Add(ctx, circle("c2"))

	if err := c.SetActive("c1", "c2", "c1"); err != nil {
		t.Fatal(err)
	}
	active := c.Active()
	if len(active) != 2 || active[0].ID() != "c1" || active[1].ID() != "c2" {
		t.Errorf("Active = %v, want [c1 c2]", active)
	}
}

func TestSerializeExtraFields(t *testing.T) {
	c := New()
	obj := circle("c1")
	obj.SetCustom("name", "sun")
	obj.SetCustom("layer.z", 3)
	_ = c.Add(context.Background(), obj)

	snap, err := c.Serialize([]string{"id"})
	if err != nil {
		t.Fatal(err)
	}
	if Query(snap, "objects.0.name").Exists() {
		t.Error("custom field should be omitted unless whitelisted")
	}
	if got := Query(snap, "objects.0.id").String(); got != "c1" {
		t.Errorf("id = %q, want c1", got)
	}

	snap, err = c.Serialize([]string{"id", "name", "layer.z", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if got := Query(snap, "objects.0.name").String(); got != "sun" {
		t.Errorf("name = %q, want sun", got)
	}
	if got := Query(snap, `objects.0.layer\.z`).Int(); got != 3 {
		t.Errorf("layer.z = %d, want 3", got)
	}
	if Query(snap, "objects.0.missing").Exists() {
		t.Error("absent field should not be written")
	}
}

func TestSerializeDeterministic(t *testing.T) {
	c := New()
	ctx := context.Background()
	_ = c.Add(ctx, circle("c1"))
	_ = c.Add(ctx, NewText("t1", DefaultProps(), "Edit me", 20))

	a, _ := c.Serialize([]string{"id"})
	b, _ := c.Serialize([]string{"id"})
	if !a.Equal(b) {
		t.Errorf("serialization not stable:\n%s\n%s", a, b)
	}

	want := `{"type":"circle","left":200,"top":200,"scaleX":1,"scaleY":1,"angle":0,"fill":"lightpink","stroke":"red","strokeWidth":2,"radius":40,"id":"c1"}`
	if got := Query(a, "objects.0").Raw; got != want {
		t.Errorf("circle =\n%s\nwant\n%s", got, want)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	src := New(WithBackground("#eeeeee"))
	ctx := context.Background()
	_ = src.Add(ctx, circle("c1"))
	_ = src.Add(ctx, NewText("t1", DefaultProps(), "", 20))
	_ = src.Add(ctx, NewImage("b1", DefaultProps(), barcode.State{
		Type: barcode.TypeEAN13, Value: "400638133393", Options: barcode.DefaultOptions(),
	}))
	_ = src.Add(ctx, NewPath("p1", DefaultProps(), []Point{{1, 2}, {3, 4}}))

	snap, err := src.Serialize([]string{"id"})
	if err != nil {
		t.Fatal(err)
	}

	dst, rec := newRecordedCanvas(t)
	_ = dst.Add(ctx, circle("old"))
	rec.topics = nil

	done := 0
	if err := dst.Load(snap, func() { done++ }); err != nil {
		t.Fatal(err)
	}
	if done != 1 {
		t.Fatalf("onComplete called %d times, want 1", done)
	}

	again, _ := dst.Serialize([]string{"id"})
	if !again.Equal(snap) {
		t.Errorf("round trip mismatch:\n%s\n%s", snap, again)
	}
	if dst.Background() != "#eeeeee" {
		t.Errorf("Background = %q", dst.Background())
	}
	if _, ok := dst.Get("old"); ok {
		t.Error("old object should be gone after Load")
	}

	if rec.topics[0] != events.TopicObjectRemoved {
		t.Errorf("first notification = %s, want removal", rec.topics[0])
	}
	if last := rec.topics[len(rec.topics)-1]; last != events.TopicSceneLoaded {
		t.Errorf("last notification = %s, want scene.loaded", last)
	}

	txt, _ := dst.Get("t1")
	if _, ok := txt.(history.EditNotifier); !ok {
		t.Error("reloaded text should support edit sessions")
	}
}

func TestLoadDecodeErrorLeavesScene(t *testing.T) {
	c := New()
	_ = c.Add(context.Background(), circle("c1"))

	bad := []history.Snapshot{
		history.NewSnapshot([]byte("not json")),
		history.NewSnapshot([]byte(`{"objects":[{"type":"hexagon"}]}`)),
		history.NewSnapshot([]byte(`{"objects":[{"type":"circle","id":"a"},{"type":"circle","id":"a"}]}`)),
	}
	for _, snap := range bad {
		called := false
		err := c.Load(snap, func() { called = true })
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Errorf("Load(%s) = %v, want *DecodeError", snap, err)
		}
		if called {
			t.Error("onComplete should not run on decode error")
		}
		if c.Len() != 1 {
			t.Errorf("scene changed on decode error: Len = %d", c.Len())
		}
	}
}

func TestLoadAssignsMissingIDs(t *testing.T) {
	c := New()
	snap := history.NewSnapshot([]byte(`{"version":"1","objects":[{"type":"circle","radius":5,"label":"x"}]}`))
	if err := c.Load(snap, nil); err != nil {
		t.Fatal(err)
	}
	objs := c.Objects()
	if len(objs) != 1 || objs[0].ID() == "" {
		t.Fatalf("objects = %v", objs)
	}
	if v, ok := objs[0].Custom("label"); !ok || v != "x" {
		t.Errorf("custom label = %v, %v", v, ok)
	}
}

func TestLoadDeferredWithImages(t *testing.T) {
	q := &queue{}
	src := New()
	_ = src.Add(context.Background(), NewImage("b1", DefaultProps(), barcode.State{Type: barcode.TypeITF, Value: "12"}))
	snap, _ := src.Serialize([]string{"id"})

	c := New(WithScheduler(q))
	_ = c.Add(context.Background(), circle("c1"))

	done := false
	if err := c.Load(snap, func() { done = true }); err != nil {
		t.Fatal(err)
	}
	if done {
		t.Fatal("load with images should complete on a later tick")
	}
	if c.Len() != 0 {
		t.Errorf("old objects should be cleared before completion, Len = %d", c.Len())
	}

	q.run()
	if !done || c.Len() != 1 {
		t.Errorf("after tick: done=%v Len=%d", done, c.Len())
	}
}

func TestLoadWithoutImagesIsSynchronous(t *testing.T) {
	q := &queue{}
	c := New(WithScheduler(q))
	snap := history.NewSnapshot([]byte(`{"version":"1","objects":[{"type":"circle","id":"c1"}]}`))

	done := false
	_ = c.Load(snap, func() { done = true })
	if !done || len(q.fns) != 0 {
		t.Errorf("done=%v queued=%d, want synchronous completion", done, len(q.fns))
	}
}

func TestTextEditSession(t *testing.T) {
	txt := NewText("t1", DefaultProps(), "Edit me", 20)

	calls := 0
	cancel := txt.OnEditSessionEnd(func() error {
		calls++
		return nil
	})

	if err := txt.EndEdit(); err != nil || calls != 0 {
		t.Errorf("EndEdit without session: err=%v calls=%d", err, calls)
	}

	txt.BeginEdit()
	txt.SetText("")
	txt.Insert("hey")
	txt.Insert("!")
	txt.DeleteBackward()
	if !txt.IsEditing() {
		t.Error("should be editing")
	}
	if err := txt.EndEdit(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
	if txt.Text() != "hey" {
		t.Errorf("Text = %q, want hey", txt.Text())
	}

	cancel()
	if txt.HookCount() != 0 {
		t.Errorf("HookCount = %d after cancel", txt.HookCount())
	}
	txt.BeginEdit()
	_ = txt.EndEdit()
	if calls != 1 {
		t.Error("cancelled hook should not run")
	}
}

func TestTextEditSessionHookError(t *testing.T) {
	txt := NewText("t1", DefaultProps(), "", 20)
	boom := errors.New("boom")
	txt.OnEditSessionEnd(func() error { return boom })

	txt.BeginEdit()
	if err := txt.EndEdit(); !errors.Is(err, boom) {
		t.Errorf("EndEdit = %v, want boom", err)
	}
	if txt.IsEditing() {
		t.Error("session should be closed even when a hook fails")
	}
}

func TestInspect(t *testing.T) {
	c := New()
	ctx := context.Background()
	_ = c.Add(ctx, circle("c1"))
	_ = c.Add(ctx, NewText("t1", DefaultProps(), "hi", 20))

	withIDs, _ := c.Serialize([]string{"id"})
	if n := Count(withIDs); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	ids := ObjectIDs(withIDs)
	if len(ids) != 2 || ids[0] != "c1" || ids[1] != "t1" {
		t.Errorf("ObjectIDs = %v", ids)
	}
	types := Types(withIDs)
	if len(types) != 2 || types[1] != TypeText {
		t.Errorf("Types = %v", types)
	}

	bare, _ := c.Serialize(nil)
	if len(ObjectIDs(bare)) != 0 {
		t.Error("ids should be absent when not whitelisted")
	}
}

func TestRequestRender(t *testing.T) {
	hits := 0
	c := New(WithRenderFunc(func() { hits++ }), WithSize(1024, 768))
	c.RequestRender()
	c.RequestRender()
	if c.RenderRequests() != 2 || hits != 2 {
		t.Errorf("renders = %d, hits = %d", c.RenderRequests(), hits)
	}
	if w, h := c.Size(); w != 1024 || h != 768 {
		t.Errorf("Size = %dx%d", w, h)
	}
}
