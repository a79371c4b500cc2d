package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoop_DrainRunsInOrder(t *testing.T) {
	l := NewLoop()
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		l.Defer(func() { got = append(got, i) })
	}
	l.Defer(nil)

	if n := l.Pending(); n != 3 {
		t.Fatalf("Pending = %d, want 3", n)
	}
	if n := l.Drain(); n != 3 {
		t.Fatalf("Drain = %d, want 3", n)
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("order = %v", got)
		}
	}
	if n := l.Drain(); n != 0 {
		t.Errorf("second Drain = %d, want 0", n)
	}
}

func TestLoop_DrainRunsNestedWork(t *testing.T) {
	l := NewLoop()
	var got []string
	l.Defer(func() {
		got = append(got, "outer")
		l.Defer(func() { got = append(got, "inner") })
	})

	if n := l.Drain(); n != 2 {
		t.Fatalf("Drain = %d, want 2", n)
	}
	if len(got) != 2 || got[1] != "inner" {
		t.Errorf("got %v", got)
	}
}

func TestLoop_Run(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Defer(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("queued work did not run")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !l.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := l.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if l.Running() {
		t.Error("Running after Run returned")
	}
}
