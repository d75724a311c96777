package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/campuslink/beacon/internal/domain/model"
)

func podEvent(postID string) model.PodEvent {
	return model.PodEvent{PostID: postID, ApplicantID: "u1", ApplicantCount: 1}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, podEvent("p1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	event := <-q.Dequeue(ctx)
	if event.PostID != "p1" {
		t.Errorf("expected p1, got %v", event.PostID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, podEvent("p1")) || !q.Enqueue(ctx, podEvent("p2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, podEvent("p3")) {
		t.Error("expected enqueue to fail when the queue is full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	q.Enqueue(ctx, podEvent("p1"))

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, podEvent("p2")) {
		t.Error("expected enqueue on closed queue to fail")
	}

	// Pending events drain before the channel reports closed.
	var got []string
	for e := range q.Dequeue(ctx) {
		got = append(got, e.PostID)
	}
	if len(got) != 1 || got[0] != "p1" {
		t.Errorf("expected [p1], got %v", got)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, podEvent("p1")) {
		t.Error("expected enqueue with a cancelled context to fail")
	}
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(ctx, podEvent(fmt.Sprintf("p%d", i)))
		}(i)
	}
	wg.Wait()

	if l := q.Len(ctx); l != 100 {
		t.Errorf("expected 100 queued events, got %d", l)
	}
}
