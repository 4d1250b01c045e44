package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/funnel/internal/domain/model"
)

func testNotification(id string) model.Notification {
	return model.Notification{
		ID:          id,
		CandidateID: "cand-" + id,
		Kind:        model.NotifyInterviewInvite,
		Email:       "cand-" + id + "@example.com",
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, testNotification("n1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	out := q.Dequeue(ctx)
	n := <-out
	if n.ID != "n1" {
		t.Errorf("expected n1, got %v", n.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, testNotification("n1")) {
		t.Error("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, testNotification("n2")) {
		t.Error("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, testNotification("n3")) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if !q.Enqueue(ctx, testNotification("n1")) {
		t.Error("expected enqueue to succeed")
	}

	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("double close should be a no-op, got %v", err)
	}

	if q.Enqueue(ctx, testNotification("n2")) {
		t.Error("expected enqueue to fail after close")
	}

	// Already-buffered notifications drain, then the channel closes.
	out := q.Dequeue(ctx)
	if n, ok := <-out; !ok || n.ID != "n1" {
		t.Errorf("expected buffered n1, got %v ok=%v", n.ID, ok)
	}
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed dequeue channel")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel did not close")
	}
}

func TestInMemoryQueue_DrainMany(t *testing.T) {
	const count = 100
	q := NewInMemoryQueue(WithCapacity(count))
	ctx := context.Background()

	for i := 0; i < count; i++ {
		if !q.Enqueue(ctx, testNotification(fmt.Sprintf("n%d", i))) {
			t.Fatalf("enqueue %d failed", i)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	got := 0
	for range q.Dequeue(ctx) {
		got++
	}
	if got != count {
		t.Errorf("expected %d notifications, got %d", count, got)
	}
}
