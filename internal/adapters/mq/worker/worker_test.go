package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/funnel/internal/adapters/mq/queue"
	worker "github.com/okian/funnel/internal/adapters/mq/worker"
	model "github.com/okian/funnel/internal/domain/model"
	"github.com/okian/funnel/pkg/backoff"
	logging "github.com/okian/funnel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	notifChan chan queue.Notification
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		notifChan: make(chan queue.Notification, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Notification {
	return mq.notifChan
}

func (mq *mockQueue) Close() error {
	close(mq.notifChan)
	return nil
}

func (mq *mockQueue) add(n queue.Notification) {
	mq.notifChan <- n
}

type mockSender struct {
	mu       sync.Mutex
	sent     []model.Notification
	failures map[string]int // notification ID -> remaining failures
}

func newMockSender() *mockSender {
	return &mockSender{
		failures: make(map[string]int),
	}
}

func (ms *mockSender) Send(ctx context.Context, n model.Notification) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if remaining, ok := ms.failures[n.ID]; ok && remaining > 0 {
		ms.failures[n.ID] = remaining - 1
		return errors.New("simulated delivery failure")
	}
	ms.sent = append(ms.sent, n)
	return nil
}

func (ms *mockSender) failTimes(id string, times int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failures[id] = times
}

func (ms *mockSender) sentCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.sent)
}

type mockTracker struct {
	mu       sync.Mutex
	outcomes map[string]error
	attempts map[string]int
}

func newMockTracker() *mockTracker {
	return &mockTracker{
		outcomes: make(map[string]error),
		attempts: make(map[string]int),
	}
}

func (mt *mockTracker) TrackDelivery(ctx context.Context, candidateID string, attempts int, deliveryErr error) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.outcomes[candidateID] = deliveryErr
	mt.attempts[candidateID] = attempts
	return nil
}

func (mt *mockTracker) outcome(candidateID string) (int, error, bool) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	attempts, ok := mt.attempts[candidateID]
	return attempts, mt.outcomes[candidateID], ok
}

func fastRetry(maxAttempts int) *backoff.Policy {
	return backoff.New(
		backoff.WithMaxAttempts(maxAttempts),
		backoff.WithBaseDelay(time.Millisecond),
		backoff.WithMaxDelay(2*time.Millisecond),
	)
}

func testNotification(id, candidateID string) model.Notification {
	return model.Notification{
		ID:          id,
		CandidateID: candidateID,
		Kind:        model.NotifyAssessmentInvite,
		Email:       candidateID + "@example.com",
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorkerDeliversNotification(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	convey.Convey("Given a worker with a healthy sender", t, func() {
		mq := newMockQueue()
		sender := newMockSender()
		tracker := newMockTracker()

		w := worker.NewInMemoryWorker(mq, sender, tracker,
			worker.WithName("test-worker"),
			worker.WithRetryPolicy(fastRetry(3)),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a notification is enqueued", func() {
			mq.add(testNotification("n1", "cand-1"))

			waitFor(t, time.Second, func() bool { return sender.sentCount() == 1 })

			convey.Convey("Then it is delivered and the outcome tracked", func() {
				attempts, deliveryErr, ok := tracker.outcome("cand-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(attempts, convey.ShouldEqual, 1)
				convey.So(deliveryErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerRetriesTransientFailures(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	convey.Convey("Given a sender that fails twice before succeeding", t, func() {
		mq := newMockQueue()
		sender := newMockSender()
		sender.failTimes("n1", 2)
		tracker := newMockTracker()

		w := worker.NewInMemoryWorker(mq, sender, tracker,
			worker.WithRetryPolicy(fastRetry(5)),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When the notification is enqueued", func() {
			mq.add(testNotification("n1", "cand-1"))

			waitFor(t, time.Second, func() bool { return sender.sentCount() == 1 })

			convey.Convey("Then delivery eventually succeeds after retries", func() {
				attempts, deliveryErr, ok := tracker.outcome("cand-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(attempts, convey.ShouldEqual, 3)
				convey.So(deliveryErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerExhaustsRetries(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	convey.Convey("Given a sender that always fails", t, func() {
		mq := newMockQueue()
		sender := newMockSender()
		sender.failTimes("n1", 100)
		tracker := newMockTracker()

		w := worker.NewInMemoryWorker(mq, sender, tracker,
			worker.WithRetryPolicy(fastRetry(3)),
		)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When the notification is enqueued", func() {
			mq.add(testNotification("n1", "cand-1"))

			waitFor(t, time.Second, func() bool {
				_, _, ok := tracker.outcome("cand-1")
				return ok
			})

			convey.Convey("Then the failure is tracked with the attempt count", func() {
				attempts, deliveryErr, ok := tracker.outcome("cand-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(attempts, convey.ShouldEqual, 3)
				convey.So(deliveryErr, convey.ShouldNotBeNil)
				convey.So(sender.sentCount(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestPoolDrainsQueueOnShutdown(t *testing.T) {
	if err := logging.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	convey.Convey("Given a pool of workers over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		sender := newMockSender()
		tracker := newMockTracker()

		pool := worker.NewPool(4, q, sender, tracker,
			worker.WithRetryPolicy(fastRetry(3)),
		)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When notifications are enqueued and the pool shuts down", func() {
			const count = 20
			for i := 0; i < count; i++ {
				ok := q.Enqueue(ctx, testNotification(
					"n-"+string(rune('a'+i)), "cand-"+string(rune('a'+i)),
				))
				convey.So(ok, convey.ShouldBeTrue)
			}

			err := pool.Shutdown(ctx)

			convey.Convey("Then every notification was delivered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sender.sentCount(), convey.ShouldEqual, count)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}
