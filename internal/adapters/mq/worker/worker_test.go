package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/perfil/internal/adapters/mail"
	"github.com/okian/perfil/internal/adapters/mq/queue"
	"github.com/okian/perfil/internal/adapters/mq/worker"
	logging "github.com/okian/perfil/pkg/logger"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockComposer struct {
	mu     sync.Mutex
	errors map[string]error
}

func newMockComposer() *mockComposer {
	return &mockComposer{errors: make(map[string]error)}
}

func (mc *mockComposer) Compose(ctx context.Context, job queue.Job) (mail.Message, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if err, ok := mc.errors[job.StudentID]; ok {
		return mail.Message{}, err
	}
	return mail.Message{Subject: "Report for " + job.StudentID, Text: "profile"}, nil
}

func (mc *mockComposer) setError(studentID string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errors[studentID] = err
}

// mockSink fails the first failures[to] sends to an address.
type mockSink struct {
	mu       sync.Mutex
	sent     []mail.Message
	attempts map[string]int
	failures map[string]int
}

func newMockSink() *mockSink {
	return &mockSink{attempts: make(map[string]int), failures: make(map[string]int)}
}

func (ms *mockSink) Send(ctx context.Context, msg mail.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.attempts[msg.To]++
	if ms.attempts[msg.To] <= ms.failures[msg.To] {
		return mail.ErrDelivery
	}
	ms.sent = append(ms.sent, msg)
	return nil
}

func (ms *mockSink) failFirst(to string, n int) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failures[to] = n
}

func (ms *mockSink) sentTo(to string) []mail.Message {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var out []mail.Message
	for _, m := range ms.sent {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}

func (ms *mockSink) attemptsFor(to string) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.attempts[to]
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		composer := newMockComposer()
		sink := newMockSink()

		convey.Convey("When creating a worker with custom options", func() {
			w := worker.NewInMemoryWorker(q, composer, sink, worker.WithName("test-worker"), worker.WithMaxAttempts(5))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(q, composer, sink, worker.WithBackoff(time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And a job is queued", func() {
				q.jobs <- queue.NewJob("s1", "a@example.com")

				convey.Convey("Then the report is sent to the job address", func() {
					ok := waitFor(func() bool { return len(sink.sentTo("a@example.com")) == 1 })
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(sink.sentTo("a@example.com")[0].Subject, convey.ShouldEqual, "Report for s1")
				})
			})

			convey.Convey("And the sink fails transiently", func() {
				sink.failFirst("b@example.com", 2)
				q.jobs <- queue.NewJob("s2", "b@example.com")

				convey.Convey("Then delivery is retried until it succeeds", func() {
					ok := waitFor(func() bool { return len(sink.sentTo("b@example.com")) == 1 })
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(sink.attemptsFor("b@example.com"), convey.ShouldEqual, 3)
				})
			})

			convey.Convey("And the sink keeps failing", func() {
				sink.failFirst("c@example.com", 10)
				q.jobs <- queue.NewJob("s3", "c@example.com")

				convey.Convey("Then the worker gives up after the attempt limit", func() {
					ok := waitFor(func() bool { return sink.attemptsFor("c@example.com") == 3 })
					convey.So(ok, convey.ShouldBeTrue)
					time.Sleep(20 * time.Millisecond)
					convey.So(sink.attemptsFor("c@example.com"), convey.ShouldEqual, 3)
					convey.So(sink.sentTo("c@example.com"), convey.ShouldBeEmpty)
				})
			})

			convey.Convey("And composing fails", func() {
				composer.setError("s4", errors.New("student not found"))
				q.jobs <- queue.NewJob("s4", "d@example.com")
				q.jobs <- queue.NewJob("s5", "e@example.com")

				convey.Convey("Then nothing is sent for that job and the worker continues", func() {
					ok := waitFor(func() bool { return len(sink.sentTo("e@example.com")) == 1 })
					convey.So(ok, convey.ShouldBeTrue)
					convey.So(sink.attemptsFor("d@example.com"), convey.ShouldEqual, 0)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new worker pool", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		composer := newMockComposer()
		sink := newMockSink()

		convey.Convey("When creating a pool with default count", func() {
			pool := worker.NewPool(0, q, composer, sink)

			convey.Convey("Then it has at least one worker", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When starting a pool and queueing several jobs", func() {
			pool := worker.NewPool(3, q, composer, sink, worker.WithBackoff(time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			for i := 0; i < 6; i++ {
				q.jobs <- queue.NewJob(fmt.Sprintf("s%d", i), fmt.Sprintf("t%d@example.com", i))
			}

			convey.Convey("Then shutdown drains every job", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()

				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(pool.Processed(), convey.ShouldEqual, 6)
				for i := 0; i < 6; i++ {
					convey.So(sink.sentTo(fmt.Sprintf("t%d@example.com", i)), convey.ShouldHaveLength, 1)
				}
			})
		})

		convey.Convey("When stopping a started pool", func() {
			pool := worker.NewPool(2, q, composer, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			done := make(chan struct{})
			go func() {
				pool.Stop()
				close(done)
			}()

			convey.Convey("Then it returns promptly", func() {
				select {
				case <-done:
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("stop timed out", convey.ShouldBeEmpty)
				}
			})
		})
	})
}
