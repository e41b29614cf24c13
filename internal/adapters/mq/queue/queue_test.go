package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	job := NewJob("s1", "teacher@example.com")
	if job.ID == "" {
		t.Fatal("expected job id to be set")
	}
	if !q.Enqueue(ctx, job) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	select {
	case got := <-q.Dequeue(ctx):
		if got.ID != job.ID || got.StudentID != "s1" || got.To != "teacher@example.com" {
			t.Errorf("unexpected job %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job")
	}
}

func TestInMemoryQueue_StampsEnqueueTime(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if !q.Enqueue(ctx, Job{ID: "j1", StudentID: "s1"}) {
		t.Fatal("expected enqueue to succeed")
	}
	got := <-q.Dequeue(ctx)
	if got.EnqueuedAt.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if !q.Enqueue(ctx, NewJob(fmt.Sprintf("s%d", i), "t@example.com")) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
	if q.Enqueue(ctx, NewJob("s3", "t@example.com")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	producers, perProducer := 10, 50

	var consumed sync.Map
	var count sync.WaitGroup
	count.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for j := range q.Dequeue(ctx) {
				if _, dup := consumed.LoadOrStore(j.ID, true); !dup {
					count.Done()
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				job := Job{ID: fmt.Sprintf("job%d_%d", id, j), StudentID: fmt.Sprintf("s%d", id)}
				for !q.Enqueue(ctx, job) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		count.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for consumers")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if !q.Enqueue(ctx, NewJob("s1", "a@example.com")) {
		t.Fatal("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, NewJob("s2", "b@example.com")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, NewJob("s3", "c@example.com")) {
		t.Error("expected enqueue to fail after closing")
	}

	// Jobs queued before close are still drained.
	var drained int
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				if drained != 2 {
					t.Errorf("expected 2 drained jobs, got %d", drained)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			drained++
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
}
