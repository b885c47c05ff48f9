package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsPerKeyOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 400})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 50; i++ {
		for _, key := range []int64{1, 2, -100500} {
			i, key := i, key
			err := d.Enqueue(context.Background(), key, "send.text", "sendMessage", func() error {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("Enqueue: %v", err)
			}
		}
	}
	d.Close()

	for key, seq := range got {
		if len(seq) != 50 {
			t.Fatalf("key %d: %d jobs ran, want 50", key, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("key %d: job %d ran at position %d", key, v, i)
			}
		}
	}
	if d.SentCount() != 150 || d.ErrorCount() != 0 {
		t.Fatalf("sent=%d errs=%d", d.SentCount(), d.ErrorCount())
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	calls := 0
	err := d.Enqueue(context.Background(), 7, "send.photo", "sendPhoto", func() error {
		calls++
		if calls < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	d.Close()
	if calls != 3 || d.SentCount() != 1 {
		t.Fatalf("calls=%d sent=%d", calls, d.SentCount())
	}
}

func TestDispatcherDoesNotRetryPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Millisecond})
	calls := 0
	_ = d.Enqueue(context.Background(), 7, "send.text", "sendMessage", func() error {
		calls++
		return errors.New("bad request: chat not found (400)")
	})
	d.Close()
	if calls != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errs=%d", calls, d.ErrorCount())
	}
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after Close = %v, want ErrQueueClosed", err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAE-x_y/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	if got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("sanitizeErrorMessage = %q", got)
	}
}

func TestDispatcherWaitsForRoomOnFullShard(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 2 * time.Second})

	release := make(chan struct{})
	started := make(chan struct{})
	var (
		mu  sync.Mutex
		got []int
	)
	record := func(i int) func() error {
		return func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}
	}

	if err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error {
		close(started)
		<-release
		return record(0)()
	}); err != nil {
		t.Fatalf("Enqueue 0: %v", err)
	}
	<-started
	if err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", record(1)); err != nil {
		t.Fatalf("Enqueue 1: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	if err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", record(2)); err != nil {
		t.Fatalf("Enqueue on full shard: %v", err)
	}
	d.Close()

	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("send order = %v, want [0 1 2]", got)
	}
}

func TestDispatcherFullShardTimesOut(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1, EnqueueTimeout: 10 * time.Millisecond})

	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	_ = d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error { return nil })

	err := d.Enqueue(context.Background(), 1, "send.text", "sendMessage", func() error { return nil })
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("Enqueue on saturated shard = %v, want ErrQueueFull", err)
	}
	close(release)
	d.Close()
	if d.SentCount() != 2 {
		t.Fatalf("sent = %d, want 2", d.SentCount())
	}
}
