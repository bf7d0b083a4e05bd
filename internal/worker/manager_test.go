package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	mu         sync.Mutex
	perThread  map[string][]string
	inFlight   int32
	maxFlight  int32
	turnDelay  time.Duration
	blockUntil chan struct{}
}

func (r *countingRunner) Chat(ctx context.Context, message, threadID string) (string, error) {
	cur := atomic.AddInt32(&r.inFlight, 1)
	for {
		prev := atomic.LoadInt32(&r.maxFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&r.maxFlight, prev, cur) {
			break
		}
	}
	if r.blockUntil != nil {
		<-r.blockUntil
	}
	if r.turnDelay > 0 {
		time.Sleep(r.turnDelay)
	}
	r.mu.Lock()
	if r.perThread == nil {
		r.perThread = make(map[string][]string)
	}
	r.perThread[threadID] = append(r.perThread[threadID], message)
	r.mu.Unlock()
	atomic.AddInt32(&r.inFlight, -1)
	return "answer to " + message, nil
}

func TestManagerSerializesTurnsPerThread(t *testing.T) {
	runner := &countingRunner{turnDelay: 5 * time.Millisecond}
	m := NewManager(runner, time.Minute)
	defer m.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Chat(context.Background(), fmt.Sprintf("msg-%d", i), "same-thread"); err != nil {
				t.Errorf("Chat: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&runner.maxFlight); got != 1 {
		t.Fatalf("turns for one thread must never overlap, max in flight was %d", got)
	}
	if len(runner.perThread["same-thread"]) != 5 {
		t.Fatalf("expected 5 completed turns, got %d", len(runner.perThread["same-thread"]))
	}
}

func TestManagerRunsThreadsConcurrently(t *testing.T) {
	release := make(chan struct{})
	runner := &countingRunner{blockUntil: release}
	m := NewManager(runner, time.Minute)
	defer m.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.Chat(context.Background(), "hello", fmt.Sprintf("thread-%d", i)); err != nil {
				t.Errorf("Chat: %v", err)
			}
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&runner.inFlight) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("distinct threads did not run concurrently, in flight: %d", atomic.LoadInt32(&runner.inFlight))
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()
}

func TestManagerBusyWhenQueueFull(t *testing.T) {
	release := make(chan struct{})
	runner := &countingRunner{blockUntil: release}
	m := NewManager(runner, time.Minute)
	defer m.Stop()
	defer close(release)

	// one turn running plus a full queue behind it
	for i := 0; i < taskQueueLen+1; i++ {
		go func(i int) {
			_, _ = m.Chat(context.Background(), fmt.Sprintf("queued-%d", i), "t")
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		w := m.workers["t"]
		full := w != nil && len(w.taskCh) == taskQueueLen
		m.mu.Unlock()
		if full {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("queue never filled")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := m.Chat(context.Background(), "one too many", "t"); !errors.Is(err, ErrThreadBusy) {
		t.Fatalf("expected ErrThreadBusy, got %v", err)
	}
}

func TestManagerChatContextCancelled(t *testing.T) {
	release := make(chan struct{})
	runner := &countingRunner{blockUntil: release}
	m := NewManager(runner, time.Minute)
	defer m.Stop()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Chat(ctx, "slow turn", "t")
		errCh <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled Chat did not return")
	}
}

func TestManagerStop(t *testing.T) {
	m := NewManager(&countingRunner{}, time.Minute)
	m.Stop()
	if _, err := m.Chat(context.Background(), "hi", "t"); err == nil {
		t.Fatal("expected error after Stop")
	}
	// Stop is idempotent
	m.Stop()
}

func TestManagerIdleWorkerRetiresAndRespawns(t *testing.T) {
	runner := &countingRunner{}
	m := NewManager(runner, 20*time.Millisecond)
	defer m.Stop()

	if _, err := m.Chat(context.Background(), "first", "t"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		m.mu.Lock()
		_, alive := m.workers["t"]
		m.mu.Unlock()
		if !alive {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("idle worker never retired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a retired thread accepts new turns through a fresh worker
	if _, err := m.Chat(context.Background(), "second", "t"); err != nil {
		t.Fatalf("Chat after retire: %v", err)
	}
	if len(runner.perThread["t"]) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(runner.perThread["t"]))
	}
}
