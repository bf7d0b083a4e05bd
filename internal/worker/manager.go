package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

const taskQueueLen = 8

const defaultWorkerIdle = 5 * time.Minute

// ErrThreadBusy is returned when a thread's turn queue is full.
var ErrThreadBusy = errors.New("thread has too many pending turns")

// TurnRunner runs one full conversation turn.
type TurnRunner interface {
	Chat(ctx context.Context, message, threadID string) (string, error)
}

// Manager serializes turns per thread: each active thread gets one worker
// goroutine draining a task queue, so concurrent requests for the same
// thread never race on checkpoint read-modify-write or history order.
// Distinct threads run concurrently. Idle workers shut down after a quiet
// period and are respawned on demand.
type Manager struct {
	runner TurnRunner
	idle   time.Duration

	mu      sync.Mutex
	workers map[string]*threadWorker
	stopped bool
}

type turnTask struct {
	ctx      context.Context
	message  string
	resultCh chan turnResult
}

type turnResult struct {
	answer string
	err    error
}

type threadWorker struct {
	taskCh chan turnTask
	stopCh chan struct{}
}

func NewManager(runner TurnRunner, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	return &Manager{
		runner:  runner,
		idle:    idle,
		workers: make(map[string]*threadWorker),
	}
}

// Chat enqueues one turn for the thread and waits for its result. A full
// queue fails fast with ErrThreadBusy rather than blocking the caller.
func (m *Manager) Chat(ctx context.Context, message, threadID string) (string, error) {
	if threadID == "" {
		threadID = "1"
	}
	resultCh := make(chan turnResult, 1)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return "", errors.New("worker manager stopped")
	}
	w, ok := m.workers[threadID]
	if !ok {
		w = &threadWorker{
			taskCh: make(chan turnTask, taskQueueLen),
			stopCh: make(chan struct{}),
		}
		m.workers[threadID] = w
		go m.runWorker(threadID, w)
	}
	select {
	case w.taskCh <- turnTask{ctx: ctx, message: message, resultCh: resultCh}:
		m.mu.Unlock()
	default:
		m.mu.Unlock()
		return "", ErrThreadBusy
	}

	select {
	case res := <-resultCh:
		return res.answer, res.err
	case <-ctx.Done():
		// the worker will still finish the turn; the buffered result is dropped
		return "", ctx.Err()
	}
}

// Stop shuts down all workers. Pending tasks fail with context errors from
// their own callers; no new turns are accepted.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	for _, w := range m.workers {
		close(w.stopCh)
	}
	m.workers = make(map[string]*threadWorker)
	m.mu.Unlock()
}

func (m *Manager) runWorker(threadID string, w *threadWorker) {
	timer := time.NewTimer(m.idle)
	defer timer.Stop()

	for {
		select {
		case task := <-w.taskCh:
			answer, err := m.runner.Chat(task.ctx, task.message, threadID)
			task.resultCh <- turnResult{answer: answer, err: err}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.idle)
		case <-timer.C:
			// retire only when nothing is queued; enqueue happens under
			// m.mu, so checking under the same lock is race-free
			m.mu.Lock()
			if len(w.taskCh) == 0 {
				if m.workers[threadID] == w {
					delete(m.workers, threadID)
				}
				m.mu.Unlock()
				log.Printf("thread worker %s retired after idle timeout", threadID)
				return
			}
			m.mu.Unlock()
			timer.Reset(m.idle)
		case <-w.stopCh:
			return
		}
	}
}
