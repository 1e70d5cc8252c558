package forward

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize bounds the notifications waiting for one window.
const DefaultQueueSize = 256

var errQueueClosed = errors.New("queue closed")

// Sink delivers one notification to a window's content.
type Sink func(event string, payload any) error

type notification struct {
	event   string
	payload any
}

// Queue decouples the pointer hook from a window's event channel. Emit never
// blocks; notifications reach the sink in the order they were emitted and
// are dropped when the queue is full.
type Queue struct {
	sink Sink
	log  *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan notification
	done   chan struct{}

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewQueue starts a queue holding at most size pending notifications.
func NewQueue(size int, sink Sink, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		sink: sink,
		log:  logger,
		ch:   make(chan notification, size),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

// Emit enqueues a notification.
func (q *Queue) Emit(event string, payload any) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errQueueClosed
	}

	select {
	case q.ch <- notification{event: event, payload: payload}:
		return nil
	default:
		n := q.dropped.Add(1)
		return fmt.Errorf("queue full, %d notifications dropped", n)
	}
}

// Close stops accepting notifications and waits for the pending ones to be
// delivered.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}

// Dropped returns how many notifications were discarded because the queue
// was full.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Failed returns how many notifications the sink rejected.
func (q *Queue) Failed() uint64 {
	return q.failed.Load()
}

func (q *Queue) run() {
	defer close(q.done)
	for n := range q.ch {
		q.deliver(n)
	}
}

func (q *Queue) deliver(n notification) {
	defer func() {
		if p := recover(); p != nil {
			q.failed.Add(1)
			q.log.Error("notification sink panicked", slog.String("event", n.event), slog.Any("panic", p))
		}
	}()

	if err := q.sink(n.event, n.payload); err != nil {
		q.failed.Add(1)
		q.log.Debug("notification not delivered", slog.String("event", n.event), slog.Any("error", err))
	}
}
