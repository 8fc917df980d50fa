// Package memory provides an in-memory implementation of the queue
// interfaces. This is useful for testing and development without external
// dependencies.
package memory

import (
	"context"
	"errors"
	"sync"

	"flexmon-go/internal/queue"
)

// ErrQueueClosed is returned when publishing to a closed queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue is an in-memory implementation of queue.Producer.
// Published messages are retained so tests can inspect them.
// This implementation is safe for concurrent use.
type Queue struct {
	mu       sync.RWMutex
	messages []*queue.Message
	closed   bool
}

// NewQueue creates a new in-memory queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Publish records a message in the queue.
func (q *Queue) Publish(ctx context.Context, msg *queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.messages = append(q.messages, msg)
	return nil
}

// Close marks the queue as closed. Subsequent publishes fail.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	return nil
}

// Messages returns a copy of all published messages, in publish order.
func (q *Queue) Messages() []*queue.Message {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*queue.Message, len(q.messages))
	copy(out, q.messages)
	return out
}

// Len returns the number of published messages.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.messages)
}
