package producer

import (
	"context"
	"sync"

	"lyricast/internal/render"
)

// DefaultQueueCapacity bounds frames in flight between producer and writer.
const DefaultQueueCapacity = 5

// Queue is a bounded FIFO of frames with a single producer.
type Queue struct {
	ch   chan *render.Frame
	once sync.Once
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan *render.Frame, capacity)}
}

// Push blocks while the queue is full. It returns the context error without
// enqueueing once ctx is done.
func (q *Queue) Push(ctx context.Context, f *render.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop blocks until a frame is available. ok is false once the queue is
// closed and drained.
func (q *Queue) Pop(ctx context.Context) (*render.Frame, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	select {
	case f, ok := <-q.ch:
		return f, ok, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close marks the end of the stream. Only the producer side may call it.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.ch) })
}

// Drain releases frames left behind after a cancelled run.
func (q *Queue) Drain() int {
	q.Close()
	n := 0
	for f := range q.ch {
		f.Release()
		n++
	}
	return n
}

func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Cap() int { return cap(q.ch) }
