package producer

import (
	"context"
	"fmt"
	"io"
)

// Writer drains a queue into the encoder's stdin.
type Writer struct {
	queue     *Queue
	dst       io.Writer
	onWritten func(written int)
}

// NewWriter builds a writer. onWritten, when set, receives the running count
// after each frame.
func NewWriter(queue *Queue, dst io.Writer, onWritten func(int)) *Writer {
	return &Writer{queue: queue, dst: dst, onWritten: onWritten}
}

// Run writes frames until the queue is closed and drained, the context ends,
// or a write fails. It returns the number of frames written.
func (w *Writer) Run(ctx context.Context) (int, error) {
	written := 0
	for {
		frame, ok, err := w.queue.Pop(ctx)
		if err != nil {
			return written, err
		}
		if !ok {
			return written, nil
		}
		_, err = w.dst.Write(frame.Pix)
		seq := frame.Sequence
		frame.Release()
		if err != nil {
			return written, fmt.Errorf("write frame %d: %w", seq, err)
		}
		written++
		if w.onWritten != nil {
			w.onWritten(written)
		}
	}
}
