// Package producer turns a renderer into a stream of raw frames for the
// encoder.
//
// Producer renders every timestamp in [0, total) at 1/fps spacing and pushes
// frames onto a bounded Queue; a full queue blocks the producer, which is the
// pipeline's only backpressure. Writer drains the queue into the encoder's
// stdin and releases each frame once written. Both check cancellation
// before every render, push, and pop.
package producer
