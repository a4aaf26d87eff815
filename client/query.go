package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

type queryOptions struct {
	timeout time.Duration
}

type QueryOption func(*queryOptions)

// WithTimeout overrides the connection's default query timeout.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Query sends req and waits for the single response correlated with it.
//
// The response must be of type R, anything else is a *ProtocolError. If no
// response arrives within the timeout a *TimeoutError is returned and the
// request is forgotten, so a late response is dropped.
func Query[R protocol.Response](ctx context.Context, c *Conn, req protocol.Request, opts ...QueryOption) (R, error) {
	var zero R

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	o := queryOptions{timeout: c.queryTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	w := newWaiter()

	id, err := c.register(req, w)
	if err != nil {
		return zero, fmt.Errorf("Failed to send %s: %w", describe(req), err)
	}

	timer := time.NewTimer(o.timeout)
	defer timer.Stop()

	var resp protocol.Response

	select {
	case resp = <-w.ch:

	case <-timer.C:
		if c.pending.removeIf(id, w) {
			c.log.Debug("Request timed out",
				zap.Uint8("frameID", uint8(id)),
				zap.String("request", describe(req)),
				zap.Duration("timeout", o.timeout))

			return zero, &TimeoutError{FrameID: id, Request: describe(req), After: o.timeout}
		}

		// The response won the race, it is already on its way.
		resp = <-w.ch

	case <-ctx.Done():
		if c.pending.removeIf(id, w) {
			return zero, ctx.Err()
		}

		resp = <-w.ch

	case <-c.done:
		c.pending.removeIf(id, w)
		return zero, ErrClosed
	}

	typed, ok := resp.(R)
	if !ok {
		return zero, &ProtocolError{
			Request: describe(req),
			Reason:  fmt.Sprintf("unexpected response %s", resp.GetFrameType()),
		}
	}

	return typed, nil
}

// Executor runs stream callbacks in the context the subscriber wants them
// in. Implementations must run functions in the order they are submitted.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to Executor, e.g. one that hands fn to an
// event loop.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) {
	f(fn)
}

type streamOptions struct {
	executor Executor
}

type StreamOption func(*streamOptions)

// WithExecutor delivers stream callbacks through e. By default callbacks
// run one at a time on a goroutine owned by the stream. Either way e is only
// ever called from that goroutine, never from the transport.
func WithExecutor(e Executor) StreamOption {
	return func(o *streamOptions) {
		o.executor = e
	}
}

// Stream is a request that may be answered any number of times until its
// window closes.
type Stream struct {
	id     protocol.FrameID
	onEach func(protocol.Response)

	// queue is drained by its own goroutine, in order. Callbacks either run
	// there or, with WithExecutor, are handed on to exec from there, so a
	// slow executor never holds up the transport's receive goroutine.
	queue *SerialExecutor
	exec  Executor

	mu      sync.Mutex
	expired bool
	count   int

	done chan struct{}
}

func (s *Stream) kind() string {
	return "stream"
}

// FrameID is the frame id the stream's responses carry.
func (s *Stream) FrameID() protocol.FrameID {
	return s.id
}

// Done is closed once the window has closed and every callback queued
// before that has run.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Count returns the number of responses delivered to the stream.
func (s *Stream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.count
}

func (s *Stream) deliver(resp protocol.Response) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired {
		return false
	}

	s.count++
	s.queue.Execute(s.forward(func() { s.onEach(resp) }))

	return true
}

func (s *Stream) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired {
		return
	}

	s.expired = true
	s.queue.Execute(s.forward(func() { close(s.done) }))
	s.queue.Close()
}

// forward wraps fn so that, run from the queue, it reaches the subscriber's
// executor if there is one.
func (s *Stream) forward(fn func()) func() {
	if s.exec == nil {
		return fn
	}

	return func() { s.exec.Execute(fn) }
}

// QueryStream sends req and calls onEach for every response correlated with
// it until window elapses or ctx is cancelled. It returns as soon as the
// request is written.
func (c *Conn) QueryStream(
	ctx context.Context,
	req protocol.Request,
	window time.Duration,
	onEach func(protocol.Response),
	opts ...StreamOption,
) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var o streamOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Stream{
		onEach: onEach,
		queue:  NewSerialExecutor(),
		exec:   o.executor,
		done:   make(chan struct{}),
	}

	id, err := c.register(req, s)
	if err != nil {
		s.queue.Close()
		return nil, fmt.Errorf("Failed to send %s: %w", describe(req), err)
	}

	s.id = id

	go func() {
		timer := time.NewTimer(window)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
		case <-c.done:
		}

		c.pending.removeIf(id, s)
		s.expire()

		c.log.Debug("Stream closed",
			zap.Uint8("frameID", uint8(id)),
			zap.String("request", describe(req)),
			zap.Int("responses", s.Count()))
	}()

	return s, nil
}

// SerialExecutor runs functions one at a time, in submission order, on a
// goroutine of its own.
type SerialExecutor struct {
	mu     sync.Mutex
	queue  []func()
	closed bool
	wake   chan struct{}
}

func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{wake: make(chan struct{}, 1)}
	go e.run()
	return e
}

func (e *SerialExecutor) Execute(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	e.signal()
}

// Close stops the executor once everything already queued has run.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.signal()
}

func (e *SerialExecutor) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *SerialExecutor) run() {
	for range e.wake {
		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				closed := e.closed
				e.mu.Unlock()

				if closed {
					return
				}
				break
			}

			fn := e.queue[0]
			e.queue[0] = nil
			e.queue = e.queue[1:]
			e.mu.Unlock()

			fn()
		}
	}
}
