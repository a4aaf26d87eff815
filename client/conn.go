package client

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
	"github.com/luma/meshlink/transport"
)

const (
	DefaultQueryTimeout    = 5 * time.Second
	DefaultResetTimeout    = 300 * time.Millisecond
	DefaultDiscoveryWindow = 6 * time.Second
)

type Options struct {
	// Transport carries encoded frames to the device and decoded frames back.
	Transport transport.Transport

	// Escaped must match the API mode the device is configured for (AP=2).
	Escaped bool

	// QueryTimeout is how long a request waits for its response unless
	// overridden per call.
	QueryTimeout time.Duration

	// ResetTimeout is how long a reset waits for the device to announce
	// that it restarted.
	ResetTimeout time.Duration

	// DiscoveryWindow is how long node discovery replies are collected.
	DiscoveryWindow time.Duration

	Log *zap.Logger
}

// Conn is a session with a single radio module. Requests may be issued
// from any number of goroutines, responses are matched back to them by
// frame id.
type Conn struct {
	transport transport.Transport
	escaped   bool

	queryTimeout    time.Duration
	resetTimeout    time.Duration
	discoveryWindow time.Duration

	// sendMu serialises frame id allocation, registration and the write.
	// Response handling never takes it.
	sendMu sync.Mutex
	ids    frameIDs

	pending *registry

	resetMu     sync.Mutex
	resetWaiter chan *protocol.ModemStatus

	hwMu    sync.RWMutex
	hw      HardwareVersion
	hwKnown bool

	nodes observers[Node]
	data  observers[DataReceived]

	closeOnce sync.Once
	done      chan struct{}

	log *zap.Logger
}

// New builds a connection over options.Transport, which is required.
func New(options Options) (*Conn, error) {
	if options.Transport == nil {
		return nil, ErrNoTransport
	}

	log := options.Log
	if log == nil {
		log = zap.NewNop()
	}

	c := &Conn{
		transport:       options.Transport,
		escaped:         options.Escaped,
		queryTimeout:    orDefault(options.QueryTimeout, DefaultQueryTimeout),
		resetTimeout:    orDefault(options.ResetTimeout, DefaultResetTimeout),
		discoveryWindow: orDefault(options.DiscoveryWindow, DefaultDiscoveryWindow),
		pending:         newRegistry(),
		done:            make(chan struct{}),
		log:             log,
	}

	c.transport.SetFrameHandler(c.HandleFrame)

	return c, nil
}

// Open opens the underlying transport. Frames start flowing into
// HandleFrame as soon as it returns.
func (c *Conn) Open(ctx context.Context) error {
	return c.transport.Open(ctx)
}

// Close fails every request still waiting for a response with ErrClosed
// and closes the transport.
func (c *Conn) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.done)

		if n := c.pending.len(); n > 0 {
			c.log.Info("Closing with outstanding requests", zap.Int("outstanding", n))
		}

		err = multierr.Append(err, c.transport.Close())
	})

	return err
}

// Outstanding returns the number of requests currently waiting on a
// response, streams included.
func (c *Conn) Outstanding() int {
	return c.pending.len()
}

// withExclusiveAccess runs fn while holding the send gate. The gate is
// released when fn returns, whether it failed or not.
func (c *Conn) withExclusiveAccess(fn func() error) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.isRunning() {
		return ErrClosed
	}

	return fn()
}

// register allocates a frame id, registers entry under it and writes req,
// all under the send gate. A failed write leaves nothing registered.
func (c *Conn) register(req protocol.Request, entry pending) (protocol.FrameID, error) {
	var id protocol.FrameID

	err := c.withExclusiveAccess(func() error {
		id = c.ids.Next()
		c.pending.put(id, entry)

		if err := c.transport.Send(protocol.Encode(req.MarshalFrame(id), c.escaped)); err != nil {
			c.pending.removeIf(id, entry)
			return err
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	c.log.Debug("Sent request",
		zap.Uint8("frameID", uint8(id)),
		zap.String("request", describe(req)))

	return id, nil
}

// isRunning returns true if Close has not been called
func (c *Conn) isRunning() bool {
	select {
	case <-c.done:
		return false

	default:
		return true
	}
}

func describe(req protocol.Request) string {
	if at, ok := req.(*protocol.ATCommand); ok {
		return string(at.Command)
	}

	return req.GetFrameType().String()
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}

	return d
}
