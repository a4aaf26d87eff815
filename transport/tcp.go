package transport

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

const DefaultDialTimeout = 5 * time.Second

var ErrNotOpen = errors.New("Transport is not open")

// TCP talks to a module through a serial to TCP bridge such as ser2net.
type TCP struct {
	frameSink

	addr        string
	dialTimeout time.Duration
	escaped     bool

	mu     sync.Mutex
	conn   net.Conn
	cancel context.CancelFunc

	loopWaiter sync.WaitGroup
}

func NewTCP(options Options) *TCP {
	dialTimeout := options.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}

	return &TCP{
		frameSink:   frameSink{trace: options.Trace, log: options.Log},
		addr:        options.Address,
		dialTimeout: dialTimeout,
		escaped:     options.Escaped,
	}
}

func (t *TCP) Open(parentCtx context.Context) error {
	dialer := net.Dialer{Timeout: t.dialTimeout}

	conn, err := dialer.DialContext(parentCtx, "tcp", t.addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parentCtx)

	t.mu.Lock()
	t.conn = conn
	t.cancel = cancel
	t.mu.Unlock()

	t.log.Info("Connected to bridge", zap.String("address", t.addr))

	t.loopWaiter.Add(1)
	go func() {
		defer t.loopWaiter.Done()
		t.readLoop(ctx, conn)
	}()

	return nil
}

func (t *TCP) readLoop(ctx context.Context, conn net.Conn) {
	log := t.log.Named("readLoop")
	r := bufio.NewReader(conn)

	for {
		data, err := protocol.ReadFrame(r, t.escaped)
		if err != nil {
			select {
			case <-ctx.Done():
				log.Info("Context cancelled, exiting...")
				return

			default:
			}

			if isFrameError(err) {
				log.Warn("Dropped malformed frame", zap.Error(err))
				continue
			}

			if errors.Is(err, io.EOF) {
				log.Warn("Bridge closed the connection")
				return
			}

			log.Error("Failed to read from bridge", zap.Error(err))
			return
		}

		t.deliver(data)
	}
}

func (t *TCP) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotOpen
	}

	t.traceSend(data)

	_, err := t.conn.Write(data)
	return err
}

// Close closes the connection and waits for the read loop to exit.
func (t *TCP) Close() (err error) {
	t.mu.Lock()
	conn, cancel := t.conn, t.cancel
	t.conn, t.cancel = nil, nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	cancel()

	err = multierr.Append(err, conn.Close())
	t.loopWaiter.Wait()

	return err
}

func isFrameError(err error) bool {
	return errors.Is(err, protocol.ErrChecksum) ||
		errors.Is(err, protocol.ErrFrameTooShort) ||
		errors.Is(err, protocol.ErrFrameTooLong)
}

var _ Transport = (*TCP)(nil)
