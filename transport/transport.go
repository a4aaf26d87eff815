package transport

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

const DefaultBaudRate = 9600

// Transport moves frames between meshlink and a module.
type Transport interface {
	Open(ctx context.Context) error
	Close() error

	// Send writes an encoded API frame.
	Send(data []byte) error

	// SetFrameHandler installs the function every decoded inbound frame is
	// passed to. It is called from the transport's own receive goroutine.
	SetFrameHandler(handler func(protocol.Frame))
}

// New returns a TCP transport if options name a bridge address and a
// serial transport otherwise.
func New(options Options) (Transport, error) {
	if options.Log == nil {
		options.Log = zap.NewNop()
	}

	if options.Address != "" {
		return NewTCP(options), nil
	}

	if options.Port == "" {
		return nil, fmt.Errorf("Neither a serial port nor a bridge address was configured")
	}

	return NewSerial(options), nil
}

// frameSink turns frame data into typed frames and hands them to the
// installed handler.
type frameSink struct {
	mu      sync.RWMutex
	handler func(protocol.Frame)

	trace bool
	log   *zap.Logger
}

func (f *frameSink) SetFrameHandler(handler func(protocol.Frame)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

func (f *frameSink) deliver(data []byte) {
	frame, err := protocol.Unmarshal(data)
	if err != nil {
		f.log.Warn("Dropping undecodable frame", zap.Binary("data", data), zap.Error(err))
		return
	}

	if f.trace {
		f.log.Debug("RX", zap.Stringer("type", frame.GetFrameType()), zap.Binary("data", data))
	}

	f.mu.RLock()
	handler := f.handler
	f.mu.RUnlock()

	if handler != nil {
		handler(frame)
	}
}

func (f *frameSink) traceSend(data []byte) {
	if f.trace {
		f.log.Debug("TX", zap.Binary("frame", data))
	}
}
