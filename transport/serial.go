package transport

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/Gurux/gxcommon-go"
	"github.com/Gurux/gxserial-go"
	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

// Serial talks to a module attached to a local serial port.
type Serial struct {
	frameSink

	port     string
	baudRate int

	mu      sync.Mutex
	media   *gxserial.GXSerial
	decoder *protocol.Decoder
}

func NewSerial(options Options) *Serial {
	baudRate := options.BaudRate
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}

	return &Serial{
		frameSink: frameSink{trace: options.Trace, log: options.Log},
		port:      options.Port,
		baudRate:  baudRate,
		decoder:   protocol.NewDecoder(options.Escaped),
	}
}

func (s *Serial) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parity, err := gxcommon.ParityParse("None")
	if err != nil {
		return err
	}

	media := gxserial.NewGXSerial(s.port, gxcommon.BaudRate(s.baudRate), 8, gxcommon.StopBitsOne, parity)

	media.SetOnReceived(func(m gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
		data, err := gxcommon.ToBytes(e.Data(), binary.BigEndian)
		if err != nil {
			s.log.Warn("Failed to read received bytes", zap.Error(err))
			return
		}

		s.receive(data)
	})

	media.SetOnError(func(m gxcommon.IGXMedia, err error) {
		s.log.Error("Serial port error", zap.String("port", s.port), zap.Error(err))
	})

	media.SetOnMediaStateChange(func(m gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
		s.log.Info("Serial port state changed",
			zap.String("port", s.port),
			zap.String("state", e.State().String()))
	})

	if err := media.Validate(); err != nil {
		return err
	}

	if err := media.Open(); err != nil {
		if ports, perr := gxserial.GetPortNames(); perr == nil {
			s.log.Warn("Failed to open serial port",
				zap.String("port", s.port),
				zap.Strings("available", ports))
		}

		return err
	}

	s.mu.Lock()
	s.media = media
	s.mu.Unlock()

	s.log.Info("Opened serial port", zap.String("port", s.port), zap.Int("baudRate", s.baudRate))

	return nil
}

// receive is called with whatever bytes the port had available.
func (s *Serial) receive(chunk []byte) {
	s.mu.Lock()
	frames, err := s.decoder.Write(chunk)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("Dropped malformed frames", zap.Error(err))
	}

	for _, data := range frames {
		s.deliver(data)
	}
}

func (s *Serial) Send(data []byte) error {
	s.mu.Lock()
	media := s.media
	s.mu.Unlock()

	if media == nil {
		return ErrNotOpen
	}

	s.traceSend(data)

	return media.Send(data, "")
}

func (s *Serial) Close() error {
	s.mu.Lock()
	media := s.media
	s.media = nil
	s.mu.Unlock()

	if media == nil {
		return nil
	}

	return media.Close()
}

var _ Transport = (*Serial)(nil)
