package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// MaxFrameDataSize bounds the length field of an inbound frame. Anything
// larger is line noise rather than a frame the radio could have produced.
const MaxFrameDataSize = 1024

var (
	ErrUnknownFrameType = errors.New("Unknown frame type could not be parsed")
	ErrFrameTooShort    = errors.New("Frame is malformed, it appears to be too short")
	ErrFrameTooLong     = errors.New("Frame is malformed, its length exceeds the maximum frame size")
	ErrChecksum         = errors.New("Frame checksum does not match its data")
	ErrInvalidAddress   = errors.New("Address is not a valid hex address")
)

// Decoder turns an arbitrarily chunked byte stream into frame data. It is
// intended for transports that hand over whatever bytes happen to be
// available, such as serial port receive callbacks.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	Escaped bool

	started    bool
	escapeNext bool
	buf        []byte
}

func NewDecoder(escaped bool) *Decoder {
	return &Decoder{Escaped: escaped, buf: make([]byte, 0, 128)}
}

// Write consumes p and returns the data of every frame completed by it.
// Frames that fail validation are dropped and reported in err, which may
// hold several errors; valid frames found in the same chunk are still
// returned.
func (d *Decoder) Write(p []byte) (frames [][]byte, err error) {
	for _, c := range p {
		if d.Escaped {
			if c == StartDelimiter {
				d.reset()
				d.started = true
				continue
			}

			if !d.started {
				continue
			}

			if c == EscapeByte {
				d.escapeNext = true
				continue
			}

			if d.escapeNext {
				c ^= escapeMask
				d.escapeNext = false
			}
		} else if !d.started {
			if c == StartDelimiter {
				d.reset()
				d.started = true
			}
			continue
		}

		d.buf = append(d.buf, c)

		if len(d.buf) < 2 {
			continue
		}

		n := int(binary.BigEndian.Uint16(d.buf[:2]))
		if n > MaxFrameDataSize {
			err = multierr.Append(err, fmt.Errorf("Length %d: %w", n, ErrFrameTooLong))
			d.reset()
			continue
		}

		if len(d.buf) < n+3 {
			continue
		}

		data := d.buf[2 : n+2]
		switch {
		case n == 0:
			err = multierr.Append(err, ErrFrameTooShort)

		case Checksum(data) != d.buf[n+2]:
			err = multierr.Append(err, fmt.Errorf("Frame type 0x%02X: %w", data[0], ErrChecksum))

		default:
			frame := make([]byte, n)
			copy(frame, data)
			frames = append(frames, frame)
		}

		d.reset()
	}

	return frames, err
}

func (d *Decoder) reset() {
	d.started = false
	d.escapeNext = false
	d.buf = d.buf[:0]
}

// ReadFrame reads a single API frame from r and returns its frame data.
// Bytes before the start delimiter are skipped.
//
// To avoid unbounded reads on a noisy line the provided reader should
// have a read deadline or be wrapped in something that can be interrupted.
func ReadFrame(r io.ByteReader, escaped bool) ([]byte, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}

		if c == StartDelimiter {
			break
		}
	}

	next := func() (byte, error) {
		c, err := r.ReadByte()
		if err != nil || !escaped || c != EscapeByte {
			return c, err
		}

		c, err = r.ReadByte()
		return c ^ escapeMask, err
	}

	var header [2]byte
	for i := range header {
		c, err := next()
		if err != nil {
			return nil, err
		}
		header[i] = c
	}

	n := int(binary.BigEndian.Uint16(header[:]))
	if n == 0 {
		return nil, ErrFrameTooShort
	}

	if n > MaxFrameDataSize {
		return nil, fmt.Errorf("Length %d: %w", n, ErrFrameTooLong)
	}

	data := make([]byte, n)
	for i := range data {
		c, err := next()
		if err != nil {
			return nil, err
		}
		data[i] = c
	}

	sum, err := next()
	if err != nil {
		return nil, err
	}

	if Checksum(data) != sum {
		return nil, fmt.Errorf("Frame type 0x%02X: %w", data[0], ErrChecksum)
	}

	return data, nil
}

// Unmarshal parses the data of an inbound frame (as produced by the device)
// into its typed representation.
func Unmarshal(data []byte) (Frame, error) {
	if len(data) == 0 {
		return nil, ErrFrameTooShort
	}

	t := FrameType(data[0])
	body := data[1:]

	switch t {
	case FrameATResponse:
		// <id> <cmd:2> <status> <data...>
		if len(body) < 4 {
			return nil, tooShort(t)
		}

		return &ATCommandResponse{
			FrameID: FrameID(body[0]),
			Command: Command(body[1:3]),
			Status:  ATStatus(body[3]),
			Data:    clone(body[4:]),
		}, nil

	case FrameTxStatus:
		// <id> <status>
		if len(body) < 2 {
			return nil, tooShort(t)
		}

		return &TxStatus{FrameID: FrameID(body[0]), Status: DeliveryStatus(body[1])}, nil

	case FrameTransmitStatus:
		// <id> <dest16:2> <retries> <delivery> <discovery>
		if len(body) < 6 {
			return nil, tooShort(t)
		}

		return &TransmitStatus{
			FrameID:         FrameID(body[0]),
			Destination16:   Address16(binary.BigEndian.Uint16(body[1:3])),
			Retries:         body[3],
			Status:          DeliveryStatus(body[4]),
			DiscoveryStatus: body[5],
		}, nil

	case FrameModemStatus:
		if len(body) < 1 {
			return nil, tooShort(t)
		}

		return &ModemStatus{Status: ModemStatusCode(body[0])}, nil

	case FrameRxPacket64:
		// <src64:8> <rssi> <options> <data...>
		if len(body) < 10 {
			return nil, tooShort(t)
		}

		return &RxPacket64{
			Source:  Address64(binary.BigEndian.Uint64(body[0:8])),
			RSSI:    body[8],
			Options: body[9],
			Data:    clone(body[10:]),
		}, nil

	case FrameRxPacket16:
		// <src16:2> <rssi> <options> <data...>
		if len(body) < 4 {
			return nil, tooShort(t)
		}

		return &RxPacket16{
			Source:  Address16(binary.BigEndian.Uint16(body[0:2])),
			RSSI:    body[2],
			Options: body[3],
			Data:    clone(body[4:]),
		}, nil

	default:
		return nil, fmt.Errorf("Failed to parse frame type 0x%02X: %w", byte(t), ErrUnknownFrameType)
	}
}

// UnmarshalRequest parses the data of an outbound frame, as a device would
// see it. Only used by tooling and the radio simulator.
func UnmarshalRequest(data []byte) (FrameID, Request, error) {
	if len(data) < 2 {
		return 0, nil, ErrFrameTooShort
	}

	t := FrameType(data[0])
	id := FrameID(data[1])
	body := data[2:]

	switch t {
	case FrameATCommand:
		if len(body) < 2 {
			return 0, nil, tooShort(t)
		}

		return id, &ATCommand{Command: Command(body[:2]), Parameter: clone(body[2:])}, nil

	case FrameTxRequest64:
		// <dest64:8> <options> <data...>
		if len(body) < 9 {
			return 0, nil, tooShort(t)
		}

		return id, &TxRequest64{
			Destination: Address64(binary.BigEndian.Uint64(body[0:8])),
			Options:     body[8],
			Data:        clone(body[9:]),
		}, nil

	case FrameTransmitRequest:
		// <dest64:8> <dest16:2> <radius> <options> <data...>
		if len(body) < 12 {
			return 0, nil, tooShort(t)
		}

		return id, &TransmitRequest{
			Destination:   Address64(binary.BigEndian.Uint64(body[0:8])),
			Destination16: Address16(binary.BigEndian.Uint16(body[8:10])),
			Radius:        body[10],
			Options:       body[11],
			Data:          clone(body[12:]),
		}, nil

	default:
		return 0, nil, fmt.Errorf("Failed to parse request type 0x%02X: %w", byte(t), ErrUnknownFrameType)
	}
}

func tooShort(t FrameType) error {
	return fmt.Errorf("Failed to parse %s: %w", t, ErrFrameTooShort)
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)
	return out
}
