package protocol

import (
	"encoding/binary"
	"io"
)

const (
	StartDelimiter byte = 0x7E
	EscapeByte     byte = 0x7D
	XON            byte = 0x11
	XOFF           byte = 0x13

	escapeMask byte = 0x20
)

// Encode wraps frame data in an API frame: start delimiter, big endian
// length, the data itself and a checksum. With escaped set every byte after
// the start delimiter that collides with a control character is escaped,
// as required by API mode 2.
func Encode(data []byte, escaped bool) []byte {
	raw := make([]byte, 0, len(data)+3)
	raw = binary.BigEndian.AppendUint16(raw, uint16(len(data)))
	raw = append(raw, data...)
	raw = append(raw, Checksum(data))

	out := make([]byte, 0, len(raw)+1)
	out = append(out, StartDelimiter)

	if !escaped {
		return append(out, raw...)
	}

	for _, b := range raw {
		if NeedsEscape(b) {
			out = append(out, EscapeByte, b^escapeMask)
			continue
		}

		out = append(out, b)
	}

	return out
}

// WriteFrame marshals req with the given frame id and writes it as a single
// API frame.
func WriteFrame(w io.Writer, req Request, id FrameID, escaped bool) error {
	_, err := w.Write(Encode(req.MarshalFrame(id), escaped))
	return err
}

// Checksum is 0xFF minus the low byte of the sum of all frame data bytes.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}

	return 0xFF - sum
}

func NeedsEscape(b byte) bool {
	return b == StartDelimiter || b == EscapeByte || b == XON || b == XOFF
}
