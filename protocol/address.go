package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Address64 is a module's factory assigned extended address (SH:SL).
type Address64 uint64

// Address16 is a network assigned short address.
type Address16 uint16

const (
	BroadcastAddress64 Address64 = 0x000000000000FFFF
	CoordinatorAddress Address16 = 0x0000
	UnknownAddress16   Address16 = 0xFFFE
)

func (a Address64) String() string {
	return fmt.Sprintf("%016X", uint64(a))
}

func (a Address64) Bytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(a))
	return b
}

func (a Address16) String() string {
	return fmt.Sprintf("%04X", uint16(a))
}

func (a Address16) Bytes() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(a))
	return b
}

// ParseAddress64 parses a 16 digit hex address, with or without a 0x prefix.
func ParseAddress64(s string) (Address64, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("Failed to parse address '%s': %w", s, ErrInvalidAddress)
	}

	return Address64(v), nil
}

func (a Address64) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a Address16) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
