package transport

import (
	"time"

	"go.uber.org/zap"
)

type Options struct {
	// Port is the serial device the module is attached to, e.g. /dev/ttyUSB0
	Port string

	// BaudRate of the serial port
	BaudRate int

	// Address of a serial to TCP bridge (host:port). When set the module is
	// reached over TCP and Port is ignored.
	Address string

	// DialTimeout bounds connecting to Address
	DialTimeout time.Duration

	// Escaped must be true when the module runs in API mode 2
	Escaped bool

	// Trace will log every frame sent and received. This is only useful in
	// local debugging
	Trace bool

	Log *zap.Logger
}
