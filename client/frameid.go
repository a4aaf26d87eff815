package client

import (
	"sync/atomic"

	"github.com/luma/meshlink/protocol"
)

// frameIDs hands out frame ids 1..255, wrapping back to 1. Zero is never
// returned as it tells the device not to respond.
//
// Ids are not checked against outstanding requests. With 255 ids and
// requests that live for a few seconds at most, reuse of a live id needs
// hundreds of requests in flight at once, which a serial radio can't
// sustain anyway. If it does happen the newer request replaces the older
// one in the registry and the older one times out.
type frameIDs struct {
	last atomic.Uint32
}

func (f *frameIDs) Next() protocol.FrameID {
	for {
		cur := f.last.Load()

		next := (cur + 1) & 0xFF
		if next == 0 {
			next = 1
		}

		if f.last.CompareAndSwap(cur, next) {
			return protocol.FrameID(next)
		}
	}
}
