package client

import (
	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

// HandleFrame routes one decoded inbound frame. It is installed as the
// transport's frame handler and runs on the transport's receive goroutine.
func (c *Conn) HandleFrame(frame protocol.Frame) {
	switch f := frame.(type) {
	case protocol.Response:
		c.dispatchResponse(f)

	case *protocol.ModemStatus:
		c.log.Info("Modem status", zap.Stringer("status", f.Status))

		if !c.settleReset(f) {
			c.log.Debug("Dropping modem status, no reset in progress",
				zap.Stringer("status", f.Status))
		}

	case *protocol.RxPacket64:
		c.data.publish(DataReceived{
			Source64: f.Source,
			Source16: protocol.UnknownAddress16,
			RSSI:     f.RSSI,
			Options:  f.Options,
			Payload:  f.Data,
		})

	case *protocol.RxPacket16:
		c.data.publish(DataReceived{
			Source16: f.Source,
			RSSI:     f.RSSI,
			Options:  f.Options,
			Payload:  f.Data,
		})

	default:
		c.log.Debug("Dropping unhandled frame", zap.Stringer("type", frame.GetFrameType()))
	}
}

func (c *Conn) dispatchResponse(resp protocol.Response) {
	id := resp.GetFrameID()

	entry, ok := c.pending.get(id)
	if !ok {
		// Most likely the request already timed out.
		c.log.Debug("Dropping response with no waiter",
			zap.Uint8("frameID", uint8(id)),
			zap.Stringer("type", resp.GetFrameType()))
		return
	}

	switch e := entry.(type) {
	case *waiter:
		if c.pending.removeIf(id, e) {
			e.settle(resp)
		}

	case *Stream:
		if !e.deliver(resp) {
			c.log.Debug("Dropping response for expired stream", zap.Uint8("frameID", uint8(id)))
		}
	}
}

// armReset installs the reset waiter. Only one reset may be in progress.
func (c *Conn) armReset() (chan *protocol.ModemStatus, error) {
	c.resetMu.Lock()
	defer c.resetMu.Unlock()

	if c.resetWaiter != nil {
		return nil, ErrResetInProgress
	}

	c.resetWaiter = make(chan *protocol.ModemStatus, 1)
	return c.resetWaiter, nil
}

func (c *Conn) disarmReset(ch chan *protocol.ModemStatus) {
	c.resetMu.Lock()
	if c.resetWaiter == ch {
		c.resetWaiter = nil
	}
	c.resetMu.Unlock()
}

func (c *Conn) settleReset(status *protocol.ModemStatus) bool {
	c.resetMu.Lock()
	ch := c.resetWaiter
	c.resetWaiter = nil
	c.resetMu.Unlock()

	if ch == nil {
		return false
	}

	ch <- status
	return true
}
