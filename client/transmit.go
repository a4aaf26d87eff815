package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

// MaxPayload is the largest payload that fits a single transmit request on
// every supported module.
const MaxPayload = 100

// Transmit sends payload to dest and waits for the module to report the
// delivery status. The frame variant depends on the hardware version, so
// the session must have been started.
func (c *Conn) Transmit(ctx context.Context, dest protocol.Address64, payload []byte) error {
	hw, err := c.requireHardware()
	if err != nil {
		return err
	}

	if len(payload) > MaxPayload {
		return ErrPayloadTooLarge
	}

	var status protocol.DeliveryStatus

	if hw.IsLegacy() {
		resp, err := Query[*protocol.TxStatus](ctx, c, &protocol.TxRequest64{
			Destination: dest,
			Data:        payload,
		})
		if err != nil {
			return err
		}

		status = resp.Status
	} else {
		resp, err := Query[*protocol.TransmitStatus](ctx, c, &protocol.TransmitRequest{
			Destination:   dest,
			Destination16: protocol.UnknownAddress16,
			Data:          payload,
		})
		if err != nil {
			return err
		}

		status = resp.Status
	}

	if status != protocol.DeliverySuccess {
		return &DeliveryError{Destination: dest, Status: status}
	}

	c.log.Debug("Transmitted",
		zap.Stringer("destination", dest),
		zap.Int("bytes", len(payload)))

	return nil
}
