package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/luma/meshlink/protocol"
)

var (
	ErrTimeout           = errors.New("Timed out waiting for the device")
	ErrCommandStatus     = errors.New("Device rejected the command")
	ErrProtocol          = errors.New("Device response violates the protocol")
	ErrDelivery          = errors.New("Device failed to deliver the transmission")
	ErrResetInProgress   = errors.New("A reset is already in progress")
	ErrHardwareUnknown   = errors.New("Hardware version is unknown, start the session first")
	ErrPayloadTooLarge   = errors.New("Payload exceeds the maximum transmit size")
	ErrInvalidIdentifier = errors.New("Node identifier must be at most 20 printable ASCII characters")
	ErrClosed            = errors.New("Connection is closed")
	ErrNoTransport       = errors.New("A transport is required")
)

// TimeoutError is returned when no correlated response, or for a reset no
// modem status, arrived in time. The caller may retry.
type TimeoutError struct {
	FrameID protocol.FrameID
	Request string
	After   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s (frame %d) got no response after %s: %s",
		e.Request, e.FrameID, e.After, ErrTimeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// StatusError is returned when the device answered an AT command with a
// non-OK status.
type StatusError struct {
	Command protocol.Command
	Status  protocol.ATStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %s (0x%02X): %s",
		e.Command, e.Status, byte(e.Status), ErrCommandStatus)
}

func (e *StatusError) Unwrap() error {
	return ErrCommandStatus
}

// ProtocolError is returned when a response arrived but could not be
// interpreted as the response the request expects.
type ProtocolError struct {
	Request string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Request, e.Reason, ErrProtocol)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// DeliveryError is returned when the device reports that a transmission
// was not delivered.
type DeliveryError struct {
	Destination protocol.Address64
	Status      protocol.DeliveryStatus
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("Transmission to %s failed with %s (0x%02X): %s",
		e.Destination, e.Status, byte(e.Status), ErrDelivery)
}

func (e *DeliveryError) Unwrap() error {
	return ErrDelivery
}
