package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

// HardwareVersion is the module's HV value. It decides which frame
// variants are used for transmitting and for the coordinator role.
type HardwareVersion uint16

// IsLegacy returns true for the 802.15.4 "Series 1" families, which only
// understand the 64-bit TX request and the two state coordinator enable.
func (h HardwareVersion) IsLegacy() bool {
	family := byte(h >> 8)
	return family == 0x17 || family == 0x18
}

func (h HardwareVersion) String() string {
	return fmt.Sprintf("%04X", uint16(h))
}

// Role is the part a module plays in the network.
type Role int

const (
	RoleEndDevice Role = iota
	RoleRouter
	RoleCoordinator
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleRouter:
		return "router"
	default:
		return "end device"
	}
}

const maxIdentifierLength = 20

// Start brings a session up: the module is reset and its hardware version
// probed.
func (c *Conn) Start(ctx context.Context) error {
	if _, err := c.Reset(ctx); err != nil {
		return err
	}

	hw, err := c.ProbeHardwareVersion(ctx)
	if err != nil {
		return err
	}

	c.log.Info("Session started",
		zap.Stringer("hardwareVersion", hw),
		zap.Bool("legacy", hw.IsLegacy()))

	return nil
}

// Reset performs a software reset and waits for the modem status the
// module sends once it has restarted. Only one reset may be in progress at
// a time, a second one fails with ErrResetInProgress.
func (c *Conn) Reset(ctx context.Context) (*protocol.ModemStatus, error) {
	ch, err := c.armReset()
	if err != nil {
		return nil, err
	}
	defer c.disarmReset(ch)

	if _, err := c.at(ctx, protocol.CmdSoftwareReset, nil); err != nil {
		return nil, fmt.Errorf("Failed to reset: %w", err)
	}

	timer := time.NewTimer(c.resetTimeout)
	defer timer.Stop()

	select {
	case status := <-ch:
		c.log.Info("Module reset", zap.Stringer("status", status.Status))
		return status, nil

	case <-timer.C:
		return nil, &TimeoutError{Request: "reset", After: c.resetTimeout}

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-c.done:
		return nil, ErrClosed
	}
}

// ProbeHardwareVersion asks the module for its hardware version. The first
// successful answer is cached for the lifetime of the connection.
func (c *Conn) ProbeHardwareVersion(ctx context.Context) (HardwareVersion, error) {
	if hw, ok := c.HardwareVersion(); ok {
		return hw, nil
	}

	resp, err := c.at(ctx, protocol.CmdHardwareVersion, nil)
	if err != nil {
		return 0, err
	}

	v, err := decodeUint(resp, 2)
	if err != nil {
		return 0, err
	}

	c.hwMu.Lock()
	defer c.hwMu.Unlock()

	if !c.hwKnown {
		c.hw = HardwareVersion(v)
		c.hwKnown = true
	}

	return c.hw, nil
}

// HardwareVersion returns the cached hardware version, if it was probed.
func (c *Conn) HardwareVersion() (HardwareVersion, bool) {
	c.hwMu.RLock()
	defer c.hwMu.RUnlock()

	return c.hw, c.hwKnown
}

func (c *Conn) requireHardware() (HardwareVersion, error) {
	hw, ok := c.HardwareVersion()
	if !ok {
		return 0, ErrHardwareUnknown
	}

	return hw, nil
}

// Role reads the module's coordinator enable setting. Legacy modules are
// either end devices (0) or coordinators (1); newer ones are routers (0),
// coordinators (1) or end devices (2).
func (c *Conn) Role(ctx context.Context) (Role, error) {
	hw, err := c.requireHardware()
	if err != nil {
		return 0, err
	}

	resp, err := c.at(ctx, protocol.CmdCoordinator, nil)
	if err != nil {
		return 0, err
	}

	if len(resp.Data) == 0 {
		return 0, &ProtocolError{Request: string(protocol.CmdCoordinator), Reason: "no role in response"}
	}

	v := resp.Data[len(resp.Data)-1]

	if hw.IsLegacy() {
		switch v {
		case 0:
			return RoleEndDevice, nil
		case 1:
			return RoleCoordinator, nil
		}
	} else {
		switch v {
		case 0:
			return RoleRouter, nil
		case 1:
			return RoleCoordinator, nil
		case 2:
			return RoleEndDevice, nil
		}
	}

	return 0, &ProtocolError{
		Request: string(protocol.CmdCoordinator),
		Reason:  fmt.Sprintf("unknown role 0x%02X for hardware %s", v, hw),
	}
}

func (c *Conn) IsCoordinator(ctx context.Context) (bool, error) {
	role, err := c.Role(ctx)
	if err != nil {
		return false, err
	}

	return role == RoleCoordinator, nil
}

// SetCoordinator enables or disables the coordinator role. Disabling makes
// a legacy module an end device and any other module a router.
func (c *Conn) SetCoordinator(ctx context.Context, enable bool) error {
	if _, err := c.requireHardware(); err != nil {
		return err
	}

	var v byte
	if enable {
		v = 1
	}

	_, err := c.at(ctx, protocol.CmdCoordinator, []byte{v})
	return err
}

func (c *Conn) NodeIdentifier(ctx context.Context) (string, error) {
	resp, err := c.at(ctx, protocol.CmdNodeIdentifier, nil)
	if err != nil {
		return "", err
	}

	return string(resp.Data), nil
}

func (c *Conn) SetNodeIdentifier(ctx context.Context, ni string) error {
	if len(ni) > maxIdentifierLength {
		return ErrInvalidIdentifier
	}

	for i := 0; i < len(ni); i++ {
		if ni[i] < 0x20 || ni[i] > 0x7E {
			return ErrInvalidIdentifier
		}
	}

	_, err := c.at(ctx, protocol.CmdNodeIdentifier, []byte(ni))
	return err
}

// Address returns the module's 64-bit address. The high and low halves
// are separate queries.
func (c *Conn) Address(ctx context.Context) (protocol.Address64, error) {
	high, err := c.at(ctx, protocol.CmdSerialHigh, nil)
	if err != nil {
		return 0, err
	}

	sh, err := decodeUint(high, 4)
	if err != nil {
		return 0, err
	}

	low, err := c.at(ctx, protocol.CmdSerialLow, nil)
	if err != nil {
		return 0, err
	}

	sl, err := decodeUint(low, 4)
	if err != nil {
		return 0, err
	}

	return protocol.Address64(sh<<32 | sl), nil
}

func (c *Conn) NetworkAddress(ctx context.Context) (protocol.Address16, error) {
	resp, err := c.at(ctx, protocol.CmdNetworkAddress, nil)
	if err != nil {
		return 0, err
	}

	v, err := decodeUint(resp, 2)
	if err != nil {
		return 0, err
	}

	return protocol.Address16(v), nil
}

// WriteChanges makes the module save its current settings to non-volatile
// memory.
func (c *Conn) WriteChanges(ctx context.Context) error {
	_, err := c.at(ctx, protocol.CmdWrite, nil)
	return err
}

// at sends an AT command and fails on a non-OK status.
func (c *Conn) at(ctx context.Context, cmd protocol.Command, param []byte) (*protocol.ATCommandResponse, error) {
	resp, err := Query[*protocol.ATCommandResponse](ctx, c, &protocol.ATCommand{Command: cmd, Parameter: param})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return resp, &StatusError{Command: cmd, Status: resp.Status}
	}

	return resp, nil
}

// decodeUint reads a big endian numeric AT value. Modules drop leading
// zero bytes, so anything from 1 to size bytes is valid.
func decodeUint(resp *protocol.ATCommandResponse, size int) (uint64, error) {
	if len(resp.Data) == 0 || len(resp.Data) > size {
		return 0, &ProtocolError{
			Request: string(resp.Command),
			Reason:  fmt.Sprintf("expected 1 to %d bytes, got %d", size, len(resp.Data)),
		}
	}

	var v uint64
	for _, b := range resp.Data {
		v = v<<8 | uint64(b)
	}

	return v, nil
}
