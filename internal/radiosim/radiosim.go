// Package radiosim simulates a radio module in API mode. It implements
// transport.Transport so a client can be tested without hardware.
package radiosim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luma/meshlink/protocol"
)

const (
	HardwareSeries1 uint16 = 0x1744
	HardwareSeries2 uint16 = 0x1944
)

var ErrClosed = errors.New("Simulated device is closed")

// Request is a request the device received.
type Request struct {
	FrameID protocol.FrameID
	Request protocol.Request
}

// DiscoveryReply is one node answering a discovery, Delay after the
// discovery request.
type DiscoveryReply struct {
	Delay          time.Duration
	NetworkAddress protocol.Address16
	Address        protocol.Address64
	SignalLoss     byte
	Identifier     string
}

// Data returns the reply as it appears in an ND response.
func (d DiscoveryReply) Data() []byte {
	b := make([]byte, 0, 12+len(d.Identifier))
	b = append(b, d.NetworkAddress.Bytes()...)
	b = append(b, d.Address.Bytes()...)
	b = append(b, d.SignalLoss)
	b = append(b, d.Identifier...)
	return append(b, 0x00)
}

// Device is a scriptable simulated module. The zero value is not usable,
// construct it with New.
type Device struct {
	escaped bool

	handlerMu sync.RWMutex
	handler   func(protocol.Frame)

	mu       sync.Mutex
	decoder  *protocol.Decoder
	settings map[protocol.Command][]byte
	status   map[protocol.Command]protocol.ATStatus
	dropped  map[protocol.Command]bool
	received []Request

	resetDelay  time.Duration
	silentReset bool
	delivery    protocol.DeliveryStatus
	discovery   []DiscoveryReply

	holding bool
	held    []protocol.Marshaler

	outbox chan protocol.Marshaler
	done   chan struct{}
	wg     sync.WaitGroup
}

func New(hardware uint16, escaped bool) *Device {
	return &Device{
		escaped: escaped,
		decoder: protocol.NewDecoder(escaped),
		settings: map[protocol.Command][]byte{
			protocol.CmdHardwareVersion: {byte(hardware >> 8), byte(hardware)},
			protocol.CmdCoordinator:     {0x00},
			protocol.CmdNodeIdentifier:  []byte("SIM"),
			protocol.CmdSerialHigh:      {0x00, 0x13, 0xA2, 0x00},
			protocol.CmdSerialLow:       {0x40, 0xA1, 0xB2, 0xC3},
			protocol.CmdNetworkAddress:  {0x00, 0x00},
		},
		status:     make(map[protocol.Command]protocol.ATStatus),
		dropped:    make(map[protocol.Command]bool),
		resetDelay: 20 * time.Millisecond,
		outbox:     make(chan protocol.Marshaler, 256),
		done:       make(chan struct{}),
	}
}

func (d *Device) Open(ctx context.Context) error {
	d.wg.Add(1)
	go d.receiveLoop()
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.done:
	default:
		close(d.done)
	}

	return nil
}

// Wait blocks until the receive loop has stopped after Close.
func (d *Device) Wait() {
	d.wg.Wait()
}

func (d *Device) SetFrameHandler(handler func(protocol.Frame)) {
	d.handlerMu.Lock()
	d.handler = handler
	d.handlerMu.Unlock()
}

// Send is the device receiving bytes from the client.
func (d *Device) Send(data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	select {
	case <-d.done:
		return ErrClosed
	default:
	}

	frames, err := d.decoder.Write(data)
	if err != nil {
		return err
	}

	for _, f := range frames {
		id, req, err := protocol.UnmarshalRequest(f)
		if err != nil {
			return err
		}

		d.received = append(d.received, Request{FrameID: id, Request: req})
		d.handle(id, req)
	}

	return nil
}

// handle must be called with mu held.
func (d *Device) handle(id protocol.FrameID, req protocol.Request) {
	switch r := req.(type) {
	case *protocol.ATCommand:
		if d.dropped[r.Command] {
			return
		}

		if status, ok := d.status[r.Command]; ok {
			d.respond(&protocol.ATCommandResponse{FrameID: id, Command: r.Command, Status: status})
			return
		}

		switch r.Command {
		case protocol.CmdSoftwareReset:
			d.respond(&protocol.ATCommandResponse{FrameID: id, Command: r.Command})
			if !d.silentReset {
				d.later(d.resetDelay, &protocol.ModemStatus{Status: protocol.ModemWatchdogReset})
			}

		case protocol.CmdNodeDiscover:
			for _, reply := range d.discovery {
				d.later(reply.Delay, &protocol.ATCommandResponse{
					FrameID: id,
					Command: r.Command,
					Data:    reply.Data(),
				})
			}

		case protocol.CmdWrite:
			d.respond(&protocol.ATCommandResponse{FrameID: id, Command: r.Command})

		default:
			if len(r.Parameter) > 0 {
				d.settings[r.Command] = append([]byte(nil), r.Parameter...)
				d.respond(&protocol.ATCommandResponse{FrameID: id, Command: r.Command})
				return
			}

			value, ok := d.settings[r.Command]
			if !ok {
				d.respond(&protocol.ATCommandResponse{
					FrameID: id,
					Command: r.Command,
					Status:  protocol.ATStatusInvalidCommand,
				})
				return
			}

			d.respond(&protocol.ATCommandResponse{
				FrameID: id,
				Command: r.Command,
				Data:    append([]byte(nil), value...),
			})
		}

	case *protocol.TxRequest64:
		d.respond(&protocol.TxStatus{FrameID: id, Status: d.delivery})

	case *protocol.TransmitRequest:
		d.respond(&protocol.TransmitStatus{
			FrameID:       id,
			Destination16: 0x1234,
			Status:        d.delivery,
		})
	}
}

// respond must be called with mu held.
func (d *Device) respond(frame protocol.Marshaler) {
	if d.holding {
		d.held = append(d.held, frame)
		return
	}

	d.outbox <- frame
}

func (d *Device) later(delay time.Duration, frame protocol.Marshaler) {
	time.AfterFunc(delay, func() {
		d.Emit(frame)
	})
}

// Emit sends a frame to the client as if the device produced it.
func (d *Device) Emit(frame protocol.Marshaler) {
	select {
	case <-d.done:
	case d.outbox <- frame:
	}
}

// receiveLoop delivers frames to the handler one at a time, the way a real
// transport's read goroutine would. Frames go through the codec so the
// client sees exactly what it would see from the wire.
func (d *Device) receiveLoop() {
	defer d.wg.Done()

	decoder := protocol.NewDecoder(d.escaped)

	for {
		select {
		case <-d.done:
			return

		case frame := <-d.outbox:
			frames, err := decoder.Write(protocol.Encode(frame.Marshal(), d.escaped))
			if err != nil {
				continue
			}

			d.handlerMu.RLock()
			handler := d.handler
			d.handlerMu.RUnlock()

			for _, data := range frames {
				f, err := protocol.Unmarshal(data)
				if err != nil || handler == nil {
					continue
				}

				handler(f)
			}
		}
	}
}

// Hold queues responses instead of sending them, until Release.
func (d *Device) Hold() {
	d.mu.Lock()
	d.holding = true
	d.mu.Unlock()
}

// Release sends every held response, last one first when reversed is set.
func (d *Device) Release(reversed bool) {
	d.mu.Lock()
	held := d.held
	d.held = nil
	d.holding = false
	d.mu.Unlock()

	for i := range held {
		frame := held[i]
		if reversed {
			frame = held[len(held)-1-i]
		}

		d.Emit(frame)
	}
}

// Held returns the number of responses waiting for Release.
func (d *Device) Held() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.held)
}

// Drop makes the device ignore cmd.
func (d *Device) Drop(cmd protocol.Command) {
	d.mu.Lock()
	d.dropped[cmd] = true
	d.mu.Unlock()
}

// SetStatus makes the device answer cmd with status and no data.
func (d *Device) SetStatus(cmd protocol.Command, status protocol.ATStatus) {
	d.mu.Lock()
	d.status[cmd] = status
	d.mu.Unlock()
}

// Set stores the value the device answers cmd with.
func (d *Device) Set(cmd protocol.Command, value []byte) {
	d.mu.Lock()
	d.settings[cmd] = value
	d.mu.Unlock()
}

func (d *Device) Setting(cmd protocol.Command) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.settings[cmd]
}

// SilentReset stops the device from announcing that it reset.
func (d *Device) SilentReset() {
	d.mu.Lock()
	d.silentReset = true
	d.mu.Unlock()
}

func (d *Device) SetResetDelay(delay time.Duration) {
	d.mu.Lock()
	d.resetDelay = delay
	d.mu.Unlock()
}

// SetDeliveryStatus sets the status transmissions are answered with.
func (d *Device) SetDeliveryStatus(status protocol.DeliveryStatus) {
	d.mu.Lock()
	d.delivery = status
	d.mu.Unlock()
}

// SetDiscovery sets the replies to the next discovery.
func (d *Device) SetDiscovery(replies ...DiscoveryReply) {
	d.mu.Lock()
	d.discovery = replies
	d.mu.Unlock()
}

// Requests returns every request received so far.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Request(nil), d.received...)
}

// LastRequest returns the most recent request, or nil.
func (d *Device) LastRequest() protocol.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.received) == 0 {
		return nil
	}

	return d.received[len(d.received)-1].Request
}
