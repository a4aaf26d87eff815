package protocol

// Marshaler is implemented by every frame the device sends, so tooling can
// produce device side traffic.
type Marshaler interface {
	Marshal() []byte
}

// ModemStatus is sent by the device, unprompted, whenever its own state
// changes (reset, joining or leaving a network, ...).
type ModemStatus struct {
	Status ModemStatusCode
}

func (m *ModemStatus) GetFrameType() FrameType {
	return FrameModemStatus
}

// RxPacket64 carries data received from a node addressed by its 64-bit
// address.
type RxPacket64 struct {
	Source  Address64
	RSSI    byte
	Options byte
	Data    []byte
}

func (r *RxPacket64) GetFrameType() FrameType {
	return FrameRxPacket64
}

// RxPacket16 carries data received from a node addressed by its 16-bit
// address.
type RxPacket16 struct {
	Source  Address16
	RSSI    byte
	Options byte
	Data    []byte
}

func (r *RxPacket16) GetFrameType() FrameType {
	return FrameRxPacket16
}

func (m *ModemStatus) Marshal() []byte {
	return []byte{byte(FrameModemStatus), byte(m.Status)}
}

func (r *RxPacket64) Marshal() []byte {
	b := make([]byte, 0, 11+len(r.Data))
	b = append(b, byte(FrameRxPacket64))
	b = append(b, r.Source.Bytes()...)
	b = append(b, r.RSSI, r.Options)
	return append(b, r.Data...)
}

func (r *RxPacket16) Marshal() []byte {
	b := make([]byte, 0, 5+len(r.Data))
	b = append(b, byte(FrameRxPacket16))
	b = append(b, r.Source.Bytes()...)
	b = append(b, r.RSSI, r.Options)
	return append(b, r.Data...)
}

var _ Frame = (*ModemStatus)(nil)
var _ Frame = (*RxPacket64)(nil)
var _ Frame = (*RxPacket16)(nil)

var _ Marshaler = (*ATCommandResponse)(nil)
var _ Marshaler = (*TxStatus)(nil)
var _ Marshaler = (*TransmitStatus)(nil)
var _ Marshaler = (*ModemStatus)(nil)
var _ Marshaler = (*RxPacket64)(nil)
var _ Marshaler = (*RxPacket16)(nil)
