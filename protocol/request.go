package protocol

// FrameID correlates a command with its response. Zero asks the device not
// to respond at all, so it is never used for a request that expects one.
type FrameID uint8

// Request is a command frame that can be sent to the device. The frame id
// is only known once the request is about to be written, so it is supplied
// at marshal time.
type Request interface {
	GetFrameType() FrameType
	MarshalFrame(id FrameID) []byte
}

// ATCommand reads (empty Parameter) or writes a local device setting.
type ATCommand struct {
	Command   Command
	Parameter []byte
}

func (c *ATCommand) GetFrameType() FrameType {
	return FrameATCommand
}

func (c *ATCommand) MarshalFrame(id FrameID) []byte {
	b := make([]byte, 0, 4+len(c.Parameter))
	b = append(b, byte(FrameATCommand), byte(id))
	b = append(b, c.Command...)
	return append(b, c.Parameter...)
}

// TxRequest64 is the legacy transmit request addressed by 64-bit address.
type TxRequest64 struct {
	Destination Address64
	Options     byte
	Data        []byte
}

func (t *TxRequest64) GetFrameType() FrameType {
	return FrameTxRequest64
}

func (t *TxRequest64) MarshalFrame(id FrameID) []byte {
	b := make([]byte, 0, 11+len(t.Data))
	b = append(b, byte(FrameTxRequest64), byte(id))
	b = append(b, t.Destination.Bytes()...)
	b = append(b, t.Options)
	return append(b, t.Data...)
}

// TransmitRequest is the extended transmit request used by mesh firmwares.
type TransmitRequest struct {
	Destination   Address64
	Destination16 Address16
	Radius        byte
	Options       byte
	Data          []byte
}

func (t *TransmitRequest) GetFrameType() FrameType {
	return FrameTransmitRequest
}

func (t *TransmitRequest) MarshalFrame(id FrameID) []byte {
	b := make([]byte, 0, 14+len(t.Data))
	b = append(b, byte(FrameTransmitRequest), byte(id))
	b = append(b, t.Destination.Bytes()...)
	b = append(b, t.Destination16.Bytes()...)
	b = append(b, t.Radius, t.Options)
	return append(b, t.Data...)
}

var _ Request = (*ATCommand)(nil)
var _ Request = (*TxRequest64)(nil)
var _ Request = (*TransmitRequest)(nil)
