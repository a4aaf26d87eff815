package protocol

// Frame is any decoded inbound frame.
type Frame interface {
	GetFrameType() FrameType
}

// Response is an inbound frame that answers a request carrying the same
// frame id.
type Response interface {
	Frame
	GetFrameID() FrameID
}

type ATCommandResponse struct {
	FrameID FrameID
	Command Command
	Status  ATStatus
	Data    []byte
}

func (r *ATCommandResponse) GetFrameType() FrameType {
	return FrameATResponse
}

func (r *ATCommandResponse) GetFrameID() FrameID {
	return r.FrameID
}

// OK returns true if the device accepted the command.
func (r *ATCommandResponse) OK() bool {
	return r.Status == ATStatusOK
}

// TxStatus answers a legacy TxRequest64.
type TxStatus struct {
	FrameID FrameID
	Status  DeliveryStatus
}

func (r *TxStatus) GetFrameType() FrameType {
	return FrameTxStatus
}

func (r *TxStatus) GetFrameID() FrameID {
	return r.FrameID
}

// TransmitStatus answers an extended TransmitRequest.
type TransmitStatus struct {
	FrameID         FrameID
	Destination16   Address16
	Retries         byte
	Status          DeliveryStatus
	DiscoveryStatus byte
}

func (r *TransmitStatus) GetFrameType() FrameType {
	return FrameTransmitStatus
}

func (r *TransmitStatus) GetFrameID() FrameID {
	return r.FrameID
}

var _ Response = (*ATCommandResponse)(nil)
var _ Response = (*TxStatus)(nil)
var _ Response = (*TransmitStatus)(nil)

func (r *ATCommandResponse) Marshal() []byte {
	b := make([]byte, 0, 5+len(r.Data))
	b = append(b, byte(FrameATResponse), byte(r.FrameID))
	b = append(b, r.Command...)
	b = append(b, byte(r.Status))
	return append(b, r.Data...)
}

func (r *TxStatus) Marshal() []byte {
	return []byte{byte(FrameTxStatus), byte(r.FrameID), byte(r.Status)}
}

func (r *TransmitStatus) Marshal() []byte {
	b := []byte{byte(FrameTransmitStatus), byte(r.FrameID)}
	b = append(b, r.Destination16.Bytes()...)
	return append(b, r.Retries, byte(r.Status), r.DiscoveryStatus)
}
