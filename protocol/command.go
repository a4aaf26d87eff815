package protocol

type FrameType byte

const (
	FrameTxRequest64     FrameType = 0x00
	FrameATCommand       FrameType = 0x08
	FrameTransmitRequest FrameType = 0x10
	FrameRxPacket64      FrameType = 0x80
	FrameRxPacket16      FrameType = 0x81
	FrameATResponse      FrameType = 0x88
	FrameTxStatus        FrameType = 0x89
	FrameModemStatus     FrameType = 0x8A
	FrameTransmitStatus  FrameType = 0x8B
)

func (t FrameType) String() string {
	switch t {
	case FrameTxRequest64:
		return "TX_REQUEST_64"
	case FrameATCommand:
		return "AT_COMMAND"
	case FrameTransmitRequest:
		return "TRANSMIT_REQUEST"
	case FrameRxPacket64:
		return "RX_PACKET_64"
	case FrameRxPacket16:
		return "RX_PACKET_16"
	case FrameATResponse:
		return "AT_COMMAND_RESPONSE"
	case FrameTxStatus:
		return "TX_STATUS"
	case FrameModemStatus:
		return "MODEM_STATUS"
	case FrameTransmitStatus:
		return "TRANSMIT_STATUS"
	default:
		return "UNKNOWN"
	}
}

// Command is a two character AT command name.
type Command string

const (
	CmdSoftwareReset   Command = "FR"
	CmdHardwareVersion Command = "HV"
	CmdCoordinator     Command = "CE"
	CmdNodeIdentifier  Command = "NI"
	CmdSerialHigh      Command = "SH"
	CmdSerialLow       Command = "SL"
	CmdNetworkAddress  Command = "MY"
	CmdWrite           Command = "WR"
	CmdNodeDiscover    Command = "ND"
)

type ATStatus byte

const (
	ATStatusOK               ATStatus = 0x00
	ATStatusError            ATStatus = 0x01
	ATStatusInvalidCommand   ATStatus = 0x02
	ATStatusInvalidParameter ATStatus = 0x03
	ATStatusTxFailure        ATStatus = 0x04
)

func (s ATStatus) String() string {
	switch s {
	case ATStatusOK:
		return "OK"
	case ATStatusError:
		return "ERROR"
	case ATStatusInvalidCommand:
		return "INVALID_COMMAND"
	case ATStatusInvalidParameter:
		return "INVALID_PARAMETER"
	case ATStatusTxFailure:
		return "TX_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// DeliveryStatus is reported in TX status (legacy) and transmit status
// (extended) frames. Both variants use 0x00 for success.
type DeliveryStatus byte

const (
	DeliverySuccess          DeliveryStatus = 0x00
	DeliveryNoAck            DeliveryStatus = 0x01
	DeliveryCCAFailure       DeliveryStatus = 0x02
	DeliveryPurged           DeliveryStatus = 0x03
	DeliveryInvalidEndpoint  DeliveryStatus = 0x15
	DeliveryNetworkAckFailed DeliveryStatus = 0x21
	DeliveryNotJoined        DeliveryStatus = 0x22
	DeliveryAddressNotFound  DeliveryStatus = 0x24
	DeliveryRouteNotFound    DeliveryStatus = 0x25
	DeliveryPayloadTooLarge  DeliveryStatus = 0x74
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliverySuccess:
		return "SUCCESS"
	case DeliveryNoAck:
		return "NO_ACK"
	case DeliveryCCAFailure:
		return "CCA_FAILURE"
	case DeliveryPurged:
		return "PURGED"
	case DeliveryInvalidEndpoint:
		return "INVALID_ENDPOINT"
	case DeliveryNetworkAckFailed:
		return "NETWORK_ACK_FAILURE"
	case DeliveryNotJoined:
		return "NOT_JOINED"
	case DeliveryAddressNotFound:
		return "ADDRESS_NOT_FOUND"
	case DeliveryRouteNotFound:
		return "ROUTE_NOT_FOUND"
	case DeliveryPayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "UNKNOWN"
	}
}

type ModemStatusCode byte

const (
	ModemHardwareReset       ModemStatusCode = 0x00
	ModemWatchdogReset       ModemStatusCode = 0x01
	ModemJoinedNetwork       ModemStatusCode = 0x02
	ModemDisassociated       ModemStatusCode = 0x03
	ModemCoordinatorStarted  ModemStatusCode = 0x06
	ModemKeyUpdated          ModemStatusCode = 0x07
	ModemConfigChangedInJoin ModemStatusCode = 0x11
)

func (s ModemStatusCode) String() string {
	switch s {
	case ModemHardwareReset:
		return "HARDWARE_RESET"
	case ModemWatchdogReset:
		return "WATCHDOG_RESET"
	case ModemJoinedNetwork:
		return "JOINED_NETWORK"
	case ModemDisassociated:
		return "DISASSOCIATED"
	case ModemCoordinatorStarted:
		return "COORDINATOR_STARTED"
	case ModemKeyUpdated:
		return "KEY_UPDATED"
	case ModemConfigChangedInJoin:
		return "CONFIG_CHANGED_DURING_JOIN"
	default:
		return "UNKNOWN"
	}
}
