package client

// SignalStrength is a coarse link quality derived from the signal loss
// (-dBm) a module reports for a node.
type SignalStrength int

const (
	SignalLow SignalStrength = iota
	SignalMedium
	SignalHigh
)

// The reportable loss range is 0x17 (-23dBm) to 0x5C (-92dBm). The two
// thresholds split it into three equal bands.
const (
	MinSignalLoss     byte = 0x17
	MaxSignalLoss     byte = 0x5C
	LowLossThreshold       = MinSignalLoss + (MaxSignalLoss-MinSignalLoss)/3
	HighLossThreshold      = MinSignalLoss + 2*(MaxSignalLoss-MinSignalLoss)/3
)

// ClassifySignal maps a signal loss to a SignalStrength. Less loss means a
// stronger signal.
func ClassifySignal(loss byte) SignalStrength {
	switch {
	case loss <= LowLossThreshold:
		return SignalHigh
	case loss >= HighLossThreshold:
		return SignalLow
	default:
		return SignalMedium
	}
}

func (s SignalStrength) String() string {
	switch s {
	case SignalHigh:
		return "high"
	case SignalMedium:
		return "medium"
	default:
		return "low"
	}
}

func (s SignalStrength) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
