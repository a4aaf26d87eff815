package client

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
)

// Discover starts a node discovery. Every node that answers within the
// discovery window, apart from the coordinator, is passed to the
// OnNodeDiscovered subscribers. It returns once the request is sent; the
// returned stream's Done channel closes when the window is over.
func (c *Conn) Discover(ctx context.Context, opts ...StreamOption) (*Stream, error) {
	req := &protocol.ATCommand{Command: protocol.CmdNodeDiscover}

	return c.QueryStream(ctx, req, c.discoveryWindow, func(resp protocol.Response) {
		at, ok := resp.(*protocol.ATCommandResponse)
		if !ok || !at.OK() {
			c.log.Warn("Ignoring discovery reply", zap.Stringer("type", resp.GetFrameType()))
			return
		}

		// Some firmwares end a discovery with an empty reply.
		if len(at.Data) == 0 {
			return
		}

		node, err := parseNode(at.Data)
		if err != nil {
			c.log.Warn("Ignoring malformed discovery reply", zap.Error(err))
			return
		}

		if node.NetworkAddress == protocol.CoordinatorAddress {
			return
		}

		c.log.Info("Node discovered",
			zap.Stringer("address", node.Address),
			zap.String("identifier", node.Identifier),
			zap.Stringer("strength", node.Strength))

		c.nodes.publish(node)
	}, opts...)
}

// parseNode reads a discovery reply:
//
//	<MY:2> <SH:4> <SL:4> <DB:1> <NI...> 0x00 [firmware specific fields]
func parseNode(data []byte) (Node, error) {
	if len(data) < 11 {
		return Node{}, &ProtocolError{
			Request: string(protocol.CmdNodeDiscover),
			Reason:  fmt.Sprintf("reply is %d bytes, need at least 11", len(data)),
		}
	}

	loss := data[10]

	ni := data[11:]
	if i := bytes.IndexByte(ni, 0); i >= 0 {
		ni = ni[:i]
	}

	return Node{
		NetworkAddress: protocol.Address16(binary.BigEndian.Uint16(data[0:2])),
		Address:        protocol.Address64(binary.BigEndian.Uint64(data[2:10])),
		Identifier:     string(ni),
		SignalLoss:     loss,
		Strength:       ClassifySignal(loss),
	}, nil
}
