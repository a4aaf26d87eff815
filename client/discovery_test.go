package client_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/meshlink/client"
	"github.com/luma/meshlink/internal/radiosim"
	"github.com/luma/meshlink/protocol"
)

var _ = Describe("Discover", func() {
	var (
		conn *client.Conn
		dev  *radiosim.Device
		ctx  context.Context

		mu    sync.Mutex
		nodes []client.Node
		sub   *client.Subscription
	)

	discovered := func() []client.Node {
		mu.Lock()
		defer mu.Unlock()

		return append([]client.Node(nil), nodes...)
	}

	BeforeEach(func() {
		ctx = context.Background()
		conn, dev = makeConn(radiosim.HardwareSeries2, client.Options{
			DiscoveryWindow: 300 * time.Millisecond,
		})

		nodes = nil
		sub = conn.OnNodeDiscovered(func(n client.Node) {
			mu.Lock()
			nodes = append(nodes, n)
			mu.Unlock()
		})
	})

	AfterEach(func() {
		sub.Unsubscribe()
		closeConn(conn, dev)
	})

	It("reports every node that answers within the window except the coordinator", func() {
		dev.SetDiscovery(
			radiosim.DiscoveryReply{
				Delay:          10 * time.Millisecond,
				NetworkAddress: 0x0000,
				Address:        0x0013A20040000000,
				SignalLoss:     0x20,
				Identifier:     "COORD",
			},
			radiosim.DiscoveryReply{
				Delay:          20 * time.Millisecond,
				NetworkAddress: 0x1001,
				Address:        0x0013A20040000001,
				SignalLoss:     0x20,
				Identifier:     "near",
			},
			radiosim.DiscoveryReply{
				Delay:          40 * time.Millisecond,
				NetworkAddress: 0x1002,
				Address:        0x0013A20040000002,
				SignalLoss:     0x38,
				Identifier:     "middle",
			},
			radiosim.DiscoveryReply{
				Delay:          60 * time.Millisecond,
				NetworkAddress: 0x1003,
				Address:        0x0013A20040000003,
				SignalLoss:     0x50,
				Identifier:     "far",
			},
			radiosim.DiscoveryReply{
				Delay:          600 * time.Millisecond,
				NetworkAddress: 0x1004,
				Address:        0x0013A20040000004,
				SignalLoss:     0x20,
				Identifier:     "late",
			},
		)

		stream, err := conn.Discover(ctx)
		Expect(err).To(Succeed())
		Eventually(stream.Done()).Should(BeClosed())

		Expect(discovered()).To(Equal([]client.Node{
			{
				Address:        0x0013A20040000001,
				NetworkAddress: 0x1001,
				Identifier:     "near",
				SignalLoss:     0x20,
				Strength:       client.SignalHigh,
			},
			{
				Address:        0x0013A20040000002,
				NetworkAddress: 0x1002,
				Identifier:     "middle",
				SignalLoss:     0x38,
				Strength:       client.SignalMedium,
			},
			{
				Address:        0x0013A20040000003,
				NetworkAddress: 0x1003,
				Identifier:     "far",
				SignalLoss:     0x50,
				Strength:       client.SignalLow,
			},
		}))

		// The late reply arrives after the window and is dropped.
		Consistently(func() int { return len(discovered()) }, 500*time.Millisecond).Should(Equal(3))
		Expect(conn.Outstanding()).To(BeZero())
	})

	It("ignores empty and malformed replies", func() {
		stream, err := conn.Discover(ctx)
		Expect(err).To(Succeed())

		dev.Emit(&protocol.ATCommandResponse{FrameID: stream.FrameID(), Command: protocol.CmdNodeDiscover})
		dev.Emit(&protocol.ATCommandResponse{FrameID: stream.FrameID(), Command: protocol.CmdNodeDiscover, Data: []byte{0x10, 0x01}})
		dev.Emit(&protocol.ATCommandResponse{
			FrameID: stream.FrameID(),
			Command: protocol.CmdNodeDiscover,
			Data: radiosim.DiscoveryReply{
				NetworkAddress: 0x1001,
				Address:        0x0013A20040000001,
				SignalLoss:     0x20,
				Identifier:     "ok",
			}.Data(),
		})

		Eventually(stream.Done()).Should(BeClosed())
		Expect(stream.Count()).To(Equal(3))
		Expect(discovered()).To(HaveLen(1))
		Expect(discovered()[0].Identifier).To(Equal("ok"))
	})

	It("completes with no notifications when nobody answers", func() {
		stream, err := conn.Discover(ctx)
		Expect(err).To(Succeed())

		Eventually(stream.Done()).Should(BeClosed())
		Expect(discovered()).To(BeEmpty())
	})

	It("stops notifying unsubscribed observers", func() {
		dev.SetDiscovery(radiosim.DiscoveryReply{
			Delay:          10 * time.Millisecond,
			NetworkAddress: 0x1001,
			Address:        0x0013A20040000001,
			SignalLoss:     0x20,
			Identifier:     "near",
		})

		sub.Unsubscribe()

		stream, err := conn.Discover(ctx)
		Expect(err).To(Succeed())
		Eventually(stream.Done()).Should(BeClosed())

		Expect(discovered()).To(BeEmpty())
	})
})

var _ = Describe("Discover with the default window", func() {
	It("reports three nodes answering over four seconds, then stops", func() {
		conn, dev := makeConn(radiosim.HardwareSeries1, client.Options{})
		defer closeConn(conn, dev)

		var (
			mu    sync.Mutex
			names []string
		)

		sub := conn.OnNodeDiscovered(func(n client.Node) {
			mu.Lock()
			names = append(names, n.Identifier)
			mu.Unlock()
		})
		defer sub.Unsubscribe()

		dev.SetDiscovery(
			radiosim.DiscoveryReply{Delay: 500 * time.Millisecond, NetworkAddress: 0x0000, Address: 0x0013A20040000000, SignalLoss: 0x20, Identifier: "COORD"},
			radiosim.DiscoveryReply{Delay: 1 * time.Second, NetworkAddress: 0x1001, Address: 0x0013A20040000001, SignalLoss: 0x20, Identifier: "one"},
			radiosim.DiscoveryReply{Delay: 2500 * time.Millisecond, NetworkAddress: 0x1002, Address: 0x0013A20040000002, SignalLoss: 0x40, Identifier: "two"},
			radiosim.DiscoveryReply{Delay: 4 * time.Second, NetworkAddress: 0x1003, Address: 0x0013A20040000003, SignalLoss: 0x58, Identifier: "three"},
		)

		start := time.Now()

		stream, err := conn.Discover(context.Background())
		Expect(err).To(Succeed())
		Eventually(stream.Done(), 8*time.Second).Should(BeClosed())

		Expect(time.Since(start)).To(BeNumerically(">=", client.DefaultDiscoveryWindow))

		mu.Lock()
		defer mu.Unlock()
		Expect(names).To(Equal([]string{"one", "two", "three"}))
	})
})
