package transport_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/meshlink/protocol"
	"github.com/luma/meshlink/transport"
)

var _ = Describe("transport", func() {
	Describe("New", func() {
		It("uses TCP when a bridge address is configured", func() {
			t, err := transport.New(transport.Options{Address: "127.0.0.1:1", Port: "/dev/ttyUSB0"})
			Expect(err).To(Succeed())
			Expect(t).To(BeAssignableToTypeOf(&transport.TCP{}))
		})

		It("uses the serial port otherwise", func() {
			t, err := transport.New(transport.Options{Port: "/dev/ttyUSB0"})
			Expect(err).To(Succeed())
			Expect(t).To(BeAssignableToTypeOf(&transport.Serial{}))
		})

		It("fails when there's nothing to connect to", func() {
			_, err := transport.New(transport.Options{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("TCP", func() {
		var (
			listener net.Listener
			bridge   chan net.Conn
			tcp      *transport.TCP
			frames   chan protocol.Frame
		)

		BeforeEach(func() {
			var err error
			listener, err = net.Listen("tcp", "127.0.0.1:0")
			Expect(err).To(Succeed())

			bridge = make(chan net.Conn, 1)
			go func() {
				conn, err := listener.Accept()
				if err == nil {
					bridge <- conn
				}
			}()

			tcp = makeTCPTransport(listener.Addr().String())

			frames = make(chan protocol.Frame, 8)
			tcp.SetFrameHandler(func(f protocol.Frame) { frames <- f })

			Expect(tcp.Open(context.Background())).To(Succeed())
		})

		AfterEach(func() {
			Expect(tcp.Close()).To(Succeed())
			Expect(listener.Close()).To(Succeed())
		})

		It("writes frames to the bridge", func() {
			var conn net.Conn
			Eventually(bridge).Should(Receive(&conn))
			defer conn.Close()

			req := &protocol.ATCommand{Command: protocol.CmdNodeIdentifier}
			data := protocol.Encode(req.MarshalFrame(7), true)
			Expect(tcp.Send(data)).To(Succeed())

			buf := make([]byte, len(data))
			Expect(conn.SetReadDeadline(time.Now().Add(time.Second))).To(Succeed())
			_, err := conn.Read(buf)
			Expect(err).To(Succeed())
			Expect(buf).To(Equal(data))
		})

		It("decodes frames from the bridge, skipping malformed ones", func() {
			var conn net.Conn
			Eventually(bridge).Should(Receive(&conn))
			defer conn.Close()

			good := protocol.Encode((&protocol.ATCommandResponse{
				FrameID: 7,
				Command: protocol.CmdNodeIdentifier,
				Data:    []byte{0x7E, 0x11},
			}).Marshal(), true)

			bad := protocol.Encode((&protocol.ModemStatus{Status: protocol.ModemHardwareReset}).Marshal(), true)
			bad[len(bad)-1] ^= 0xFF

			_, err := conn.Write(append(append([]byte{0x00, 0x01}, bad...), good...))
			Expect(err).To(Succeed())

			var f protocol.Frame
			Eventually(frames).Should(Receive(&f))
			Expect(f).To(Equal(&protocol.ATCommandResponse{
				FrameID: 7,
				Command: protocol.CmdNodeIdentifier,
				Data:    []byte{0x7E, 0x11},
			}))
			Consistently(frames).ShouldNot(Receive())
		})

		It("refuses to send once closed", func() {
			Expect(tcp.Close()).To(Succeed())
			Expect(tcp.Send([]byte{0x7E})).To(MatchError(transport.ErrNotOpen))
		})
	})
})

func makeTCPTransport(addr string) *transport.TCP {
	log, err := zap.NewDevelopment()
	Expect(err).To(Succeed())

	return transport.NewTCP(transport.Options{
		Address:     addr,
		DialTimeout: time.Second,
		Escaped:     true,
		Trace:       true,
		Log:         log,
	})
}
