package client_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/meshlink/client"
	"github.com/luma/meshlink/internal/radiosim"
	"github.com/luma/meshlink/protocol"
)

var _ = Describe("OnDataReceived", func() {
	var (
		conn *client.Conn
		dev  *radiosim.Device
	)

	BeforeEach(func() {
		conn, dev = makeConn(radiosim.HardwareSeries1, client.Options{})
	})

	AfterEach(func() {
		closeConn(conn, dev)
	})

	It("publishes packets from 64-bit and 16-bit addressed senders", func() {
		received := make(chan client.DataReceived, 2)
		sub := conn.OnDataReceived(func(d client.DataReceived) { received <- d })
		defer sub.Unsubscribe()

		dev.Emit(&protocol.RxPacket64{Source: 0x0013A20040000001, RSSI: 0x28, Data: []byte("long")})
		dev.Emit(&protocol.RxPacket16{Source: 0x1001, RSSI: 0x30, Options: 0x02, Data: []byte("short")})

		var d client.DataReceived
		Eventually(received).Should(Receive(&d))
		Expect(d.Source64).To(Equal(protocol.Address64(0x0013A20040000001)))
		Expect(d.Source16).To(Equal(protocol.UnknownAddress16))
		Expect(d.Source()).To(Equal("0013A20040000001"))
		Expect(d.RSSI).To(Equal(byte(0x28)))
		Expect(d.Payload).To(Equal([]byte("long")))

		Eventually(received).Should(Receive(&d))
		Expect(d.Source16).To(Equal(protocol.Address16(0x1001)))
		Expect(d.Source()).To(Equal("1001"))
		Expect(d.Options).To(Equal(byte(0x02)))
		Expect(d.Payload).To(Equal([]byte("short")))
	})

	It("calls every subscriber until it unsubscribes", func() {
		first := make(chan []byte, 4)
		second := make(chan []byte, 4)

		sub1 := conn.OnDataReceived(func(d client.DataReceived) { first <- d.Payload })
		sub2 := conn.OnDataReceived(func(d client.DataReceived) { second <- d.Payload })
		defer sub2.Unsubscribe()

		dev.Emit(&protocol.RxPacket16{Source: 0x1001, Data: []byte("one")})
		Eventually(first).Should(Receive(Equal([]byte("one"))))
		Eventually(second).Should(Receive(Equal([]byte("one"))))

		sub1.Unsubscribe()
		sub1.Unsubscribe()

		dev.Emit(&protocol.RxPacket16{Source: 0x1001, Data: []byte("two")})
		Eventually(second).Should(Receive(Equal([]byte("two"))))
		Consistently(first).ShouldNot(Receive())
	})

	It("ignores modem status outside of a reset", func() {
		received := make(chan client.DataReceived, 1)
		sub := conn.OnDataReceived(func(d client.DataReceived) { received <- d })
		defer sub.Unsubscribe()

		dev.Emit(&protocol.ModemStatus{Status: protocol.ModemWatchdogReset})
		dev.Emit(&protocol.RxPacket16{Source: 0x1001, Data: []byte("after")})

		Eventually(received).Should(Receive())
		Expect(conn.Outstanding()).To(BeZero())
	})
})
