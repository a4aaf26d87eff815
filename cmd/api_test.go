package cmd_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/luma/meshlink/client"
	"github.com/luma/meshlink/cmd"
	"github.com/luma/meshlink/internal/radiosim"
	"github.com/luma/meshlink/protocol"
	"github.com/luma/meshlink/storage"
)

var _ = Describe("API", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		dev    *radiosim.Device
		conn   *client.Conn
		store  *storage.InmemoryStore
		router *gin.Engine
		stop   func()
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())

		dev = radiosim.New(radiosim.HardwareSeries2, false)
		var err error
		conn, err = client.New(client.Options{
			Transport:       dev,
			QueryTimeout:    250 * time.Millisecond,
			DiscoveryWindow: 200 * time.Millisecond,
			Log:             zap.NewNop(),
		})
		Expect(err).To(Succeed())
		Expect(conn.Open(ctx)).To(Succeed())
		Expect(conn.Start(ctx)).To(Succeed())

		store = storage.NewInmemoryStore()

		api := cmd.NewAPI(ctx, conn, storage.NewDirectory(store), zap.NewNop())
		stop = api.Track()

		gin.SetMode(gin.TestMode)
		router = gin.New()
		api.Register(router)
	})

	AfterEach(func() {
		stop()
		cancel()
		Expect(conn.Close()).To(Succeed())
		dev.Wait()
		Expect(store.Close()).To(Succeed())
	})

	It("answers pings", func() {
		w := do(http.MethodGet, "/ping", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(Equal("pong"))
	})

	It("describes the module", func() {
		w := do(http.MethodGet, "/info", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{
			"hardwareVersion": "1944",
			"legacy": false,
			"address": "0013A20040A1B2C3",
			"networkAddress": "0000",
			"identifier": "SIM",
			"role": "router",
			"coordinator": false
		}`))
	})

	It("records nodes found by a discovery", func() {
		dev.SetDiscovery(radiosim.DiscoveryReply{
			Delay:          10 * time.Millisecond,
			NetworkAddress: 0x1001,
			Address:        0x0013A20040000001,
			SignalLoss:     0x20,
			Identifier:     "kitchen",
		})

		w := do(http.MethodPost, "/discover", "")
		Expect(w.Code).To(Equal(http.StatusAccepted))

		Eventually(func() string {
			return do(http.MethodGet, "/nodes", "").Body.String()
		}).Should(MatchJSON(`{
			"0x0013A20040000001": {
				"address": "0013A20040000001",
				"networkAddress": "1001",
				"identifier": "kitchen",
				"signalLoss": 32,
				"strength": "high"
			}
		}`))

		w = do(http.MethodGet, "/nodes/0013A20040000001", "")
		Expect(w.Code).To(Equal(http.StatusOK))

		Expect(do(http.MethodGet, "/nodes/0013A20040000002", "").Code).To(Equal(http.StatusNotFound))
		Expect(do(http.MethodGet, "/nodes/nope", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("records received data", func() {
		dev.Emit(&protocol.RxPacket16{Source: 0x1001, Data: []byte("hello")})

		Eventually(func() int {
			return do(http.MethodGet, "/nodes/1001/traffic", "").Code
		}).Should(Equal(http.StatusOK))

		body := do(http.MethodGet, "/nodes/1001/traffic", "").Body.String()
		Expect(body).To(ContainSubstring(`"packets":1`))
		Expect(body).To(ContainSubstring(`"bytes":5`))
	})

	It("dumps the whole directory", func() {
		Expect(do(http.MethodGet, "/directory", "").Body.String()).To(MatchJSON(`{}`))

		dev.Emit(&protocol.RxPacket16{Source: 0x1001, Data: []byte("hi")})

		Eventually(func() string {
			return do(http.MethodGet, "/directory", "").Body.String()
		}).Should(And(
			ContainSubstring(`"traffic":{"0x1001":`),
			ContainSubstring(`"bytes":2`),
		))
	})

	Describe("sending data", func() {
		It("transmits the request body", func() {
			w := do(http.MethodPost, "/nodes/0013A20040000001/data", "hello")
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(dev.LastRequest()).To(Equal(&protocol.TransmitRequest{
				Destination:   0x0013A20040000001,
				Destination16: protocol.UnknownAddress16,
				Data:          []byte("hello"),
			}))
		})

		It("reports failed deliveries", func() {
			dev.SetDeliveryStatus(protocol.DeliveryRouteNotFound)

			w := do(http.MethodPost, "/nodes/0013A20040000001/data", "hello")
			Expect(w.Code).To(Equal(http.StatusBadGateway))
		})

		It("refuses oversized payloads", func() {
			w := do(http.MethodPost, "/nodes/0013A20040000001/data", strings.Repeat("x", client.MaxPayload+1))
			Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})

		It("times out when the module doesn't answer", func() {
			dev.Hold()

			w := do(http.MethodPost, "/nodes/0013A20040000001/data", "hello")
			Expect(w.Code).To(Equal(http.StatusGatewayTimeout))
		})
	})
})
