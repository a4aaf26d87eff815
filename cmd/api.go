package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/luma/meshlink/client"
	"github.com/luma/meshlink/protocol"
	"github.com/luma/meshlink/storage"
)

// API exposes a started session and the node directory over HTTP.
type API struct {
	// ctx outlives any single request, discoveries started over HTTP run
	// until their window closes or ctx is cancelled
	ctx  context.Context
	conn *client.Conn
	dir  *storage.Directory
	log  *zap.Logger
}

func NewAPI(ctx context.Context, conn *client.Conn, dir *storage.Directory, log *zap.Logger) *API {
	return &API{ctx: ctx, conn: conn, dir: dir, log: log}
}

// Track records discovered nodes and received data in the directory until
// the returned function is called.
func (a *API) Track() (stop func()) {
	nodes := a.conn.OnNodeDiscovered(func(n client.Node) {
		if err := a.dir.PutNode(a.ctx, n.Address.String(), n); err != nil {
			a.log.Error("Failed to record node", zap.Stringer("address", n.Address), zap.Error(err))
		}
	})

	data := a.conn.OnDataReceived(func(d client.DataReceived) {
		a.log.Info("Data received",
			zap.String("source", d.Source()),
			zap.Uint8("rssi", d.RSSI),
			zap.Int("bytes", len(d.Payload)))

		if err := a.dir.RecordData(a.ctx, d.Source(), len(d.Payload), time.Now()); err != nil {
			a.log.Error("Failed to record data", zap.String("source", d.Source()), zap.Error(err))
		}
	})

	updates := a.dir.Store().ListenToUpdates()

	go func() {
		// Ends when the store is closed.
		for update := range updates {
			a.log.Debug("Directory updated",
				zap.ByteString("key", update.Key),
				zap.ByteString("value", update.Value))
		}
	}()

	return func() {
		nodes.Unsubscribe()
		data.Unsubscribe()
	}
}

func (a *API) Register(r gin.IRoutes) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.GET("/info", a.info)
	r.GET("/directory", a.dump)
	r.GET("/nodes", a.nodes)
	r.GET("/nodes/:address", a.node)
	r.GET("/nodes/:address/traffic", a.traffic)
	r.POST("/discover", a.discover)
	r.POST("/nodes/:address/data", a.send)
}

func (a *API) info(c *gin.Context) {
	ctx := c.Request.Context()

	hw, ok := a.conn.HardwareVersion()
	if !ok {
		abortWithError(c, client.ErrHardwareUnknown)
		return
	}

	address, err := a.conn.Address(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	network, err := a.conn.NetworkAddress(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	identifier, err := a.conn.NodeIdentifier(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	role, err := a.conn.Role(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hardwareVersion": hw.String(),
		"legacy":          hw.IsLegacy(),
		"address":         address,
		"networkAddress":  network,
		"identifier":      identifier,
		"role":            role.String(),
		"coordinator":     role == client.RoleCoordinator,
	})
}

func (a *API) nodes(c *gin.Context) {
	nodes, err := a.dir.Nodes(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, gin.MIMEJSON, nodes)
}

func (a *API) dump(c *gin.Context) {
	dump, err := a.dir.Dump()
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, gin.MIMEJSON, dump)
}

func (a *API) node(c *gin.Context) {
	address, err := protocol.ParseAddress64(c.Param("address"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	node, err := a.dir.Node(c.Request.Context(), address.String())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, gin.MIMEJSON, node)
}

func (a *API) traffic(c *gin.Context) {
	traffic, err := a.dir.Traffic(c.Request.Context(), c.Param("address"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, gin.MIMEJSON, traffic)
}

func (a *API) discover(c *gin.Context) {
	stream, err := a.conn.Discover(a.ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}

	go func() {
		<-stream.Done()
		a.log.Info("Discovery finished", zap.Int("replies", stream.Count()))
	}()

	c.JSON(http.StatusAccepted, gin.H{"frameID": stream.FrameID()})
}

func (a *API) send(c *gin.Context) {
	address, err := protocol.ParseAddress64(c.Param("address"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := a.conn.Transmit(c.Request.Context(), address, payload); err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func abortWithError(c *gin.Context, err error) {
	var (
		status      = http.StatusInternalServerError
		deliveryErr *client.DeliveryError
	)

	switch {
	case errors.Is(err, protocol.ErrInvalidAddress):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, client.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &deliveryErr):
		status = http.StatusBadGateway
	case errors.Is(err, client.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, client.ErrHardwareUnknown), errors.Is(err, client.ErrClosed):
		status = http.StatusServiceUnavailable
	}

	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
