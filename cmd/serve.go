package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	reuseport "github.com/kavu/go_reuseport"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/meshlink/storage"
)

var (
	// The host to listen on, overrides MESHLINK_HTTP_HOST
	host string

	// The port to listen for http requests on, overrides MESHLINK_HTTP_PORT
	httpPort string
)

func init() {
	flags := ServeCmd.PersistentFlags()

	flags.StringVar(&httpPort, "http-port", "", "The port to listen to HTTP requests on")
	flags.StringVarP(&host, "host", "a", "", "The host to listen on")
}

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a module over HTTP",
	Long: `Serve a module over HTTP

Starts a session with the configured module and keeps it open, recording
discovered nodes and received data.

Usage
	meshlink serve

Endpoints
	GET  /ping
	GET  /info
	GET  /directory
	GET  /nodes
	GET  /nodes/:address
	GET  /nodes/:address/traffic
	POST /discover
	POST /nodes/:address/data
`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}

		log := sess.log

		store := storage.NewInmemoryStore()

		api := NewAPI(ctx, sess.conn, storage.NewDirectory(store), log.Named("api"))
		stopTracking := api.Track()

		router := setupRouter(sess.conf.DebugHTTP, log)
		api.Register(router)

		if host == "" {
			host = sess.conf.HTTPHost
		}

		if httpPort == "" {
			httpPort = sess.conf.HTTPPort
		}

		addr := net.JoinHostPort(host, httpPort)

		listener, err := reuseport.Listen("tcp", addr)
		if err != nil {
			return multierr.Append(err, sess.Close())
		}

		s := &http.Server{
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		log.Info("Listening",
			zap.Any("config", sess.conf),
			zap.String("addr", addr))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		stopTracking()

		if err := multierr.Append(sess.Close(), store.Close()); err != nil {
			log.Error("Failed to close session", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.GinzapWithConfig(log.Named("http"), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/ping"},
	}))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}
