package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/luma/meshlink/client"
	"github.com/luma/meshlink/internal/env"
	"github.com/luma/meshlink/transport"
)

// session is a started connection to the configured module, along with
// the config and logger it was built from.
type session struct {
	conf *env.Config
	log  *zap.Logger
	conn *client.Conn
}

func openSession(ctx context.Context) (*session, error) {
	conf, err := env.LoadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	log, err := env.MakeLogger(conf)
	if err != nil {
		return nil, err
	}

	t, err := transport.New(transport.Options{
		Port:     conf.Port,
		BaudRate: conf.BaudRate,
		Address:  conf.Address,
		Escaped:  conf.Escaped,
		Trace:    conf.LogLevel == "debug",
		Log:      log.Named("transport"),
	})
	if err != nil {
		return nil, err
	}

	conn, err := client.New(client.Options{
		Transport:       t,
		Escaped:         conf.Escaped,
		QueryTimeout:    conf.QueryTimeout,
		DiscoveryWindow: conf.DiscoveryWindow,
		Log:             log.Named("client"),
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Open(ctx); err != nil {
		return nil, fmt.Errorf("Failed to open %s: %w", describeDevice(conf), err)
	}

	if err := conn.Start(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("Failed to start session: %w", err)
	}

	return &session{conf: conf, log: log, conn: conn}, nil
}

func (s *session) Close() error {
	err := s.conn.Close()
	_ = s.log.Sync()

	return err
}

func describeDevice(conf *env.Config) string {
	if conf.Address != "" {
		return conf.Address
	}

	return conf.Port
}
