package nntp

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rubyist/circuitbreaker"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common/config"
)

var breakers = &sync.Map{}

func getBreaker(server config.ServerConfig) *circuit.Breaker {
	address := server.Address()
	if cb, ok := breakers.Load(address); ok {
		return cb.(*circuit.Breaker)
	}
	backoffAt := int64(server.BackoffAt)
	if backoffAt <= 0 {
		backoffAt = 10
	}
	cb, _ := breakers.LoadOrStore(address, circuit.NewConsecutiveBreaker(backoffAt))
	return cb.(*circuit.Breaker)
}

// ServerDialer connects and authenticates to one configured server.
type ServerDialer struct {
	Config config.ServerConfig
	Log    *logrus.Entry
}

func NewServerDialer(cfg config.ServerConfig, log *logrus.Entry) *ServerDialer {
	return &ServerDialer{
		Config: cfg,
		Log:    log.WithField("server", cfg.Address()),
	}
}

// Dial makes up to ConnectRetries attempts, ReconnectDelay apart, and always
// at least one. Authentication failures are not retried.
func (d *ServerDialer) Dial(ctx context.Context) (Conn, error) {
	cb := getBreaker(d.Config)
	attempts := d.Config.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var conn Conn
	op := func() error {
		var authErr error
		err := cb.CallContext(ctx, func() error {
			c, err := d.connect(ctx)
			if err != nil {
				if IsAuthFailure(err) {
					authErr = err
					return nil
				}
				return err
			}
			conn = c
			return nil
		}, 0)
		if authErr != nil {
			return backoff.Permanent(authErr)
		}
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(d.Config.ReconnectDelay()), uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(op, b, func(err error, wait time.Duration) {
		d.Log.Warnf("Connection failed, retrying in %s: %v", wait, err)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", d.Config.Address())
	}
	return conn, nil
}

func (d *ServerDialer) connect(ctx context.Context) (Conn, error) {
	address := d.Config.Address()
	dialer := &net.Dialer{Timeout: d.Config.Timeout()}
	raw, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if d.Config.SSL {
		raw = tls.Client(raw, &tls.Config{ServerName: d.Config.Hostname})
	}

	c, err := NewClient(raw, address, d.Config.Timeout())
	if err != nil {
		return nil, err
	}
	if d.Config.Username != "" {
		if err = c.Authenticate(d.Config.Username, d.Config.Password); err != nil {
			_ = c.Close()
			return nil, errors.Wrap(err, "authenticating")
		}
	}
	d.Log.Debug("Connected")
	return c, nil
}
