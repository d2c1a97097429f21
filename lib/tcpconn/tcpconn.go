// Package tcpconn is a concrete Connection/Factory/HealthChecker triple
// that dials plain TCP, standing in for the external connection factory
// lib/pool only ever consumes through an interface.
package tcpconn

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-i2p/connpool/lib/executor"
	"github.com/go-i2p/connpool/lib/pool"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// DialConfig is the per-acquire factory configuration Pool clones before
// every Connect call (spec.md §4.1 step 2).
type DialConfig struct {
	Network string // "tcp", "tcp4", "tcp6", or "unix"
	Address string
	Timeout time.Duration
}

// Clone implements pool.FactoryConfig. DialConfig has no mutable state a
// concurrent attempt could race on, so Clone just returns a copy.
func (cfg DialConfig) Clone() pool.FactoryConfig {
	return cfg
}

// Conn is a pool.Connection backed by a net.Conn, bound to its own
// executor for the connection's lifetime.
type Conn struct {
	pool.BaseConn
	net.Conn
}

// Connect dials a new Conn. It satisfies pool.Config.Connect.
func Connect(ctx context.Context, cfg pool.FactoryConfig) (pool.Connection, error) {
	dc, ok := cfg.(DialConfig)
	if !ok {
		return nil, fmt.Errorf("tcpconn: unexpected factory config %T", cfg)
	}

	network := dc.Network
	if network == "" {
		network = "tcp"
	}
	timeout := dc.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	d := net.Dialer{Timeout: timeout}
	nc, err := d.DialContext(ctx, network, dc.Address)
	if err != nil {
		log.WithField("address", dc.Address).WithError(err).Debug("dial failed")
		return nil, err
	}

	return &Conn{
		BaseConn: pool.NewBaseConn(executor.New()),
		Conn:     nc,
	}, nil
}

// Close closes the underlying net.Conn and stops the connection's bound
// executor.
func (c *Conn) Close() error {
	defer c.Executor().Close()
	return c.Conn.Close()
}

// HealthCheck reports false once a one-byte, short-deadline read fails
// with anything other than a timeout — the same non-blocking "is the
// socket still alive" probe used by database pool drivers.
func HealthCheck(ctx context.Context, conn pool.Connection) (bool, error) {
	c, ok := conn.(*Conn)
	if !ok {
		return false, fmt.Errorf("tcpconn: unexpected connection type %T", conn)
	}

	if err := c.Conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond)); err != nil {
		return false, nil
	}
	defer c.Conn.SetReadDeadline(time.Time{})

	one := make([]byte, 1)
	_, err := c.Conn.Read(one)
	if err == nil {
		// Unsolicited data arrived; the byte is dropped, which is
		// acceptable for a pooled connection that carries no application
		// protocol of its own between acquires.
		return true, nil
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return true, nil
	}
	return false, nil
}
