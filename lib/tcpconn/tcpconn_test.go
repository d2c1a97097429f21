package tcpconn

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-i2p/connpool/lib/pool"
)

func startEchoListener(t *testing.T) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				io.Copy(c, c)
			}()
		}
	}()
	return ln.Addr().String(), func() { ln.Close() }
}

func TestConnectDialsSuccessfully(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	cfg := DialConfig{Network: "tcp", Address: addr, Timeout: time.Second}
	conn, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	if conn.Executor() == nil {
		t.Fatal("expected a bound executor")
	}
}

func TestConnectRejectsWrongFactoryConfigType(t *testing.T) {
	_, err := Connect(context.Background(), wrongConfig{})
	if err == nil {
		t.Fatal("expected an error for a non-DialConfig FactoryConfig")
	}
}

type wrongConfig struct{}

func (wrongConfig) Clone() pool.FactoryConfig { return wrongConfig{} }

func TestConnectFailsOnUnreachableAddress(t *testing.T) {
	cfg := DialConfig{Network: "tcp", Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond}
	_, err := Connect(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected a dial error for an unreachable address")
	}
}

func TestHealthCheckReportsHealthyWhenIdle(t *testing.T) {
	addr, stop := startEchoListener(t)
	defer stop()

	cfg := DialConfig{Network: "tcp", Address: addr, Timeout: time.Second}
	conn, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	healthy, err := HealthCheck(context.Background(), conn)
	if err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if !healthy {
		t.Fatal("expected a freshly dialed, idle connection to report healthy")
	}
}

func TestHealthCheckReportsUnhealthyAfterPeerCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	cfg := DialConfig{Network: "tcp", Address: ln.Addr().String(), Timeout: time.Second}
	conn, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	server := <-accepted
	server.Close()

	var healthy bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		healthy, err = HealthCheck(context.Background(), conn)
		if err != nil {
			t.Fatalf("HealthCheck: %v", err)
		}
		if !healthy {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if healthy {
		t.Fatal("expected HealthCheck to eventually report unhealthy after the peer closed")
	}
}
