// poolctl is a small demo CLI around lib/pool: it dials a configurable
// TCP target through a pooled connection factory and renders a live
// status view of the pool.
//
// Usage:
//
//	poolctl [flags]
//
// Flags:
//
//	-config string
//	    Path to configuration file (default "~/.poolctl/config.toml")
//	-address string
//	    Dial target (overrides config)
//	-version
//	    Print version and exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-i2p/connpool/lib/pool"
	"github.com/go-i2p/connpool/lib/poolcfg"
	"github.com/go-i2p/connpool/lib/tcpconn"
	"github.com/go-i2p/connpool/lib/tui"
	"github.com/go-i2p/connpool/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	defaultConfigPath := filepath.Join(homeDir, ".poolctl", "config.toml")

	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	address := flag.String("address", "", "Dial target (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "poolctl - connection pool demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  poolctl [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("poolctl version %s\n", version.Full())
		return 0
	}

	cfg, err := poolcfg.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *address != "" {
		cfg.Dial.Address = *address
	}

	p := buildPool(cfg)
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := warmUp(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not reach %s: %v\n", cfg.Dial.Address, err)
	}

	program := tea.NewProgram(tui.New(p, tui.Config{RefreshInterval: 3 * time.Second}), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running TUI: %v\n", err)
		return 1
	}
	return 0
}

// buildPool wires the demo TCP factory and health checker into a Pool
// configured from cfg.
func buildPool(cfg *poolcfg.Config) *pool.Pool {
	poolCfg := pool.DefaultConfig()
	poolCfg.LIFO = cfg.Pool.LIFO
	poolCfg.ReleaseHealthCheck = cfg.Pool.ReleaseHealthCheck
	poolCfg.Connect = tcpconn.Connect
	poolCfg.HealthCheck = tcpconn.HealthCheck
	poolCfg.FactoryConfig = tcpconn.DialConfig{
		Network: cfg.Dial.Network,
		Address: cfg.Dial.Address,
		Timeout: cfg.Dial.Timeout,
	}
	return pool.New(poolCfg)
}

// warmUp acquires and immediately releases one connection so early UI
// frames have something real to show.
func warmUp(ctx context.Context, p *pool.Pool) error {
	acquireCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := p.Acquire(acquireCtx)
	if err != nil {
		return err
	}
	return p.Release(ctx, conn)
}
