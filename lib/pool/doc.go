// Package pool implements an asynchronous, thread-safe pool of long-lived
// connections: acquire pulls a healthy connection from an idle store or
// creates one, release returns it (subject to a health check and an
// ownership check), and Close drains whatever is left idle.
//
// A minimal pool over a custom Connection type:
//
//	cfg := pool.DefaultConfig()
//	cfg.Connect = myFactory
//	cfg.HealthCheck = myHealthCheck
//	p := pool.New(cfg)
//	defer p.Close()
//
//	conn, err := p.Acquire(ctx)
//	if err != nil {
//		return err
//	}
//	defer p.Release(ctx, conn)
package pool
