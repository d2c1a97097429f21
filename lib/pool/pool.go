package pool

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-i2p/connpool/lib/executor"
	"github.com/go-i2p/connpool/lib/idlestore"
	"github.com/go-i2p/connpool/lib/poolerr"
	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// FactoryConfig is the per-acquire configuration cloned before each
// connect attempt (spec.md §4.1 step 2, mirroring Netty's practice of
// cloning the Bootstrap before every connectChannel call).
type FactoryConfig interface {
	Clone() FactoryConfig
}

// HealthChecker reports whether conn is still usable. It is invoked both
// when a connection is pulled back out of the idle store (spec.md §4.3,
// "acquire-time") and, if Config.ReleaseHealthCheck is set, when a
// connection is handed back (§4.3, "release-time").
type HealthChecker func(ctx context.Context, conn Connection) (bool, error)

// Handler receives the lifecycle callbacks spec.md §4.4 describes, always
// on the connection's own bound executor. Any of the three may be left as
// a no-op by embedding NoopHandler. A non-nil return fails the in-flight
// acquire or release with an error wrapping poolerr.ErrHandler. On acquire
// the connection is closed first; on release, OnReleased runs after the
// connection has already been offered to the idle store (or discarded), so
// the error leaves that outcome in place.
type Handler interface {
	// OnCreated fires exactly once per connection, immediately after a
	// successful factory call and before the connection is ever handed to
	// a caller.
	OnCreated(conn Connection) error
	// OnAcquired fires every time a connection — new or reused — is about
	// to be handed to a caller.
	OnAcquired(conn Connection) error
	// OnReleased fires when a released connection is kept in the idle store,
	// or is discarded after failing the release-time health check. It does
	// not fire for a misused release or when OfferIdle declines the
	// connection.
	OnReleased(conn Connection) error
}

// NoopHandler implements Handler with three no-ops; embed it to implement
// only the callbacks you need.
type NoopHandler struct{}

func (NoopHandler) OnCreated(Connection) error  { return nil }
func (NoopHandler) OnAcquired(Connection) error { return nil }
func (NoopHandler) OnReleased(Connection) error { return nil }

// Config configures a Pool. Start from DefaultConfig and override the
// fields you need; Connect is required.
type Config struct {
	// Connect produces a brand-new Connection. Required.
	Connect func(ctx context.Context, cfg FactoryConfig) (Connection, error)
	// FactoryConfig is cloned via Clone() before every Connect call. May be
	// nil if Connect does not need per-attempt configuration.
	FactoryConfig FactoryConfig
	// Handler receives lifecycle callbacks. Defaults to NoopHandler.
	Handler Handler
	// HealthCheck reports whether a connection may still be handed out.
	// Defaults to always-healthy.
	HealthCheck HealthChecker
	// ReleaseHealthCheck, if true, runs HealthCheck again when a
	// connection is released rather than only at acquire time.
	ReleaseHealthCheck bool
	// LIFO selects the idle-store pop order used by the default PollIdle:
	// true pops the most-recently-released connection first, false pops
	// the least-recently-released one (spec.md §4.2).
	LIFO bool

	// PollIdle and OfferIdle are the extension points spec.md §4.1 calls
	// poll_idle/offer_idle. They default to operating on the Pool's own
	// internal idlestore.Store according to LIFO, but can be overridden —
	// for example to impose a capacity cap by having OfferIdle return
	// false once a limit is reached, which the caller will see surface as
	// poolerr.ErrPoolFull.
	PollIdle  func() (Connection, bool)
	OfferIdle func(Connection) bool
}

// DefaultConfig returns a Config with LIFO selection and release-time
// health checks enabled, matching spec.md §4.1's stated defaults.
func DefaultConfig() Config {
	return Config{
		ReleaseHealthCheck: true,
		LIFO:               true,
	}
}

// Pool is an asynchronous, thread-safe pool of long-lived connections
// (spec.md §1). Construct with New.
type Pool struct {
	cfg    Config
	idle   *idlestore.Store[Connection]
	closed atomic.Bool
}

// New builds a Pool from cfg. It panics if cfg.Connect is nil, since a
// pool that can never create a connection is a configuration error, not a
// runtime condition.
func New(cfg Config) *Pool {
	if cfg.Connect == nil {
		panic("pool: Config.Connect is required")
	}
	if cfg.Handler == nil {
		cfg.Handler = NoopHandler{}
	}
	if cfg.HealthCheck == nil {
		cfg.HealthCheck = func(context.Context, Connection) (bool, error) { return true, nil }
	}

	p := &Pool{cfg: cfg, idle: idlestore.New[Connection]()}

	if p.cfg.PollIdle == nil {
		if cfg.LIFO {
			p.cfg.PollIdle = p.idle.PopBack
		} else {
			p.cfg.PollIdle = p.idle.PopFront
		}
	}
	if p.cfg.OfferIdle == nil {
		p.cfg.OfferIdle = func(c Connection) bool {
			p.idle.PushBack(c)
			return true
		}
	}
	return p
}

// Stats is a point-in-time snapshot of pool state, used by the status
// view in lib/tui. It is not a metrics/instrumentation subsystem — just a
// getter.
type Stats struct {
	Idle   int
	Closed bool
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	return Stats{Idle: p.idle.Len(), Closed: p.closed.Load()}
}

// acquireResult is a single-shot future for Acquire, completed by exactly
// one of: the pool succeeding, the pool failing, or the caller's context
// expiring first. The "claimed" flag is the atomic race point mirroring
// Netty's Promise#trySuccess/tryFailure (original_source lines 210-220).
type acquireResult struct {
	claimed atomic.Bool
	done    chan struct{}
	conn    Connection
	err     error
}

func newAcquireResult() *acquireResult {
	return &acquireResult{done: make(chan struct{})}
}

func (r *acquireResult) trySucceed(conn Connection) bool {
	if !r.claimed.CompareAndSwap(false, true) {
		return false
	}
	r.conn = conn
	close(r.done)
	return true
}

func (r *acquireResult) tryFail(err error) bool {
	if !r.claimed.CompareAndSwap(false, true) {
		return false
	}
	r.err = err
	close(r.done)
	return true
}

// cancel claims the result without completing it. Used when the caller's
// context is done first; any later trySucceed/tryFail from the pool side
// will then observe the claim and redirect instead of leaking.
func (r *acquireResult) cancel() {
	r.claimed.CompareAndSwap(false, true)
}

// releaseResult is Release's equivalent single-shot future. Unlike
// acquireResult it is always completed synchronously by whichever
// goroutine runs doReleaseConnection, so it needs no claim race.
type releaseResult struct {
	done chan struct{}
	err  error
}

func newReleaseResult() *releaseResult {
	return &releaseResult{done: make(chan struct{})}
}

func (r *releaseResult) complete(err error) {
	r.err = err
	close(r.done)
}

// Acquire returns a healthy, ready connection: either reused from the
// idle store or freshly created. It blocks until one is available or ctx
// is done (spec.md §4.1 "acquire").
func (p *Pool) Acquire(ctx context.Context) (Connection, error) {
	r := newAcquireResult()
	p.acquireHealthyFromPoolOrNew(ctx, r)

	select {
	case <-r.done:
		return r.conn, r.err
	case <-ctx.Done():
		r.cancel()
		return nil, poolerr.Wrap("acquire", poolerr.ErrCancelled)
	}
}

func (p *Pool) acquireHealthyFromPoolOrNew(ctx context.Context, r *acquireResult) {
	if p.closed.Load() {
		r.tryFail(poolerr.Wrap("acquire", poolerr.ErrClosed))
		return
	}

	conn, ok := p.cfg.PollIdle()
	if !ok {
		var cfg FactoryConfig
		if p.cfg.FactoryConfig != nil {
			cfg = p.cfg.FactoryConfig.Clone()
		}
		go func() {
			created, err := p.cfg.Connect(ctx, cfg)
			p.notifyConnect(created, err, r)
		}()
		return
	}

	executor.RunOn(conn.Executor(), func() {
		p.doHealthCheck(ctx, conn, r)
	})
}

func (p *Pool) notifyConnect(conn Connection, err error, r *acquireResult) {
	if err != nil {
		r.tryFail(poolerr.Wrap("acquire", fmt.Errorf("%w: %v", poolerr.ErrConnectFailure, err)))
		return
	}

	conn.OwnershipTag().claim(p)
	executor.RunOn(conn.Executor(), func() {
		if cbErr := p.cfg.Handler.OnCreated(conn); cbErr != nil {
			p.closeAndDiscard(conn)
			r.tryFail(poolerr.Wrap("acquire", fmt.Errorf("%w: %v", poolerr.ErrHandler, cbErr)))
			return
		}
		if cbErr := p.cfg.Handler.OnAcquired(conn); cbErr != nil {
			p.closeAndDiscard(conn)
			r.tryFail(poolerr.Wrap("acquire", fmt.Errorf("%w: %v", poolerr.ErrHandler, cbErr)))
			return
		}
		if !r.trySucceed(conn) {
			// Caller's context was done first; hand the connection back to
			// the pool instead of leaking it (spec.md §5 Cancellation).
			p.releaseProduced(conn)
		}
	})
}

func (p *Pool) doHealthCheck(ctx context.Context, conn Connection, r *acquireResult) {
	healthy, err := p.cfg.HealthCheck(ctx, conn)
	if err != nil {
		log.WithError(err).Debug("acquire-time health check errored, treating as unhealthy")
		healthy = false
	}

	if !healthy {
		p.closeAndDiscard(conn)
		p.acquireHealthyFromPoolOrNew(ctx, r)
		return
	}

	// An idle connection sits in the store unowned (its tag was cleared at
	// release time); re-claim it here, right before handing it to the
	// caller, mirroring the moment SimpleChannelPool.notifyHealthCheck
	// re-sets POOL_KEY on a pooled channel it is about to return.
	conn.OwnershipTag().claim(p)
	if cbErr := p.cfg.Handler.OnAcquired(conn); cbErr != nil {
		p.closeAndDiscard(conn)
		r.tryFail(poolerr.Wrap("acquire", fmt.Errorf("%w: %v", poolerr.ErrHandler, cbErr)))
		return
	}
	if !r.trySucceed(conn) {
		p.releaseProduced(conn)
	}
}

// releaseProduced releases conn on its own executor synchronously,
// logging (rather than propagating) any error — used only for the
// cancellation-race redirect above, where there is no caller left to
// report to.
func (p *Pool) releaseProduced(conn Connection) {
	r := newReleaseResult()
	p.doReleaseConnection(context.Background(), conn, r)
	if r.err != nil {
		log.WithError(r.err).Debug("error releasing a connection produced for a cancelled acquire")
	}
}

func (p *Pool) closeAndDiscard(conn Connection) {
	conn.OwnershipTag().clear()
	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("error closing discarded connection")
	}
}

// Release returns conn to the pool (spec.md §4.1 "release"). It fails
// with poolerr.ErrMisusedRelease if conn is not currently owned by this
// pool — double-released, or acquired from a different pool.
func (p *Pool) Release(ctx context.Context, conn Connection) error {
	r := newReleaseResult()
	executor.RunOn(conn.Executor(), func() {
		p.doReleaseConnection(ctx, conn, r)
	})

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) doReleaseConnection(ctx context.Context, conn Connection, r *releaseResult) {
	prior := conn.OwnershipTag().clear()
	if prior != p {
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("error closing misused-release connection")
		}
		r.complete(poolerr.Wrap("release", poolerr.ErrMisusedRelease))
		return
	}

	if p.closed.Load() {
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("error closing connection released after pool close")
		}
		r.complete(nil)
		return
	}

	if p.cfg.ReleaseHealthCheck {
		p.doHealthCheckOnRelease(ctx, conn, r)
		return
	}
	p.releaseAndOffer(conn, r)
}

func (p *Pool) doHealthCheckOnRelease(ctx context.Context, conn Connection, r *releaseResult) {
	healthy, err := p.cfg.HealthCheck(ctx, conn)
	if err != nil {
		log.WithError(err).Debug("release-time health check errored, treating as unhealthy")
		healthy = false
	}
	if healthy {
		p.releaseAndOffer(conn, r)
		return
	}

	// An unhealthy connection is discarded without an explicit Close call
	// here — this mirrors SimpleChannelPool.releaseAndOfferIfHealthy
	// exactly (see DESIGN.md's Open Question decisions); the connection
	// is assumed already broken, so there is nothing left to shut down
	// cleanly.
	if cbErr := p.cfg.Handler.OnReleased(conn); cbErr != nil {
		r.complete(poolerr.Wrap("release", fmt.Errorf("%w: %v", poolerr.ErrHandler, cbErr)))
		return
	}
	r.complete(nil)
}

func (p *Pool) releaseAndOffer(conn Connection, r *releaseResult) {
	if p.cfg.OfferIdle(conn) {
		if cbErr := p.cfg.Handler.OnReleased(conn); cbErr != nil {
			r.complete(poolerr.Wrap("release", fmt.Errorf("%w: %v", poolerr.ErrHandler, cbErr)))
			return
		}
		r.complete(nil)
		return
	}

	conn.OwnershipTag().clear()
	if err := conn.Close(); err != nil {
		log.WithError(err).Debug("error closing connection rejected by the idle store")
	}
	r.complete(poolerr.Wrap("release", poolerr.ErrPoolFull))
}

// Close drains the idle store, closing every connection found there. It
// does not affect connections already held by callers — those must still
// be released, at which point they will simply be closed rather than
// re-offered (spec.md §5).
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	for {
		conn, ok := p.cfg.PollIdle()
		if !ok {
			break
		}
		conn.OwnershipTag().clear()
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("error closing connection during pool close")
		}
	}
}
