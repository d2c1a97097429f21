package pool

import (
	"sync/atomic"

	"github.com/go-i2p/connpool/lib/executor"
)

// Closer is anything a Connection can close.
type Closer interface {
	Close() error
}

// Connection is the opaque handle spec.md §3 describes: it carries a
// bound executor, a close operation, and an ownership tag. Concrete
// connection types (see lib/tcpconn) embed BaseConn to satisfy this.
type Connection interface {
	Closer
	// Executor returns the executor all mutation of this connection must
	// run on.
	Executor() *executor.Executor
	// OwnershipTag returns the connection's ownership slot. Callers other
	// than Pool itself should treat this as read-only.
	OwnershipTag() *Tag
}

// Tag is the per-connection ownership slot (spec.md §3): it names the
// Pool that currently considers itself the owner of a connection, or nil
// for unowned. The zero value is unowned.
type Tag struct {
	owner atomic.Pointer[Pool]
}

// claim unconditionally sets the tag to p and returns the previous value.
// Used when a connection is first produced, or handed back to a caller
// from the idle store — there is no prior-owner check at those points.
func (t *Tag) claim(p *Pool) *Pool {
	return t.owner.Swap(p)
}

// clear atomically sets the tag to unowned and returns the prior value.
// Release uses the returned value as its misuse check (spec.md §3, §5).
func (t *Tag) clear() *Pool {
	return t.owner.Swap(nil)
}

// Owner returns the pool that currently owns the connection, or nil.
func (t *Tag) Owner() *Pool {
	return t.owner.Load()
}

// BaseConn is embedded by concrete Connection implementations to obtain
// the bound executor and ownership tag required by the Connection
// interface without reimplementing either.
type BaseConn struct {
	exec *executor.Executor
	tag  Tag
}

// NewBaseConn returns a BaseConn bound to exec, initially unowned.
func NewBaseConn(exec *executor.Executor) BaseConn {
	return BaseConn{exec: exec}
}

// Executor implements Connection.
func (b *BaseConn) Executor() *executor.Executor { return b.exec }

// OwnershipTag implements Connection.
func (b *BaseConn) OwnershipTag() *Tag { return &b.tag }
