// Package executor provides the single-threaded task runner a connection
// is permanently bound to (spec.md §2, "event-loop binding"). All mutation
// of a given connection — health checks, handler callbacks, ownership-tag
// swaps, close — must happen on that connection's Executor.
package executor

import (
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// Executor runs submitted tasks one at a time on a single goroutine. It
// offers the two primitives spec.md §2 asks of an event loop: an
// "is-current-thread" predicate (InExecutor) and a "submit task" operation
// (Submit).
type Executor struct {
	tasks     chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
	goroID    atomic.Int64 // 0 until the worker goroutine records itself
}

// New starts a new Executor backed by its own goroutine.
func New() *Executor {
	e := &Executor{
		tasks:   make(chan func(), 64),
		closeCh: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Executor) run() {
	e.goroID.Store(currentGoroutineID())
	for {
		select {
		case fn := <-e.tasks:
			fn()
		case <-e.closeCh:
			return
		}
	}
}

// InExecutor reports whether the calling goroutine is this executor's own
// worker goroutine. Go exposes no public goroutine-identity API, so this
// parses the numeric id out of the header line of runtime.Stack — the same
// technique small goroutine-local-storage libraries use (e.g. jtolds/gls,
// petermattis/goid) in the absence of a language-level primitive.
func (e *Executor) InExecutor() bool {
	return currentGoroutineID() == e.goroID.Load()
}

// Submit schedules fn to run on the executor's goroutine. It never blocks
// the caller beyond filling the task queue, and silently drops fn if the
// executor has already been closed.
func (e *Executor) Submit(fn func()) {
	select {
	case <-e.closeCh:
		return
	default:
	}
	select {
	case e.tasks <- fn:
	case <-e.closeCh:
	}
}

// RunOn runs fn on e: inline if the caller is already e's own goroutine,
// otherwise submitted asynchronously. This is the `run_on(executor,
// closure)` primitive spec.md §9 calls for.
func RunOn(e *Executor, fn func()) {
	if e.InExecutor() {
		fn()
		return
	}
	e.Submit(fn)
}

// Close stops the executor's worker goroutine. Tasks submitted afterward
// are dropped rather than run.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.closeCh) })
}

func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return 0
	}
	b = b[len(prefix):]

	i := 0
	for i < len(b) && b[i] != ' ' {
		i++
	}
	id, err := strconv.ParseInt(string(b[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
