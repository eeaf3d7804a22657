/*
 * MIT License
 *
 * Copyright (c) 2026 wampcc contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package reactor implements the single-threaded I/O event loop that
// exclusively owns every OS socket handle (§4.1). Any component that
// needs to touch a handle - connect, read, write, close - does so by
// posting a closure with Post, which runs on the reactor's own
// goroutine in strict FIFO order, including closures posted from
// inside the reactor goroutine itself.
package reactor

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/metrics"
)

// Reactor runs one goroutine that drains a FIFO queue of posted
// closures and tracks live handles so Shutdown can request each of
// them to close.
type Reactor struct {
	log logger.Logger
	met *metrics.Metrics

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closing atomic.Bool
	closed  chan struct{}

	handlesMu sync.Mutex
	handles   map[*trackedHandle]struct{}
}

// trackedHandle is anything the reactor must Close when it shuts down.
type trackedHandle struct {
	close func()
}

// New creates a Reactor and starts its goroutine. Callers must call
// Shutdown to release it.
func New(log logger.Logger, met *metrics.Metrics) *Reactor {
	if log == nil {
		log = logger.Nop()
	}
	r := &Reactor{
		log:     log,
		met:     met,
		closed:  make(chan struct{}),
		handles: make(map[*trackedHandle]struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	go r.run()
	return r
}

// Post enqueues fn to run on the reactor goroutine. Post never blocks
// the caller and never runs fn inline, even when called from the
// reactor goroutine itself, preserving the FIFO ordering guarantee of
// §4.1: "A post from the reactor thread itself must still be queued,
// not executed inline".
func (r *Reactor) Post(fn func()) {
	if fn == nil {
		return
	}
	r.met.Posted()

	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
	r.cond.Signal()
}

func (r *Reactor) run() {
	for {
		r.mu.Lock()
		for len(r.queue) == 0 && !r.closing.Load() {
			r.cond.Wait()
		}
		if len(r.queue) == 0 && r.closing.Load() {
			r.mu.Unlock()
			close(r.closed)
			return
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		r.runSafely(fn)
	}
}

// runSafely executes fn, catching any panic and logging it as a
// transport-adjacent failure instead of letting it escape the reactor
// goroutine and take the whole process down with it (§7: "Internal
// exceptions thrown inside reactor callbacks are caught at the
// callback boundary... they never escape the reactor thread").
func (r *Reactor) runSafely(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("reactor: recovered panic in posted closure", "panic", rec)
		}
	}()
	fn()
}

// track registers a handle so Shutdown can force-close it. The
// returned func must be called exactly once, when the handle itself
// has finished closing, to stop tracking it.
func (r *Reactor) track(close func()) (untrack func()) {
	h := &trackedHandle{close: close}
	r.handlesMu.Lock()
	r.handles[h] = struct{}{}
	r.handlesMu.Unlock()
	return func() {
		r.handlesMu.Lock()
		delete(r.handles, h)
		r.handlesMu.Unlock()
	}
}

// Track registers a live handle (typically a *tcpsocket.Socket) with
// the reactor, so Shutdown can request its close. It returns a function
// the handle must call once it has fully closed.
func (r *Reactor) Track(close func()) (untrack func()) {
	return r.track(close)
}

// Connect resolves (unless resolveHostname is false, in which case the
// address must already be numeric) then dials addr over TCP. The dial
// itself runs off the reactor goroutine, since Go's net package already
// multiplexes blocking syscalls onto the runtime's own poller; the
// result is always delivered back through Post so that whatever the
// caller does with it - e.g. wiring up a tcpsocket.Socket - happens on
// the reactor goroutine, preserving "any OS handle operation must run
// on the reactor thread" (§4.1).
func (r *Reactor) Connect(ctx context.Context, addr string, resolveHostname bool, onSuccess func(net.Conn), onFailure func(error)) {
	dialer := &net.Dialer{}
	if !resolveHostname {
		host, _, err := net.SplitHostPort(addr)
		if err == nil && net.ParseIP(host) == nil {
			r.Post(func() { onFailure(errNumericAddressRequired(addr)) })
			return
		}
	}

	go func() {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		r.Post(func() {
			if err != nil {
				onFailure(err)
				return
			}
			onSuccess(conn)
		})
	}()
}

// Shutdown requests every tracked handle to close, lets the reactor
// goroutine exit once its queue is empty, and blocks until it has
// exited or ctx is done. It does not wait for tracked handles to
// untrack themselves.
func (r *Reactor) Shutdown(ctx context.Context) error {
	r.handlesMu.Lock()
	handles := make([]*trackedHandle, 0, len(r.handles))
	for h := range r.handles {
		handles = append(handles, h)
	}
	r.handlesMu.Unlock()

	for _, h := range handles {
		h.close()
	}

	r.mu.Lock()
	r.closing.Store(true)
	r.mu.Unlock()
	r.cond.Signal()

	select {
	case <-r.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the reactor goroutine has exited.
func (r *Reactor) Wait(ctx context.Context) error {
	select {
	case <-r.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
