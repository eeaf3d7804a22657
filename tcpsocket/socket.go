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

// Package tcpsocket implements the specification's TCP Socket contract
// (§4.2): a single OS connection whose methods are callable from any
// goroutine, but whose actual I/O syscalls always run as closures
// posted to a reactor.Reactor.
package tcpsocket

import (
	"net"
	"sync"
	"sync/atomic"

	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/internal/future"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/metrics"
	"github.com/lbblscy/wampcc/reactor"
)

// State is the socket's lifecycle state (§3). Transitions are
// monotone forward; Closing -> Closed is terminal.
type State uint8

const (
	Created State = iota
	Connecting
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	}
	return "unknown"
}

// Listener receives bytes and lifecycle events from a Socket. Exactly
// one Listener may be attached to a Socket at a time (§3: "a socket
// owns... at most one listener").
type Listener interface {
	// IOOnRead is called with each freshly-read buffer. Implementations
	// must not retain buf beyond the call, per §4.2's read-buffering
	// contract: "Listeners must not retain the buffer."
	IOOnRead(buf []byte)
	// IOOnClose is called once, when the socket's read side ends (EOF,
	// read error, or local close).
	IOOnClose(err error)
}

// Socket is one OS TCP connection. Every exported method is safe to
// call from any goroutine; internally, operations that touch conn are
// funneled through the owning Reactor's Post.
type Socket struct {
	r   *reactor.Reactor
	log logger.Logger
	met *metrics.Metrics

	maxPendingWriteBytes int64
	writeBatchBytes      int64

	mu       sync.Mutex
	state    State
	conn     net.Conn
	listener Listener
	pending  [][]byte

	bytesRead         atomic.Int64
	bytesWritten      atomic.Int64
	bytesPendingWrite int64 // guarded by mu; updated from both Write and drain

	untrack func()

	closeOnce sync.Once
	closeProm *future.Promise[struct{}]
	closeFut  *future.Future[struct{}]
}

// New wraps an already-established net.Conn (used by both the client
// dialer and the router's accept path) as a Connected Socket.
func New(r *reactor.Reactor, conn net.Conn, log logger.Logger, met *metrics.Metrics, maxPendingWriteBytes, writeBatchBytes int64) *Socket {
	if log == nil {
		log = logger.Nop()
	}
	if maxPendingWriteBytes <= 0 {
		maxPendingWriteBytes = 16 << 20
	}
	if writeBatchBytes <= 0 {
		writeBatchBytes = 1 << 20
	}
	p, f := future.New[struct{}]()
	s := &Socket{
		r:                    r,
		log:                  log,
		met:                  met,
		maxPendingWriteBytes: maxPendingWriteBytes,
		writeBatchBytes:      writeBatchBytes,
		state:                Connected,
		conn:                 conn,
		closeProm:            p,
		closeFut:             f,
	}
	s.untrack = r.Track(func() { s.Close() })
	return s
}

// StartRead begins delivering inbound bytes to listener. The reactor
// allocates a fresh buffer per read, as required by §4.2.
func (s *Socket) StartRead(listener Listener) {
	s.mu.Lock()
	s.listener = listener
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return
	}
	go s.readLoop(conn, listener)
}

// readLoop runs the blocking Read syscall on its own goroutine (Go's
// net.Conn already multiplexes this onto the runtime poller rather
// than burning an OS thread) and posts each result back to the reactor
// so the listener callback - which may touch other reactor-owned state
// - runs from the reactor goroutine.
func (s *Socket) readLoop(conn net.Conn, listener Listener) {
	for {
		buf := make([]byte, 64*1024)
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			s.bytesRead.Add(int64(n))
			s.r.Post(func() {
				if s.IsClosed() {
					return
				}
				listener.IOOnRead(chunk)
			})
		}
		if err != nil {
			s.r.Post(func() {
				s.closeLocked(err)
				listener.IOOnClose(err)
			})
			return
		}
	}
}

// Write enqueues buf for asynchronous write and posts a drain. It
// copies buf before returning, since the caller may reuse or mutate it
// immediately afterward.
func (s *Socket) Write(buf []byte) (int, error) {
	s.mu.Lock()
	if s.state != Created && s.state != Connected {
		s.mu.Unlock()
		return 0, liberr.New(liberr.Transport, "write on closed or closing socket")
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.pending = append(s.pending, cp)
	s.bytesPendingWrite += int64(len(cp))
	newPending := s.bytesPendingWrite
	s.mu.Unlock()

	if newPending > s.maxPendingWriteBytes {
		s.log.Warn("tcpsocket: pending write bytes exceed threshold, closing", "pending", newPending, "max", s.maxPendingWriteBytes)
		s.met.Backpressure()
		s.r.Post(func() { s.closeLocked(liberr.New(liberr.Transport, "socket_max_pending_write_bytes exceeded")) })
		return 0, liberr.New(liberr.Transport, "backpressure threshold exceeded")
	}

	s.r.Post(s.drain)
	return len(buf), nil
}

// drain issues writes from the pending queue, batched to at most
// writeBatchBytes per reactor turn so a tight publish loop cannot
// monopolize the reactor (§4.2, resolving the §9 open question on
// write-queue draining).
func (s *Socket) drain() {
	s.mu.Lock()
	if s.conn == nil || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	conn := s.conn

	var batch int64
	i := 0
	for i < len(s.pending) && batch < s.writeBatchBytes {
		batch += int64(len(s.pending[i]))
		i++
	}
	toWrite := s.pending[:i]
	s.pending = s.pending[i:]
	more := len(s.pending) > 0
	s.mu.Unlock()

	for _, b := range toWrite {
		n, err := conn.Write(b)
		s.bytesWritten.Add(int64(n))
		s.mu.Lock()
		s.bytesPendingWrite -= int64(len(b))
		s.mu.Unlock()
		if err != nil {
			s.closeLocked(liberr.Wrap(liberr.Transport, err))
			return
		}
	}

	if more {
		s.r.Post(s.drain)
	}
}

// Close idempotently transitions the socket to Closing and returns a
// future that resolves once the OS handle has been fully closed.
func (s *Socket) Close() *future.Future[struct{}] {
	s.r.Post(func() { s.closeLocked(nil) })
	return s.closeFut
}

func (s *Socket) closeLocked(cause error) {
	s.mu.Lock()
	if s.state == Closed || s.state == Closing {
		s.mu.Unlock()
		return
	}
	s.state = Closing
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	s.mu.Lock()
	s.state = Closed
	s.mu.Unlock()

	if s.untrack != nil {
		s.untrack()
	}

	s.closeOnce.Do(func() {
		s.closeProm.Resolve(struct{}{})
	})

	if cause != nil {
		s.log.Debug("tcpsocket: closed", "cause", cause.Error())
	}
}

// IsConnected reports whether the socket is in the Connected state.
func (s *Socket) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Connected
}

// IsClosing reports whether the socket has begun closing.
func (s *Socket) IsClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Closing
}

// IsClosed reports whether the socket has fully closed.
func (s *Socket) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Closed
}

// State returns a snapshot of the socket's current lifecycle state.
func (s *Socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BytesRead returns the running count of bytes read from the wire.
func (s *Socket) BytesRead() int64 { return s.bytesRead.Load() }

// BytesWritten returns the running count of bytes written to the wire.
func (s *Socket) BytesWritten() int64 { return s.bytesWritten.Load() }

// BytesPendingWrite returns the running count of queued-plus-in-flight
// outbound bytes.
func (s *Socket) BytesPendingWrite() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytesPendingWrite
}
