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

// Package eventloop implements the application-facing worker loop
// (§5): a second single-threaded queue, separate from the I/O
// reactor, that drains typed events - inbound messages already
// decoded by a session, session state transitions, and timer ticks -
// in FIFO order on its own goroutine.
package eventloop

import (
	"sync"

	"github.com/lbblscy/wampcc/logger"
)

// Kind classifies an Event for a Loop's consumer.
type Kind uint8

const (
	KindInboundMessage Kind = iota
	KindSessionStateChange
	KindTimerTick
)

// Event is one unit of work drained by a Loop, in the order it was
// posted.
type Event struct {
	Kind    Kind
	Payload any
}

// Handler processes one drained Event. Handle runs on the Loop's own
// goroutine; it must not block indefinitely, as doing so stalls every
// other event queued behind it.
type Handler func(Event)

// Loop is a single-threaded FIFO event queue, structurally identical
// to reactor.Reactor's queue but carrying typed application Events
// instead of arbitrary closures, and owned by application code rather
// than socket I/O.
type Loop struct {
	log     logger.Logger
	handler Handler

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	closing bool
	closed  chan struct{}
}

// New constructs a Loop that dispatches every drained Event to
// handler, and starts its worker goroutine immediately.
func New(log logger.Logger, handler Handler) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	l := &Loop{
		log:     log,
		handler: handler,
		closed:  make(chan struct{}),
	}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

// Post enqueues ev for processing. Safe to call from any goroutine,
// including from within Handler itself (the event still runs on a
// future turn, never inline).
func (l *Loop) Post(ev Event) {
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, ev)
	l.mu.Unlock()
	l.cond.Signal()
}

func (l *Loop) run() {
	defer close(l.closed)
	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closing {
			l.cond.Wait()
		}
		if len(l.queue) == 0 && l.closing {
			l.mu.Unlock()
			return
		}
		ev := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.runSafely(ev)
	}
}

func (l *Loop) runSafely(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("eventloop: handler panicked", "kind", ev.Kind, "recover", r)
		}
	}()
	l.handler(ev)
}

// RunPosted is a ready-made Handler that runs ev.Payload as a func()
// if that is its dynamic type, and otherwise drops the event. It lets
// a Loop be shared by unrelated callers that just want to hand it a
// closure - mirroring reactor.Reactor.Post - instead of each owner
// hand-rolling its own Kind/Payload decoding.
func RunPosted(ev Event) {
	if fn, ok := ev.Payload.(func()); ok {
		fn()
	}
}

// Close stops accepting new events and signals the worker goroutine to
// drain whatever remains and exit; it does not block. Use Wait to
// block until drained.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

// Wait returns a channel that is closed once the worker goroutine has
// fully drained and exited after Close.
func (l *Loop) Wait() <-chan struct{} {
	return l.closed
}
