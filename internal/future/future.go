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

// Package future provides the Go analogue of the C++ promise/future
// pairs the specification's API is described in terms of (connect,
// hello, call, close all return a future). A channel-backed future
// composes naturally with select and context.Context, which is how
// callers apply their own wait-for-timeout per §5.
package future

import (
	"context"
	"sync"
)

// state is shared between a Promise and every Future derived from it.
// done is closed exactly once, after val/err are written; close()
// happens-before every receive on done, so concurrent Wait callers
// observe a fully-written val/err with no further synchronization.
type state[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// Future is a read-only, multi-reader handle on a value that becomes
// available later. It is safe to call Wait from any number of
// goroutines concurrently.
type Future[T any] struct {
	s *state[T]
}

// Promise is the write side of a Future. Resolve/Reject settle the
// Promise; only the first call has any effect; later calls are no-ops.
// Because the value is written to shared memory and made visible via a
// channel close rather than via an object being torn down, there is no
// window where a waiter can observe a half-destroyed Promise - the
// "promise-then-delete hazard" the Design Notes call out does not
// arise in this representation.
type Promise[T any] struct {
	s *state[T]
}

// New creates a connected Promise/Future pair.
func New[T any]() (*Promise[T], *Future[T]) {
	s := &state[T]{done: make(chan struct{})}
	return &Promise[T]{s: s}, &Future[T]{s: s}
}

// Resolve fulfills the future with a value.
func (p *Promise[T]) Resolve(v T) {
	p.s.once.Do(func() {
		p.s.val = v
		close(p.s.done)
	})
}

// Reject fulfills the future with an error.
func (p *Promise[T]) Reject(err error) {
	p.s.once.Do(func() {
		p.s.err = err
		close(p.s.done)
	})
}

// Wait blocks until the future is resolved or ctx is done, whichever
// comes first. A ctx cancellation does not resolve the future itself -
// another waiter, or the eventual resolution, still observes the
// original outcome.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.s.done:
		return f.s.val, f.s.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the future resolves,
// useful for select statements that also watch other events.
func (f *Future[T]) Done() <-chan struct{} {
	return f.s.done
}

// Peek returns the resolved value/error and true if the future has
// already settled, without blocking.
func (f *Future[T]) Peek() (val T, err error, ok bool) {
	select {
	case <-f.s.done:
		return f.s.val, f.s.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
