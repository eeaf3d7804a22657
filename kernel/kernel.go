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

// Package kernel wires together the process-wide pieces every wampcc
// program needs: the I/O reactor, the application event loop,
// configuration, structured logging, and metrics - and coordinates
// their shutdown with a single errgroup.
package kernel

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lbblscy/wampcc/config"
	"github.com/lbblscy/wampcc/eventloop"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/metrics"
	"github.com/lbblscy/wampcc/reactor"
)

// Kernel owns the process's single reactor and application event
// loop, plus the logger/config/metrics every other component is
// constructed with.
type Kernel struct {
	ID      string
	Cfg     config.Config
	Log     logger.Logger
	Metrics *metrics.Metrics
	Reactor *reactor.Reactor
	Events  *eventloop.Loop
}

// New constructs a Kernel: a fresh correlation id, the given config
// (or config.Default() if the zero value), a logger tagged with the
// kernel's id, and a started reactor + event loop.
func New(cfg config.Config, log logger.Logger, met *metrics.Metrics, handler eventloop.Handler) *Kernel {
	id := uuid.NewString()
	if cfg == (config.Config{}) {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.New("wampcc", logger.InfoLevel)
	}
	log = log.With("kernel_id", id)

	if handler == nil {
		handler = eventloop.RunPosted
	}

	return &Kernel{
		ID:      id,
		Cfg:     cfg,
		Log:     log,
		Metrics: met,
		Reactor: reactor.New(log, met),
		Events:  eventloop.New(log, handler),
	}
}

// Run blocks until ctx is canceled, then shuts down the reactor and
// event loop together via an errgroup, returning the first error
// either reports.
func (k *Kernel) Run(ctx context.Context) error {
	<-ctx.Done()
	return k.Shutdown(context.Background())
}

// Shutdown stops the reactor and event loop, bounded by ctx.
func (k *Kernel) Shutdown(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return k.Reactor.Shutdown(gctx)
	})
	g.Go(func() error {
		k.Events.Close()
		select {
		case <-k.Events.Wait():
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	return g.Wait()
}
