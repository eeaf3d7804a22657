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

// Package metrics exposes Prometheus instrumentation for the registries
// and the reactor. It is a pure observer: nothing in wampcc reads these
// values back to make a routing decision, so a nil *Metrics is always
// safe to use (every method is a no-op on a nil receiver).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and gauges a Kernel registers into a
// prometheus.Registerer. Construct one with New and pass it to
// kernel.New; pass nil to disable instrumentation entirely.
type Metrics struct {
	ActiveSessions   prometheus.Gauge
	Registrations    prometheus.Gauge
	Subscriptions    prometheus.Gauge
	PublishedTotal   prometheus.Counter
	ReactorQueueDrop prometheus.Counter
	BackpressureTrip prometheus.Counter
}

// New creates a Metrics bundle and registers it into reg. Pass
// prometheus.NewRegistry() for an isolated registry in tests, or
// prometheus.DefaultRegisterer in a process that exposes /metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wampcc_active_sessions",
			Help: "Number of WAMP sessions currently Open.",
		}),
		Registrations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wampcc_registrations",
			Help: "Number of live RPC registrations across all realms.",
		}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wampcc_subscriptions",
			Help: "Number of live pub/sub subscriptions across all realms.",
		}),
		PublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wampcc_published_total",
			Help: "Total number of PUBLISH events routed to subscribers.",
		}),
		ReactorQueueDrop: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wampcc_reactor_queue_depth",
			Help: "Total number of closures posted to the I/O reactor.",
		}),
		BackpressureTrip: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wampcc_backpressure_trips_total",
			Help: "Total number of sockets force-closed for exceeding socket_max_pending_write_bytes.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ActiveSessions, m.Registrations, m.Subscriptions,
			m.PublishedTotal, m.ReactorQueueDrop, m.BackpressureTrip,
		)
	}
	return m
}

func (m *Metrics) incSession() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) decSession() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

// SessionOpened records a session transitioning to Open.
func (m *Metrics) SessionOpened() { m.incSession() }

// SessionClosed records a session transitioning to Closed.
func (m *Metrics) SessionClosed() { m.decSession() }

// RegistrationAdded records a successful RPC registration.
func (m *Metrics) RegistrationAdded() {
	if m != nil {
		m.Registrations.Inc()
	}
}

// RegistrationRemoved records an RPC registration removal.
func (m *Metrics) RegistrationRemoved() {
	if m != nil {
		m.Registrations.Dec()
	}
}

// SubscriptionAdded records a new pub/sub subscription.
func (m *Metrics) SubscriptionAdded() {
	if m != nil {
		m.Subscriptions.Inc()
	}
}

// SubscriptionRemoved records a pub/sub subscription removal.
func (m *Metrics) SubscriptionRemoved() {
	if m != nil {
		m.Subscriptions.Dec()
	}
}

// Published records one PUBLISH routed to its subscribers.
func (m *Metrics) Published() {
	if m != nil {
		m.PublishedTotal.Inc()
	}
}

// Posted records one closure posted to the I/O reactor.
func (m *Metrics) Posted() {
	if m != nil {
		m.ReactorQueueDrop.Inc()
	}
}

// Backpressure records a socket force-closed for exceeding its pending
// write threshold.
func (m *Metrics) Backpressure() {
	if m != nil {
		m.BackpressureTrip.Inc()
	}
}
