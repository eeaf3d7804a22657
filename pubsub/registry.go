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

// Package pubsub implements the router-side Pub/Sub registry (§7):
// realm-scoped topic subscription, in publish-order fan-out delivery,
// and a last-published-args cache for late subscribers.
package pubsub

import (
	"sync"
	"sync/atomic"

	"github.com/lbblscy/wampcc/metrics"
	"github.com/lbblscy/wampcc/wampmsg"
)

// SessionHandle identifies a subscriber or publisher, opaque to this
// package beyond equality comparison.
type SessionHandle any

// Publication is one delivered EVENT payload.
type Publication struct {
	Args    wampmsg.Args
	KwArgs  wampmsg.KwArgs
	Details wampmsg.Details
}

// Subscriber receives published events. Delivery to each subscriber
// is independent: one subscriber's delivery failure never blocks or
// drops delivery to another (§7's drop-on-failure invariant).
type Subscriber interface {
	Deliver(subscriptionID int64, topic string, pub Publication) error
}

type topic struct {
	id          int64
	name        string
	subscribers map[SessionHandle]Subscriber
	last        *Publication
}

// Registry is a realm-scoped Pub/Sub topic table. All methods are
// safe for concurrent use.
type Registry struct {
	met *metrics.Metrics

	mu     sync.Mutex
	nextID atomic.Int64
	topics map[string]map[string]*topic // realm -> name -> topic
	bySub  map[SessionHandle]map[int64]*topic
}

// New constructs an empty Registry. met may be nil.
func New(met *metrics.Metrics) *Registry {
	return &Registry{
		met:    met,
		topics: make(map[string]map[string]*topic),
		bySub:  make(map[SessionHandle]map[int64]*topic),
	}
}

// Subscribe adds sub as a subscriber of name within realm, creating
// the topic on first use, and returns the subscription id together
// with the topic's last-published event, if any (so late subscribers
// can catch the current state without waiting for the next publish).
func (r *Registry) Subscribe(realm, name string, sub SessionHandle, handler Subscriber) (id int64, last *Publication) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.topics[realm]
	if !ok {
		byName = make(map[string]*topic)
		r.topics[realm] = byName
	}
	t, ok := byName[name]
	if !ok {
		t = &topic{
			id:          r.nextID.Add(1),
			name:        name,
			subscribers: make(map[SessionHandle]Subscriber),
		}
		byName[name] = t
	}
	t.subscribers[sub] = handler

	if r.bySub[sub] == nil {
		r.bySub[sub] = make(map[int64]*topic)
	}
	r.bySub[sub][t.id] = t

	r.met.SubscriptionAdded()
	return t.id, t.last
}

// Unsubscribe removes sub from name within realm.
func (r *Registry) Unsubscribe(realm, name string, sub SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byName, ok := r.topics[realm]
	if !ok {
		return
	}
	t, ok := byName[name]
	if !ok {
		return
	}
	r.removeSubFromTopic(realm, t, sub)
}

func (r *Registry) removeSubFromTopic(realm string, t *topic, sub SessionHandle) {
	if _, ok := t.subscribers[sub]; !ok {
		return
	}
	delete(t.subscribers, sub)
	if subs, ok := r.bySub[sub]; ok {
		delete(subs, t.id)
		if len(subs) == 0 {
			delete(r.bySub, sub)
		}
	}
	r.met.SubscriptionRemoved()
	if len(t.subscribers) == 0 {
		delete(r.topics[realm], t.name)
		if len(r.topics[realm]) == 0 {
			delete(r.topics, realm)
		}
	}
}

// Publish delivers pub to every current subscriber of name within
// realm, in an arbitrary but single-threaded order, and remembers pub
// as the topic's last-published event. A delivery error from one
// subscriber does not prevent delivery to the rest (§7).
func (r *Registry) Publish(realm, name string, pub Publication) (delivered int) {
	r.mu.Lock()
	byName, ok := r.topics[realm]
	if !ok {
		byName = make(map[string]*topic)
		r.topics[realm] = byName
	}
	t, ok := byName[name]
	if !ok {
		t = &topic{id: r.nextID.Add(1), name: name, subscribers: make(map[SessionHandle]Subscriber)}
		byName[name] = t
	}
	t.last = &pub

	subs := make(map[SessionHandle]Subscriber, len(t.subscribers))
	for k, v := range t.subscribers {
		subs[k] = v
	}
	subID := t.id
	r.mu.Unlock()

	for subscriber, handler := range subs {
		if err := handler.Deliver(subID, name, pub); err != nil {
			r.Unsubscribe(realm, name, subscriber)
			continue
		}
		delivered++
	}
	r.met.Published()
	return delivered
}

// SessionClosed removes every subscription owned by sub, called once
// a session's transport closes.
func (r *Registry) SessionClosed(sub SessionHandle) {
	r.mu.Lock()
	topics, ok := r.bySub[sub]
	if !ok {
		r.mu.Unlock()
		return
	}
	targets := make([]*topic, 0, len(topics))
	for _, t := range topics {
		targets = append(targets, t)
	}
	r.mu.Unlock()

	for _, t := range targets {
		r.mu.Lock()
		var realm string
		for rlm, byName := range r.topics {
			if byName[t.name] == t {
				realm = rlm
				break
			}
		}
		r.mu.Unlock()
		if realm != "" {
			r.Unsubscribe(realm, t.name, sub)
		}
	}
}

// SubscriberCount returns the number of subscribers currently bound to
// name within realm, for diagnostics and tests.
func (r *Registry) SubscriberCount(realm, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.topics[realm]
	if !ok {
		return 0
	}
	t, ok := byName[name]
	if !ok {
		return 0
	}
	return len(t.subscribers)
}
