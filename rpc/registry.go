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

// Package rpc implements the router-side RPC registry (§7): realm-
// scoped procedure registration with exact-URI matching and a single
// global monotonic registration-id counter.
package rpc

import (
	"sync"
	"sync/atomic"

	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/metrics"
)

// SessionHandle identifies the callee owning a registration, opaque
// to this package beyond equality comparison.
type SessionHandle any

// Registration is one realm-scoped procedure binding.
type Registration struct {
	ID       int64
	Realm    string
	URI      string
	Callee   SessionHandle
	Internal bool
}

// Registry is a realm-scoped RPC procedure table. All methods are
// safe for concurrent use.
type Registry struct {
	met *metrics.Metrics

	mu      sync.Mutex
	nextID  atomic.Int64
	byRealmURI map[string]map[string]*Registration // realm -> uri -> reg
	byCallee   map[SessionHandle]map[int64]*Registration
}

// New constructs an empty Registry. met may be nil.
func New(met *metrics.Metrics) *Registry {
	return &Registry{
		met:        met,
		byRealmURI: make(map[string]map[string]*Registration),
		byCallee:   make(map[SessionHandle]map[int64]*Registration),
	}
}

// Register binds uri to callee within realm. It fails with
// wamp.error.procedure_already_exists if uri is already bound in that
// realm, per §7's exact-URI-matching invariant.
func (r *Registry) Register(realm, uri string, callee SessionHandle) (*Registration, error) {
	return r.register(realm, uri, callee, false)
}

// RegisterInternal binds uri to a router-internal procedure handler
// (not backed by a WAMP session), e.g. a meta-API procedure.
func (r *Registry) RegisterInternal(realm, uri string, callee SessionHandle) (*Registration, error) {
	return r.register(realm, uri, callee, true)
}

func (r *Registry) register(realm, uri string, callee SessionHandle, internal bool) (*Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byURI, ok := r.byRealmURI[realm]
	if !ok {
		byURI = make(map[string]*Registration)
		r.byRealmURI[realm] = byURI
	}
	if _, exists := byURI[uri]; exists {
		return nil, &liberr.WampError{URI: liberr.URIProcedureAlreadyExists, Details: map[string]any{"realm": realm, "procedure": uri}}
	}

	reg := &Registration{
		ID:       r.nextID.Add(1),
		Realm:    realm,
		URI:      uri,
		Callee:   callee,
		Internal: internal,
	}
	byURI[uri] = reg

	if r.byCallee[callee] == nil {
		r.byCallee[callee] = make(map[int64]*Registration)
	}
	r.byCallee[callee][reg.ID] = reg

	r.met.RegistrationAdded()
	return reg, nil
}

// Lookup finds the registration bound to uri within realm, by exact
// match.
func (r *Registry) Lookup(realm, uri string) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byURI, ok := r.byRealmURI[realm]
	if !ok {
		return nil, false
	}
	reg, ok := byURI[uri]
	return reg, ok
}

// Unregister removes a single registration by id, owned by callee.
func (r *Registry) Unregister(callee SessionHandle, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, ok := r.byCallee[callee]
	if !ok {
		return &liberr.WampError{URI: liberr.URINoSuchRegistration}
	}
	reg, ok := regs[id]
	if !ok {
		return &liberr.WampError{URI: liberr.URINoSuchRegistration}
	}
	delete(regs, id)
	if len(regs) == 0 {
		delete(r.byCallee, callee)
	}
	if byURI, ok := r.byRealmURI[reg.Realm]; ok {
		delete(byURI, reg.URI)
		if len(byURI) == 0 {
			delete(r.byRealmURI, reg.Realm)
		}
	}
	r.met.RegistrationRemoved()
	return nil
}

// SessionClosed removes every registration owned by callee, called
// once a session's transport closes so its procedures stop resolving.
func (r *Registry) SessionClosed(callee SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	regs, ok := r.byCallee[callee]
	if !ok {
		return
	}
	for _, reg := range regs {
		if byURI, ok := r.byRealmURI[reg.Realm]; ok {
			delete(byURI, reg.URI)
			if len(byURI) == 0 {
				delete(r.byRealmURI, reg.Realm)
			}
		}
		r.met.RegistrationRemoved()
	}
	delete(r.byCallee, callee)
}

// Count returns the number of live registrations across all realms,
// for diagnostics and tests.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, byURI := range r.byRealmURI {
		n += len(byURI)
	}
	return n
}
