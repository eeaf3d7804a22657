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

// Package router implements the router-side WAMP endpoint this
// implementation adds on top of the client-only transport the
// specification describes: it accepts sessions, performs the
// router-side handshake and HELLO/WELCOME negotiation, and owns a
// per-realm RPC registry and Pub/Sub registry that CALL, REGISTER,
// PUBLISH and SUBSCRIBE messages are dispatched against.
package router

import (
	"context"
	"net"
	"sync"

	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/eventloop"
	"github.com/lbblscy/wampcc/internal/handle"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/metrics"
	"github.com/lbblscy/wampcc/pubsub"
	"github.com/lbblscy/wampcc/rawsocket"
	"github.com/lbblscy/wampcc/reactor"
	"github.com/lbblscy/wampcc/rpc"
	"github.com/lbblscy/wampcc/session"
	"github.com/lbblscy/wampcc/tcpsocket"
	"github.com/lbblscy/wampcc/wampmsg"
)

// Options configures a Router.
type Options struct {
	Auth                       session.Authenticator // nil: no CRA challenge issued
	Log                        logger.Logger
	Metrics                    *metrics.Metrics
	MaxMsgSizeExp              uint8
	SocketMaxPendingWriteBytes int64
	WriteBatchBytes            int64
}

// Router accepts rawsocket connections, negotiates a WAMP session on
// each, and dispatches application messages against realm-scoped RPC
// and Pub/Sub registries shared across every connected session.
type Router struct {
	r    *reactor.Reactor
	log  logger.Logger
	met  *metrics.Metrics
	opts Options

	rpcReg    *rpc.Registry
	pubsubReg *pubsub.Registry

	// handles hands out weak, generation-tagged references to
	// connected sessions (§3, §9 "Handle-to-object dispatch"); the
	// registries index by Handle rather than by *session.Session so a
	// stale handle held past session close resolves to "not found"
	// instead of a live-but-closed session pointer.
	handles *handle.Table

	// events is the single application event loop shared by every
	// accepted session, so dispatch for every connection this Router
	// owns runs off the reactor goroutine (§4.7) without a private
	// Loop per connection.
	events *eventloop.Loop

	mu          sync.Mutex
	sessions    map[*session.Session]struct{}
	sessHandles map[*session.Session]handle.Handle

	pendingInvocations struct {
		sync.Mutex
		m map[int64]pendingInvocation
	}
	nextInvocationID int64
	invMu            sync.Mutex
}

type pendingInvocation struct {
	caller    *session.Session
	callReqID int64
}

// New constructs a Router sharing r's I/O reactor for every accepted
// connection's sockets.
func New(r *reactor.Reactor, opts Options) *Router {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	rt := &Router{
		r:           r,
		log:         log,
		met:         opts.Metrics,
		opts:        opts,
		rpcReg:      rpc.New(opts.Metrics),
		pubsubReg:   pubsub.New(opts.Metrics),
		handles:     handle.New(),
		events:      eventloop.New(log, eventloop.RunPosted),
		sessions:    make(map[*session.Session]struct{}),
		sessHandles: make(map[*session.Session]handle.Handle),
	}
	rt.pendingInvocations.m = make(map[int64]pendingInvocation)
	return rt
}

// Serve accepts connections on listener until it is closed or ctx is
// done, wiring each one through the rawsocket handshake and WAMP
// session negotiation.
func (rt *Router) Serve(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = listener.Close()
		rt.events.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return liberr.Wrap(liberr.Transport, err)
			}
		}
		rt.acceptConn(conn)
	}
}

func (rt *Router) acceptConn(conn net.Conn) {
	sock := tcpsocket.New(rt.r, conn, rt.log, rt.met, rt.opts.SocketMaxPendingWriteBytes, rt.opts.WriteBatchBytes)

	sess := session.New(nil, wampmsg.JSONCodec{}, session.Options{
		Role:    session.RoleRouter,
		Auth:    rt.opts.Auth,
		Handler: rt,
		Log:     rt.log,
		Events:  rt.events,
	})

	hs := rawsocket.Handshake{MaxMsgSizeExp: rt.opts.MaxMsgSizeExp, SerializerID: wampmsg.SerializerJSON}
	framer := rawsocket.NewFramer(sock, rt.log, hs, sess.FrameAdapter())
	session.BindFramer(sess, framer)
	framer.Start()

	h := rt.handles.Add(sess)
	rt.mu.Lock()
	rt.sessions[sess] = struct{}{}
	rt.sessHandles[sess] = h
	rt.mu.Unlock()
	rt.met.SessionOpened()

	go func() {
		sess.Open()
		<-sess.Done().Done()
		rt.sessionClosed(sess)
	}()
}

func (rt *Router) sessionClosed(sess *session.Session) {
	rt.mu.Lock()
	delete(rt.sessions, sess)
	h, ok := rt.sessHandles[sess]
	delete(rt.sessHandles, sess)
	rt.mu.Unlock()

	if !ok {
		return
	}
	rt.rpcReg.SessionClosed(h)
	rt.pubsubReg.SessionClosed(h)
	rt.handles.Remove(h)
	rt.met.SessionClosed()
}

// handleOf returns the weak handle registered for s at accept time.
func (rt *Router) handleOf(s *session.Session) (handle.Handle, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h, ok := rt.sessHandles[s]
	return h, ok
}

// HandleEvent implements session.Handler, dispatching every
// application message the generic Session state machine could not
// resolve itself against this Router's RPC and Pub/Sub registries.
func (rt *Router) HandleEvent(s *session.Session, ev session.Event) {
	switch ev.Type {
	case wampmsg.TypeRegister:
		rt.handleRegister(s, ev)
	case wampmsg.TypeUnregister:
		rt.handleUnregister(s, ev)
	case wampmsg.TypeCall:
		rt.handleCall(s, ev)
	case wampmsg.TypeYield:
		rt.handleYield(s, ev)
	case wampmsg.TypeSubscribe:
		rt.handleSubscribe(s, ev)
	case wampmsg.TypeUnsubscribe:
		rt.handleUnsubscribe(s, ev)
	case wampmsg.TypePublish:
		rt.handlePublish(s, ev)
	}
}

func (rt *Router) handleRegister(s *session.Session, ev session.Event) {
	h, ok := rt.handleOf(s)
	if !ok {
		return
	}
	reg, err := rt.rpcReg.Register(s.Realm(), ev.URIorTopic, h)
	if err != nil {
		rt.sendErrorFor(s, wampmsg.TypeRegister, ev.RequestID, err)
		return
	}
	s.Send(wampmsg.TypeRegistered, []any{ev.RequestID, reg.ID})
}

func (rt *Router) handleUnregister(s *session.Session, ev session.Event) {
	h, ok := rt.handleOf(s)
	if !ok {
		return
	}
	if err := rt.rpcReg.Unregister(h, ev.TargetID); err != nil {
		rt.sendErrorFor(s, wampmsg.TypeUnregister, ev.RequestID, err)
		return
	}
	s.Send(wampmsg.TypeUnregistered, []any{ev.RequestID})
}

func (rt *Router) handleCall(s *session.Session, ev session.Event) {
	reg, ok := rt.rpcReg.Lookup(s.Realm(), ev.URIorTopic)
	if !ok {
		rt.sendErrorFor(s, wampmsg.TypeCall, ev.RequestID, &liberr.WampError{URI: liberr.URINoSuchProcedure})
		return
	}
	calleeHandle, ok := reg.Callee.(handle.Handle)
	if !ok {
		rt.sendErrorFor(s, wampmsg.TypeCall, ev.RequestID, &liberr.WampError{URI: liberr.URINoSuchProcedure})
		return
	}
	calleeVal, ok := rt.handles.Get(calleeHandle)
	if !ok {
		rt.sendErrorFor(s, wampmsg.TypeCall, ev.RequestID, &liberr.WampError{URI: liberr.URINoSuchProcedure})
		return
	}
	callee, ok := calleeVal.(*session.Session)
	if !ok {
		rt.sendErrorFor(s, wampmsg.TypeCall, ev.RequestID, &liberr.WampError{URI: liberr.URINoSuchProcedure})
		return
	}

	rt.invMu.Lock()
	rt.nextInvocationID++
	invID := rt.nextInvocationID
	rt.invMu.Unlock()

	rt.pendingInvocations.Lock()
	rt.pendingInvocations.m[invID] = pendingInvocation{caller: s, callReqID: ev.RequestID}
	rt.pendingInvocations.Unlock()

	callee.Send(wampmsg.TypeInvocation, []any{invID, reg.ID, map[string]any{}, []any(ev.Args)})
}

func (rt *Router) handleYield(s *session.Session, ev session.Event) {
	rt.pendingInvocations.Lock()
	pend, ok := rt.pendingInvocations.m[ev.RequestID]
	if ok {
		delete(rt.pendingInvocations.m, ev.RequestID)
	}
	rt.pendingInvocations.Unlock()
	if !ok {
		return
	}
	pend.caller.Send(wampmsg.TypeResult, []any{pend.callReqID, map[string]any{}, []any(ev.Args)})
}

func (rt *Router) handleSubscribe(s *session.Session, ev session.Event) {
	h, ok := rt.handleOf(s)
	if !ok {
		return
	}
	sub := &sessionSubscriber{sess: s, router: rt, topic: ev.URIorTopic}
	id, last := rt.pubsubReg.Subscribe(s.Realm(), ev.URIorTopic, h, sub)
	s.Send(wampmsg.TypeSubscribed, []any{ev.RequestID, id})
	if last != nil {
		_ = sub.Deliver(id, ev.URIorTopic, *last)
	}
}

func (rt *Router) handleUnsubscribe(s *session.Session, ev session.Event) {
	h, ok := rt.handleOf(s)
	if !ok {
		return
	}
	rt.pubsubReg.Unsubscribe(s.Realm(), ev.URIorTopic, h)
	s.Send(wampmsg.TypeUnsubscribed, []any{ev.RequestID})
}

func (rt *Router) handlePublish(s *session.Session, ev session.Event) {
	rt.pubsubReg.Publish(s.Realm(), ev.URIorTopic, pubsub.Publication{Args: ev.Args})
	s.Send(wampmsg.TypePublished, []any{ev.RequestID, rt.nextPublicationID()})
}

func (rt *Router) nextPublicationID() int64 {
	rt.invMu.Lock()
	defer rt.invMu.Unlock()
	rt.nextInvocationID++
	return rt.nextInvocationID
}

func (rt *Router) sendErrorFor(s *session.Session, requestType wampmsg.Type, requestID int64, err error) {
	if werr, ok := err.(*liberr.WampError); ok {
		s.SendError(requestType, requestID, werr.URI, werr.Details, werr.Args)
		return
	}
	s.SendError(requestType, requestID, liberr.URINoSuchProcedure, nil, nil)
}

// sessionSubscriber adapts a router-connected session.Session to the
// pubsub.Subscriber interface, translating a delivered Publication
// into an EVENT message on the wire.
type sessionSubscriber struct {
	sess  *session.Session
	router *Router
	topic string
}

func (ss *sessionSubscriber) Deliver(subscriptionID int64, topic string, pub pubsub.Publication) error {
	ss.sess.Send(wampmsg.TypeEvent, []any{subscriptionID, ss.router.nextPublicationID(), map[string]any{}, []any(pub.Args)})
	return nil
}

// SessionCount returns the number of currently connected sessions,
// for diagnostics and tests.
func (rt *Router) SessionCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.sessions)
}

// RPCCount returns the number of procedures currently registered
// across every realm, for diagnostics and tests.
func (rt *Router) RPCCount() int {
	return rt.rpcReg.Count()
}
