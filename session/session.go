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

// Package session implements the WAMP session state machine (§5):
// HELLO/WELCOME/CHALLENGE/AUTHENTICATE negotiation on open, GOODBYE
// negotiation on close, and request/reply correlation for every
// WAMP message pair that carries a request id.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/eventloop"
	"github.com/lbblscy/wampcc/internal/future"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/rawsocket"
	"github.com/lbblscy/wampcc/wampcra"
	"github.com/lbblscy/wampcc/wampmsg"
)

// Role distinguishes which side of the handshake this Session plays.
type Role uint8

const (
	RoleClient Role = iota
	RoleRouter
)

// State is the session's lifecycle state (§5). Client and router
// traverse different intermediate states en route to Open, but both
// converge on Open and terminate at Closed.
type State uint8

const (
	StateInit State = iota
	StateSentHello
	StateRecvChallenge
	StateSentAuth
	StateRecvHello
	StateSentChallenge
	StateRecvAuth
	StateOpen
	StateClosingWait
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSentHello:
		return "SentHello"
	case StateRecvChallenge:
		return "RecvChallenge"
	case StateSentAuth:
		return "SentAuth"
	case StateRecvHello:
		return "RecvHello"
	case StateSentChallenge:
		return "SentChallenge"
	case StateRecvAuth:
		return "RecvAuth"
	case StateOpen:
		return "Open"
	case StateClosingWait:
		return "ClosingWait"
	case StateClosed:
		return "Closed"
	}
	return "Unknown"
}

// Event is an inbound application message delivered to a Handler once
// the session is Open: PUBLISH, EVENT, CALL, INVOCATION and their
// corresponding request ids.
type Event struct {
	Type       wampmsg.Type
	RequestID  int64
	URIorTopic string
	TargetID   int64 // REGISTER/SUBSCRIBE id being torn down, for UNREGISTER/UNSUBSCRIBE
	Args       wampmsg.Args
	KwArgs     wampmsg.KwArgs
	Details    wampmsg.Details
}

// Handler receives WAMP application messages a Session cannot resolve
// against a pending request of its own - i.e. messages a realm's RPC
// and Pub/Sub registries must act on. A nil Handler silently drops
// these events, which is sufficient for a session that only makes
// outbound calls.
type Handler interface {
	HandleEvent(s *Session, ev Event)
}

// Authenticator supplies the client-side response to a router's
// CHALLENGE message.
type Authenticator interface {
	// AuthMethod is the value sent in HELLO's "authmethods" offer.
	AuthMethod() string
	// Respond computes the AUTHENTICATE signature for the given
	// authmethod-specific challenge payload.
	Respond(authMethod string, extra wampmsg.Details) (signature string, extraOut wampmsg.Details, err error)
}

// CRAAuthenticator implements Authenticator using WAMP-CRA.
type CRAAuthenticator struct {
	Secret string
}

func (CRAAuthenticator) AuthMethod() string { return "wampcra" }

func (a CRAAuthenticator) Respond(authMethod string, extra wampmsg.Details) (string, wampmsg.Details, error) {
	challenge, _ := extra["challenge"].(string)
	sig, err := wampcra.RespondToChallenge(a.Secret, challenge)
	if err != nil {
		return "", nil, err
	}
	return sig, wampmsg.Details{}, nil
}

// pendingReq is a request awaiting its correlated reply.
type pendingReq struct {
	replyType wampmsg.Type
	promise   *future.Promise[wampmsg.Message]
}

// Session wraps a rawsocket.Framer with the WAMP session state
// machine and request/reply correlation table. Every exported method
// is safe to call from any goroutine; the underlying Framer only ever
// touches the socket from the owning reactor goroutine.
type Session struct {
	role   Role
	log    logger.Logger
	framer *rawsocket.Framer
	codec  wampmsg.Codec
	auth   Authenticator
	realm  string
	handler Handler

	// events is the application event loop every decoded inbound
	// message is posted to and dispatched from (§4.7: "events are
	// never processed on the reactor thread") - a private Loop
	// constructed by New unless Options.Events supplies a shared one,
	// in which case ownsEvents is false and Close leaves it running
	// for its other owners.
	events     *eventloop.Loop
	ownsEvents bool

	mu               sync.Mutex
	state            State
	sessionID        int64
	nextReqID        atomic.Int64
	pending          map[int64]*pendingReq
	pendingChallenge string

	openProm *future.Promise[struct{}]
	openFut  *future.Future[struct{}]
	openOnce sync.Once

	closeProm *future.Promise[struct{}]
	closeFut  *future.Future[struct{}]
	closeOnce sync.Once
}

// Options configures a new Session.
type Options struct {
	Role   Role
	Realm  string // client: realm to join. router: ignored, read from HELLO.
	Auth   Authenticator // client: nil means no CRA offered. router: nil means no CHALLENGE issued
	Handler Handler
	Log    logger.Logger

	// Events is the application event loop this Session posts decoded
	// inbound messages to. Nil constructs a private Loop owned by this
	// Session alone; a router sharing one Loop across every accepted
	// session passes its own here instead.
	Events *eventloop.Loop
}

// New constructs a Session using codec for message serialization. The
// Session is inert until BindFramer attaches the rawsocket.Framer it
// rides on - the two are constructed in two phases because the Framer
// needs the Session's FrameAdapter as its listener before the Session
// can hold a reference back to the Framer.
func New(framer *rawsocket.Framer, codec wampmsg.Codec, opts Options) *Session {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	op, of := future.New[struct{}]()
	cp, cf := future.New[struct{}]()

	events, ownsEvents := opts.Events, false
	if events == nil {
		events, ownsEvents = eventloop.New(log, eventloop.RunPosted), true
	}

	return &Session{
		role:       opts.Role,
		log:        log,
		framer:     framer,
		codec:      codec,
		auth:       opts.Auth,
		realm:      opts.Realm,
		handler:    opts.Handler,
		events:     events,
		ownsEvents: ownsEvents,
		state:      StateInit,
		pending:    make(map[int64]*pendingReq),
		openProm:   op,
		openFut:    of,
		closeProm:  cp,
		closeFut:   cf,
	}
}

// BindFramer attaches the rawsocket.Framer this Session sends and
// receives through. It must be called once, before Open, for a
// Session constructed with a nil framer.
func BindFramer(s *Session, framer *rawsocket.Framer) {
	s.mu.Lock()
	s.framer = framer
	s.mu.Unlock()
}

// Open begins the handshake: a client Session sends HELLO immediately;
// a router Session waits for one. The returned future resolves once
// the session reaches Open, or is rejected if it closes first.
func (s *Session) Open() *future.Future[struct{}] {
	s.mu.Lock()
	role := s.role
	s.mu.Unlock()

	if role == RoleClient {
		s.sendHello()
	}
	return s.openFut
}

// Done resolves once the session has closed, for any reason.
func (s *Session) Done() *future.Future[struct{}] { return s.closeFut }

// State returns a snapshot of the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the WAMP session id assigned at WELCOME, valid
// only once State() == StateOpen.
func (s *Session) SessionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) nextRequestID() int64 {
	return s.nextReqID.Add(1)
}

func (s *Session) sendHello() {
	s.mu.Lock()
	s.state = StateSentHello
	s.mu.Unlock()

	details := wampmsg.Details{
		"roles": map[string]any{
			"caller":     map[string]any{},
			"callee":     map[string]any{},
			"publisher":  map[string]any{},
			"subscriber": map[string]any{},
		},
	}
	if s.auth != nil {
		details["authmethods"] = []any{s.auth.AuthMethod()}
	}
	s.send(wampmsg.Message{Type: wampmsg.TypeHello, Fields: []any{s.realm, map[string]any(details)}})
}

// send encodes msg and writes it as a single data frame.
func (s *Session) send(msg wampmsg.Message) {
	b, err := s.codec.Encode(msg)
	if err != nil {
		s.log.Error("session: encode failed", "type", msg.Type.String(), "err", err.Error())
		return
	}
	if err := s.framer.SendData(b); err != nil {
		s.log.Warn("session: send failed", "type", msg.Type.String(), "err", err.Error())
	}
}

// onHandshakeComplete backs rawsocket.FrameListener indirectly:
// callers wire onFrame/onClose/onHandshakeComplete into a
// rawsocket.Framer via the frameAdapter returned by FrameAdapter.
func (s *Session) onHandshakeComplete(hs rawsocket.Handshake) {
	s.log.Debug("session: rawsocket handshake complete", "serializer_id", hs.SerializerID)
}

// onFrame runs on the reactor goroutine (per rawsocket.Framer's
// contract): it only decodes the frame, then hands the message off to
// this Session's event loop so dispatch - and every Handler callback
// it can trigger - runs off the reactor thread instead of on it.
func (s *Session) onFrame(f rawsocket.Frame) {
	if f.Kind != rawsocket.KindData {
		return
	}
	msg, err := s.codec.Decode(f.Payload)
	if err != nil {
		s.abort(liberr.Wrap(liberr.Protocol, err))
		return
	}
	s.events.Post(eventloop.Event{Kind: eventloop.KindInboundMessage, Payload: func() { s.dispatch(msg) }})
}

func (s *Session) onClose(err error) {
	s.closeLocked(err)
}

func (s *Session) dispatch(msg wampmsg.Message) {
	switch msg.Type {
	case wampmsg.TypeHello:
		s.handleHello(msg)
	case wampmsg.TypeWelcome:
		s.handleWelcome(msg)
	case wampmsg.TypeChallenge:
		s.handleChallenge(msg)
	case wampmsg.TypeAuthenticate:
		s.handleAuthenticate(msg)
	case wampmsg.TypeAbort:
		s.closeLocked(liberr.New(liberr.Auth, "peer sent ABORT"))
	case wampmsg.TypeGoodbye:
		s.handleGoodbye(msg)
	case wampmsg.TypeError:
		s.handleError(msg)
	default:
		s.handleApplicationMessage(msg)
	}
}

func (s *Session) handleApplicationMessage(msg wampmsg.Message) {
	s.mu.Lock()
	open := s.state == StateOpen
	s.mu.Unlock()
	if !open {
		return
	}

	switch msg.Type {
	case wampmsg.TypeSubscribed, wampmsg.TypePublished, wampmsg.TypeResult,
		wampmsg.TypeRegistered, wampmsg.TypeUnsubscribed, wampmsg.TypeUnregistered:
		s.resolvePending(msg)
	case wampmsg.TypeEvent:
		s.deliver(eventFromEvent(msg))
	case wampmsg.TypeInvocation, wampmsg.TypePublish, wampmsg.TypeSubscribe,
		wampmsg.TypeCall, wampmsg.TypeRegister, wampmsg.TypeUnsubscribe, wampmsg.TypeUnregister,
		wampmsg.TypeYield:
		s.deliver(eventFromMessage(msg))
	default:
		s.log.Warn("session: unexpected message type while open", "type", msg.Type.String())
	}
}

func eventFromMessage(msg wampmsg.Message) Event {
	ev := Event{Type: msg.Type}
	if len(msg.Fields) > 0 {
		if id, ok := toInt64(msg.Fields[0]); ok {
			ev.RequestID = id
		}
	}
	switch msg.Type {
	case wampmsg.TypeCall:
		if len(msg.Fields) > 2 {
			if uri, ok := msg.Fields[2].(string); ok {
				ev.URIorTopic = uri
			}
		}
		if len(msg.Fields) > 3 {
			ev.Args, _ = msg.Fields[3].([]any)
		}
	case wampmsg.TypeInvocation:
		// INVOCATION: [Request, REGISTERED.Registration, Details, CALL.Arguments, CALL.ArgumentsKw]
		if len(msg.Fields) > 1 {
			if id, ok := toInt64(msg.Fields[1]); ok {
				ev.TargetID = id
			}
		}
		if len(msg.Fields) > 3 {
			ev.Args, _ = msg.Fields[3].([]any)
		}
	case wampmsg.TypePublish, wampmsg.TypeSubscribe, wampmsg.TypeRegister:
		if len(msg.Fields) > 2 {
			if uri, ok := msg.Fields[2].(string); ok {
				ev.URIorTopic = uri
			}
		}
		if len(msg.Fields) > 3 {
			ev.Args, _ = msg.Fields[3].([]any)
		}
	case wampmsg.TypeUnregister, wampmsg.TypeUnsubscribe:
		if len(msg.Fields) > 1 {
			if id, ok := toInt64(msg.Fields[1]); ok {
				ev.TargetID = id
			}
		}
	case wampmsg.TypeYield:
		if len(msg.Fields) > 2 {
			ev.Args, _ = msg.Fields[2].([]any)
		}
	}
	return ev
}

func (s *Session) deliver(ev Event) {
	if s.handler != nil {
		s.handler.HandleEvent(s, ev)
	}
}

// eventFromEvent parses an EVENT message: [Subscription, Publication,
// Details, Arguments|omit, ArgumentsKw|omit].
func eventFromEvent(msg wampmsg.Message) Event {
	ev := Event{Type: msg.Type}
	if len(msg.Fields) > 0 {
		if id, ok := toInt64(msg.Fields[0]); ok {
			ev.RequestID = id // the subscription id, not a request id, but shares the field
		}
	}
	if len(msg.Fields) > 3 {
		ev.Args, _ = msg.Fields[3].([]any)
	}
	return ev
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (s *Session) resolvePending(msg wampmsg.Message) {
	if len(msg.Fields) == 0 {
		return
	}
	id, ok := toInt64(msg.Fields[0])
	if !ok {
		return
	}
	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if ok {
		pr.promise.Resolve(msg)
	}
}

func (s *Session) handleError(msg wampmsg.Message) {
	// ERROR: [ERROR, REQUEST.Type, REQUEST.Request, Details, Error|uri, ...]
	if len(msg.Fields) < 4 {
		return
	}
	id, ok := toInt64(msg.Fields[1])
	if !ok {
		return
	}
	s.mu.Lock()
	pr, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	uri, _ := msg.Fields[3].(string)
	var details map[string]any
	if len(msg.Fields) > 2 {
		details, _ = msg.Fields[2].(map[string]any)
	}
	var args []any
	if len(msg.Fields) > 4 {
		args, _ = msg.Fields[4].([]any)
	}
	pr.promise.Reject(&liberr.WampError{URI: uri, Details: details, Args: args})
}

// Call performs a request/reply round trip correlated by request id:
// it sends a msgType message whose fields are the allocated request id
// followed by fields, then blocks until the matching reply arrives, the
// request is rejected, or ctx is done.
func (s *Session) Call(ctx context.Context, msgType wampmsg.Type, replyType wampmsg.Type, fields []any) (wampmsg.Message, error) {
	id := s.nextRequestID()
	full := append([]any{id}, fields...)

	p, f := future.New[wampmsg.Message]()
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return wampmsg.Message{}, liberr.New(liberr.SessionClosed, "session closed")
	}
	s.pending[id] = &pendingReq{replyType: replyType, promise: p}
	s.mu.Unlock()

	s.send(wampmsg.Message{Type: msgType, Fields: full})
	return f.Wait(ctx)
}

// Hello begins the client-side WAMP login handshake, sending HELLO
// and returning a future that resolves once WELCOME (or an
// intervening CHALLENGE/AUTHENTICATE round trip) has moved the
// session to Open. It is the named, client-facing entry point for
// what Open also drives on the router side, which waits for a peer's
// HELLO instead of sending one.
func (s *Session) Hello() *future.Future[struct{}] {
	return s.Open()
}

// Publish sends a PUBLISH for topic and waits for the router's
// PUBLISHED acknowledgement, hiding the wire message type and field
// order behind a typed signature.
func (s *Session) Publish(ctx context.Context, topic string, args wampmsg.Args) error {
	_, err := s.Call(ctx, wampmsg.TypePublish, wampmsg.TypePublished,
		[]any{map[string]any{}, topic, []any(args)})
	return err
}

// Subscribe sends a SUBSCRIBE for topic and returns the subscription
// id the router assigns once it replies SUBSCRIBED.
func (s *Session) Subscribe(ctx context.Context, topic string) (int64, error) {
	msg, err := s.Call(ctx, wampmsg.TypeSubscribe, wampmsg.TypeSubscribed,
		[]any{map[string]any{}, topic})
	if err != nil {
		return 0, err
	}
	if len(msg.Fields) < 2 {
		return 0, liberr.New(liberr.Protocol, "SUBSCRIBED missing subscription id")
	}
	id, _ := toInt64(msg.Fields[1])
	return id, nil
}

// Unsubscribe sends an UNSUBSCRIBE for a previously returned
// subscription id and waits for UNSUBSCRIBED.
func (s *Session) Unsubscribe(ctx context.Context, subscriptionID int64) error {
	_, err := s.Call(ctx, wampmsg.TypeUnsubscribe, wampmsg.TypeUnsubscribed, []any{subscriptionID})
	return err
}

// Register sends a REGISTER for procedure and returns the
// registration id the router assigns once it replies REGISTERED.
func (s *Session) Register(ctx context.Context, procedure string) (int64, error) {
	msg, err := s.Call(ctx, wampmsg.TypeRegister, wampmsg.TypeRegistered,
		[]any{map[string]any{}, procedure})
	if err != nil {
		return 0, err
	}
	if len(msg.Fields) < 2 {
		return 0, liberr.New(liberr.Protocol, "REGISTERED missing registration id")
	}
	id, _ := toInt64(msg.Fields[1])
	return id, nil
}

// Unregister sends an UNREGISTER for a previously returned
// registration id and waits for UNREGISTERED.
func (s *Session) Unregister(ctx context.Context, registrationID int64) error {
	_, err := s.Call(ctx, wampmsg.TypeUnregister, wampmsg.TypeUnregistered, []any{registrationID})
	return err
}

func (s *Session) handleHello(msg wampmsg.Message) {
	s.mu.Lock()
	s.state = StateRecvHello
	s.mu.Unlock()

	if len(msg.Fields) > 0 {
		if realm, ok := msg.Fields[0].(string); ok {
			s.realm = realm
		}
	}

	if s.auth != nil {
		s.sendChallenge()
		return
	}
	s.sendWelcome()
}

func (s *Session) sendChallenge() {
	s.mu.Lock()
	s.state = StateSentChallenge
	s.mu.Unlock()

	cd := wampcra.ChallengeDetails{AuthMethod: s.auth.AuthMethod(), Nonce: "", AuthID: "", Session: 0}
	challenge, err := wampcra.EncodeChallengeDetails(cd)
	if err != nil {
		s.abort(liberr.Wrap(liberr.Auth, err))
		return
	}
	s.mu.Lock()
	s.pendingChallenge = challenge
	s.mu.Unlock()
	s.send(wampmsg.Message{
		Type:   wampmsg.TypeChallenge,
		Fields: []any{s.auth.AuthMethod(), map[string]any{"challenge": challenge}},
	})
}

func (s *Session) handleChallenge(msg wampmsg.Message) {
	s.mu.Lock()
	s.state = StateRecvChallenge
	s.mu.Unlock()

	if s.auth == nil || len(msg.Fields) < 2 {
		s.abort(liberr.New(liberr.Auth, "unexpected CHALLENGE"))
		return
	}
	authMethod, _ := msg.Fields[0].(string)
	extraRaw, _ := msg.Fields[1].(map[string]any)

	sig, extraOut, err := s.auth.Respond(authMethod, extraRaw)
	if err != nil {
		s.abort(liberr.Wrap(liberr.Auth, err))
		return
	}
	s.mu.Lock()
	s.state = StateSentAuth
	s.mu.Unlock()
	s.send(wampmsg.Message{Type: wampmsg.TypeAuthenticate, Fields: []any{sig, map[string]any(extraOut)}})
}

func (s *Session) handleAuthenticate(msg wampmsg.Message) {
	s.mu.Lock()
	s.state = StateRecvAuth
	challenge := s.pendingChallenge
	s.mu.Unlock()

	if cra, ok := s.auth.(CRAAuthenticator); ok && len(msg.Fields) > 0 {
		sig, _ := msg.Fields[0].(string)
		key := wampcra.DeriveKey(cra.Secret, wampcra.ChallengeDetails{})
		if !wampcra.Verify(key, challenge, sig) {
			s.abort(liberr.New(liberr.Auth, "signature verification failed"))
			return
		}
	}
	s.sendWelcome()
}

func (s *Session) sendWelcome() {
	s.mu.Lock()
	s.sessionID = s.nextRequestID()
	id := s.sessionID
	s.mu.Unlock()

	s.send(wampmsg.Message{
		Type:   wampmsg.TypeWelcome,
		Fields: []any{id, map[string]any{"roles": map[string]any{"broker": map[string]any{}, "dealer": map[string]any{}}}},
	})
	s.markOpen(id)
}

func (s *Session) handleWelcome(msg wampmsg.Message) {
	if len(msg.Fields) == 0 {
		s.abort(liberr.New(liberr.Protocol, "WELCOME missing session id"))
		return
	}
	id, _ := toInt64(msg.Fields[0])
	s.markOpen(id)
}

func (s *Session) markOpen(sessionID int64) {
	s.mu.Lock()
	s.sessionID = sessionID
	s.state = StateOpen
	s.mu.Unlock()

	s.openOnce.Do(func() { s.openProm.Resolve(struct{}{}) })
}

func (s *Session) handleGoodbye(msg wampmsg.Message) {
	s.mu.Lock()
	alreadyClosing := s.state == StateClosingWait
	s.state = StateClosingWait
	s.mu.Unlock()

	if !alreadyClosing {
		s.send(wampmsg.Message{Type: wampmsg.TypeGoodbye, Fields: []any{map[string]any{}, "wamp.close.goodbye_and_out"}})
	}
	s.closeLocked(nil)
}

// Close sends GOODBYE (if the session is Open), then marks the session
// Closed and rejects its pending requests. It does not close the
// underlying rawsocket Framer or TCP socket.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state == StateOpen {
		s.mu.Lock()
		s.state = StateClosingWait
		s.mu.Unlock()
		s.send(wampmsg.Message{Type: wampmsg.TypeGoodbye, Fields: []any{map[string]any{}, reason}})
	}
	s.closeLocked(nil)
}

func (s *Session) abort(cause error) {
	s.send(wampmsg.Message{Type: wampmsg.TypeAbort, Fields: []any{map[string]any{}, "wamp.error.protocol_violation"}})
	s.closeLocked(cause)
}

func (s *Session) closeLocked(cause error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if s.ownsEvents {
		s.events.Close()
	}

	for _, pr := range pending {
		pr.promise.Reject(liberr.New(liberr.SessionClosed, "session closed"))
	}

	s.openOnce.Do(func() {
		if cause != nil {
			s.openProm.Reject(cause)
		} else {
			s.openProm.Reject(liberr.New(liberr.SessionClosed, "session closed before open"))
		}
	})

	s.closeOnce.Do(func() { s.closeProm.Resolve(struct{}{}) })
}

// Realm returns the realm this session joined (client) or the realm
// named in the peer's HELLO (router).
func (s *Session) Realm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realm
}

// Send writes an application message with an explicit request id
// already embedded in fields - used by router-side handlers replying
// to a Call-derived Event, where the request id must match the
// peer's original request rather than allocate a fresh one.
func (s *Session) Send(msgType wampmsg.Type, fields []any) {
	s.send(wampmsg.Message{Type: msgType, Fields: fields})
}

// SendError sends an ERROR correlating to requestType/requestID, e.g.
// in response to a CALL the router could not resolve.
func (s *Session) SendError(requestType wampmsg.Type, requestID int64, uri string, details wampmsg.Details, args wampmsg.Args) {
	if details == nil {
		details = wampmsg.Details{}
	}
	s.send(wampmsg.Message{
		Type:   wampmsg.TypeError,
		Fields: []any{int(requestType), requestID, map[string]any(details), uri, []any(args)},
	})
}

// FrameAdapter returns a rawsocket.FrameListener that drives this
// Session's dispatch from a Framer's callbacks. Construct the Framer
// with this adapter, then call Session.Open once the Framer is
// started.
func (s *Session) FrameAdapter() rawsocket.FrameListener {
	return (*frameAdapter)(s)
}

type frameAdapter Session

func (a *frameAdapter) OnHandshakeComplete(hs rawsocket.Handshake) {
	(*Session)(a).onHandshakeComplete(hs)
}
func (a *frameAdapter) OnFrame(f rawsocket.Frame) { (*Session)(a).onFrame(f) }
func (a *frameAdapter) OnClose(err error)         { (*Session)(a).onClose(err) }
