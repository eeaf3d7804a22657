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

// Package errors defines the error vocabulary surfaced by every other
// wampcc package: transport failures, handshake failures, protocol
// violations, authentication failures, peer-sent WAMP errors, session
// teardown, and application timeouts.
//
// All error values returned by this package implement the standard
// error interface and support errors.Is / errors.As through Unwrap,
// so callers can use the stdlib errors package directly, e.g.:
//
//	var werr *errors.WampError
//	if errors.As(err, &werr) {
//	    log.Println(werr.URI)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies the failure domain of a WampErr, mirroring the
// seven error kinds named in the specification's error handling design.
type Kind uint8

const (
	// Transport marks a socket-level failure: connect failed, unexpected
	// EOF, write error, or a backpressure trip.
	Transport Kind = iota
	// Handshake marks a rawsocket handshake failure: magic-byte mismatch,
	// unsupported serializer, or a payload exceeding the negotiated maximum.
	Handshake
	// Protocol marks a malformed WAMP message, a reply without a matching
	// request, or a message received while the session is in the wrong state.
	Protocol
	// Auth marks an authentication failure: unsupported CHALLENGE method,
	// missing secret, or a peer ABORT during authentication.
	Auth
	// Wamp marks a peer-sent ERROR message correlating to one of our
	// requests; see WampError for the carried URI and details.
	Wamp
	// SessionClosed marks a request abandoned because the session closed
	// before a reply arrived.
	SessionClosed
	// Timeout marks an application-level wait that expired.
	Timeout
)

// String renders the Kind using the same names used in the specification.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "TransportError"
	case Handshake:
		return "HandshakeError"
	case Protocol:
		return "ProtocolError"
	case Auth:
		return "AuthError"
	case Wamp:
		return "WampError"
	case SessionClosed:
		return "SessionClosed"
	case Timeout:
		return "Timeout"
	}
	return "UnknownError"
}

// WampErr is the concrete error type used throughout wampcc. It carries
// a Kind for programmatic dispatch, a human message, and an optional
// parent error (the low-level cause, e.g. the *net.OpError behind a
// Transport error).
type WampErr struct {
	kind   Kind
	msg    string
	parent error
}

// New creates a WampErr of the given kind with the given message.
func New(kind Kind, msg string) *WampErr {
	return &WampErr{kind: kind, msg: msg}
}

// Newf creates a WampErr of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *WampErr {
	return &WampErr{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a WampErr of the given kind wrapping a lower-level cause.
// Wrap returns nil if cause is nil, so it is safe to use as
// `return errors.Wrap(errors.Transport, err)` in a function that may
// receive a nil err.
func Wrap(kind Kind, cause error) *WampErr {
	if cause == nil {
		return nil
	}
	return &WampErr{kind: kind, msg: cause.Error(), parent: cause}
}

// Error implements the error interface.
func (e *WampErr) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the error's failure domain.
func (e *WampErr) Kind() Kind {
	return e.kind
}

// Unwrap exposes the wrapped cause, if any, to the standard errors package.
func (e *WampErr) Unwrap() error {
	return e.parent
}

// Is reports whether target is a *WampErr with the same Kind. This lets
// callers write `errors.Is(err, errors.New(errors.Timeout, ""))`-style
// checks, though comparing via Kind() directly is usually clearer.
func (e *WampErr) Is(target error) bool {
	var o *WampErr
	if !errors.As(target, &o) {
		return false
	}
	return o.kind == e.kind
}

// IsKind reports whether err is, or wraps, a *WampErr of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *WampErr
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}

// WampError represents a peer-sent WAMP ERROR message that correlates to
// one of our own pending requests (CALL, SUBSCRIBE, REGISTER, ...). The
// URI carries the error semantics, e.g. "wamp.error.procedure_already_exists".
type WampError struct {
	URI     string
	Details map[string]any
	Args    []any
}

// Error implements the error interface.
func (e *WampError) Error() string {
	return fmt.Sprintf("%s: %s", Wamp, e.URI)
}

// Kind always returns Wamp, so WampError participates in the same
// Kind()-based dispatch as WampErr.
func (e *WampError) Kind() Kind {
	return Wamp
}

// Common procedure-registry and pub/sub URIs used by the RPC and
// Pub/Sub registries, named exactly as the specification's §8 invariants
// require.
const (
	URIProcedureAlreadyExists = "wamp.error.procedure_already_exists"
	URINoSuchProcedure        = "wamp.error.no_such_procedure"
	URINoSuchRegistration     = "wamp.error.no_such_registration"
	URINoSuchSubscription     = "wamp.error.no_such_subscription"
	URINoSuchSession          = "wamp.error.no_such_session"
	URIInvalidURI             = "wamp.error.invalid_uri"
	URINotAuthorized          = "wamp.error.not_authorized"
)
