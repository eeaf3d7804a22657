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

// Package wampmsg holds the WAMP message type codes (§6) and the
// envelope type used to carry a message's raw argument array across
// the Codec boundary.
package wampmsg

// Type is a WAMP message type code, the first element of every WAMP
// message array.
type Type int

const (
	TypeHello        Type = 1
	TypeWelcome      Type = 2
	TypeAbort        Type = 3
	TypeChallenge    Type = 4
	TypeAuthenticate Type = 5
	TypeGoodbye      Type = 6
	TypeError        Type = 8

	TypePublish   Type = 16
	TypePublished Type = 17

	TypeSubscribe   Type = 32
	TypeSubscribed  Type = 33
	TypeUnsubscribe Type = 34
	TypeUnsubscribed Type = 35
	TypeEvent       Type = 36

	TypeCall   Type = 48
	TypeResult Type = 50

	TypeRegister   Type = 64
	TypeRegistered Type = 65
	TypeUnregister Type = 66
	TypeUnregistered Type = 67
	TypeInvocation Type = 68
	TypeYield      Type = 70
)

func (t Type) String() string {
	switch t {
	case TypeHello:
		return "HELLO"
	case TypeWelcome:
		return "WELCOME"
	case TypeAbort:
		return "ABORT"
	case TypeChallenge:
		return "CHALLENGE"
	case TypeAuthenticate:
		return "AUTHENTICATE"
	case TypeGoodbye:
		return "GOODBYE"
	case TypeError:
		return "ERROR"
	case TypePublish:
		return "PUBLISH"
	case TypePublished:
		return "PUBLISHED"
	case TypeSubscribe:
		return "SUBSCRIBE"
	case TypeSubscribed:
		return "SUBSCRIBED"
	case TypeUnsubscribe:
		return "UNSUBSCRIBE"
	case TypeUnsubscribed:
		return "UNSUBSCRIBED"
	case TypeEvent:
		return "EVENT"
	case TypeCall:
		return "CALL"
	case TypeResult:
		return "RESULT"
	case TypeRegister:
		return "REGISTER"
	case TypeRegistered:
		return "REGISTERED"
	case TypeUnregister:
		return "UNREGISTER"
	case TypeUnregistered:
		return "UNREGISTERED"
	case TypeInvocation:
		return "INVOCATION"
	case TypeYield:
		return "YIELD"
	}
	return "UNKNOWN"
}

// Args is a WAMP argument list, as carried by CALL, PUBLISH, EVENT,
// RESULT, INVOCATION and YIELD.
type Args []any

// KwArgs is a WAMP keyword-argument map.
type KwArgs map[string]any

// Details is a WAMP options/details dictionary.
type Details map[string]any

// Message is the envelope every codec decodes into and encodes from:
// the message type followed by its raw field array, exactly as it
// appears on the wire.
type Message struct {
	Type   Type
	Fields []any
}
