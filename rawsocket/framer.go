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

package rawsocket

import (
	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/tcpsocket"
)

// FrameListener receives fully-accumulated frames and lifecycle events
// from a Framer, mirroring tcpsocket.Listener one layer up.
type FrameListener interface {
	// OnHandshakeComplete fires once the 4-byte handshake exchange has
	// succeeded on both sides; hs is the peer's handshake.
	OnHandshakeComplete(hs Handshake)
	// OnFrame fires once per fully-accumulated frame. Implementations
	// must not retain payload beyond the call.
	OnFrame(f Frame)
	// OnClose fires once, when the underlying socket closes for any
	// reason, including a failed or mismatched handshake.
	OnClose(err error)
}

type framerState uint8

const (
	stateAwaitingHandshake framerState = iota
	stateAwaitingHeader
	stateAwaitingPayload
	stateDone
)

// Framer layers the rawsocket handshake and length-prefixed frame
// protocol (§4.4) onto a tcpsocket.Socket. It implements
// tcpsocket.Listener so it can be handed directly to Socket.StartRead.
type Framer struct {
	sock *tcpsocket.Socket
	log  logger.Logger
	fl   FrameListener

	local Handshake

	state   framerState
	buf     []byte
	peer    Handshake
	maxSize int

	pendingTag    frameTag
	pendingLength int
}

// NewFramer wires a Framer between sock and fl. local is this side's
// own handshake offer, sent immediately once the socket's read loop is
// started via Start.
func NewFramer(sock *tcpsocket.Socket, log logger.Logger, local Handshake, fl FrameListener) *Framer {
	if log == nil {
		log = logger.Nop()
	}
	return &Framer{
		sock:  sock,
		log:   log,
		fl:    fl,
		local: local,
		state: stateAwaitingHandshake,
	}
}

// Start sends the local handshake and begins reading frames from the
// wire.
func (fr *Framer) Start() {
	hs := fr.local.Encode()
	_, _ = fr.sock.Write(hs[:])
	fr.sock.StartRead(fr)
}

// IOOnRead implements tcpsocket.Listener. It is always invoked from the
// owning reactor goroutine, so fr's state needs no additional locking.
func (fr *Framer) IOOnRead(b []byte) {
	fr.buf = append(fr.buf, b...)

	for {
		switch fr.state {
		case stateAwaitingHandshake:
			if len(fr.buf) < 4 {
				return
			}
			var raw [4]byte
			copy(raw[:], fr.buf[:4])
			fr.buf = fr.buf[4:]

			hs, err := DecodeHandshake(raw)
			if err != nil {
				fr.log.Warn("rawsocket: handshake failed", "err", err.Error())
				fr.state = stateDone
				fr.sock.Close()
				return
			}
			fr.peer = hs
			fr.maxSize = minInt(fr.local.MaxPayloadBytes(), hs.MaxPayloadBytes())
			fr.state = stateAwaitingHeader
			fr.fl.OnHandshakeComplete(hs)

		case stateAwaitingHeader:
			if len(fr.buf) < 4 {
				return
			}
			var raw [4]byte
			copy(raw[:], fr.buf[:4])
			fr.buf = fr.buf[4:]
			h := decodeHeader(raw)
			if h.length > fr.maxSize {
				fr.log.Warn("rawsocket: oversized frame rejected", "length", h.length, "max", fr.maxSize)
				fr.state = stateDone
				fr.sock.Close()
				return
			}
			fr.pendingTag = h.tag
			fr.pendingLength = h.length
			fr.state = stateAwaitingPayload

		case stateAwaitingPayload:
			if len(fr.buf) < fr.pendingLength {
				return
			}
			payload := make([]byte, fr.pendingLength)
			copy(payload, fr.buf[:fr.pendingLength])
			fr.buf = fr.buf[fr.pendingLength:]
			fr.state = stateAwaitingHeader
			fr.dispatch(fr.pendingTag, payload)

		case stateDone:
			return
		}
	}
}

func (fr *Framer) dispatch(tag frameTag, payload []byte) {
	switch tag {
	case tagData:
		fr.fl.OnFrame(Frame{Kind: KindData, Payload: payload})
	case tagPing:
		hdr := EncodePongFrame(len(payload))
		_, _ = fr.sock.Write(hdr[:])
		_, _ = fr.sock.Write(payload)
		fr.fl.OnFrame(Frame{Kind: KindPing, Payload: payload})
	case tagPong:
		fr.fl.OnFrame(Frame{Kind: KindPong, Payload: payload})
	default:
		fr.log.Warn("rawsocket: unknown frame tag", "tag", tag)
	}
}

// IOOnClose implements tcpsocket.Listener.
func (fr *Framer) IOOnClose(err error) {
	fr.state = stateDone
	fr.fl.OnClose(err)
}

// SendData writes a data frame carrying payload.
func (fr *Framer) SendData(payload []byte) error {
	if len(payload) > fr.maxSize && fr.maxSize > 0 {
		return liberr.Newf(liberr.Handshake, "payload of %d bytes exceeds negotiated max %d", len(payload), fr.maxSize)
	}
	hdr := EncodeDataFrame(len(payload))
	if _, err := fr.sock.Write(hdr[:]); err != nil {
		return err
	}
	_, err := fr.sock.Write(payload)
	return err
}

// SendPing writes a PING frame carrying payload; the peer is expected
// to echo it back as a PONG.
func (fr *Framer) SendPing(payload []byte) error {
	hdr := EncodePingFrame(len(payload))
	if _, err := fr.sock.Write(hdr[:]); err != nil {
		return err
	}
	_, err := fr.sock.Write(payload)
	return err
}

// PeerHandshake returns the handshake received from the peer, valid
// only once OnHandshakeComplete has fired.
func (fr *Framer) PeerHandshake() Handshake { return fr.peer }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
