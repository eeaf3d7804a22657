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

// Package rawsocket implements WAMP's length-prefixed binary transport
// (§4.4): the 4-byte magic handshake followed by 4-byte-header-prefixed
// frames, distinguishing data frames from PING/PONG.
package rawsocket

import (
	"encoding/binary"

	liberr "github.com/lbblscy/wampcc/errors"
)

// magicByte is the fixed first octet of every handshake exchange.
const magicByte = 0x7F

// frameTag occupies the top 8 bits of a frame header.
type frameTag uint8

const (
	tagData frameTag = 0x00
	tagPing frameTag = 0x01
	tagPong frameTag = 0x02
)

const maxLengthBits = 0x00FFFFFF

// Handshake is the 4-byte message exchanged by both sides before any
// framed WAMP message: magic byte, then (max_msg_size_exp<<4 |
// serializer_id), then two reserved zero bytes.
type Handshake struct {
	MaxMsgSizeExp uint8 // 0-15, giving a max frame of 2^(9+exp) bytes
	SerializerID  uint8 // 1 = JSON, 2 = MessagePack
}

// Encode renders the handshake as its 4-byte wire form.
func (h Handshake) Encode() [4]byte {
	return [4]byte{
		magicByte,
		(h.MaxMsgSizeExp << 4) | (h.SerializerID & 0x0F),
		0x00,
		0x00,
	}
}

// DecodeHandshake parses a received 4-byte handshake. It returns a
// HandshakeError if the first byte is not the magic 0x7F, per §4.4:
// "If the peer's reply is not 0x7F... the transport is closed."
func DecodeHandshake(b [4]byte) (Handshake, error) {
	if b[0] != magicByte {
		return Handshake{}, liberr.Newf(liberr.Handshake, "bad magic byte 0x%02X, expected 0x%02X", b[0], magicByte)
	}
	return Handshake{
		MaxMsgSizeExp: b[1] >> 4,
		SerializerID:  b[1] & 0x0F,
	}, nil
}

// MaxPayloadBytes returns 2^(9+exp) for this handshake's negotiated
// max_msg_size_exp.
func (h Handshake) MaxPayloadBytes() int {
	return 1 << (9 + uint(h.MaxMsgSizeExp))
}

// EncodeHeader renders a 4-byte big-endian frame header: the low 24
// bits carry the payload length, the top 8 bits carry the frame tag.
func encodeHeader(tag frameTag, length int) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(length)&maxLengthBits)
	b[0] = byte(tag)
	return b
}

// EncodeDataFrame renders a data frame header for a payload of the
// given length.
func EncodeDataFrame(length int) [4]byte { return encodeHeader(tagData, length) }

// EncodePingFrame renders a PING frame header.
func EncodePingFrame(length int) [4]byte { return encodeHeader(tagPing, length) }

// EncodePongFrame renders a PONG frame header, echoing PING's payload
// with the opposite tag per §4.4.
func EncodePongFrame(length int) [4]byte { return encodeHeader(tagPong, length) }

// decodedHeader is a parsed 4-byte frame header.
type decodedHeader struct {
	tag    frameTag
	length int
}

func decodeHeader(b [4]byte) decodedHeader {
	tag := frameTag(b[0])
	var lenBytes [4]byte
	copy(lenBytes[:], b[:])
	lenBytes[0] = 0
	return decodedHeader{tag: tag, length: int(binary.BigEndian.Uint32(lenBytes[:]))}
}

// FrameKind classifies a decoded frame for the Framer's consumer.
type FrameKind uint8

const (
	KindData FrameKind = iota
	KindPing
	KindPong
)

// Frame is one fully-accumulated rawsocket frame: its kind and payload.
type Frame struct {
	Kind    FrameKind
	Payload []byte
}
