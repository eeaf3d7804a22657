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

package wampmsg

import (
	"encoding/json"

	"github.com/ugorji/go/codec"

	liberr "github.com/lbblscy/wampcc/errors"
)

// SerializerID identifies a wire serialization, matching the rawsocket
// handshake's serializer_id field.
const (
	SerializerJSON    uint8 = 1
	SerializerMsgpack uint8 = 2
)

// Codec serializes and deserializes a Message to and from a single
// rawsocket frame payload.
type Codec interface {
	SerializerID() uint8
	Encode(m Message) ([]byte, error)
	Decode(b []byte) (Message, error)
}

// CodecForSerializerID returns the Codec matching a negotiated
// serializer_id, or an error if the id is unrecognized.
func CodecForSerializerID(id uint8) (Codec, error) {
	switch id {
	case SerializerJSON:
		return JSONCodec{}, nil
	case SerializerMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, liberr.Newf(liberr.Protocol, "unsupported serializer_id %d", id)
	}
}

// JSONCodec serializes WAMP messages as a JSON array, per §4.3's
// text-transport requirement that each message arrive in a single
// frame. It uses encoding/json directly, matching the stdlib choice
// the teacher repo makes for its other plain-JSON wire formats.
type JSONCodec struct{}

func (JSONCodec) SerializerID() uint8 { return SerializerJSON }

func (JSONCodec) Encode(m Message) ([]byte, error) {
	arr := make([]any, 0, 1+len(m.Fields))
	arr = append(arr, int(m.Type))
	arr = append(arr, m.Fields...)
	b, err := json.Marshal(arr)
	if err != nil {
		return nil, liberr.Wrap(liberr.Protocol, err)
	}
	return b, nil
}

func (JSONCodec) Decode(b []byte) (Message, error) {
	var arr []json.RawMessage
	if err := json.Unmarshal(b, &arr); err != nil {
		return Message{}, liberr.Wrap(liberr.Protocol, err)
	}
	if len(arr) == 0 {
		return Message{}, liberr.New(liberr.Protocol, "empty message array")
	}
	var typ int
	if err := json.Unmarshal(arr[0], &typ); err != nil {
		return Message{}, liberr.Wrap(liberr.Protocol, err)
	}
	fields := make([]any, 0, len(arr)-1)
	for _, raw := range arr[1:] {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Message{}, liberr.Wrap(liberr.Protocol, err)
		}
		fields = append(fields, v)
	}
	return Message{Type: Type(typ), Fields: fields}, nil
}

// MsgpackCodec serializes WAMP messages with MessagePack, via
// ugorji/go/codec, matching serializer_id=2 of the rawsocket
// handshake.
type MsgpackCodec struct{}

func (MsgpackCodec) SerializerID() uint8 { return SerializerMsgpack }

func (MsgpackCodec) Encode(m Message) ([]byte, error) {
	arr := make([]any, 0, 1+len(m.Fields))
	arr = append(arr, int(m.Type))
	arr = append(arr, m.Fields...)

	var out []byte
	h := &codec.MsgpackHandle{}
	enc := codec.NewEncoderBytes(&out, h)
	if err := enc.Encode(arr); err != nil {
		return nil, liberr.Wrap(liberr.Protocol, err)
	}
	return out, nil
}

func (MsgpackCodec) Decode(b []byte) (Message, error) {
	var arr []any
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	dec := codec.NewDecoderBytes(b, h)
	if err := dec.Decode(&arr); err != nil {
		return Message{}, liberr.Wrap(liberr.Protocol, err)
	}
	if len(arr) == 0 {
		return Message{}, liberr.New(liberr.Protocol, "empty message array")
	}
	typ, err := toInt(arr[0])
	if err != nil {
		return Message{}, liberr.Wrap(liberr.Protocol, err)
	}
	return Message{Type: Type(typ), Fields: arr[1:]}, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, liberr.Newf(liberr.Protocol, "message type field has non-numeric value %T", v)
	}
}
