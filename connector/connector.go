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

// Package connector wires the client-side dial path: a reactor
// connect, a tcpsocket.Socket, a rawsocket.Framer performing the
// handshake, and a session.Session performing HELLO/WELCOME - exposed
// as a single future that resolves to a ready, Open session.
package connector

import (
	"context"
	"net"

	"github.com/lbblscy/wampcc/config"
	"github.com/lbblscy/wampcc/eventloop"
	"github.com/lbblscy/wampcc/internal/future"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/metrics"
	"github.com/lbblscy/wampcc/rawsocket"
	"github.com/lbblscy/wampcc/reactor"
	"github.com/lbblscy/wampcc/session"
	"github.com/lbblscy/wampcc/tcpsocket"
	"github.com/lbblscy/wampcc/wampmsg"
)

// Options configures a single connect attempt.
type Options struct {
	Addr            string
	ResolveHostname bool
	Realm           string
	Auth            session.Authenticator
	Handler         session.Handler
	Serializer      config.Serializer
	MaxMsgSizeExp   uint8
	Log             logger.Logger
	Metrics         *metrics.Metrics

	// Events is the application event loop the resulting session
	// posts decoded inbound messages to; nil gives the session its own
	// private Loop. Pass a kernel.Kernel's Events here to have its
	// dispatch share that loop with the rest of the process.
	Events *eventloop.Loop

	SocketMaxPendingWriteBytes int64
	WriteBatchBytes            int64
}

// Dial connects to addr through r and, on success, performs the
// rawsocket handshake and WAMP HELLO/WELCOME negotiation. The
// returned future resolves to an Open session.Session, or is rejected
// if any stage - dial, handshake, or HELLO negotiation - fails.
func Dial(ctx context.Context, r *reactor.Reactor, opts Options) *future.Future[*session.Session] {
	prom, fut := future.New[*session.Session]()
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}

	codec, err := wampmsg.CodecForSerializerID(serializerID(opts.Serializer))
	if err != nil {
		prom.Reject(err)
		return fut
	}

	r.Connect(ctx, opts.Addr, opts.ResolveHostname,
		func(conn net.Conn) {
			sock := tcpsocket.New(r, conn, log, opts.Metrics, opts.SocketMaxPendingWriteBytes, opts.WriteBatchBytes)

			sess := session.New(nil, codec, session.Options{
				Role:    session.RoleClient,
				Realm:   opts.Realm,
				Auth:    opts.Auth,
				Handler: opts.Handler,
				Log:     log,
				Events:  opts.Events,
			})

			hs := rawsocket.Handshake{MaxMsgSizeExp: opts.MaxMsgSizeExp, SerializerID: serializerID(opts.Serializer)}
			framer := rawsocket.NewFramer(sock, log, hs, sess.FrameAdapter())
			session.BindFramer(sess, framer)
			framer.Start()

			openFut := sess.Open()
			go func() {
				if _, openErr := openFut.Wait(ctx); openErr != nil {
					prom.Reject(openErr)
					return
				}
				prom.Resolve(sess)
			}()
		},
		func(dialErr error) { prom.Reject(dialErr) },
	)

	return fut
}

func serializerID(s config.Serializer) uint8 {
	if s == config.SerializerMsgpack {
		return wampmsg.SerializerMsgpack
	}
	return wampmsg.SerializerJSON
}
