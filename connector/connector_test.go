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

package connector_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/lbblscy/wampcc/config"
	"github.com/lbblscy/wampcc/connector"
	"github.com/lbblscy/wampcc/rawsocket"
	"github.com/lbblscy/wampcc/reactor"
	"github.com/lbblscy/wampcc/session"
	"github.com/lbblscy/wampcc/tcpsocket"
	"github.com/lbblscy/wampcc/wampmsg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConnector(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "connector suite")
}

// runMinimalRouter accepts exactly one connection on listener and
// drives a router-side session.Session through Open, standing in for
// a full router.Router.
func runMinimalRouter(r *reactor.Reactor, listener net.Listener) {
	conn, err := listener.Accept()
	Expect(err).ToNot(HaveOccurred())

	sock := tcpsocket.New(r, conn, nil, nil, 0, 0)
	sess := session.New(nil, wampmsg.JSONCodec{}, session.Options{Role: session.RoleRouter})
	hs := rawsocket.Handshake{MaxMsgSizeExp: 8, SerializerID: wampmsg.SerializerJSON}
	framer := rawsocket.NewFramer(sock, nil, hs, sess.FrameAdapter())
	session.BindFramer(sess, framer)
	framer.Start()
	_, _ = sess.Open().Wait(context.Background())
}

var _ = Describe("Connect", func() {
	It("resolves to an Open session once the router completes WELCOME", func() {
		r := reactor.New(nil, nil)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = r.Shutdown(ctx)
		}()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer listener.Close()

		go runMinimalRouter(r, listener)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		fut := connector.Dial(ctx, r, connector.Options{
			Addr:            listener.Addr().String(),
			ResolveHostname: true,
			Realm:           "realm1",
			Serializer:      config.SerializerJSON,
			MaxMsgSizeExp:   8,
		})

		sess, err := fut.Wait(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(sess.State()).To(Equal(session.StateOpen))
	})

	It("rejects when the dial target refuses connections", func() {
		r := reactor.New(nil, nil)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = r.Shutdown(ctx)
		}()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		addr := listener.Addr().String()
		listener.Close() // nothing listening now

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		fut := connector.Dial(ctx, r, connector.Options{
			Addr:            addr,
			ResolveHostname: true,
			Realm:           "realm1",
			MaxMsgSizeExp:   8,
		})

		_, err = fut.Wait(ctx)
		Expect(err).To(HaveOccurred())
	})
})
