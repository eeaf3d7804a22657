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

// End-to-end scenarios exercising a full dial -> handshake -> WAMP
// session -> router round trip, in contrast to the package-level unit
// suites that exercise each layer in isolation.
package wampcc_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lbblscy/wampcc/config"
	"github.com/lbblscy/wampcc/connector"
	liberr "github.com/lbblscy/wampcc/errors"
	"github.com/lbblscy/wampcc/reactor"
	"github.com/lbblscy/wampcc/router"
	"github.com/lbblscy/wampcc/session"
	"github.com/lbblscy/wampcc/wampmsg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEndToEnd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "end-to-end suite")
}

type collector struct {
	mu   sync.Mutex
	evs  []session.Event
	sig  chan struct{}
}

func newCollector() *collector {
	return &collector{sig: make(chan struct{}, 64)}
}

func (c *collector) HandleEvent(s *session.Session, ev session.Event) {
	c.mu.Lock()
	c.evs = append(c.evs, ev)
	c.mu.Unlock()
	c.sig <- struct{}{}
}

func (c *collector) all() []session.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]session.Event, len(c.evs))
	copy(out, c.evs)
	return out
}

var _ = Describe("end-to-end scenarios", func() {
	var (
		r          *reactor.Reactor
		listener   net.Listener
		rt         *router.Router
		ctx        context.Context
		cancel     context.CancelFunc
		routerAuth session.Authenticator
	)

	startRouter := func() {
		r = reactor.New(nil, nil)
		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())

		rt = router.New(r, router.Options{MaxMsgSizeExp: 8, Auth: routerAuth})
		ctx, cancel = context.WithCancel(context.Background())
		go rt.Serve(ctx, listener)
	}

	BeforeEach(func() {
		routerAuth = nil
		startRouter()
	})

	AfterEach(func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		_ = r.Shutdown(shutdownCtx)
	})

	dial := func(handler session.Handler, auth session.Authenticator) (*session.Session, error) {
		connCtx, connCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer connCancel()
		fut := connector.Dial(connCtx, r, connector.Options{
			Addr:            listener.Addr().String(),
			ResolveHostname: true,
			Realm:           "default_realm",
			Auth:            auth,
			Serializer:      config.SerializerJSON,
			MaxMsgSizeExp:   8,
			Handler:         handler,
		})
		return fut.Wait(connCtx)
	}

	It("scenario 1: pub/sub round trip delivers events in publish order", func() {
		sub := newCollector()
		s2, err := dial(sub, nil)
		Expect(err).ToNot(HaveOccurred())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err = s2.Subscribe(ctx, "coin_toss")
		Expect(err).ToNot(HaveOccurred())

		s1, err := dial(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(s1.Publish(ctx, "coin_toss", wampmsg.Args{"heads"})).To(Succeed())
		Expect(s1.Publish(ctx, "coin_toss", wampmsg.Args{"tails"})).To(Succeed())

		Eventually(func() int { return len(sub.all()) }, time.Second).Should(Equal(2))
		evs := sub.all()
		Expect(evs[0].Args).To(Equal(wampmsg.Args{"heads"}))
		Expect(evs[1].Args).To(Equal(wampmsg.Args{"tails"}))
	})

	It("scenario 2: WAMP-CRA authentication opens the session", func() {
		cancel()
		_ = r.Shutdown(context.Background())
		routerAuth = session.CRAAuthenticator{Secret: "secret2"}
		startRouter()

		sess, err := dial(nil, session.CRAAuthenticator{Secret: "secret2"})
		Expect(err).ToNot(HaveOccurred())
		Expect(sess.State()).To(Equal(session.StateOpen))
		Expect(sess.SessionID()).ToNot(BeZero())
	})

	It("scenario 3: duplicate registration is rejected and the original stays live", func() {
		s1, err := dial(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err = s1.Register(ctx, "com.x.foo")
		Expect(err).ToNot(HaveOccurred())

		s2, err := dial(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		_, err = s2.Register(ctx, "com.x.foo")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("procedure_already_exists"))

		Expect(rt.RPCCount()).To(Equal(1))
	})

	It("scenario 4: graceful close resolves pending calls with SessionClosed and signals Done", func() {
		s1, err := dial(nil, nil)
		Expect(err).ToNot(HaveOccurred())

		// A callee with a nil Handler drops every INVOCATION, so s1's
		// CALL stays pending until s1 closes.
		callee, err := dial(nil, nil)
		Expect(err).ToNot(HaveOccurred())
		regCtx, regCancel := context.WithTimeout(context.Background(), time.Second)
		defer regCancel()
		_, err = callee.Register(regCtx, "com.x.slow")
		Expect(err).ToNot(HaveOccurred())

		callErr := make(chan error, 1)
		go func() {
			_, e := s1.Call(context.Background(), wampmsg.TypeCall, wampmsg.TypeResult, []any{map[string]any{}, "com.x.slow", []any{}})
			callErr <- e
		}()

		doneFut := s1.Done()
		s1.Close("client disconnecting")

		closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
		defer closeCancel()
		_, err = doneFut.Wait(closeCtx)
		Expect(err).ToNot(HaveOccurred())

		var pendingErr error
		Eventually(callErr, time.Second).Should(Receive(&pendingErr))
		Expect(liberr.IsKind(pendingErr, liberr.SessionClosed)).To(BeTrue())
	})

	It("scenario 6: a handshake mismatch fails the connect/open future without hanging", func() {
		badListener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer badListener.Close()

		go func() {
			conn, acceptErr := badListener.Accept()
			if acceptErr != nil {
				return
			}
			defer conn.Close()
			_, _ = conn.Write([]byte{0xFF, 0x00, 0x00, 0x00})
			buf := make([]byte, 64)
			_, _ = conn.Read(buf)
		}()

		connCtx, connCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer connCancel()
		fut := connector.Dial(connCtx, r, connector.Options{
			Addr:            badListener.Addr().String(),
			ResolveHostname: true,
			Realm:           "default_realm",
			Serializer:      config.SerializerJSON,
			MaxMsgSizeExp:   8,
		})
		_, err = fut.Wait(connCtx)
		Expect(err).To(HaveOccurred())
	})
})
