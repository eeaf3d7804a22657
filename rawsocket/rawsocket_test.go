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

package rawsocket_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lbblscy/wampcc/rawsocket"
	"github.com/lbblscy/wampcc/reactor"
	"github.com/lbblscy/wampcc/tcpsocket"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRawsocket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "rawsocket suite")
}

type recordingFrameListener struct {
	mu          sync.Mutex
	handshake   chan rawsocket.Handshake
	frames      []rawsocket.Frame
	frameSignal chan struct{}
	closedErr   chan error
}

func newRecordingFrameListener() *recordingFrameListener {
	return &recordingFrameListener{
		handshake:   make(chan rawsocket.Handshake, 1),
		frameSignal: make(chan struct{}, 64),
		closedErr:   make(chan error, 1),
	}
}

func (l *recordingFrameListener) OnHandshakeComplete(hs rawsocket.Handshake) {
	l.handshake <- hs
}

func (l *recordingFrameListener) OnFrame(f rawsocket.Frame) {
	cp := make([]byte, len(f.Payload))
	copy(cp, f.Payload)
	l.mu.Lock()
	l.frames = append(l.frames, rawsocket.Frame{Kind: f.Kind, Payload: cp})
	l.mu.Unlock()
	l.frameSignal <- struct{}{}
}

func (l *recordingFrameListener) OnClose(err error) {
	select {
	case l.closedErr <- err:
	default:
	}
}

func (l *recordingFrameListener) framesSoFar() []rawsocket.Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]rawsocket.Frame, len(l.frames))
	copy(out, l.frames)
	return out
}

func dialPair(r *reactor.Reactor, listener net.Listener) (client, server net.Conn) {
	serverCh := make(chan net.Conn, 1)
	go func() {
		c, _ := listener.Accept()
		serverCh <- c
	}()
	c, err := net.Dial("tcp", listener.Addr().String())
	Expect(err).ToNot(HaveOccurred())
	return c, <-serverCh
}

var _ = Describe("Framer", func() {
	var (
		r        *reactor.Reactor
		listener net.Listener
	)

	BeforeEach(func() {
		r = reactor.New(nil, nil)
		var err error
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = listener.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})

	It("completes the handshake and exchanges data frames both ways", func() {
		clientConn, serverConn := dialPair(r, listener)

		clientSock := tcpsocket.New(r, clientConn, nil, nil, 0, 0)
		serverSock := tcpsocket.New(r, serverConn, nil, nil, 0, 0)

		clientFL := newRecordingFrameListener()
		serverFL := newRecordingFrameListener()

		hs := rawsocket.Handshake{MaxMsgSizeExp: 0, SerializerID: 1}
		clientFramer := rawsocket.NewFramer(clientSock, nil, hs, clientFL)
		serverFramer := rawsocket.NewFramer(serverSock, nil, hs, serverFL)

		serverFramer.Start()
		clientFramer.Start()

		var gotClientHS, gotServerHS rawsocket.Handshake
		Eventually(clientFL.handshake, time.Second).Should(Receive(&gotClientHS))
		Eventually(serverFL.handshake, time.Second).Should(Receive(&gotServerHS))
		Expect(gotClientHS.SerializerID).To(Equal(uint8(1)))
		Expect(gotServerHS.SerializerID).To(Equal(uint8(1)))

		Expect(clientFramer.SendData([]byte("hello from client"))).To(Succeed())
		Eventually(serverFL.frameSignal, time.Second).Should(Receive())
		frames := serverFL.framesSoFar()
		Expect(frames).To(HaveLen(1))
		Expect(frames[0].Kind).To(Equal(rawsocket.KindData))
		Expect(string(frames[0].Payload)).To(Equal("hello from client"))

		Expect(serverFramer.SendData([]byte("hello from server"))).To(Succeed())
		Eventually(clientFL.frameSignal, time.Second).Should(Receive())
		Expect(string(clientFL.framesSoFar()[0].Payload)).To(Equal("hello from server"))
	})

	It("echoes PING as PONG", func() {
		clientConn, serverConn := dialPair(r, listener)
		clientSock := tcpsocket.New(r, clientConn, nil, nil, 0, 0)
		serverSock := tcpsocket.New(r, serverConn, nil, nil, 0, 0)

		clientFL := newRecordingFrameListener()
		serverFL := newRecordingFrameListener()
		hs := rawsocket.Handshake{MaxMsgSizeExp: 0, SerializerID: 1}
		clientFramer := rawsocket.NewFramer(clientSock, nil, hs, clientFL)
		serverFramer := rawsocket.NewFramer(serverSock, nil, hs, serverFL)
		serverFramer.Start()
		clientFramer.Start()

		Eventually(clientFL.handshake, time.Second).Should(Receive())
		Eventually(serverFL.handshake, time.Second).Should(Receive())

		Expect(clientFramer.SendPing([]byte("ping-payload"))).To(Succeed())

		Eventually(serverFL.frameSignal, time.Second).Should(Receive())
		Expect(serverFL.framesSoFar()[0].Kind).To(Equal(rawsocket.KindPing))

		Eventually(clientFL.frameSignal, time.Second).Should(Receive())
		pongFrames := clientFL.framesSoFar()
		Expect(pongFrames[0].Kind).To(Equal(rawsocket.KindPong))
		Expect(string(pongFrames[0].Payload)).To(Equal("ping-payload"))
	})

	It("closes the transport when the peer's magic byte does not match", func() {
		clientConn, serverConn := dialPair(r, listener)
		clientSock := tcpsocket.New(r, clientConn, nil, nil, 0, 0)

		clientFL := newRecordingFrameListener()
		hs := rawsocket.Handshake{MaxMsgSizeExp: 0, SerializerID: 1}
		clientFramer := rawsocket.NewFramer(clientSock, nil, hs, clientFL)
		clientFramer.Start()

		_, err := serverConn.Write([]byte{0xFF, 0x00, 0x00, 0x00})
		Expect(err).ToNot(HaveOccurred())

		Eventually(clientFL.closedErr, time.Second).Should(Receive())
		Eventually(clientSock.IsClosed, time.Second).Should(BeTrue())
	})

	It("rejects a frame whose declared length exceeds the negotiated maximum", func() {
		clientConn, serverConn := dialPair(r, listener)
		serverSock := tcpsocket.New(r, serverConn, nil, nil, 0, 0)

		serverFL := newRecordingFrameListener()
		small := rawsocket.Handshake{MaxMsgSizeExp: 0, SerializerID: 1} // 512-byte max
		serverFramer := rawsocket.NewFramer(serverSock, nil, small, serverFL)
		serverFramer.Start()

		peerHS := rawsocket.Handshake{MaxMsgSizeExp: 0, SerializerID: 1}.Encode()
		_, err := clientConn.Write(peerHS[:])
		Expect(err).ToNot(HaveOccurred())

		oversized := rawsocket.EncodeDataFrame(1 << 20)
		_, err = clientConn.Write(oversized[:])
		Expect(err).ToNot(HaveOccurred())

		Eventually(serverFL.closedErr, time.Second).Should(Receive())
		Eventually(serverSock.IsClosed, time.Second).Should(BeTrue())
	})
})
