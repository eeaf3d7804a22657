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

// Command wampcc-subscribe dials a router, logs on to a realm,
// subscribes to a topic, and prints every EVENT it receives until
// interrupted.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lbblscy/wampcc/config"
	"github.com/lbblscy/wampcc/connector"
	"github.com/lbblscy/wampcc/kernel"
	"github.com/lbblscy/wampcc/logger"
	"github.com/lbblscy/wampcc/session"
	"github.com/lbblscy/wampcc/wampmsg"
)

type printHandler struct {
	log logger.Logger
}

func (h printHandler) HandleEvent(s *session.Session, ev session.Event) {
	if ev.Type != wampmsg.TypeEvent {
		return
	}
	h.log.Info("event received", "subscription", ev.RequestID, "args", ev.Args)
}

func main() {
	addr := flag.String("addr", "127.0.0.1:55555", "router address")
	realm := flag.String("realm", "default_realm", "realm to logon to")
	topic := flag.String("topic", "coin_toss", "topic to subscribe to")
	authID := flag.String("authid", "", "WAMP-CRA authid, empty disables authentication")
	secret := flag.String("secret", "", "WAMP-CRA secret")
	flag.Parse()

	log := logger.New("wampcc-subscribe", logger.InfoLevel)
	k := kernel.New(config.Default(), log, nil, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var auth session.Authenticator
	if *authID != "" {
		auth = session.CRAAuthenticator{Secret: *secret}
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, k.Cfg.ConnectTimeout)
	defer connectCancel()

	fut := connector.Dial(connectCtx, k.Reactor, connector.Options{
		Addr:                       *addr,
		ResolveHostname:            k.Cfg.UseHostnameResolution,
		Realm:                      *realm,
		Auth:                       auth,
		Handler:                    printHandler{log: log},
		Serializer:                 k.Cfg.Serializer,
		MaxMsgSizeExp:              k.Cfg.MaxMsgSizeExp,
		Log:                        log,
		Metrics:                    k.Metrics,
		Events:                     k.Events,
		SocketMaxPendingWriteBytes: k.Cfg.SocketMaxPendingWriteBytes,
		WriteBatchBytes:            k.Cfg.WriteBatchBytes,
	})

	sess, err := fut.Wait(connectCtx)
	if err != nil {
		log.Error("connect failed", "err", err)
		os.Exit(1)
	}
	log.Info("session open", "session_id", sess.SessionID(), "realm", sess.Realm())

	subCtx, subCancel := context.WithTimeout(ctx, 5*time.Second)
	subID, err := sess.Subscribe(subCtx, *topic)
	subCancel()
	if err != nil {
		log.Error("subscribe failed", "topic", *topic, "err", err)
		os.Exit(1)
	}
	log.Info("subscribed", "topic", *topic, "subscription_id", subID)

	<-ctx.Done()
	sess.Close("client disconnecting")
	_, _ = sess.Done().Wait(context.Background())
	_ = k.Shutdown(context.Background())
}
