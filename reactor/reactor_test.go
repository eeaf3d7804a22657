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

package reactor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lbblscy/wampcc/reactor"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestReactor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "reactor suite")
}

var _ = Describe("Reactor", func() {
	var r *reactor.Reactor

	BeforeEach(func() {
		r = reactor.New(nil, nil)
	})

	AfterEach(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})

	It("runs posted closures in FIFO order", func() {
		var (
			mu  sync.Mutex
			got []int
		)
		done := make(chan struct{})

		for i := 0; i < 5; i++ {
			i := i
			r.Post(func() {
				mu.Lock()
				got = append(got, i)
				mu.Unlock()
				if i == 4 {
					close(done)
				}
			})
		}

		Eventually(done).Should(BeClosed())
		mu.Lock()
		defer mu.Unlock()
		Expect(got).To(Equal([]int{0, 1, 2, 3, 4}))
	})

	It("queues a self-post instead of running it inline", func() {
		order := make(chan string, 3)
		r.Post(func() {
			order <- "outer-start"
			r.Post(func() {
				order <- "inner"
			})
			order <- "outer-end"
		})

		Eventually(order).Should(HaveLen(3))
		Expect(<-order).To(Equal("outer-start"))
		Expect(<-order).To(Equal("outer-end"))
		Expect(<-order).To(Equal("inner"))
	})

	It("recovers a panicking closure without killing the loop", func() {
		r.Post(func() { panic("boom") })

		done := make(chan struct{})
		r.Post(func() { close(done) })

		Eventually(done, time.Second).Should(BeClosed())
	})

	It("Shutdown closes tracked handles and returns once drained", func() {
		closedCalled := make(chan struct{})
		untrack := r.Track(func() { close(closedCalled) })
		_ = untrack

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		Expect(r.Shutdown(ctx)).ToNot(HaveOccurred())
		Expect(closedCalled).To(BeClosed())
	})
})
