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

package future_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lbblscy/wampcc/internal/future"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFuture(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "future suite")
}

var _ = Describe("Future", func() {
	It("resolves with a value", func() {
		p, f := future.New[int]()
		p.Resolve(42)

		v, err := f.Wait(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(42))
	})

	It("resolves with an error on Reject", func() {
		p, f := future.New[int]()
		cause := errors.New("boom")
		p.Reject(cause)

		_, err := f.Wait(context.Background())
		Expect(err).To(Equal(cause))
	})

	It("is safe for multiple concurrent waiters", func() {
		p, f := future.New[string]()

		var wg sync.WaitGroup
		results := make([]string, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				v, err := f.Wait(context.Background())
				Expect(err).ToNot(HaveOccurred())
				results[idx] = v
			}(i)
		}

		time.Sleep(10 * time.Millisecond)
		p.Resolve("hello")
		wg.Wait()

		for _, r := range results {
			Expect(r).To(Equal("hello"))
		}
	})

	It("honors context cancellation without settling the future", func() {
		p, f := future.New[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		_, err := f.Wait(ctx)
		Expect(err).To(MatchError(context.DeadlineExceeded))

		p.Resolve(7)
		v, err := f.Wait(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(7))
	})

	It("ignores a second Resolve/Reject", func() {
		p, f := future.New[int]()
		p.Resolve(1)
		p.Resolve(2)
		p.Reject(errors.New("too late"))

		v, err := f.Wait(context.Background())
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(1))
	})

	It("Peek reports settlement without blocking", func() {
		p, f := future.New[int]()
		_, _, ok := f.Peek()
		Expect(ok).To(BeFalse())

		p.Resolve(9)
		v, err, ok := f.Peek()
		Expect(ok).To(BeTrue())
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(9))
	})
})
