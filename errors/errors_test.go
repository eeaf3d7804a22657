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

package errors_test

import (
	"testing"

	stderrors "errors"

	liberr "github.com/lbblscy/wampcc/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestErrors(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "errors suite")
}

var _ = Describe("WampErr", func() {
	It("renders the kind in its message", func() {
		e := liberr.New(liberr.Timeout, "waited too long")
		Expect(e.Error()).To(Equal("Timeout: waited too long"))
	})

	It("returns nil when wrapping a nil cause", func() {
		Expect(liberr.Wrap(liberr.Transport, nil)).To(BeNil())
	})

	It("supports errors.As through Unwrap", func() {
		cause := stderrors.New("connection reset")
		e := liberr.Wrap(liberr.Transport, cause)

		var target *liberr.WampErr
		Expect(stderrors.As(error(e), &target)).To(BeTrue())
		Expect(target.Kind()).To(Equal(liberr.Transport))
		Expect(stderrors.Unwrap(error(e))).To(Equal(cause))
	})

	It("matches by kind via IsKind", func() {
		e := liberr.New(liberr.Protocol, "reply without matching request")
		Expect(liberr.IsKind(e, liberr.Protocol)).To(BeTrue())
		Expect(liberr.IsKind(e, liberr.Auth)).To(BeFalse())
	})
})

var _ = Describe("WampError", func() {
	It("carries the peer error URI", func() {
		e := &liberr.WampError{URI: liberr.URIProcedureAlreadyExists}
		Expect(e.Kind()).To(Equal(liberr.Wamp))
		Expect(e.Error()).To(ContainSubstring(liberr.URIProcedureAlreadyExists))
	})
})
