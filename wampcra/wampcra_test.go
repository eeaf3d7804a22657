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

package wampcra_test

import (
	"testing"

	"github.com/lbblscy/wampcc/wampcra"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestWampcra(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "wampcra suite")
}

var _ = Describe("WAMP-CRA", func() {
	It("signs and verifies a plain (unsalted) challenge", func() {
		cd := wampcra.ChallengeDetails{Nonce: "abc123", AuthID: "alice", AuthMethod: "wampcra", Session: 42}
		challenge, err := wampcra.EncodeChallengeDetails(cd)
		Expect(err).ToNot(HaveOccurred())

		sig, err := wampcra.RespondToChallenge("s3cr3t", challenge)
		Expect(err).ToNot(HaveOccurred())
		Expect(sig).ToNot(BeEmpty())

		key := wampcra.DeriveKey("s3cr3t", cd)
		Expect(wampcra.Verify(key, challenge, sig)).To(BeTrue())
	})

	It("rejects a signature produced with the wrong secret", func() {
		cd := wampcra.ChallengeDetails{Nonce: "abc123", AuthID: "alice", AuthMethod: "wampcra", Session: 42}
		challenge, err := wampcra.EncodeChallengeDetails(cd)
		Expect(err).ToNot(HaveOccurred())

		sig, err := wampcra.RespondToChallenge("wrong-secret", challenge)
		Expect(err).ToNot(HaveOccurred())

		key := wampcra.DeriveKey("s3cr3t", cd)
		Expect(wampcra.Verify(key, challenge, sig)).To(BeFalse())
	})

	It("stretches the secret with PBKDF2 when a salt is present", func() {
		cd := wampcra.ChallengeDetails{
			Nonce: "xyz", AuthID: "bob", AuthMethod: "wampcra", Session: 7,
			Salt: "pepper", KeyLen: 32, Iterations: 100,
		}
		challenge, err := wampcra.EncodeChallengeDetails(cd)
		Expect(err).ToNot(HaveOccurred())

		key1 := wampcra.DeriveKey("hunter2", cd)
		key2 := wampcra.DeriveKey("hunter2", cd)
		Expect(key1).To(Equal(key2))

		sig, err := wampcra.RespondToChallenge("hunter2", challenge)
		Expect(err).ToNot(HaveOccurred())
		Expect(wampcra.Verify(key1, challenge, sig)).To(BeTrue())

		unsaltedKey := wampcra.DeriveKey("hunter2", wampcra.ChallengeDetails{})
		Expect(string(unsaltedKey)).ToNot(Equal(string(key1)))
	})
})
