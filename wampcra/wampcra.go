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

// Package wampcra implements WAMP-CRA (Challenge-Response
// Authentication): HMAC-SHA256 over a router-issued challenge string,
// with an optional PBKDF2 key-stretching step for salted secrets.
package wampcra

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/pbkdf2"

	liberr "github.com/lbblscy/wampcc/errors"
)

// ChallengeDetails is the JSON object carried as the "challenge"
// extra field of a router's CHALLENGE message.
type ChallengeDetails struct {
	Nonce      string `json:"nonce"`
	AuthID     string `json:"authid"`
	AuthRole   string `json:"authrole,omitempty"`
	AuthMethod string `json:"authmethod"`
	Session    int64  `json:"session"`
	Timestamp  string `json:"timestamp,omitempty"`
	Salt       string `json:"salt,omitempty"`
	KeyLen     int    `json:"keylen,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

// DeriveKey returns the secret to HMAC-sign with. If the challenge
// carries a salt, the raw secret is first stretched via PBKDF2-HMAC-
// SHA256, per WAMP-CRA's salted-secret mode; otherwise the secret is
// used as-is.
func DeriveKey(secret string, cd ChallengeDetails) []byte {
	if cd.Salt == "" {
		return []byte(secret)
	}
	keyLen := cd.KeyLen
	if keyLen <= 0 {
		keyLen = 32
	}
	iterations := cd.Iterations
	if iterations <= 0 {
		iterations = 1000
	}
	derived := pbkdf2.Key([]byte(secret), []byte(cd.Salt), iterations, keyLen, sha256.New)
	return []byte(base64.StdEncoding.EncodeToString(derived))
}

// Sign computes the base64-encoded HMAC-SHA256 signature of the
// challenge string under key, forming the "signature" field sent back
// in AUTHENTICATE.
func Sign(key []byte, challengeJSON string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(challengeJSON))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct HMAC-SHA256 of
// challengeJSON under key, using constant-time comparison.
func Verify(key []byte, challengeJSON, signature string) bool {
	want := Sign(key, challengeJSON)
	return hmac.Equal([]byte(want), []byte(signature))
}

// ParseChallengeDetails decodes the "challenge" extra field delivered
// in a CHALLENGE message's Details map.
func ParseChallengeDetails(raw string) (ChallengeDetails, error) {
	var cd ChallengeDetails
	if err := json.Unmarshal([]byte(raw), &cd); err != nil {
		return ChallengeDetails{}, liberr.Wrap(liberr.Auth, err)
	}
	return cd, nil
}

// EncodeChallengeDetails renders cd back to the JSON string a router
// embeds as the CHALLENGE message's "challenge" field.
func EncodeChallengeDetails(cd ChallengeDetails) (string, error) {
	b, err := json.Marshal(cd)
	if err != nil {
		return "", liberr.Wrap(liberr.Auth, err)
	}
	return string(b), nil
}

// RespondToChallenge is the client-side convenience entry point: given
// the raw challenge string received in CHALLENGE.Extra["challenge"]
// and the shared secret, it returns the signature to send back as
// AUTHENTICATE's Signature field.
func RespondToChallenge(secret, challengeJSON string) (string, error) {
	cd, err := ParseChallengeDetails(challengeJSON)
	if err != nil {
		return "", err
	}
	key := DeriveKey(secret, cd)
	return Sign(key, challengeJSON), nil
}
