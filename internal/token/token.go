// Package token implements the capability secrets that let external actors
// trigger transitions without a login session: per-entity response tokens
// delivered by email link, and HMAC proofs derived from a session id for the
// authenticated surface. Both families are compared in constant time.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// 32 bytes = 256 bits of entropy, double the guessability floor we need.
const tokenBytes = 32

var (
	ErrInvalid   = errors.New("token does not match")
	ErrNotIssued = errors.New("no token has been issued for this entity")
)

// Issue generates a fresh response token. An entity gets exactly one token
// per send transition; re-issuing before consumption is not supported.
func Issue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Verify compares a presented token against the stored one without leaking
// the match position through timing. A length mismatch fails the same way a
// value mismatch does.
func Verify(stored string, presented string) error {
	if stored == "" {
		return ErrNotIssued
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return ErrInvalid
	}

	return nil
}

// SessionProof derives the CSRF-style secret for an authenticated session.
// Unlike response tokens it is never stored: both sides recompute it from
// the session id.
func SessionProof(secret string, sessionId string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sessionId))

	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySessionProof(secret string, sessionId string, presented string) error {
	expected := SessionProof(secret, sessionId)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) != 1 {
		return ErrInvalid
	}

	return nil
}
