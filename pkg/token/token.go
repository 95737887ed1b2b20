// Package token implements the server-signed capability credential described
// in §3 of the data model: a stateless token that carries its own expiry and
// is verified with a constant-time HMAC comparison, never stored.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const randomBytesLen = 16

// ErrMalformed is returned when a token string does not have the expected
// three pipe-delimited segments.
var ErrMalformed = errors.New("malformed token")

// ErrExpired is returned when a token's expiry has passed.
var ErrExpired = errors.New("token expired")

// ErrInvalidSignature is returned when the HMAC over the random+expiry
// region does not match.
var ErrInvalidSignature = errors.New("invalid token signature")

// Signer mints and verifies capability tokens against a server secret and a
// fixed validity window.
type Signer struct {
	secret   []byte
	validFor time.Duration
}

// New returns a Signer. validFor is the fixed validity window applied to
// every minted token (the spec requires at least 10 days).
func New(secret []byte, validFor time.Duration) *Signer {
	return &Signer{secret: secret, validFor: validFor}
}

// Mint produces a new token string:
// base64(random_16) | base64(hmac_sha256(secret, random_16 || expiry_u64_be)) | base64(expiry_u64_be).
func (s *Signer) Mint() (string, error) {
	random := make([]byte, randomBytesLen)
	if _, err := rand.Read(random); err != nil {
		return "", errors.WithStack(err)
	}

	expiry := time.Now().Add(s.validFor).Unix()
	expiryBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(expiryBytes, uint64(expiry))

	mac := s.sign(random, expiryBytes)

	return strings.Join([]string{
		base64.StdEncoding.EncodeToString(random),
		base64.StdEncoding.EncodeToString(mac),
		base64.StdEncoding.EncodeToString(expiryBytes),
	}, "|"), nil
}

// Verify checks the signature and expiry of a token string. It returns the
// token's expiry time on success.
func (s *Signer) Verify(tok string) (time.Time, error) {
	parts := strings.Split(tok, "|")
	if len(parts) != 3 {
		return time.Time{}, ErrMalformed
	}

	random, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return time.Time{}, ErrMalformed
	}
	sig, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, ErrMalformed
	}
	expiryBytes, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(expiryBytes) != 8 {
		return time.Time{}, ErrMalformed
	}

	expected := s.sign(random, expiryBytes)
	if !hmac.Equal(expected, sig) {
		return time.Time{}, ErrInvalidSignature
	}

	expiry := time.Unix(int64(binary.BigEndian.Uint64(expiryBytes)), 0)
	if time.Now().After(expiry) {
		return time.Time{}, ErrExpired
	}

	return expiry, nil
}

func (s *Signer) sign(random, expiryBytes []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(random)
	mac.Write(expiryBytes)
	return mac.Sum(nil)
}

// VerifySharedSecretChallenge checks the /authenticate form challenge:
// secret = base64(random_32) | base64(sha256(sharedSecret || random_32)).
// It runs in constant time with respect to the comparison itself.
func VerifySharedSecretChallenge(challenge, sharedSecret string) bool {
	parts := strings.Split(challenge, "|")
	if len(parts) != 2 {
		return false
	}

	random, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	h := sha256.New()
	h.Write([]byte(sharedSecret))
	h.Write(random)
	expected := h.Sum(nil)

	return hmac.Equal(expected, given)
}
