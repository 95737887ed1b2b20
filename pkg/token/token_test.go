package token

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintVerify_RoundTrip(t *testing.T) {
	s := New([]byte("server-secret"), 10*24*time.Hour)

	tok, err := s.Mint()
	require.NoError(t, err)

	expiry, err := s.Verify(tok)
	require.NoError(t, err)
	assert.True(t, expiry.After(time.Now()))
}

func TestVerify_RejectsFlippedBit(t *testing.T) {
	s := New([]byte("server-secret"), 10*24*time.Hour)

	tok, err := s.Mint()
	require.NoError(t, err)

	mutated := []byte(tok)
	mutated[0] ^= 0x01
	_, err = s.Verify(string(mutated))
	assert.Error(t, err)
}

func TestVerify_RejectsExpired(t *testing.T) {
	s := New([]byte("server-secret"), -time.Hour)

	tok, err := s.Mint()
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerify_RejectsMalformed(t *testing.T) {
	s := New([]byte("server-secret"), time.Hour)

	_, err := s.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMint_TwiceYieldsDistinctTokensBothValid(t *testing.T) {
	s := New([]byte("server-secret"), time.Hour)

	t1, err := s.Mint()
	require.NoError(t, err)
	t2, err := s.Mint()
	require.NoError(t, err)

	assert.NotEqual(t, t1, t2)

	_, err = s.Verify(t1)
	assert.NoError(t, err)
	_, err = s.Verify(t2)
	assert.NoError(t, err)
}

func TestVerifySharedSecretChallenge(t *testing.T) {
	random := make([]byte, 32)
	h := sha256.New()
	h.Write([]byte("mypass"))
	h.Write(random)
	digest := h.Sum(nil)

	challenge := base64.StdEncoding.EncodeToString(random) + "|" + base64.StdEncoding.EncodeToString(digest)

	assert.True(t, VerifySharedSecretChallenge(challenge, "mypass"))
	assert.False(t, VerifySharedSecretChallenge(challenge, "wrongpass"))
}

func TestVerifySharedSecretChallenge_Malformed(t *testing.T) {
	assert.False(t, VerifySharedSecretChallenge("not-valid", "mypass"))
}
