package aead

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("the quick brown fox")

	r, err := Seal(key, plaintext)
	require.NoError(t, err)
	assert.Len(t, r.IV, IVSize*2)
	assert.Len(t, r.Tag, TagSize*2)

	got, err := Open(key, r)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	r, err := Seal(randomKey(t), []byte("secret"))
	require.NoError(t, err)

	_, err = Open(randomKey(t), r)
	assert.Error(t, err)
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	key := randomKey(t)
	r, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	r.Ciphertext = "00" + r.Ciphertext[2:]
	_, err = Open(key, r)
	assert.Error(t, err)
}

func TestSealRejectsBadKeySize(t *testing.T) {
	_, err := Seal(make([]byte, 10), []byte("data"))
	assert.Error(t, err)
}

func TestSelectOptimalReturnsKnownAlgorithm(t *testing.T) {
	alg := SelectOptimal()
	assert.Contains(t, []string{AlgorithmAES256GCM, AlgorithmChaCha20Poly1305}, alg)
}

func TestChaCha20RoundTrip(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("chacha payload")

	r, err := SealChaCha20(key, plaintext)
	require.NoError(t, err)

	got, err := OpenChaCha20(key, r)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}
