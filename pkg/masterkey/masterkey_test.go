package masterkey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/zkauth/pkg/aead"
	"github.com/jeremyhahn/zkauth/pkg/field"
)

func TestGenerateProducesFieldValidKey(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)
	assert.Len(t, mk.Raw, Size)

	// Generate only returns keys that, read as a big-endian integer, are
	// below field.Modulus.
	e := field.FromBytes(mk.Raw)
	assert.Equal(t, mk.Raw, e.Bytes32())
}

func TestFromHexRoundTrip(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)

	got, err := FromHex(mk.Key)
	require.NoError(t, err)
	assert.Equal(t, mk.Raw, got.Raw)
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	_, err := FromHex("aabbcc")
	assert.Error(t, err)
}

func TestHashDeterministic(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)
	assert.Equal(t, mk.Hash(), mk.Hash())
	assert.Len(t, mk.Hash(), 64)
}

func TestEncryptDecryptDataRoundTrip(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)

	env, err := mk.EncryptData([]byte("application payload"))
	require.NoError(t, err)

	got, err := mk.DecryptData(env)
	require.NoError(t, err)
	assert.Equal(t, "application payload", string(got))
}

func TestEncryptDataStampsSelectedAlgorithm(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)

	env, err := mk.EncryptData([]byte("application payload"))
	require.NoError(t, err)
	assert.Equal(t, aead.SelectOptimal(), env.Algorithm)
}

func TestDecryptDataAcceptsLegacyEnvelopeWithNoAlgorithm(t *testing.T) {
	mk, err := Generate()
	require.NoError(t, err)

	env, err := aead.Seal(mk.Raw, []byte("pre-existing envelope"))
	require.NoError(t, err)
	assert.Empty(t, env.Algorithm)

	got, err := mk.DecryptData(env)
	require.NoError(t, err)
	assert.Equal(t, "pre-existing envelope", string(got))
}

func TestEncryptWithPKDecryptWithPK(t *testing.T) {
	pk := strings.Repeat("11", 32)
	env, err := EncryptWithPK(pk, []byte("share payload"))
	require.NoError(t, err)

	got, err := DecryptWithPK(pk, env)
	require.NoError(t, err)
	assert.Equal(t, "share payload", string(got))
}

func TestGenerateUserIDDeterministic(t *testing.T) {
	pk := strings.Repeat("11", 32)
	a, err := GenerateUserID(pk)
	require.NoError(t, err)
	b, err := GenerateUserID(pk)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "zkauth:"))
}

func TestDeriveWrappingKeyIgnoresEmailCase(t *testing.T) {
	a := DeriveWrappingKey("user-1", "Person@Example.com")
	b := DeriveWrappingKey("user-1", " person@example.com ")
	assert.Equal(t, a, b)
}
