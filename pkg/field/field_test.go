package field

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSubNeg(t *testing.T) {
	a := FromUint64(5)
	b := FromUint64(3)
	assert.True(t, a.Add(b).Equal(FromUint64(8)))
	assert.True(t, a.Sub(b).Equal(FromUint64(2)))
	assert.True(t, b.Sub(a).Equal(a.Sub(b).Neg()))
}

func TestMulInverse(t *testing.T) {
	a := FromUint64(7)
	inv, err := a.Inverse()
	require.NoError(t, err)
	assert.True(t, a.Mul(inv).Equal(One()))
}

func TestInverseOfZeroFails(t *testing.T) {
	_, err := Zero().Inverse()
	assert.Error(t, err)
}

func TestBytes32RoundTrip(t *testing.T) {
	e := FromUint64(42)
	padded := e.Bytes32()
	assert.Len(t, padded, 32)
	assert.True(t, FromBytes(padded).Equal(e))
}

func TestFromBigIntReducesModulus(t *testing.T) {
	overflow := new(big.Int).Add(Modulus, big.NewInt(1))
	e := FromBigInt(overflow)
	assert.True(t, e.Equal(One()))
}

func TestParseDecimalRoundTrip(t *testing.T) {
	e := FromUint64(123456789)
	parsed, err := ParseDecimal(e.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equal(e))
}

func TestParseDecimalInvalid(t *testing.T) {
	_, err := ParseDecimal("not-a-number")
	assert.Error(t, err)
}

func TestRandomProducesDistinctValues(t *testing.T) {
	a, err := Random()
	require.NoError(t, err)
	b, err := Random()
	require.NoError(t, err)
	assert.False(t, a.Equal(b))
}

func TestHexIsZeroPadded(t *testing.T) {
	e := One()
	assert.Len(t, e.Hex(), 64)
}
