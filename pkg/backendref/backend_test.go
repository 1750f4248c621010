package backendref

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPutGetHas(t *testing.T) {
	b := NewZcashBackend()
	ctx := context.Background()

	has, err := b.Has(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, b.Put(ctx, "key-1", []byte("value")))

	has, err = b.Has(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := b.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "value", string(got))
}

func TestMemoryGetMissingKeyFails(t *testing.T) {
	b := NewSolanaBackend()
	_, err := b.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMemoryTagIsolatesKeys(t *testing.T) {
	zcash := NewZcashBackend()
	starknet := NewStarknetBackend()
	ctx := context.Background()

	require.NoError(t, zcash.Put(ctx, "user-1", []byte("zcash-value")))
	has, err := starknet.Has(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, has, "backends must not share storage across tags")
}

func TestMemoryPutShareReturnsReceiptAndRoundTrips(t *testing.T) {
	b := NewZcashBackend()
	ctx := context.Background()

	share := EncryptedShare{ShareIndex: 1, EncryptedData: "aa", IV: "bb", Tag: "cc"}
	receipt, err := b.PutShare(ctx, "user-1", share)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt)

	got, err := b.GetShare(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ShareIndex)
	assert.Equal(t, "aa", got.EncryptedData)
	assert.Equal(t, "zcash", got.Chain)
	assert.Equal(t, receipt, got.Receipt)
}

func TestMemoryPutShareGeneratesDistinctReceipts(t *testing.T) {
	b := NewZcashBackend()
	ctx := context.Background()

	r1, err := b.PutShare(ctx, "user-1", EncryptedShare{ShareIndex: 1})
	require.NoError(t, err)
	r2, err := b.PutShare(ctx, "user-2", EncryptedShare{ShareIndex: 1})
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)
}

func TestMemoryPutOverwrites(t *testing.T) {
	b := NewZcashBackend()
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "key", []byte("first")))
	require.NoError(t, b.Put(ctx, "key", []byte("second")))

	got, err := b.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}
