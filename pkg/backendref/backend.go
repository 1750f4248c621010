// Package backendref defines the storage backend capability contract
// AuthCore drives during Register and Login, plus an in-memory reference
// implementation. Grounded on pkg/backend's Backend interface pattern
// (small capability surface, context-aware, explicit availability check)
// generalized from key-material storage to opaque share storage.
package backendref

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jeremyhahn/zkauth/pkg/zkerrors"
)

// EncryptedShare is the durable record a backend stores for one share of a
// user's split master key, matching spec.md §3's wire shape: a share
// index, the AEAD-sealed share data, the tag of the backend that owns it,
// and the receipt handed back once storage succeeds. Decrypting
// {EncryptedData, IV, Tag} under the current wrapping key must yield a
// JSON ShareData whose x equals ShareIndex.
type EncryptedShare struct {
	ShareIndex    int    `json:"shareIndex"`
	EncryptedData string `json:"encryptedData"`
	IV            string `json:"iv"`
	Tag           string `json:"tag"`
	Chain         string `json:"chain"`
	Receipt       string `json:"receipt,omitempty"`
}

// Backend is the capability contract a storage chain must satisfy to
// hold a user's encrypted share. Implementations wrap a specific
// destination (a chain, a database, a filesystem); zkauth core only ever
// talks to this interface.
type Backend interface {
	// Tag identifies the backend for audit logging and lookup-key
	// namespacing (e.g. "zcash", "starknet", "solana").
	Tag() string

	// PutShare durably associates share with userID, per spec.md §4.7's
	// put(userId, share) -> receipt. Idempotent under the same userID:
	// a second call overwrites the prior share. Fails with
	// zkerrors.ErrBackendUnavailable-wrapped errors on transient failure.
	PutShare(ctx context.Context, userID string, share EncryptedShare) (receipt string, err error)

	// GetShare retrieves the EncryptedShare stored under userID. Returns
	// zkerrors.ErrNotRegistered if none is stored.
	GetShare(ctx context.Context, userID string) (*EncryptedShare, error)

	// Put stores value under key, overwriting any existing value. Used
	// for data that isn't itself a share: the redundant registration
	// metadata record and 2FA state pointers.
	Put(ctx context.Context, key string, value []byte) error

	// Get retrieves the value stored under key. Returns
	// zkerrors.ErrNotRegistered if key is unset.
	Get(ctx context.Context, key string) ([]byte, error)

	// Has reports whether key is currently stored.
	Has(ctx context.Context, key string) (bool, error)

	// Close releases any resources the backend holds open.
	Close() error
}

func shareKey(tag, userID string) string {
	return tag + ":" + userID + ":share"
}

// Memory is an in-process reference Backend, useful for tests and for
// deployments where durability is handled by a wrapping layer. It is not
// durable across process restarts (see DESIGN.md's Open Question 4).
type Memory struct {
	tag  string
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates a Memory backend tagged tag.
func NewMemoryBackend(tag string) *Memory {
	return &Memory{tag: tag, data: make(map[string][]byte)}
}

// NewZcashBackend creates a Memory backend tagged "zcash", standing in
// for a Zcash-memo-based storage chain.
func NewZcashBackend() *Memory { return NewMemoryBackend("zcash") }

// NewStarknetBackend creates a Memory backend tagged "starknet", standing
// in for a StarkNet-contract-storage chain.
func NewStarknetBackend() *Memory { return NewMemoryBackend("starknet") }

// NewSolanaBackend creates a Memory backend tagged "solana", standing in
// for a Solana-account-storage chain.
func NewSolanaBackend() *Memory { return NewMemoryBackend("solana") }

// Tag returns the backend's tag.
func (m *Memory) Tag() string { return m.tag }

// PutShare stores share, stamped with this backend's tag and a freshly
// generated receipt, under userID. The receipt is a random UUID, an
// opaque backend-specific identifier a real chain would replace with a
// transaction hash or account signature.
func (m *Memory) PutShare(ctx context.Context, userID string, share EncryptedShare) (string, error) {
	share.Chain = m.tag
	share.Receipt = uuid.NewString()
	raw, err := json.Marshal(share)
	if err != nil {
		return "", fmt.Errorf("backendref: failed to marshal share: %w", err)
	}
	if err := m.Put(ctx, userID, raw); err != nil {
		return "", err
	}
	return share.Receipt, nil
}

// GetShare retrieves and decodes the EncryptedShare stored under userID
// by PutShare.
func (m *Memory) GetShare(ctx context.Context, userID string) (*EncryptedShare, error) {
	raw, err := m.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	var share EncryptedShare
	if err := json.Unmarshal(raw, &share); err != nil {
		return nil, fmt.Errorf("%w: malformed share record at backend %s", zkerrors.ErrAuthenticationFailure, m.tag)
	}
	return &share, nil
}

// Put stores value under key.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(value))
	copy(buf, value)
	m.data[shareKey(m.tag, key)] = buf
	return nil
}

// Get retrieves the value stored under key.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[shareKey(m.tag, key)]
	if !ok {
		return nil, fmt.Errorf("%w: no share stored at backend %s for key %s", zkerrors.ErrNotRegistered, m.tag, key)
	}
	buf := make([]byte, len(v))
	copy(buf, v)
	return buf, nil
}

// Has reports whether key is currently stored.
func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[shareKey(m.tag, key)]
	return ok, nil
}

// Close is a no-op for Memory; it never opens external resources.
func (m *Memory) Close() error { return nil }
