package twofactor

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollProducesUsableSecretAndCodes(t *testing.T) {
	state, codes, err := Enroll("person@example.com")
	require.NoError(t, err)
	assert.Len(t, codes, BackupCodeCount)
	assert.Len(t, state.TOTPBackupCodes, BackupCodeCount)
	assert.True(t, state.TOTPEnabled)
	assert.Equal(t, "person@example.com", state.SecurityEmail)
	require.NotNil(t, state.TOTPEnabledAt)

	code, err := Code(state.TOTPSecret, time.Now())
	require.NoError(t, err)
	assert.Len(t, code, Digits)
}

func TestSealOpenStateRoundTrip(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	state, _, err := Enroll("person@example.com")
	require.NoError(t, err)

	env, err := Seal(key, state)
	require.NoError(t, err)

	got, err := Open(key, env)
	require.NoError(t, err)
	assert.Equal(t, state.TOTPSecret, got.TOTPSecret)
	assert.Equal(t, state.TOTPBackupCodes, got.TOTPBackupCodes)
	assert.True(t, got.TOTPEnabled)
}

func TestEmailOTPChallengeAcceptsMatchingCode(t *testing.T) {
	ch, err := IssueEmailOTPChallenge("person@example.com", "zkauth:abc123", "deadbeef", time.Minute)
	require.NoError(t, err)

	assert.True(t, VerifyEmailOTPChallenge(ch, "person@example.com", "zkauth:abc123", "deadbeef", ch.Code, time.Now()))
}

func TestEmailOTPChallengeRejectsWrongCode(t *testing.T) {
	ch, err := IssueEmailOTPChallenge("person@example.com", "zkauth:abc123", "deadbeef", time.Minute)
	require.NoError(t, err)

	assert.False(t, VerifyEmailOTPChallenge(ch, "person@example.com", "zkauth:abc123", "deadbeef", "000000", time.Now()))
}

func TestEmailOTPChallengeRejectsAfterExpiry(t *testing.T) {
	ch, err := IssueEmailOTPChallenge("person@example.com", "zkauth:abc123", "deadbeef", time.Second)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	assert.False(t, VerifyEmailOTPChallenge(ch, "person@example.com", "zkauth:abc123", "deadbeef", ch.Code, future))
}

func TestEmailOTPChallengeSignatureBindsMasterKeyHash(t *testing.T) {
	ch, err := IssueEmailOTPChallenge("person@example.com", "zkauth:abc123", "deadbeef", time.Minute)
	require.NoError(t, err)

	// A different master-key hash (a different registration/session) must
	// not accept the same code/signature pair.
	assert.False(t, VerifyEmailOTPChallenge(ch, "person@example.com", "zkauth:abc123", "00000000", ch.Code, time.Now()))
}
