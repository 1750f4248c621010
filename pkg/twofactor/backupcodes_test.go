package twofactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBackupCodesCountAndLength(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	assert.Len(t, codes, BackupCodeCount)

	seen := make(map[string]bool)
	for _, c := range codes {
		assert.Len(t, c, BackupCodeLength)
		assert.False(t, seen[c], "duplicate backup code generated")
		seen[c] = true
	}
}

func TestConsumeBackupCodeRemovesUsedCode(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	hashed := make([]string, len(codes))
	for i, c := range codes {
		hashed[i] = HashBackupCode(c)
	}

	remaining, ok := ConsumeBackupCode(hashed, codes[2])
	require.True(t, ok)
	assert.Len(t, remaining, len(codes)-1)

	_, ok = ConsumeBackupCode(remaining, codes[2])
	assert.False(t, ok)
}

func TestConsumeBackupCodeRejectsUnknownCode(t *testing.T) {
	hashed := []string{HashBackupCode("AAAAAAAA")}
	_, ok := ConsumeBackupCode(hashed, "ZZZZZZZZ")
	assert.False(t, ok)
}

func TestHashBackupCodeNormalizesDashAndCase(t *testing.T) {
	assert.Equal(t, HashBackupCode("ABCD1234"), HashBackupCode("abcd-1234"))
	assert.Equal(t, HashBackupCode("ABCD1234"), HashBackupCode(FormatBackupCode("ABCD1234")))
}

func TestFormatBackupCodeInsertsDash(t *testing.T) {
	assert.Equal(t, "ABCD-1234", FormatBackupCode("ABCD1234"))
}
