package twofactor

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// BackupCodeCount is the number of one-time backup codes issued on
// enrollment.
const BackupCodeCount = 8

// BackupCodeLength is the number of characters in each backup code.
const BackupCodeLength = 8

const backupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateBackupCodes returns BackupCodeCount fresh, uppercase
// alphanumeric backup codes, excluding visually ambiguous characters
// (0/O, 1/I).
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, BackupCodeCount)
	for i := range codes {
		code, err := randomCode(BackupCodeLength)
		if err != nil {
			return nil, fmt.Errorf("twofactor: failed to generate backup code: %w", err)
		}
		codes[i] = code
	}
	return codes, nil
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i, b := range buf {
		out[i] = backupCodeAlphabet[int(b)%len(backupCodeAlphabet)]
	}
	return string(out), nil
}

// normalize strips every non-alphanumeric character from code and
// uppercases what remains, so a code displayed with a separating dash
// (e.g. "ABCD-1234") hashes the same as the plain 8-character form it was
// generated as.
func normalize(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		}
	}
	return b.String()
}

// HashBackupCode returns sha256(normalize(code)) as lowercase hex, the
// form backup codes are persisted in so a storage compromise doesn't
// disclose usable codes.
func HashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(normalize(code)))
	return hex.EncodeToString(sum[:])
}

// FormatBackupCode inserts the display dash after the fourth character
// of a freshly generated code, e.g. "ABCD1234" -> "ABCD-1234". The dash
// is cosmetic only; normalize strips it back out before hashing.
func FormatBackupCode(code string) string {
	if len(code) != BackupCodeLength {
		return code
	}
	return code[:4] + "-" + code[4:]
}

// ConsumeBackupCode finds and removes code's hash from hashed, returning
// the updated slice and whether a match was found. Each backup code is
// usable exactly once.
func ConsumeBackupCode(hashed []string, code string) ([]string, bool) {
	target := []byte(HashBackupCode(code))
	for i, h := range hashed {
		if hmac.Equal([]byte(h), target) {
			return append(append([]string{}, hashed[:i]...), hashed[i+1:]...), true
		}
	}
	return hashed, false
}
