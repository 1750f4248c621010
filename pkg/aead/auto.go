package aead

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Algorithm names for the master-key-keyed encryption path
// (MasterKey.EncryptData/DecryptData). The per-share envelope in
// pkg/sharing always uses AES-256-GCM regardless of this selection, since
// spec.md §4.5 pins the share envelope's algorithm.
const (
	AlgorithmAES256GCM         = "aes256-gcm"
	AlgorithmChaCha20Poly1305 = "chacha20-poly1305"
)

// HasAESNI reports whether the CPU has hardware AES acceleration.
func HasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAES
	case "arm64":
		return cpu.ARM64.HasAES
	default:
		return false
	}
}

// SelectOptimal picks AES-256-GCM when the CPU has AES-NI and
// ChaCha20-Poly1305 otherwise, so software-only encryption of application
// data (MasterKey.EncryptData) doesn't pay AES's software fallback cost.
func SelectOptimal() string {
	if HasAESNI() {
		return AlgorithmAES256GCM
	}
	return AlgorithmChaCha20Poly1305
}
