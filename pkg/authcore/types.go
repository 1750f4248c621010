package authcore

import (
	"time"

	"github.com/jeremyhahn/zkauth/pkg/backendref"
	"github.com/jeremyhahn/zkauth/pkg/masterkey"
)

// RegisterResult is returned by AuthCore.Register on success.
type RegisterResult struct {
	UserID        string
	MasterKeyHash string
	Threshold     int
	TotalShares   int
	Shares        []backendref.EncryptedShare
}

// LoginResult is returned by AuthCore.Login on success.
type LoginResult struct {
	UserID     string
	Email      string
	MasterKey  *masterkey.MasterKey
	SharesUsed int
	Backends   []string
}

// Session is a short-lived, signed credential issued by CreateSession
// after a successful Login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// AuditOutcome classifies a RegistrationAudit entry.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

// RegistrationAudit records the outcome of a single Register or Login
// call, kept in AuthCore's in-process ring buffer and exposed via
// AuditLog for callers that want to surface recent activity without
// standing up a separate logging pipeline.
type RegistrationAudit struct {
	Operation string
	UserID    string
	Outcome   AuditOutcome
	Detail    string
	At        time.Time
}
