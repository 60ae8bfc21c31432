package event

import "time"

// SessionAuditDestination is the topic/subject session audit events go to.
const SessionAuditDestination string = "gateway_session_audit"

const (
	SessionCreated string = "session_created"
	SessionDeleted string = "session_deleted"
	LoginFailed    string = "login_failed"
)

// SessionAuditMessage never carries passwords, OTP secrets or raw tokens.
type SessionAuditMessage struct {
	Type             string    `json:"type"`
	Email            string    `json:"email,omitempty"`
	TokenFingerprint string    `json:"token_fingerprint,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
