package domain

import "time"

// Operator is a console user allowed to open a session.
type Operator struct {
	Email        string
	Name         string
	PasswordHash string
}

// Session is the process-wide login flag of one operator.
type Session struct {
	ID        string
	Operator  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionEventType differentiates session notifications.
type SessionEventType string

const (
	SessionStarted     SessionEventType = "STARTED"
	SessionInvalidated SessionEventType = "INVALIDATED"
)

// SessionEvent is delivered to every subscriber of the session gate.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"session_id"`
}
