package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingVerification tracks one issued OTP code per user. It lives in the
// verification store, not the relational database; register and resend
// replace the record wholesale, so the newest code is the only one that ever
// validates.
type PendingVerification struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

func (p *PendingVerification) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
