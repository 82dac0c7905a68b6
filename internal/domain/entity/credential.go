package entity

import "time"

// Credential is the bearer token issued by /api/login plus the claims we could read from it.
type Credential struct {
	Token     string    `json:"-"`
	Username  string    `json:"username,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token carries an expiry that is already in the past.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
