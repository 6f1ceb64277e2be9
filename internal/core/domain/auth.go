package domain

import "time"

// APIKey authenticates a management caller. UserID and AccountID name the
// acting identity that seeds the per-request call context.
type APIKey struct {
	TokenHash string
	Name      string
	UserID    int64
	AccountID int64
	Active    bool
	CreatedAt time.Time
}
