package models

import "time"

// Subscription is the platform-wide singleton gating non-privileged logins.
type Subscription struct {
	Active     bool      `bson:"active" json:"active"`
	Expiration time.Time `bson:"expiration" json:"expiration"`
}

func (s Subscription) ExpiredAt(now time.Time) bool {
	return now.After(s.Expiration)
}
