// Package guard decides whether a user is currently blocked by an admin ban.
package guard

import "time"

const (
	// Tolerance trims the end of every ban window so that a ban lifted a
	// moment ago is not reported as active.
	Tolerance = time.Second
	// ReactivationGrace suppresses blocking right after an admin reactivates
	// a user, while older ban state may still be visible.
	ReactivationGrace = 5 * time.Second
)

// Ban is one ban window. A nil Start means "since forever", a nil End
// means "until lifted".
type Ban struct {
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// Active reports whether the ban applies at now.
func (b Ban) Active(now time.Time) bool {
	if b.Start != nil && b.Start.After(now) {
		return false
	}
	if b.End != nil && now.After(b.End.Add(-Tolerance)) {
		return false
	}
	return true
}

// User holds the admin and ban flags for one end user.
type User struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email,omitempty"`
	Admin         bool       `json:"admin"`
	Banned        bool       `json:"banned"`
	Bans          []Ban      `json:"bans,omitempty"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
}

// Blocked reports whether u must be denied service at now.
func Blocked(u User, now time.Time) bool {
	if u.ReactivatedAt != nil && now.Sub(*u.ReactivatedAt) < ReactivationGrace {
		return false
	}
	if u.Banned {
		return true
	}
	for _, b := range u.Bans {
		if b.Active(now) {
			return true
		}
	}
	return false
}

// Reactivate clears every ban and stamps the reactivation time.
func Reactivate(u User, now time.Time) User {
	u.Banned = false
	u.Bans = nil
	u.ReactivatedAt = &now
	return u
}
