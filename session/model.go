package session

import (
	"time"

	"github.com/mostafamohamed123hf/menugate/permission"
)

// Role is the coarse account classification carried by a session record.
type Role string

const (
	// RoleAdministrator grants the full admin surface.
	RoleAdministrator Role = "administrator"
	// RoleScoped marks an account whose surface is limited to its
	// permission set.
	RoleScoped Role = "scoped-role-holder"
)

// Record is the persisted authenticated identity. JSON field names are a
// fixed cross-system contract; do not rename them.
type Record struct {
	UserID      string         `json:"userId"`
	DisplayName string         `json:"displayName"`
	Role        Role           `json:"role"`
	Permissions permission.Set `json:"permissions"`
	IsLoggedIn  bool           `json:"isLoggedIn"`
	LoginTime   time.Time      `json:"loginTime"`
	ExpiresAt   time.Time      `json:"expiresAt"`
	Token       string         `json:"token"`
}

// Expired reports whether the record's credential lifetime has passed at now.
// A zero ExpiresAt counts as expired.
func (r *Record) Expired(now time.Time) bool {
	if r == nil {
		return true
	}
	return r.ExpiresAt.IsZero() || !now.Before(r.ExpiresAt)
}

// Clone returns an independent copy of r, including its permission set.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Permissions = r.Permissions.Clone()
	return &out
}
