// Package identity carries the authenticated user's cloud identity.
//
// The identity is an explicit value passed into every sync call, so an
// unauthenticated caller fails input validation instead of discovering the
// problem mid-transfer.
package identity

import "github.com/nextserve/oralvis-sync/pkg/config"

// Identity is the authenticated user as known to the remote store.
// UserID scopes the remote namespace; Token proves the session is live.
type Identity struct {
	UserID string
	Token  string
}

// Valid reports whether the identity can be used for remote operations.
func (id Identity) Valid() bool {
	return id.UserID != "" && id.Token != ""
}

// FromConfig builds an Identity from saved device configuration.
func FromConfig(cfg *config.Config) Identity {
	return Identity{
		UserID: cfg.UserID,
		Token:  cfg.Token,
	}
}
