// Package auth manages admin accounts and the tokens that guard internal
// endpoints.
package auth

import "time"

// Admin is an operator account. PasswordHash is a bcrypt hash; the plain
// password never persists.
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
