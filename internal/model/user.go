// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Password holds the bcrypt hash, never the plaintext. The `json:"-"` tag
// keeps it out of every API response, including /get-user which returns the
// whole record.
//
// Email is unique: the service checks before inserting and the users table
// carries a UNIQUE constraint so two concurrent registrations cannot both win.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
