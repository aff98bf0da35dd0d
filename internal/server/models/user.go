// Package models contains the records persisted by the key service.
package models

import "time"

// User is a registered account. Email is unique and compared case-sensitively.
type User struct {
	ID             int64
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
}
