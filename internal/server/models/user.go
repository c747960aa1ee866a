// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash holds an argon2id PHC string,
// never the password itself.
type User struct {
	ID           int64
	UserName     string
	PasswordHash string
	CreatedAt    time.Time
}
