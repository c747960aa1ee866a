package models

import "time"

// Website is a bookmark owned by exactly one user.
type Website struct {
	ID        int64
	UserID    int64
	Name      string
	URL       string
	CreatedAt time.Time
}
