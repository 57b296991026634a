package model

import "time"

// User is identified by email address. The feed core only ever reads
// users — account lifecycle is handled by a separate flow.
type User struct {
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
