// Package model defines the data structures used throughout the application.
// Structs only — behavior lives in the service layer, persistence in the
// repository layer.
package model

import "time"

// Feed is a food-review post. It holds non-owning references to the user
// who wrote it (by email) and the place it reviews (by external place id).
//
// Title, UserEmail, PlaceID and FilePath are set at creation and never
// change afterwards; only Content and Score are mutable through updates.
type Feed struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Score     int       `json:"score"`
	Content   string    `json:"content"`
	FilePath  string    `json:"filePath"`
	UserEmail string    `json:"userEmail"`
	PlaceID   string    `json:"placeId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
