package model

import "time"

// Place is a location record sourced from an external mapping provider.
// ID is the provider's place identifier. A place must exist (and have a
// non-empty name and address) before a feed can reference it.
type Place struct {
	ID          string    `json:"id"`
	PlaceName   string    `json:"placeName"`
	AddressName string    `json:"addressName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
