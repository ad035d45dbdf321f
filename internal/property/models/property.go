package models

import (
	"time"

	"rentmarket/internal/rating"
)

// Status is the moderation state of a listing.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusSuspended
}

// Property is a rental listing.
//
// Invariants:
//   - Rating is the mean of exactly ReviewCount votes in [1,5]
//   - ReviewCount never decreases
//   - ImageURLs holds 1 to 10 entries
type Property struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	Price       int64     `json:"price"`
	Bedrooms    int       `json:"bedrooms"`
	Bathrooms   int       `json:"bathrooms"`
	Area        int       `json:"area"`
	Status      Status    `json:"status"`
	IsOccupied  bool      `json:"is_occupied"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Property) Score() rating.Score {
	return rating.Score{Rating: p.Rating, Count: p.ReviewCount}
}

func (p *Property) SetScore(s rating.Score) {
	p.Rating = s.Rating
	p.ReviewCount = s.Count
}

// Clone returns a deep copy.
func (p *Property) Clone() *Property {
	cp := *p
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	return &cp
}
