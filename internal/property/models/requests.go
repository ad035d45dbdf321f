package models

import (
	"strings"

	dErrors "rentmarket/pkg/domain-errors"
	pstrings "rentmarket/pkg/platform/strings"
)

const (
	MinImages = 1
	MaxImages = 10
)

// CreateRequest is the payload for publishing a listing.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Price       int64    `json:"price"`
	Bedrooms    int      `json:"bedrooms"`
	Bathrooms   int      `json:"bathrooms"`
	Area        int      `json:"area"`
	ImageURLs   []string `json:"image_urls"`
}

func (r *CreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.ImageURLs = pstrings.UniqueNonEmpty(r.ImageURLs)
}

func (r *CreateRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location is required")
	}
	if err := validateNumbers(r.Price, r.Bedrooms, r.Bathrooms, r.Area); err != nil {
		return err
	}
	return validateImages(r.ImageURLs)
}

// UpdateRequest edits a listing; nil fields are left untouched.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Price       *int64    `json:"price,omitempty"`
	Bedrooms    *int      `json:"bedrooms,omitempty"`
	Bathrooms   *int      `json:"bathrooms,omitempty"`
	Area        *int      `json:"area,omitempty"`
	ImageURLs   *[]string `json:"image_urls,omitempty"`
}

func (r *UpdateRequest) Normalize() {
	for _, f := range []*string{r.Title, r.Description, r.Location} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	if r.ImageURLs != nil {
		urls := pstrings.UniqueNonEmpty(*r.ImageURLs)
		r.ImageURLs = &urls
	}
}

func (r *UpdateRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title must not be empty")
	}
	if r.Location != nil && *r.Location == "" {
		return dErrors.New(dErrors.CodeValidation, "location must not be empty")
	}
	if err := validateNumbers(deref(r.Price), deref(r.Bedrooms), deref(r.Bathrooms), deref(r.Area)); err != nil {
		return err
	}
	if r.ImageURLs != nil {
		return validateImages(*r.ImageURLs)
	}
	return nil
}

// Apply copies the set fields onto p.
func (r *UpdateRequest) Apply(p *Property) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Location != nil {
		p.Location = *r.Location
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Bedrooms != nil {
		p.Bedrooms = *r.Bedrooms
	}
	if r.Bathrooms != nil {
		p.Bathrooms = *r.Bathrooms
	}
	if r.Area != nil {
		p.Area = *r.Area
	}
	if r.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), (*r.ImageURLs)...)
	}
}

func deref[T int | int64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}

func validateNumbers(price int64, bedrooms, bathrooms, area int) error {
	if price < 0 || bedrooms < 0 || bathrooms < 0 || area < 0 {
		return dErrors.New(dErrors.CodeValidation, "price, bedrooms, bathrooms and area must not be negative")
	}
	return nil
}

func validateImages(urls []string) error {
	if len(urls) < MinImages || len(urls) > MaxImages {
		return dErrors.New(dErrors.CodeValidation, "a listing needs between 1 and 10 images")
	}
	return nil
}
