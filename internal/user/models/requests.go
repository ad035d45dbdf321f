package models

import (
	"net/url"
	"strings"

	dErrors "rentmarket/pkg/domain-errors"
)

const maxNameLength = 120

// UpdateProfileRequest is the body of PATCH /me. Role is not editable here.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

func (r *UpdateProfileRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Avatar != nil {
		a := strings.TrimSpace(*r.Avatar)
		r.Avatar = &a
	}
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Name == nil && r.Avatar == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	if r.Name != nil {
		if *r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name must not be empty")
		}
		if len(*r.Name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name is too long")
		}
	}
	if r.Avatar != nil && *r.Avatar != "" {
		u, err := url.Parse(*r.Avatar)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return dErrors.New(dErrors.CodeValidation, "avatar must be an http(s) URL")
		}
	}
	return nil
}

// ToUpdate converts a validated request into a store update.
func (r *UpdateProfileRequest) ToUpdate() ProfileUpdate {
	return ProfileUpdate{Name: r.Name, Avatar: r.Avatar}
}
