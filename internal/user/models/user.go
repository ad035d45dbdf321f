package models

import (
	"net/url"
	"strings"
	"time"

	dErrors "rentmarket/pkg/domain-errors"
)

// Role is the actor's marketplace role.
type Role string

const (
	RoleClient     Role = "client"
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleClient, RoleOwner, RoleAdmin, RoleSuperAdmin:
		return r, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
}

// IsStaff reports whether the role moderates listings.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// SelfAssignable reports whether a registering user may request the role.
func (r Role) SelfAssignable() bool {
	return r == RoleClient || r == RoleOwner
}

// User is a local marketplace profile keyed by the identity-provider subject.
//
// Invariants:
//   - ID equals the provider subject id and never changes
//   - Email is unique across profiles
//   - Users are never hard-deleted here
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial profile mutation; nil fields are left untouched.
type ProfileUpdate struct {
	Name   *string
	Avatar *string
	Role   *Role
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.Avatar == nil && u.Role == nil
}

// Apply mutates user in place.
func (u ProfileUpdate) Apply(user *User, now time.Time) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	user.UpdatedAt = now
}

const placeholderAvatarBase = "https://api.dicebear.com/7.x/initials/svg?seed="

// PlaceholderAvatar derives a stable generated avatar from an email.
func PlaceholderAvatar(email string) string {
	return placeholderAvatarBase + url.QueryEscape(email)
}

// NameFromEmail returns the local part of an email, or the whole string
// when there is no '@'.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
