package models

import (
	"strings"

	userModels "rentmarket/internal/user/models"
)

// IdentitySession is the verified view of an identity-provider session.
type IdentitySession struct {
	SubjectID string
	Email     string
	FullName  string
	Name      string
	AvatarURL string
}

// DisplayName prefers provider metadata and falls back to the email local part.
func (s *IdentitySession) DisplayName() string {
	for _, candidate := range []string{s.FullName, s.Name} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c
		}
	}
	return userModels.NameFromEmail(s.Email)
}

// Avatar returns the provider avatar or a placeholder derived from the email.
func (s *IdentitySession) Avatar() string {
	if a := strings.TrimSpace(s.AvatarURL); a != "" {
		return a
	}
	return userModels.PlaceholderAvatar(s.Email)
}

// State is the terminal state of one resolution.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateResolved        State = "resolved"
)

// Resolution is the outcome of mapping a session onto a local profile.
//
// Persisted is false only when the profile was built in memory because the
// store rejected the create; CreateErr then carries the reason.
type Resolution struct {
	State     State
	User      *userModels.User
	Created   bool
	Persisted bool
	CreateErr error
}

// Authenticated reports whether the resolution produced a usable profile.
func (r *Resolution) Authenticated() bool {
	return r != nil && r.State == StateResolved && r.User != nil
}

// Clone returns a copy whose User can be mutated independently.
func (r *Resolution) Clone() *Resolution {
	if r == nil {
		return nil
	}
	out := *r
	if r.User != nil {
		u := *r.User
		out.User = &u
	}
	return &out
}
