// Package handoff carries the role a user picked at registration across the
// identity-provider redirect.
//
// Set returns an opaque token that travels with the OAuth state parameter.
// Consume reads and deletes the stored role in one step, so a token is good
// for exactly one resolution and never leaks into another signup.
package handoff

import (
	"time"

	"github.com/google/uuid"

	userModels "rentmarket/internal/user/models"
	dErrors "rentmarket/pkg/domain-errors"
)

const DefaultTTL = 15 * time.Minute

func validateRole(role userModels.Role) error {
	if !role.SelfAssignable() {
		return dErrors.New(dErrors.CodeValidation, "role cannot be requested at registration")
	}
	return nil
}

func newToken() string {
	return uuid.NewString()
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
