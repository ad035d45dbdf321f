package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	userModels "rentmarket/internal/user/models"
)

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Ana Souza", (&IdentitySession{FullName: " Ana Souza ", Name: "ana", Email: "a@x.io"}).DisplayName())
	assert.Equal(t, "ana", (&IdentitySession{Name: "ana", Email: "a@x.io"}).DisplayName())
	assert.Equal(t, "maria.lima", (&IdentitySession{Email: "maria.lima@example.com"}).DisplayName())
}

func TestAvatarFallback(t *testing.T) {
	assert.Equal(t, "https://cdn/x.png", (&IdentitySession{AvatarURL: "https://cdn/x.png"}).Avatar())
	assert.Equal(t, userModels.PlaceholderAvatar("b@x.io"), (&IdentitySession{Email: "b@x.io"}).Avatar())
}

func TestCloneDetachesUser(t *testing.T) {
	orig := &Resolution{State: StateResolved, User: &userModels.User{ID: "u1", Role: userModels.RoleClient}}
	cp := orig.Clone()
	cp.User.Role = userModels.RoleAdmin

	assert.Equal(t, userModels.RoleClient, orig.User.Role)
	assert.True(t, cp.Authenticated())
	assert.False(t, (&Resolution{State: StateUnauthenticated}).Authenticated())
}
