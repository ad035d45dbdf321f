package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "rentmarket/pkg/domain-errors"
)

func ptr(s string) *string { return &s }

func TestUpdateProfileRequestValidate(t *testing.T) {
	cases := []struct {
		name  string
		req   UpdateProfileRequest
		valid bool
	}{
		{"name only", UpdateProfileRequest{Name: ptr("  Ana  ")}, true},
		{"avatar only", UpdateProfileRequest{Avatar: ptr("https://cdn.example.com/a.png")}, true},
		{"clear avatar", UpdateProfileRequest{Avatar: ptr("")}, true},
		{"empty body", UpdateProfileRequest{}, false},
		{"blank name", UpdateProfileRequest{Name: ptr("   ")}, false},
		{"relative avatar", UpdateProfileRequest{Avatar: ptr("/a.png")}, false},
		{"ftp avatar", UpdateProfileRequest{Avatar: ptr("ftp://host/a.png")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.Normalize()
			err := tc.req.Validate()
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestUpdateProfileRequestNormalizeTrims(t *testing.T) {
	req := UpdateProfileRequest{Name: ptr("  Ana  ")}
	req.Normalize()
	update := req.ToUpdate()
	assert.Equal(t, "Ana", *update.Name)
	assert.Nil(t, update.Role)
}
