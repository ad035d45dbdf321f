package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniqueNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil stays nil", input: nil, expected: nil},
		{name: "empty list", input: []string{}, expected: []string{}},
		{
			name:     "pasted urls lose surrounding whitespace",
			input:    []string{" https://img.example/front.jpg\n", "\thttps://img.example/kitchen.jpg"},
			expected: []string{"https://img.example/front.jpg", "https://img.example/kitchen.jpg"},
		},
		{
			name: "repeated upload keeps first position",
			input: []string{
				"https://img.example/a.jpg", "https://img.example/b.jpg", " https://img.example/a.jpg",
			},
			expected: []string{"https://img.example/a.jpg", "https://img.example/b.jpg"},
		},
		{
			name:     "blank form rows are dropped",
			input:    []string{"", "   ", "https://img.example/a.jpg"},
			expected: []string{"https://img.example/a.jpg"},
		},
		{
			name:     "paths differing in case are distinct images",
			input:    []string{"https://img.example/Room.jpg", "https://img.example/room.jpg"},
			expected: []string{"https://img.example/Room.jpg", "https://img.example/room.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UniqueNonEmpty(tt.input))
		})
	}
}
