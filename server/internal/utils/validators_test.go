package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidParticipantID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"abc123", true},
		{"P_01-x", true},
		{strings.Repeat("a", MaxParticipantIDLength), true},
		{"", false},
		{strings.Repeat("a", MaxParticipantIDLength+1), false},
		{"../etc", false},
		{"a/b", false},
		{"with space", false},
		{"ação", false},
		{"id.json", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidParticipantID(tt.id), "id %q", tt.id)
	}
}
