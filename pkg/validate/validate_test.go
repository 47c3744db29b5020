package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"first.last+tag@example.org", true},
		{"user@localhost", true},
		{"bad-email", false},
		{"a@", false},
		{"@b.com", false},
		{"a@b@c", false},
		{"a b@c.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, Email(tt.email))
		})
	}
}

func TestRequired(t *testing.T) {
	assert.True(t, Required("x"))
	assert.False(t, Required("  \t"))
	assert.False(t, Required(""))
}

func TestPassword(t *testing.T) {
	assert.True(t, Password("pw"))
	assert.True(t, Password(strings.Repeat("x", MaxPasswordBytes)))
	assert.False(t, Password(strings.Repeat("x", MaxPasswordBytes+1)))
	// multi-byte runes count by bytes
	assert.False(t, Password(strings.Repeat("ж", 37)))
}
