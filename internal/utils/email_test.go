package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmailAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@example.com", "alice@example.com"},
		{"ALICE@Example.COM", "alice@example.com"},
		{"  alice@example.com  ", "alice@example.com"},
		{"Alice Smith <alice@example.com>", "alice@example.com"},
		{"\"Smith, Alice\" <ALICE@example.com>", "alice@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmailAddress(tt.in), tt.in)
	}
}
