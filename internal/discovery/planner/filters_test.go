package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlacklisted(t *testing.T) {
	cases := map[string]bool{
		"login":       true,
		"jquery":      true,
		"ab":          true, // too short
		"DVWA Secure": false,
		"JuiceShop":   false,
		"bootstrap":   true,
	}

	for value, want := range cases {
		assert.Equal(t, want, isBlacklisted(value), "value=%q", value)
	}
}
