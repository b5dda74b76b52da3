package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Warhawk 1-1", "warhawk11"},
		{"  ENFIELD_2 ", "enfield2"},
		{"Über-1", "ber1"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "input %q", tt.in)
	}
}

func TestContainsNormalized(t *testing.T) {
	assert.True(t, ContainsNormalized("Warhawk 1-1 | F-16C", "warhawk11"))
	assert.False(t, ContainsNormalized("Warhawk 1-2", "warhawk11"))
	assert.False(t, ContainsNormalized("anything", ""))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "cap add viper bulls 320 for 40", CollapseSpaces("  cap  add\tviper bulls 320   for 40 \n"))
	assert.Equal(t, "", CollapseSpaces("   "))
}

func TestTrimSeparators(t *testing.T) {
	assert.Equal(t, "Warhawk 1-1", TrimSeparators(" Warhawk 1-1, "))
}
