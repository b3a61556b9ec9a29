package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "simple title", in: "The Pragmatic Programmer", max: 50, want: "the-pragmatic-programmer"},
		{name: "punctuation dropped", in: "Atomic Habits: An Easy & Proven Way", max: 50, want: "atomic-habits-an-easy-proven-way"},
		{name: "truncated at boundary", in: "a very long title that keeps going", max: 10, want: "a-very-lon"},
		{name: "leading and trailing junk", in: "  --Hello--  ", max: 50, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in, tt.max))
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeFilename(`a/b\c`))
	assert.Equal(t, "notes", SanitizeFilename("  notes  "))
	assert.Equal(t, "q a", SanitizeFilename(`q?*a`))
}
